package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"apcsp-quiz/internal/cache"
	"apcsp-quiz/internal/logger"
	"apcsp-quiz/internal/models"
	"apcsp-quiz/internal/repository"
)

type QuestionService struct {
	Repo  repository.QuestionStore
	cache cache.Cache
	ttl   time.Duration
	log   *logger.Logger
	now   func() time.Time

	// generation is part of every cache key; writes bump it so stale reads
	// are never served by this instance.
	generation atomic.Int64
}

func NewQuestionService(repo repository.QuestionStore, c cache.Cache, log *logger.Logger) *QuestionService {
	if c == nil {
		c = cache.NoopCache{}
	}
	return &QuestionService{
		Repo:  repo,
		cache: c,
		ttl:   cache.DefaultTTL,
		log:   log,
		now:   time.Now,
	}
}

func (s *QuestionService) SetTTL(ttl time.Duration) { s.ttl = ttl }

// CleanupResult reports what DiversityCleanup deactivated.
type CleanupResult struct {
	Scanned     int      `json:"scanned"`
	Duplicates  int      `json:"duplicates"`
	Deactivated int64    `json:"deactivated"`
	IDs         []string `json:"ids"`
}

func (s *QuestionService) ListQuestions(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error) {
	filter.SortNewest = true
	key := s.listKey(filter)

	var cached []models.Question
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		return cached, nil
	}

	questions, err := s.Repo.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	if questions == nil {
		questions = []models.Question{}
	}
	cache.PutJSON(ctx, s.cache, key, questions, s.ttl)
	return questions, nil
}

func (s *QuestionService) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	return s.Repo.FindByID(ctx, id)
}

// CreateQuestion stores a hand-written question.
func (s *QuestionService) CreateQuestion(ctx context.Context, question *models.Question) error {
	question.ID = ""
	question.IsActive = true
	question.Usage = models.QuestionUsage{}
	question.Metadata = models.QuestionMetadata{
		GeneratedBy: models.GeneratedByManual,
		GeneratedAt: s.now(),
	}
	question.Tags = nonNilTags(question.Tags)
	question.EnsurePoints()
	if err := question.Validate(); err != nil {
		return err
	}
	now := s.now()
	question.CreatedAt = now
	question.UpdatedAt = now
	if err := s.Repo.Create(ctx, question); err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	s.invalidate()
	return nil
}

func (s *QuestionService) UpdateQuestion(ctx context.Context, id string, patch *models.QuestionPatch) (*models.Question, error) {
	updated, err := s.Repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate()
	return updated, nil
}

// DeactivateQuestion hides a question from selection without deleting it.
func (s *QuestionService) DeactivateQuestion(ctx context.Context, id string) error {
	if _, err := s.Repo.FindByID(ctx, id); err != nil {
		return err
	}
	if _, err := s.Repo.Deactivate(ctx, []string{id}); err != nil {
		return fmt.Errorf("failed to deactivate question %s: %w", id, err)
	}
	s.invalidate()
	return nil
}

func (s *QuestionService) BankStats(ctx context.Context) (*models.BankStats, error) {
	key := fmt.Sprintf("questions:stats:%d", s.generation.Load())

	var cached models.BankStats
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	stats, err := s.Repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute bank stats: %w", err)
	}
	cache.PutJSON(ctx, s.cache, key, stats, s.ttl)
	return stats, nil
}

// DiversityCleanup deactivates active questions whose normalized text repeats
// an older question. The oldest copy stays active.
func (s *QuestionService) DiversityCleanup(ctx context.Context) (*CleanupResult, error) {
	active, err := s.Repo.Find(ctx, models.QuestionFilter{ActiveOnly: true, SortNewest: true})
	if err != nil {
		return nil, fmt.Errorf("failed to load active questions: %w", err)
	}

	result := &CleanupResult{Scanned: len(active), IDs: []string{}}
	seen := make(map[string]bool, len(active))
	for i := len(active) - 1; i >= 0; i-- {
		key := active[i].NormalizedText()
		if seen[key] {
			result.IDs = append(result.IDs, active[i].ID)
			continue
		}
		seen[key] = true
	}
	result.Duplicates = len(result.IDs)
	if len(result.IDs) == 0 {
		return result, nil
	}

	n, err := s.Repo.Deactivate(ctx, result.IDs)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate duplicates: %w", err)
	}
	result.Deactivated = n
	s.invalidate()
	s.log.Info("diversity cleanup finished", "scanned", result.Scanned, "deactivated", n)
	return result, nil
}

func (s *QuestionService) invalidate() {
	s.generation.Add(1)
}

func (s *QuestionService) listKey(f models.QuestionFilter) string {
	return strings.Join([]string{
		"questions:list",
		fmt.Sprint(s.generation.Load()),
		fmt.Sprint(int(f.BigIdea)),
		string(f.QuestionType),
		string(f.Difficulty),
		f.Topic,
		f.Tag,
		fmt.Sprint(f.ActiveOnly),
		fmt.Sprint(f.Limit),
		fmt.Sprint(f.Skip),
	}, ":")
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
