// Package memstore holds in-process implementations of the question and quiz
// stores. They back the service when STORE_BACKEND=memory and serve as the
// store fakes in tests.
package memstore

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"apcsp-quiz/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type QuestionStore struct {
	mu        sync.RWMutex
	questions []models.Question
	index     map[string]int

	randMu sync.Mutex
	rand   *rand.Rand
}

func NewQuestionStore(seed ...models.Question) *QuestionStore {
	s := &QuestionStore{
		index: make(map[string]int),
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, q := range seed {
		_ = s.Create(context.Background(), &q)
	}
	return s
}

// SetRand replaces the source used for sampled finds.
func (s *QuestionStore) SetRand(r *rand.Rand) {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	s.rand = r
}

func (s *QuestionStore) Create(_ context.Context, q *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == "" {
		q.ID = primitive.NewObjectID().Hex()
	}
	if _, exists := s.index[q.ID]; exists {
		return fmt.Errorf("%w: question %s already exists", models.ErrConflict, q.ID)
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	s.index[q.ID] = len(s.questions)
	s.questions = append(s.questions, cloneQuestion(*q))
	return nil
}

func (s *QuestionStore) FindByID(_ context.Context, id string) (*models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("question %s: %w", id, models.ErrNotFound)
	}
	q := cloneQuestion(s.questions[i])
	return &q, nil
}

func (s *QuestionStore) FindByIDs(_ context.Context, ids []string) ([]models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		if i, ok := s.index[id]; ok {
			out = append(out, cloneQuestion(s.questions[i]))
		}
	}
	return out, nil
}

func (s *QuestionStore) Find(_ context.Context, f models.QuestionFilter) ([]models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exclude := make(map[string]bool, len(f.ExcludeIDs))
	for _, id := range f.ExcludeIDs {
		exclude[id] = true
	}

	var matched []models.Question
	for _, q := range s.questions {
		if exclude[q.ID] || !matchQuestion(&q, f) {
			continue
		}
		matched = append(matched, cloneQuestion(q))
	}
	if f.Sample {
		return s.sample(matched, f.Limit), nil
	}
	if f.SortNewest {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
	}
	return page(matched, f.Skip, f.Limit), nil
}

func (s *QuestionStore) Update(_ context.Context, id string, patch *models.QuestionPatch) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("question %s: %w", id, models.ErrNotFound)
	}
	q := cloneQuestion(s.questions[i])
	patch.Apply(&q)
	if err := q.Validate(); err != nil {
		return nil, err
	}
	q.UpdatedAt = time.Now()
	s.questions[i] = q
	out := cloneQuestion(q)
	return &out, nil
}

func (s *QuestionStore) Deactivate(_ context.Context, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if i, ok := s.index[id]; ok && s.questions[i].IsActive {
			s.questions[i].IsActive = false
			s.questions[i].UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

func (s *QuestionStore) IncrementUsage(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if i, ok := s.index[id]; ok {
			s.questions[i].Usage.TimesUsed++
		}
	}
	return nil
}

func (s *QuestionStore) Stats(_ context.Context) (*models.BankStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &models.BankStats{
		ByBigIdea:    map[models.BigIdea]int{},
		ByType:       map[models.QuestionType]int{},
		ByDifficulty: map[models.Difficulty]int{},
	}
	for _, q := range s.questions {
		if !q.IsActive {
			stats.TotalInactive++
			continue
		}
		stats.TotalActive++
		stats.ByBigIdea[q.BigIdea]++
		stats.ByType[q.QuestionType]++
		stats.ByDifficulty[q.Difficulty]++
	}
	return stats, nil
}

// sample moves a random pick of limit items to the front, Fisher-Yates
// style, and returns them. A non-positive limit shuffles everything.
func (s *QuestionStore) sample(items []models.Question, limit int64) []models.Question {
	n := len(items)
	if limit > 0 && limit < int64(n) {
		n = int(limit)
	}
	s.randMu.Lock()
	defer s.randMu.Unlock()
	for i := 0; i < n; i++ {
		j := i + s.rand.Intn(len(items)-i)
		items[i], items[j] = items[j], items[i]
	}
	return items[:n]
}

func matchQuestion(q *models.Question, f models.QuestionFilter) bool {
	switch {
	case f.ActiveOnly && !q.IsActive:
		return false
	case f.BigIdea != 0 && q.BigIdea != f.BigIdea:
		return false
	case f.QuestionType != "" && q.QuestionType != f.QuestionType:
		return false
	case f.Difficulty != "" && q.Difficulty != f.Difficulty:
		return false
	case f.Topic != "" && q.Topic != f.Topic:
		return false
	case f.Tag != "" && !q.HasTag(f.Tag):
		return false
	}
	return true
}

func cloneQuestion(q models.Question) models.Question {
	q.Options = append([]string(nil), q.Options...)
	q.Tags = append([]string(nil), q.Tags...)
	return q
}

func page[T any](items []T, skip, limit int64) []T {
	if skip > 0 {
		if skip >= int64(len(items)) {
			return nil
		}
		items = items[skip:]
	}
	if limit > 0 && limit < int64(len(items)) {
		items = items[:limit]
	}
	return items
}
