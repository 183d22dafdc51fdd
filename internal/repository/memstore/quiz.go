package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"apcsp-quiz/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type QuizStore struct {
	mu      sync.RWMutex
	order   []string
	quizzes map[string]models.Quiz
}

func NewQuizStore() *QuizStore {
	return &QuizStore{quizzes: make(map[string]models.Quiz)}
}

func (s *QuizStore) Create(_ context.Context, quiz *models.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quiz.ID == "" {
		quiz.ID = primitive.NewObjectID().Hex()
	}
	if _, exists := s.quizzes[quiz.ID]; exists {
		return fmt.Errorf("%w: quiz %s already exists", models.ErrConflict, quiz.ID)
	}
	s.quizzes[quiz.ID] = cloneQuiz(*quiz)
	s.order = append(s.order, quiz.ID)
	return nil
}

func (s *QuizStore) FindByID(_ context.Context, id string) (*models.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return nil, fmt.Errorf("quiz %s: %w", id, models.ErrNotFound)
	}
	out := cloneQuiz(quiz)
	return &out, nil
}

func (s *QuizStore) Find(_ context.Context, f models.QuizFilter) ([]models.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Quiz
	for _, id := range s.order {
		quiz, ok := s.quizzes[id]
		if !ok || !matchQuiz(&quiz, f) {
			continue
		}
		out = append(out, cloneQuiz(quiz))
	}
	return page(out, f.Skip, f.Limit), nil
}

func (s *QuizStore) Count(ctx context.Context, f models.QuizFilter) (int64, error) {
	f.Limit, f.Skip = 0, 0
	quizzes, err := s.Find(ctx, f)
	if err != nil {
		return 0, err
	}
	return int64(len(quizzes)), nil
}

// Replace stores quiz if its version still matches and bumps the version.
func (s *QuizStore) Replace(_ context.Context, quiz *models.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.quizzes[quiz.ID]
	if !ok {
		return fmt.Errorf("quiz %s: %w", quiz.ID, models.ErrNotFound)
	}
	if current.Version != quiz.Version {
		return models.ErrStaleVersion
	}
	quiz.Version++
	s.quizzes[quiz.ID] = cloneQuiz(*quiz)
	return nil
}

func (s *QuizStore) ArchiveCompletedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, quiz := range s.quizzes {
		if quiz.Status != models.StatusCompleted || quiz.CompletedAt == nil || !quiz.CompletedAt.Before(cutoff) {
			continue
		}
		quiz.Status = models.StatusArchived
		quiz.UpdatedAt = time.Now()
		quiz.Version++
		s.quizzes[id] = quiz
		n++
	}
	return n, nil
}

func (s *QuizStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	kept := s.order[:0]
	for _, id := range s.order {
		quiz := s.quizzes[id]
		if quiz.ExpiresAt != nil && quiz.ExpiresAt.Before(now) {
			delete(s.quizzes, id)
			n++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return n, nil
}

func (s *QuizStore) FindStale(_ context.Context, cutoff time.Time) ([]models.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Quiz
	for _, id := range s.order {
		quiz := s.quizzes[id]
		if quiz.Status != models.StatusInProgress {
			continue
		}
		for _, entry := range quiz.InProgressBy {
			if entry.LastActivity.Before(cutoff) {
				out = append(out, cloneQuiz(quiz))
				break
			}
		}
	}
	return out, nil
}

func matchQuiz(q *models.Quiz, f models.QuizFilter) bool {
	if f.Category != "" && q.Category != f.Category {
		return false
	}
	if f.Subcategory != "" && q.Subcategory != f.Subcategory {
		return false
	}
	if f.CreatedFor != "" && q.CreatedFor != f.CreatedFor {
		return false
	}
	if len(f.Statuses) > 0 {
		for _, status := range f.Statuses {
			if q.Status == status {
				return true
			}
		}
		return false
	}
	return true
}

func cloneQuiz(q models.Quiz) models.Quiz {
	q.QuestionIDs = append([]string(nil), q.QuestionIDs...)
	q.InProgressBy = append([]models.InProgressEntry(nil), q.InProgressBy...)
	for i := range q.InProgressBy {
		q.InProgressBy[i].Answers = cloneAnswers(q.InProgressBy[i].Answers)
		q.InProgressBy[i].TimeRemaining = cloneInt(q.InProgressBy[i].TimeRemaining)
	}
	q.CompletedBy = append([]models.CompletedEntry(nil), q.CompletedBy...)
	for i := range q.CompletedBy {
		q.CompletedBy[i].Answers = cloneAnswers(q.CompletedBy[i].Answers)
	}
	if q.CompletedAt != nil {
		t := *q.CompletedAt
		q.CompletedAt = &t
	}
	if q.ExpiresAt != nil {
		t := *q.ExpiresAt
		q.ExpiresAt = &t
	}
	return q
}

func cloneAnswers(in []models.Answer) []models.Answer {
	if in == nil {
		return nil
	}
	out := make([]models.Answer, len(in))
	for i, a := range in {
		a.ChosenAnswer = cloneInt(a.ChosenAnswer)
		out[i] = a
	}
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
