package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"apcsp-quiz/internal/logger"
	"apcsp-quiz/internal/models"
	"apcsp-quiz/internal/repository/memstore"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if ok {
		c.hits++
	}
	return v, ok
}

func (c *mapCache) Put(_ context.Context, key string, value []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

type countingStore struct {
	*memstore.QuestionStore
	finds, stats int
}

func (s *countingStore) Find(ctx context.Context, f models.QuestionFilter) ([]models.Question, error) {
	s.finds++
	return s.QuestionStore.Find(ctx, f)
}

func (s *countingStore) Stats(ctx context.Context) (*models.BankStats, error) {
	s.stats++
	return s.QuestionStore.Stats(ctx)
}

func newQuestion(text string, bigIdea models.BigIdea) *models.Question {
	return &models.Question{
		QuestionText:  text,
		Options:       []string{"a", "b", "c", "d"},
		CorrectAnswer: 1,
		BigIdea:       bigIdea,
		QuestionType:  models.TypeAlgorithm,
		Difficulty:    models.DifficultyMedium,
	}
}

func newTestService() (*QuestionService, *countingStore, *mapCache) {
	store := &countingStore{QuestionStore: memstore.NewQuestionStore()}
	c := newMapCache()
	return NewQuestionService(store, c, logger.Nop()), store, c
}

func TestCreateQuestion(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	q := newQuestion("What is a variable?", 3)
	q.IsActive = false
	q.Metadata.GeneratedBy = models.GeneratedByAI
	if err := svc.CreateQuestion(ctx, q); err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	if q.ID == "" {
		t.Fatal("id not assigned")
	}
	got, err := svc.GetQuestion(ctx, q.ID)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if !got.IsActive || got.Metadata.GeneratedBy != models.GeneratedByManual || got.Points != 2 {
		t.Errorf("stored question = active %v by %q points %d", got.IsActive, got.Metadata.GeneratedBy, got.Points)
	}

	bad := newQuestion("Too few options", 3)
	bad.Options = bad.Options[:3]
	if err := svc.CreateQuestion(ctx, bad); !errors.Is(err, models.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.GetQuestion(ctx, "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListQuestionsUsesCache(t *testing.T) {
	svc, store, c := newTestService()
	ctx := context.Background()
	for _, text := range []string{"one", "two"} {
		if err := svc.CreateQuestion(ctx, newQuestion(text, 1)); err != nil {
			t.Fatalf("CreateQuestion: %v", err)
		}
	}

	filter := models.QuestionFilter{ActiveOnly: true}
	first, err := svc.ListQuestions(ctx, filter)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	second, err := svc.ListQuestions(ctx, filter)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("listed %d then %d questions, want 2", len(first), len(second))
	}
	if store.finds != 1 || c.hits != 1 {
		t.Errorf("store finds = %d, cache hits = %d; want 1 and 1", store.finds, c.hits)
	}

	if err := svc.CreateQuestion(ctx, newQuestion("three", 1)); err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	third, err := svc.ListQuestions(ctx, filter)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(third) != 3 || store.finds != 2 {
		t.Errorf("after a write: %d questions with %d finds, want 3 and 2", len(third), store.finds)
	}
}

func TestBankStatsCachedAndInvalidated(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	q := newQuestion("stat me", 2)
	if err := svc.CreateQuestion(ctx, q); err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}

	for i := 0; i < 2; i++ {
		stats, err := svc.BankStats(ctx)
		if err != nil {
			t.Fatalf("BankStats: %v", err)
		}
		if stats.TotalActive != 1 || stats.ByBigIdea[2] != 1 {
			t.Errorf("stats = %+v", stats)
		}
	}
	if store.stats != 1 {
		t.Errorf("store stats computed %d times, want 1", store.stats)
	}

	if err := svc.DeactivateQuestion(ctx, q.ID); err != nil {
		t.Fatalf("DeactivateQuestion: %v", err)
	}
	stats, err := svc.BankStats(ctx)
	if err != nil {
		t.Fatalf("BankStats: %v", err)
	}
	if stats.TotalActive != 0 || stats.TotalInactive != 1 {
		t.Errorf("after deactivation stats = %+v", stats)
	}
	if err := svc.DeactivateQuestion(ctx, "nope"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateQuestion(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	q := newQuestion("before", 4)
	if err := svc.CreateQuestion(ctx, q); err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}

	text := "after"
	updated, err := svc.UpdateQuestion(ctx, q.ID, &models.QuestionPatch{QuestionText: &text})
	if err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}
	if updated.QuestionText != "after" {
		t.Errorf("text = %q", updated.QuestionText)
	}

	bad := 7
	if _, err := svc.UpdateQuestion(ctx, q.ID, &models.QuestionPatch{CorrectAnswer: &bad}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestDiversityCleanup(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	texts := []string{"What is a loop?", "What is a list?", "  what IS a   loop? ", "What is a loop?"}
	var ids []string
	for i, text := range texts {
		now := base.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return now }
		q := newQuestion(text, 3)
		if err := svc.CreateQuestion(ctx, q); err != nil {
			t.Fatalf("CreateQuestion: %v", err)
		}
		ids = append(ids, q.ID)
	}

	result, err := svc.DiversityCleanup(ctx)
	if err != nil {
		t.Fatalf("DiversityCleanup: %v", err)
	}
	if result.Scanned != 4 || result.Duplicates != 2 || result.Deactivated != 2 {
		t.Errorf("result = %+v", result)
	}

	oldest, _ := svc.GetQuestion(ctx, ids[0])
	if !oldest.IsActive {
		t.Error("the oldest copy should stay active")
	}
	for _, id := range ids[2:] {
		q, _ := svc.GetQuestion(ctx, id)
		if q.IsActive {
			t.Errorf("duplicate %s still active", id)
		}
	}

	again, err := svc.DiversityCleanup(ctx)
	if err != nil {
		t.Fatalf("DiversityCleanup: %v", err)
	}
	if again.Duplicates != 0 {
		t.Errorf("second run found %d duplicates", again.Duplicates)
	}
}
