package memstore

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"apcsp-quiz/internal/models"
)

func question(id string, b models.BigIdea, active bool, tags ...string) models.Question {
	return models.Question{
		ID:           id,
		QuestionText: "text " + id,
		Options:      []string{"a", "b", "c", "d"},
		BigIdea:      b,
		QuestionType: models.TypeAlgorithm,
		Difficulty:   models.DifficultyEasy,
		Tags:         tags,
		IsActive:     active,
	}
}

func TestQuestionStoreFind(t *testing.T) {
	ctx := context.Background()
	s := NewQuestionStore(
		question("a", 1, true, "loops"),
		question("b", 1, false),
		question("c", 3, true, "robot-navigation"),
		question("d", 3, true),
	)

	tests := []struct {
		name   string
		filter models.QuestionFilter
		want   []string
	}{
		{"all", models.QuestionFilter{}, []string{"a", "b", "c", "d"}},
		{"active", models.QuestionFilter{ActiveOnly: true}, []string{"a", "c", "d"}},
		{"big idea", models.QuestionFilter{BigIdea: 3}, []string{"c", "d"}},
		{"tag", models.QuestionFilter{Tag: "robot-navigation"}, []string{"c"}},
		{"exclude", models.QuestionFilter{ActiveOnly: true, ExcludeIDs: []string{"a"}}, []string{"c", "d"}},
		{"page", models.QuestionFilter{Skip: 1, Limit: 2}, []string{"b", "c"}},
		{"skip past end", models.QuestionFilter{Skip: 9}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Find(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d questions, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("got[%d] = %s, want %s", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestQuestionStoreSample(t *testing.T) {
	ctx := context.Background()
	var bank []models.Question
	for i := 0; i < 50; i++ {
		bank = append(bank, question(fmt.Sprintf("q%02d", i), 1, true))
	}
	s := NewQuestionStore(bank...)
	s.SetRand(rand.New(rand.NewSource(3)))

	ordered, _ := s.Find(ctx, models.QuestionFilter{Limit: 10, ExcludeIDs: []string{"q00"}})
	sampled, err := s.Find(ctx, models.QuestionFilter{Sample: true, Limit: 10, ExcludeIDs: []string{"q00"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(sampled) != 10 {
		t.Fatalf("sampled %d questions, want 10", len(sampled))
	}
	seen := map[string]bool{}
	same := true
	for i, q := range sampled {
		if q.ID == "q00" {
			t.Error("sample returned an excluded question")
		}
		if seen[q.ID] {
			t.Errorf("sample returned %s twice", q.ID)
		}
		seen[q.ID] = true
		if q.ID != ordered[i].ID {
			same = false
		}
	}
	if same {
		t.Error("sample returned the first questions in store order")
	}

	all, _ := s.Find(ctx, models.QuestionFilter{Sample: true, Limit: 500})
	if len(all) != 50 {
		t.Errorf("oversized sample returned %d questions, want 50", len(all))
	}
}

func TestQuestionStoreIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewQuestionStore(question("a", 1, true))

	q, err := s.FindByID(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	q.Options[0] = "changed"

	again, _ := s.FindByID(ctx, "a")
	if again.Options[0] != "a" {
		t.Error("caller mutation leaked into the store")
	}
	if _, err := s.FindByID(ctx, "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := s.Create(ctx, &models.Question{ID: "a"}); !errors.Is(err, models.ErrConflict) {
		t.Errorf("duplicate create err = %v, want ErrConflict", err)
	}
}

func TestQuestionStoreDeactivateAndStats(t *testing.T) {
	ctx := context.Background()
	s := NewQuestionStore(question("a", 1, true), question("b", 2, true), question("c", 2, false))

	n, err := s.Deactivate(ctx, []string{"a", "c", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("deactivated %d, want 1", n)
	}
	stats, _ := s.Stats(ctx)
	if stats.TotalActive != 1 || stats.TotalInactive != 2 {
		t.Errorf("active/inactive = %d/%d, want 1/2", stats.TotalActive, stats.TotalInactive)
	}
	if stats.ByBigIdea[2] != 1 {
		t.Errorf("big idea 2 count = %d, want 1", stats.ByBigIdea[2])
	}
}

func TestQuizStoreReplaceVersion(t *testing.T) {
	ctx := context.Background()
	s := NewQuizStore()
	quiz := &models.Quiz{Status: models.StatusActive}
	if err := s.Create(ctx, quiz); err != nil {
		t.Fatal(err)
	}
	if quiz.ID == "" {
		t.Fatal("create did not assign an id")
	}

	first, _ := s.FindByID(ctx, quiz.ID)
	second, _ := s.FindByID(ctx, quiz.ID)

	first.Status = models.StatusInProgress
	if err := s.Replace(ctx, first); err != nil {
		t.Fatal(err)
	}
	if first.Version != 1 {
		t.Errorf("version = %d, want 1", first.Version)
	}
	second.Status = models.StatusCompleted
	if err := s.Replace(ctx, second); !errors.Is(err, models.ErrStaleVersion) {
		t.Errorf("stale replace err = %v, want ErrStaleVersion", err)
	}
	stored, _ := s.FindByID(ctx, quiz.ID)
	if stored.Status != models.StatusInProgress {
		t.Errorf("status = %s, want %s", stored.Status, models.StatusInProgress)
	}
}

func TestQuizStoreMaintenance(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	old := now.Add(-100 * 24 * time.Hour)
	recent := now.Add(-time.Hour)

	s := NewQuizStore()
	quizzes := []*models.Quiz{
		{ID: "old-done", Status: models.StatusCompleted, CompletedAt: &old},
		{ID: "new-done", Status: models.StatusCompleted, CompletedAt: &recent},
		{ID: "expired", Status: models.StatusActive, ExpiresAt: &old},
		{ID: "stale", Status: models.StatusInProgress, InProgressBy: []models.InProgressEntry{{UserID: "u1", LastActivity: old}}},
		{ID: "busy", Status: models.StatusInProgress, InProgressBy: []models.InProgressEntry{{UserID: "u2", LastActivity: recent}}},
	}
	for _, q := range quizzes {
		if err := s.Create(ctx, q); err != nil {
			t.Fatal(err)
		}
	}

	cutoff := now.Add(-24 * time.Hour)
	if n, _ := s.ArchiveCompletedBefore(ctx, cutoff); n != 1 {
		t.Errorf("archived %d, want 1", n)
	}
	if q, _ := s.FindByID(ctx, "old-done"); q.Status != models.StatusArchived {
		t.Errorf("old-done status = %s", q.Status)
	}
	if n, _ := s.DeleteExpired(ctx, now); n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
	if _, err := s.FindByID(ctx, "expired"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expired quiz still present: %v", err)
	}
	stale, _ := s.FindStale(ctx, cutoff)
	if len(stale) != 1 || stale[0].ID != "stale" {
		t.Errorf("stale = %v, want [stale]", stale)
	}
	if n, _ := s.Count(ctx, models.QuizFilter{Statuses: []models.QuizStatus{models.StatusInProgress}, Limit: 1}); n != 2 {
		t.Errorf("in-progress count = %d, want 2", n)
	}
}
