package generator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"apcsp-quiz/internal/logger"
	"apcsp-quiz/internal/models"
	"apcsp-quiz/internal/repository/memstore"
	"apcsp-quiz/internal/selection"
)

func seedQuestions(n int) []models.Question {
	questions := make([]models.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, models.Question{
			ID:            fmt.Sprintf("q%03d", i),
			QuestionText:  fmt.Sprintf("Question %d", i),
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: i % 4,
			BigIdea:       models.BigIdeas[i%len(models.BigIdeas)],
			QuestionType:  models.QuestionTypes[i%len(models.QuestionTypes)],
			Difficulty:    models.Difficulties[i%len(models.Difficulties)],
			IsActive:      true,
		})
	}
	return questions
}

func newTestGenerator(n int) (*QuizGenerator, *memstore.QuestionStore, *memstore.QuizStore) {
	questions := memstore.NewQuestionStore(seedQuestions(n)...)
	quizzes := memstore.NewQuizStore()
	selector := selection.NewSelector(questions, rand.New(rand.NewSource(7)))
	return NewQuizGenerator(questions, quizzes, selector, nil, logger.Nop()), questions, quizzes
}

func TestGenerateRegularQuizEmptyBank(t *testing.T) {
	gen, _, quizzes := newTestGenerator(0)

	_, err := gen.GenerateRegularQuiz(context.Background(), models.QuizConfig{}, nil)
	if !errors.Is(err, models.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("ErrNoQuestions should be a validation error")
	}
	if n, _ := quizzes.Count(context.Background(), models.QuizFilter{}); n != 0 {
		t.Errorf("no quiz should be stored, found %d", n)
	}
}

func TestGenerateRegularQuizDefaults(t *testing.T) {
	ctx := context.Background()
	gen, questions, quizzes := newTestGenerator(60)

	generated, err := gen.GenerateRegularQuiz(ctx, models.QuizConfig{}, nil)
	if err != nil {
		t.Fatalf("GenerateRegularQuiz: %v", err)
	}
	quiz := generated.Quiz

	if quiz.TotalQuestions != DefaultQuestionCount || len(quiz.QuestionIDs) != DefaultQuestionCount {
		t.Errorf("quiz has %d/%d questions, want %d", quiz.TotalQuestions, len(quiz.QuestionIDs), DefaultQuestionCount)
	}
	if quiz.Status != models.StatusActive {
		t.Errorf("Status = %s, want active", quiz.Status)
	}
	if quiz.GeneratedBy != models.GeneratedBySystem {
		t.Errorf("GeneratedBy = %s", quiz.GeneratedBy)
	}
	if quiz.PassingScore != DefaultPassingScore || quiz.Difficulty != models.DifficultyMixed {
		t.Errorf("defaults not applied: passing=%d difficulty=%s", quiz.PassingScore, quiz.Difficulty)
	}
	if quiz.TimeLimit <= 0 {
		t.Errorf("TimeLimit = %d, want a positive estimate", quiz.TimeLimit)
	}
	if quiz.Title == "" || quiz.Description == "" {
		t.Error("title and description should be synthesized")
	}
	if got := selection.AxisSum(quiz.Metadata.Achieved.BigIdeas); got != quiz.TotalQuestions {
		t.Errorf("achieved big idea counts sum to %d, want %d", got, quiz.TotalQuestions)
	}
	if quiz.Metadata.Config.Category != models.CategoryPractice {
		t.Errorf("stored config category = %s", quiz.Metadata.Config.Category)
	}

	stored, err := quizzes.FindByID(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("quiz was not persisted: %v", err)
	}
	if len(stored.QuestionIDs) != quiz.TotalQuestions {
		t.Errorf("stored quiz has %d question ids", len(stored.QuestionIDs))
	}

	used, _ := questions.FindByIDs(ctx, quiz.QuestionIDs)
	for _, q := range used {
		if q.Usage.TimesUsed != 1 {
			t.Errorf("question %s times_used = %d, want 1", q.ID, q.Usage.TimesUsed)
		}
	}
}

func TestPreviewQuizDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	gen, questions, quizzes := newTestGenerator(20)

	preview, err := gen.PreviewQuiz(ctx, models.QuizConfig{QuestionCount: 10}, nil)
	if err != nil {
		t.Fatalf("PreviewQuiz: %v", err)
	}
	if len(preview.Questions) != 10 {
		t.Errorf("preview has %d questions, want 10", len(preview.Questions))
	}
	if n, _ := quizzes.Count(ctx, models.QuizFilter{}); n != 0 {
		t.Errorf("preview stored %d quizzes", n)
	}
	all, _ := questions.Find(ctx, models.QuestionFilter{})
	for _, q := range all {
		if q.Usage.TimesUsed != 0 {
			t.Errorf("preview changed usage of %s", q.ID)
		}
	}
}

func TestGenerateShortBankIsBestEffort(t *testing.T) {
	gen, _, _ := newTestGenerator(12)

	generated, err := gen.GenerateRegularQuiz(context.Background(), models.QuizConfig{QuestionCount: 30}, nil)
	if err != nil {
		t.Fatalf("GenerateRegularQuiz: %v", err)
	}
	if generated.Quiz.TotalQuestions != 12 || len(generated.Quiz.QuestionIDs) != 12 {
		t.Errorf("expected all 12 bank questions, got %d", generated.Quiz.TotalQuestions)
	}
}

func TestEstimateTimeLimit(t *testing.T) {
	repeat := func(n int, d models.Difficulty, qt models.QuestionType) []models.Question {
		out := make([]models.Question, n)
		for i := range out {
			out[i] = models.Question{Difficulty: d, QuestionType: qt}
		}
		return out
	}

	tests := []struct {
		name      string
		questions []models.Question
		perf      *models.UserPerformance
		want      int
	}{
		{"ten easy", repeat(10, models.DifficultyEasy, models.TypeAlgorithm), nil, 11},
		{"thirty medium", repeat(30, models.DifficultyMedium, models.TypeAlgorithm), nil, 42},
		{"four hard", repeat(4, models.DifficultyHard, models.TypeAlgorithm), nil, 7},
		{"no questions", nil, nil, 1},
		{
			"blended with user history",
			repeat(4, models.DifficultyMedium, models.TypeAlgorithm),
			&models.UserPerformance{AverageSecondsByType: map[models.QuestionType]float64{models.TypeAlgorithm: 90}},
			7,
		},
		{
			"history for another type is ignored",
			repeat(10, models.DifficultyEasy, models.TypeAlgorithm),
			&models.UserPerformance{AverageSecondsByType: map[models.QuestionType]float64{models.TypeDataStructure: 300}},
			11,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateTimeLimit(tt.questions, tt.perf); got != tt.want {
				t.Errorf("EstimateTimeLimit() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg, err := ApplyDefaults(models.QuizConfig{Category: models.CategoryTopic, Subcategory: "big-idea-3", Difficulty: models.DifficultyHard})
	if err != nil {
		t.Fatalf("ApplyDefaults: %v", err)
	}
	if len(cfg.Weights.BigIdeas) != 1 || cfg.Weights.BigIdeas[3] != 100 {
		t.Errorf("topic quiz big idea weights = %v", cfg.Weights.BigIdeas)
	}
	if len(cfg.Weights.Difficulties) != 1 || cfg.Weights.Difficulties[models.DifficultyHard] != 100 {
		t.Errorf("single difficulty weights = %v", cfg.Weights.Difficulties)
	}
	if len(cfg.Weights.QuestionTypes) != len(models.QuestionTypes) {
		t.Errorf("type weights = %v", cfg.Weights.QuestionTypes)
	}

	invalid := []models.QuizConfig{
		{Category: "weekly"},
		{QuestionCount: MaxQuestionCount + 1},
		{Difficulty: "extreme"},
		{PassingScore: 120},
		{Weights: models.Weights{BigIdeas: map[models.BigIdea]float64{9: 10}}},
		{Weights: models.Weights{Difficulties: map[models.Difficulty]float64{models.DifficultyEasy: -5}}},
	}
	for i, c := range invalid {
		if _, err := ApplyDefaults(c); !errors.Is(err, models.ErrValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestBuildTitle(t *testing.T) {
	tests := []struct {
		cfg      models.QuizConfig
		bigIdeas []models.BigIdea
		want     string
	}{
		{models.QuizConfig{Category: models.CategoryPractice, Difficulty: models.DifficultyMixed}, []models.BigIdea{1, 2}, "Practice"},
		{models.QuizConfig{Category: models.CategoryExam, Difficulty: models.DifficultyHard}, nil, "Hard Practice Exam"},
		{models.QuizConfig{Category: models.CategoryTopic, Difficulty: models.DifficultyMixed}, []models.BigIdea{2}, "Topic Review: Big Idea 2 - Data"},
	}
	for _, tt := range tests {
		if got := BuildTitle(tt.cfg, tt.bigIdeas); got != tt.want {
			t.Errorf("BuildTitle() = %q, want %q", got, tt.want)
		}
	}
}
