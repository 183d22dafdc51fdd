package generator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"apcsp-quiz/internal/event"
	"apcsp-quiz/internal/logger"
	"apcsp-quiz/internal/models"
	"apcsp-quiz/internal/repository"
	"apcsp-quiz/internal/selection"
)

const (
	DefaultQuestionCount = 30
	DefaultPassingScore  = 70
	MaxQuestionCount     = 200
)

// GeneratedQuiz is a quiz together with the questions it references.
type GeneratedQuiz struct {
	Quiz      *models.Quiz        `json:"quiz"`
	Questions []models.Question   `json:"questions"`
	Metadata  models.QuizMetadata `json:"metadata"`
}

type QuizGenerator struct {
	questions repository.QuestionStore
	quizzes   repository.QuizStore
	selector  *selection.Selector
	publisher event.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewQuizGenerator(
	questions repository.QuestionStore,
	quizzes repository.QuizStore,
	selector *selection.Selector,
	publisher event.Publisher,
	log *logger.Logger,
) *QuizGenerator {
	if publisher == nil {
		publisher = event.LogPublisher{Log: log}
	}
	return &QuizGenerator{
		questions: questions,
		quizzes:   quizzes,
		selector:  selector,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// SetClock replaces the generator's time source.
func (g *QuizGenerator) SetClock(now func() time.Time) {
	g.now = now
}

// GenerateRegularQuiz builds a quiz for cfg, persists it and bumps the usage
// counters of the selected questions.
func (g *QuizGenerator) GenerateRegularQuiz(ctx context.Context, cfg models.QuizConfig, perf *models.UserPerformance) (*GeneratedQuiz, error) {
	generated, err := g.build(ctx, cfg, perf)
	if err != nil {
		return nil, err
	}
	if err := g.quizzes.Create(ctx, generated.Quiz); err != nil {
		return nil, fmt.Errorf("failed to save quiz: %w", err)
	}
	if err := g.questions.IncrementUsage(ctx, generated.Quiz.QuestionIDs); err != nil {
		g.log.Warn("failed to update question usage", "quiz_id", generated.Quiz.ID, "error", err)
	}

	g.log.Info("quiz generated",
		"quiz_id", generated.Quiz.ID,
		"category", generated.Quiz.Category,
		"subcategory", generated.Quiz.Subcategory,
		"questions", generated.Quiz.TotalQuestions,
		"backfilled", generated.Metadata.Backfilled,
	)
	if err := g.publisher.Publish(event.QuizGenerated, map[string]interface{}{
		"quiz_id":     generated.Quiz.ID,
		"category":    generated.Quiz.Category,
		"subcategory": generated.Quiz.Subcategory,
		"questions":   generated.Quiz.TotalQuestions,
	}); err != nil {
		g.log.Warn("failed to publish event", "type", event.QuizGenerated, "error", err)
	}
	return generated, nil
}

// PreviewQuiz runs the same selection as GenerateRegularQuiz without saving
// anything.
func (g *QuizGenerator) PreviewQuiz(ctx context.Context, cfg models.QuizConfig, perf *models.UserPerformance) (*GeneratedQuiz, error) {
	return g.build(ctx, cfg, perf)
}

func (g *QuizGenerator) build(ctx context.Context, cfg models.QuizConfig, perf *models.UserPerformance) (*GeneratedQuiz, error) {
	cfg, err := ApplyDefaults(cfg)
	if err != nil {
		return nil, err
	}

	dist := selection.CalculateDistribution(cfg.QuestionCount, cfg.Weights)
	result, err := g.selector.SelectQuestions(ctx, dist, cfg.QuestionCount)
	if err != nil {
		return nil, err
	}
	if len(result.Questions) == 0 {
		return nil, models.ErrNoQuestions
	}

	now := g.now()
	timeLimit := cfg.TimeLimitMinutes
	if timeLimit <= 0 {
		timeLimit = EstimateTimeLimit(result.Questions, perf)
	}

	meta := models.QuizMetadata{
		Requested:     result.Requested,
		Achieved:      result.Achieved,
		BigIdeas:      realizedBigIdeas(result.Questions),
		QuestionTypes: realizedTypes(result.Questions),
		Difficulties:  realizedDifficulties(result.Questions),
		Backfilled:    result.Backfilled,
		GeneratedAt:   now,
		Config:        cfg,
	}

	ids := make([]string, len(result.Questions))
	for i := range result.Questions {
		ids[i] = result.Questions[i].ID
	}

	title, description := cfg.Title, cfg.Description
	if title == "" {
		title = BuildTitle(cfg, meta.BigIdeas)
	}
	if description == "" {
		description = BuildDescription(len(ids), meta.BigIdeas)
	}

	quiz := &models.Quiz{
		Title:          title,
		Description:    description,
		Topic:          quizTopic(cfg, meta.BigIdeas),
		Difficulty:     cfg.Difficulty,
		TimeLimit:      timeLimit,
		TotalQuestions: len(ids),
		PassingScore:   cfg.PassingScore,
		Category:       cfg.Category,
		Subcategory:    cfg.Subcategory,
		CreatedFor:     cfg.CreatedFor,
		Status:         models.StatusActive,
		QuestionIDs:    ids,
		GeneratedBy:    models.GeneratedBySystem,
		Metadata:       meta,
		InProgressBy:   []models.InProgressEntry{},
		CompletedBy:    []models.CompletedEntry{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	return &GeneratedQuiz{Quiz: quiz, Questions: result.Questions, Metadata: meta}, nil
}

func quizTopic(cfg models.QuizConfig, bigIdeas []models.BigIdea) string {
	if cfg.Topic != "" {
		return cfg.Topic
	}
	if len(bigIdeas) == 1 {
		return bigIdeas[0].Name()
	}
	return "AP Computer Science Principles"
}

func realizedBigIdeas(questions []models.Question) []models.BigIdea {
	seen := map[models.BigIdea]bool{}
	var out []models.BigIdea
	for _, q := range questions {
		if !seen[q.BigIdea] {
			seen[q.BigIdea] = true
			out = append(out, q.BigIdea)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func realizedTypes(questions []models.Question) []models.QuestionType {
	seen := map[models.QuestionType]bool{}
	for _, q := range questions {
		seen[q.QuestionType] = true
	}
	var out []models.QuestionType
	for _, t := range models.QuestionTypes {
		if seen[t] {
			out = append(out, t)
		}
	}
	return out
}

func realizedDifficulties(questions []models.Question) []models.Difficulty {
	seen := map[models.Difficulty]bool{}
	for _, q := range questions {
		seen[q.Difficulty] = true
	}
	var out []models.Difficulty
	for _, d := range models.Difficulties {
		if seen[d] {
			out = append(out, d)
		}
	}
	return out
}
