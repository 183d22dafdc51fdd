package lifecycle

import (
	"context"
	"fmt"

	"apcsp-quiz/internal/logger"
	"apcsp-quiz/internal/models"
	"apcsp-quiz/internal/repository"
)

// PoolLimits is the number of takeable quizzes kept per (category, subcategory).
var PoolLimits = map[models.QuizCategory]int{
	models.CategoryPractice: 3,
	models.CategoryExam:     2,
	models.CategoryMixed:    2,
	models.CategoryTopic:    2,
	models.CategoryCustom:   5,
}

// PoolKeeper keeps enough active quizzes around for every pool.
type PoolKeeper struct {
	quizzes repository.QuizStore
	maker   QuizMaker
	log     *logger.Logger
}

func NewPoolKeeper(quizzes repository.QuizStore, maker QuizMaker, log *logger.Logger) *PoolKeeper {
	return &PoolKeeper{quizzes: quizzes, maker: maker, log: log}
}

// PoolTemplate is the generation config for a new quiz of the given pool.
// Custom pools are keyed by the owning user id.
func PoolTemplate(category models.QuizCategory, subcategory string) (models.QuizConfig, error) {
	cfg := models.QuizConfig{
		Category:    category,
		Subcategory: subcategory,
		Difficulty:  models.DifficultyMixed,
	}
	switch category {
	case models.CategoryPractice:
		cfg.QuestionCount = 15
	case models.CategoryExam:
		cfg.QuestionCount = 70
		cfg.TimeLimitMinutes = 120
	case models.CategoryMixed:
		cfg.QuestionCount = 30
	case models.CategoryTopic:
		b, ok := models.ParseBigIdeaSubcategory(subcategory)
		if !ok {
			return cfg, fmt.Errorf("%w: topic pool needs a big-idea-N subcategory, got %q", models.ErrValidation, subcategory)
		}
		cfg.QuestionCount = 20
		cfg.Topic = b.Name()
		cfg.Weights.BigIdeas = map[models.BigIdea]float64{b: 100}
	case models.CategoryCustom:
		if subcategory == "" {
			return cfg, fmt.Errorf("%w: custom pool needs an owner", models.ErrValidation)
		}
		cfg.QuestionCount = 30
		cfg.CreatedFor = subcategory
	default:
		return cfg, fmt.Errorf("%w: unknown quiz category %q", models.ErrValidation, category)
	}
	return cfg, nil
}

// EnsureActiveQuizPool generates quizzes one at a time until the pool holds
// its limit of active or in-progress quizzes. It returns how many were made.
func (p *PoolKeeper) EnsureActiveQuizPool(ctx context.Context, category models.QuizCategory, subcategory string) (int, error) {
	limit, ok := PoolLimits[category]
	if !ok {
		return 0, fmt.Errorf("%w: unknown quiz category %q", models.ErrValidation, category)
	}
	cfg, err := PoolTemplate(category, subcategory)
	if err != nil {
		return 0, err
	}

	count, err := p.quizzes.Count(ctx, models.QuizFilter{
		Category:    category,
		Subcategory: subcategory,
		Statuses:    []models.QuizStatus{models.StatusActive, models.StatusInProgress},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s pool: %w", category, err)
	}

	created := 0
	for i := int(count); i < limit; i++ {
		if _, err := p.maker.GenerateRegularQuiz(ctx, cfg, nil); err != nil {
			return created, fmt.Errorf("failed to refill %s/%s pool: %w", category, subcategory, err)
		}
		created++
	}
	if created > 0 {
		p.log.Info("quiz pool refilled", "category", category, "subcategory", subcategory, "created", created)
	}
	return created, nil
}

// PoolKey identifies one quiz pool.
type PoolKey struct {
	Category    models.QuizCategory `json:"category"`
	Subcategory string              `json:"subcategory,omitempty"`
}

// DefaultPools are the shared pools created at initialization.
func DefaultPools() []PoolKey {
	pools := []PoolKey{
		{Category: models.CategoryPractice},
		{Category: models.CategoryExam},
		{Category: models.CategoryMixed},
	}
	for _, b := range models.BigIdeas {
		pools = append(pools, PoolKey{Category: models.CategoryTopic, Subcategory: models.BigIdeaSubcategory(b)})
	}
	return pools
}

type PoolResult struct {
	PoolKey
	Created int    `json:"created"`
	Error   string `json:"error,omitempty"`
}

// InitializePools tops up every default pool. A failing pool is reported and
// does not stop the others.
func (p *PoolKeeper) InitializePools(ctx context.Context) []PoolResult {
	pools := DefaultPools()
	results := make([]PoolResult, 0, len(pools))
	for _, key := range pools {
		created, err := p.EnsureActiveQuizPool(ctx, key.Category, key.Subcategory)
		res := PoolResult{PoolKey: key, Created: created}
		if err != nil {
			res.Error = err.Error()
			p.log.Warn("failed to initialize quiz pool", "category", key.Category, "subcategory", key.Subcategory, "error", err)
		}
		results = append(results, res)
	}
	return results
}
