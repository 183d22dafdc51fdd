package generator

import (
	"fmt"
	"math"
	"strings"

	"apcsp-quiz/internal/models"
	"apcsp-quiz/internal/selection"
)

// ApplyDefaults validates cfg and fills in every unset field.
func ApplyDefaults(cfg models.QuizConfig) (models.QuizConfig, error) {
	if cfg.Category == "" {
		cfg.Category = models.CategoryPractice
	}
	if !cfg.Category.Valid() {
		return cfg, fmt.Errorf("%w: unknown quiz category %q", models.ErrValidation, cfg.Category)
	}
	if cfg.QuestionCount == 0 {
		cfg.QuestionCount = DefaultQuestionCount
	}
	if cfg.QuestionCount < 0 || cfg.QuestionCount > MaxQuestionCount {
		return cfg, fmt.Errorf("%w: question count must be between 1 and %d", models.ErrValidation, MaxQuestionCount)
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = models.DifficultyMixed
	}
	if cfg.Difficulty != models.DifficultyMixed && !cfg.Difficulty.Valid() {
		return cfg, fmt.Errorf("%w: unknown difficulty %q", models.ErrValidation, cfg.Difficulty)
	}
	if cfg.PassingScore == 0 {
		cfg.PassingScore = DefaultPassingScore
	}
	if cfg.PassingScore < 0 || cfg.PassingScore > 100 {
		return cfg, fmt.Errorf("%w: passing score must be between 0 and 100", models.ErrValidation)
	}
	if cfg.TimeLimitMinutes < 0 {
		return cfg, fmt.Errorf("%w: time limit cannot be negative", models.ErrValidation)
	}
	if err := validateWeights(cfg.Weights); err != nil {
		return cfg, err
	}

	w := cfg.Weights
	if len(w.BigIdeas) == 0 {
		if b, ok := models.ParseBigIdeaSubcategory(cfg.Subcategory); ok && cfg.Category == models.CategoryTopic {
			w.BigIdeas = map[models.BigIdea]float64{b: 100}
		} else {
			w.BigIdeas = selection.APExamBigIdeaWeights()
		}
	}
	if len(w.QuestionTypes) == 0 {
		w.QuestionTypes = selection.EvenTypeWeights()
	}
	if len(w.Difficulties) == 0 {
		if cfg.Difficulty == models.DifficultyMixed {
			w.Difficulties = selection.MixedDifficultyWeights()
		} else {
			w.Difficulties = map[models.Difficulty]float64{cfg.Difficulty: 100}
		}
	}
	cfg.Weights = w
	return cfg, nil
}

func validateWeights(w models.Weights) error {
	for b, v := range w.BigIdeas {
		if !b.Valid() || v < 0 {
			return fmt.Errorf("%w: invalid big idea weight %d=%v", models.ErrValidation, b, v)
		}
	}
	for t, v := range w.QuestionTypes {
		if !t.Valid() || v < 0 {
			return fmt.Errorf("%w: invalid question type weight %s=%v", models.ErrValidation, t, v)
		}
	}
	for d, v := range w.Difficulties {
		if !d.Valid() || v < 0 {
			return fmt.Errorf("%w: invalid difficulty weight %s=%v", models.ErrValidation, d, v)
		}
	}
	return nil
}

// Minutes per question by difficulty.
var baseMinutes = map[models.Difficulty]float64{
	models.DifficultyEasy:   1.0,
	models.DifficultyMedium: 1.25,
	models.DifficultyHard:   1.5,
}

const timeBuffer = 1.1

// EstimateTimeLimit sums the expected minutes per question, blending in the
// user's average for that question type when known, adds a 10% buffer and
// rounds up to whole minutes.
func EstimateTimeLimit(questions []models.Question, perf *models.UserPerformance) int {
	total := 0.0
	for _, q := range questions {
		minutes, ok := baseMinutes[q.Difficulty]
		if !ok {
			minutes = baseMinutes[models.DifficultyMedium]
		}
		if perf != nil {
			if avg := perf.AverageSecondsByType[q.QuestionType]; avg > 0 {
				minutes = (minutes + avg/60) / 2
			}
		}
		total += minutes
	}
	// The epsilon keeps float noise such as 11.000000000000002 from rounding up.
	limit := int(math.Ceil(total*timeBuffer - 1e-9))
	if limit < 1 {
		limit = 1
	}
	return limit
}

// BuildTitle names a quiz from its category, difficulty and covered big ideas.
func BuildTitle(cfg models.QuizConfig, bigIdeas []models.BigIdea) string {
	title := cfg.Category.Label()
	if cfg.Difficulty != "" && cfg.Difficulty != models.DifficultyMixed {
		title = cfg.Difficulty.Label() + " " + title
	}
	if len(bigIdeas) == 1 {
		title += fmt.Sprintf(": Big Idea %d - %s", int(bigIdeas[0]), bigIdeas[0].Name())
	}
	return title
}

func BuildDescription(count int, bigIdeas []models.BigIdea) string {
	if len(bigIdeas) == 0 {
		return fmt.Sprintf("A %d-question AP Computer Science Principles quiz.", count)
	}
	names := make([]string, len(bigIdeas))
	for i, b := range bigIdeas {
		names[i] = b.Name()
	}
	return fmt.Sprintf("A %d-question AP Computer Science Principles quiz covering %s.", count, strings.Join(names, ", "))
}
