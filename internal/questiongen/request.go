package questiongen

import (
	"fmt"

	"apcsp-quiz/internal/models"
)

const (
	MaxBatchSize              = 1000
	DefaultMinValidationScore = 0.7
	DefaultMaxRetries         = 3
	MaxRetriesLimit           = 10
)

// BatchRequest asks the pipeline for a batch of new questions. Missing
// distribution axes fall back to the batch defaults.
type BatchRequest struct {
	TotalQuestions     int             `json:"total_questions"`
	Distribution       *models.Weights `json:"distribution,omitempty"`
	Topic              string          `json:"topic,omitempty"`
	MinValidationScore *float64        `json:"min_validation_score,omitempty"`
	MaxRetries         *int            `json:"max_retries,omitempty"`
	QualityThreshold   *float64        `json:"quality_threshold,omitempty"`
}

type BatchResult struct {
	TotalRequested int                 `json:"total_requested"`
	TotalGenerated int                 `json:"total_generated"`
	TotalSaved     int                 `json:"total_saved"`
	TotalDropped   int                 `json:"total_dropped"`
	Distribution   models.Distribution `json:"distribution"`
	Questions      []models.Question   `json:"questions"`
}

// DefaultBigIdeaWeights mirrors the AP CSP exam weighting.
func DefaultBigIdeaWeights() map[models.BigIdea]float64 {
	return map[models.BigIdea]float64{1: 12, 2: 19, 3: 32, 4: 13, 5: 24}
}

func DefaultTypeWeights() map[models.QuestionType]float64 {
	return map[models.QuestionType]float64{
		models.TypeCodeAnalysis:   30,
		models.TypeAlgorithm:      30,
		models.TypeDataStructure:  20,
		models.TypeProblemSolving: 20,
	}
}

func DefaultDifficultyWeights() map[models.Difficulty]float64 {
	return map[models.Difficulty]float64{
		models.DifficultyEasy:   30,
		models.DifficultyMedium: 50,
		models.DifficultyHard:   20,
	}
}

// settings is a validated request with every default filled in.
type settings struct {
	total            int
	weights          models.Weights
	topic            string
	minScore         float64
	maxRetries       int
	qualityThreshold float64
}

func (r *BatchRequest) resolve(defaultThreshold float64) (*settings, error) {
	if r.TotalQuestions < 1 || r.TotalQuestions > MaxBatchSize {
		return nil, fmt.Errorf("%w: total_questions must be between 1 and %d", models.ErrValidation, MaxBatchSize)
	}
	s := &settings{
		total:            r.TotalQuestions,
		topic:            r.Topic,
		minScore:         DefaultMinValidationScore,
		maxRetries:       DefaultMaxRetries,
		qualityThreshold: defaultThreshold,
		weights: models.Weights{
			BigIdeas:      DefaultBigIdeaWeights(),
			QuestionTypes: DefaultTypeWeights(),
			Difficulties:  DefaultDifficultyWeights(),
		},
	}

	if d := r.Distribution; d != nil {
		if err := checkAxis("big_ideas", d.BigIdeas, func(b models.BigIdea) bool { return b.Valid() }); err != nil {
			return nil, err
		}
		if err := checkAxis("question_types", d.QuestionTypes, func(t models.QuestionType) bool { return t.Valid() }); err != nil {
			return nil, err
		}
		if err := checkAxis("difficulties", d.Difficulties, func(v models.Difficulty) bool { return v.Valid() }); err != nil {
			return nil, err
		}
		if len(d.BigIdeas) > 0 {
			s.weights.BigIdeas = d.BigIdeas
		}
		if len(d.QuestionTypes) > 0 {
			s.weights.QuestionTypes = d.QuestionTypes
		}
		if len(d.Difficulties) > 0 {
			s.weights.Difficulties = d.Difficulties
		}
	}

	if r.MinValidationScore != nil {
		if *r.MinValidationScore < 0 || *r.MinValidationScore > 1 {
			return nil, fmt.Errorf("%w: min_validation_score must be between 0 and 1", models.ErrValidation)
		}
		s.minScore = *r.MinValidationScore
	}
	if r.MaxRetries != nil {
		if *r.MaxRetries < 1 || *r.MaxRetries > MaxRetriesLimit {
			return nil, fmt.Errorf("%w: max_retries must be between 1 and %d", models.ErrValidation, MaxRetriesLimit)
		}
		s.maxRetries = *r.MaxRetries
	}
	if r.QualityThreshold != nil {
		if *r.QualityThreshold < 0 || *r.QualityThreshold > 1 {
			return nil, fmt.Errorf("%w: quality_threshold must be between 0 and 1", models.ErrValidation)
		}
		s.qualityThreshold = *r.QualityThreshold
	}
	return s, nil
}

// checkAxis rejects unknown keys, negative weights and sums above 100.
func checkAxis[K comparable](name string, weights map[K]float64, valid func(K) bool) error {
	sum := 0.0
	for k, w := range weights {
		if !valid(k) {
			return fmt.Errorf("%w: unknown %s key %v", models.ErrValidation, name, k)
		}
		if w < 0 {
			return fmt.Errorf("%w: negative %s weight for %v", models.ErrValidation, name, k)
		}
		sum += w
	}
	if sum > 100+1e-9 {
		return fmt.Errorf("%w: %s weights sum to %.2f, more than 100", models.ErrValidation, name, sum)
	}
	return nil
}
