package selection

import (
	"context"

	"apcsp-quiz/internal/models"
)

// QuestionSource is the part of the question store the selector reads from.
type QuestionSource interface {
	Find(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error)
}

// BackfillPolicy decides what happens when the per-category pass comes up short.
type BackfillPolicy int

const (
	// BestEffort tops the quiz up with any unused active question.
	BestEffort BackfillPolicy = iota
	// Strict fails with models.ErrDistributionUnmet instead of backfilling.
	Strict
)

// SelectionResult contains the selected questions and metadata
type SelectionResult struct {
	Questions  []models.Question   `json:"questions"`
	Requested  models.Distribution `json:"requested"`
	Achieved   models.Distribution `json:"achieved"`
	Backfilled int                 `json:"backfilled"`
}

// CandidateFactor is how many candidates are fetched per wanted question.
const CandidateFactor = 3
