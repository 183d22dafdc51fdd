package questiongen

import (
	"apcsp-quiz/internal/logger"
	"apcsp-quiz/internal/models"
)

// Observer is told about every step of a batch.
type Observer interface {
	Attempt(index, attempt int, template string)
	Rejected(index, attempt int, err error)
	Saved(index int, q *models.Question)
	SaveFailed(index int, err error)
	Dropped(index int, err error)
}

// LogObserver reports batch progress through the structured logger.
type LogObserver struct {
	Log *logger.Logger
}

func (o LogObserver) Attempt(index, attempt int, template string) {
	o.Log.Debug("generating question", "slot", index, "attempt", attempt, "template", template)
}

func (o LogObserver) Rejected(index, attempt int, err error) {
	o.Log.Info("generated question rejected", "slot", index, "attempt", attempt, "error", err)
}

func (o LogObserver) Saved(index int, q *models.Question) {
	o.Log.Info("question saved", "slot", index, "question_id", q.ID,
		"big_idea", q.BigIdea, "type", q.QuestionType, "difficulty", q.Difficulty,
		"validation", q.Metadata.ValidationMethod)
}

func (o LogObserver) SaveFailed(index int, err error) {
	o.Log.Error("failed to save generated question", "slot", index, "error", err)
}

func (o LogObserver) Dropped(index int, err error) {
	o.Log.Warn("slot dropped after retries", "slot", index, "error", err)
}
