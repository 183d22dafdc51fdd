package models

import "time"

type QuestionAttempt struct {
	QuestionID   string `json:"question_id"`
	ChosenAnswer *int   `json:"chosen_answer"`
	IsCorrect    bool   `json:"is_correct"`
	IsSkipped    bool   `json:"is_skipped"`
	TimeTaken    int    `json:"time_taken"`
}

// QuizStat is a per-attempt view derived from a quiz's embedded progress
// entries. It is computed on read and never persisted.
type QuizStat struct {
	QuizID          string            `json:"quiz_id"`
	UserID          string            `json:"user_id"`
	Answers         []QuestionAttempt `json:"answers"`
	Score           float64           `json:"score"`
	Correct         int               `json:"correct"`
	Incorrect       int               `json:"incorrect"`
	Skipped         int               `json:"skipped"`
	TotalTime       int               `json:"total_time"`
	IsCompleted     bool              `json:"is_completed"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	CurrentQuestion int               `json:"current_question"`
	TimeRemaining   *int              `json:"time_remaining,omitempty"`
	LastSaved       *time.Time        `json:"last_saved,omitempty"`
}

// UserPerformance carries a user's history for time estimation.
type UserPerformance struct {
	UserID string `json:"user_id"`
	// AverageSecondsByType is the user's mean time per question of each type.
	AverageSecondsByType map[QuestionType]float64 `json:"average_seconds_by_type"`
}
