package models

import (
	"fmt"
	"strings"
	"time"
)

const OptionsPerQuestion = 4

const (
	GeneratedByAI     = "AI"
	GeneratedByManual = "manual"
	GeneratedBySystem = "system"
)

// QuestionMetadata records where a question came from and how it was checked.
type QuestionMetadata struct {
	GeneratedBy      string    `bson:"generated_by" json:"generated_by"`
	GeneratedAt      time.Time `bson:"generated_at" json:"generated_at"`
	PromptTemplate   string    `bson:"prompt_template,omitempty" json:"prompt_template,omitempty"`
	ValidationMethod string    `bson:"validation_method,omitempty" json:"validation_method,omitempty"`
	ValidationScore  float64   `bson:"validation_score" json:"validation_score"`
}

type QuestionUsage struct {
	TimesUsed     int `bson:"times_used" json:"times_used"`
	TimesAnswered int `bson:"times_answered" json:"times_answered"`
	TimesCorrect  int `bson:"times_correct" json:"times_correct"`
}

type Question struct {
	ID            string           `bson:"_id,omitempty" json:"id"`
	QuestionText  string           `bson:"question_text" json:"question_text"`
	Options       []string         `bson:"options" json:"options"`
	CorrectAnswer int              `bson:"correct_answer" json:"correct_answer"`
	Explanation   string           `bson:"explanation" json:"explanation"`
	Topic         string           `bson:"topic" json:"topic"`
	BigIdea       BigIdea          `bson:"big_idea" json:"big_idea"`
	QuestionType  QuestionType     `bson:"question_type" json:"question_type"`
	Difficulty    Difficulty       `bson:"difficulty" json:"difficulty"`
	Points        int              `bson:"points" json:"points"`
	Tags          []string         `bson:"tags" json:"tags"`
	IsActive      bool             `bson:"is_active" json:"is_active"`
	Metadata      QuestionMetadata `bson:"metadata" json:"metadata"`
	Usage         QuestionUsage    `bson:"usage" json:"usage"`
	CreatedAt     time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `bson:"updated_at" json:"updated_at"`
}

// DifficultyPoints defines the default score weight of a question.
var DifficultyPoints = map[Difficulty]int{
	DifficultyEasy:   1,
	DifficultyMedium: 2,
	DifficultyHard:   3,
}

// Validate checks the structural invariants every stored question must hold.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.QuestionText) == "" {
		return fmt.Errorf("%w: question text is required", ErrValidation)
	}
	if len(q.Options) != OptionsPerQuestion {
		return fmt.Errorf("%w: expected %d options, got %d", ErrValidation, OptionsPerQuestion, len(q.Options))
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("%w: option %d is empty", ErrValidation, i)
		}
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("%w: correct answer index %d out of range", ErrValidation, q.CorrectAnswer)
	}
	if !q.BigIdea.Valid() {
		return fmt.Errorf("%w: big idea %d out of range", ErrValidation, q.BigIdea)
	}
	if !q.QuestionType.Valid() {
		return fmt.Errorf("%w: unknown question type %q", ErrValidation, q.QuestionType)
	}
	if !q.Difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrValidation, q.Difficulty)
	}
	return nil
}

// EnsurePoints fills in the difficulty default when no points were given.
func (q *Question) EnsurePoints() {
	if q.Points > 0 {
		return
	}
	if p, ok := DifficultyPoints[q.Difficulty]; ok {
		q.Points = p
		return
	}
	q.Points = 1
}

// HasTag reports whether the question carries tag, ignoring case.
func (q *Question) HasTag(tag string) bool {
	for _, t := range q.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// NormalizedText is the comparison key used to spot duplicate questions.
func (q *Question) NormalizedText() string {
	return strings.Join(strings.Fields(strings.ToLower(q.QuestionText)), " ")
}

// QuestionFilter narrows question bank queries. Zero values are ignored.
type QuestionFilter struct {
	BigIdea      BigIdea
	QuestionType QuestionType
	Difficulty   Difficulty
	Topic        string
	Tag          string
	ActiveOnly   bool
	ExcludeIDs   []string
	SortNewest   bool
	// Sample draws Limit matches at random instead of taking them in store
	// order. Skip and SortNewest are ignored when set.
	Sample bool
	Limit  int64
	Skip   int64
}

// QuestionPatch is a partial update of a question. Nil fields are left alone.
type QuestionPatch struct {
	QuestionText  *string       `json:"question_text,omitempty"`
	Options       []string      `json:"options,omitempty"`
	CorrectAnswer *int          `json:"correct_answer,omitempty"`
	Explanation   *string       `json:"explanation,omitempty"`
	Topic         *string       `json:"topic,omitempty"`
	BigIdea       *BigIdea      `json:"big_idea,omitempty"`
	QuestionType  *QuestionType `json:"question_type,omitempty"`
	Difficulty    *Difficulty   `json:"difficulty,omitempty"`
	Points        *int          `json:"points,omitempty"`
	Tags          []string      `json:"tags,omitempty"`
	IsActive      *bool         `json:"is_active,omitempty"`
}

// Apply copies the set fields of p onto q.
func (p *QuestionPatch) Apply(q *Question) {
	if p.QuestionText != nil {
		q.QuestionText = *p.QuestionText
	}
	if p.Options != nil {
		q.Options = p.Options
	}
	if p.CorrectAnswer != nil {
		q.CorrectAnswer = *p.CorrectAnswer
	}
	if p.Explanation != nil {
		q.Explanation = *p.Explanation
	}
	if p.Topic != nil {
		q.Topic = *p.Topic
	}
	if p.BigIdea != nil {
		q.BigIdea = *p.BigIdea
	}
	if p.QuestionType != nil {
		q.QuestionType = *p.QuestionType
	}
	if p.Difficulty != nil {
		q.Difficulty = *p.Difficulty
	}
	if p.Points != nil {
		q.Points = *p.Points
	}
	if p.Tags != nil {
		q.Tags = p.Tags
	}
	if p.IsActive != nil {
		q.IsActive = *p.IsActive
	}
}

// BankStats summarizes the active question bank.
type BankStats struct {
	TotalActive   int                  `json:"total_active"`
	TotalInactive int                  `json:"total_inactive"`
	ByBigIdea     map[BigIdea]int      `json:"by_big_idea"`
	ByType        map[QuestionType]int `json:"by_type"`
	ByDifficulty  map[Difficulty]int   `json:"by_difficulty"`
}
