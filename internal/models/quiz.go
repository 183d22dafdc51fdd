package models

import "time"

// Weights holds percentage weights per category on three independent axes.
type Weights struct {
	BigIdeas      map[BigIdea]float64      `bson:"big_ideas,omitempty" json:"big_ideas,omitempty"`
	QuestionTypes map[QuestionType]float64 `bson:"question_types,omitempty" json:"question_types,omitempty"`
	Difficulties  map[Difficulty]float64   `bson:"difficulties,omitempty" json:"difficulties,omitempty"`
}

// Distribution holds target or achieved question counts per category.
type Distribution struct {
	BigIdeas      map[BigIdea]int      `bson:"big_ideas" json:"big_ideas"`
	QuestionTypes map[QuestionType]int `bson:"question_types" json:"question_types"`
	Difficulties  map[Difficulty]int   `bson:"difficulties" json:"difficulties"`
}

func NewDistribution() Distribution {
	return Distribution{
		BigIdeas:      map[BigIdea]int{},
		QuestionTypes: map[QuestionType]int{},
		Difficulties:  map[Difficulty]int{},
	}
}

// Count adds q to every axis of the distribution.
func (d Distribution) Count(q *Question) {
	d.BigIdeas[q.BigIdea]++
	d.QuestionTypes[q.QuestionType]++
	d.Difficulties[q.Difficulty]++
}

// QuizConfig is what a caller asks the generator for. It is stored on the quiz
// so a retake can be generated with the same configuration.
type QuizConfig struct {
	Title            string       `bson:"title,omitempty" json:"title,omitempty"`
	Description      string       `bson:"description,omitempty" json:"description,omitempty"`
	Category         QuizCategory `bson:"category" json:"category"`
	Subcategory      string       `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	CreatedFor       string       `bson:"created_for,omitempty" json:"created_for,omitempty"`
	Topic            string       `bson:"topic,omitempty" json:"topic,omitempty"`
	QuestionCount    int          `bson:"question_count" json:"question_count"`
	Difficulty       Difficulty   `bson:"difficulty" json:"difficulty"`
	TimeLimitMinutes int          `bson:"time_limit,omitempty" json:"time_limit,omitempty"`
	PassingScore     int          `bson:"passing_score" json:"passing_score"`
	Weights          Weights      `bson:"weights" json:"weights"`
}

type QuizMetadata struct {
	Requested     Distribution   `bson:"requested" json:"requested"`
	Achieved      Distribution   `bson:"achieved" json:"achieved"`
	BigIdeas      []BigIdea      `bson:"big_ideas" json:"big_ideas"`
	QuestionTypes []QuestionType `bson:"question_types" json:"question_types"`
	Difficulties  []Difficulty   `bson:"difficulties" json:"difficulties"`
	Backfilled    int            `bson:"backfilled" json:"backfilled"`
	GeneratedAt   time.Time      `bson:"generated_at" json:"generated_at"`
	Config        QuizConfig     `bson:"config" json:"config"`
}

// Answer is one recorded response. A nil ChosenAnswer means skipped.
type Answer struct {
	QuestionID   string `bson:"question_id" json:"question_id"`
	ChosenAnswer *int   `bson:"chosen_answer" json:"chosen_answer"`
	TimeTaken    int    `bson:"time_taken" json:"time_taken"`
}

type InProgressEntry struct {
	UserID          string    `bson:"user_id" json:"user_id"`
	StartedAt       time.Time `bson:"started_at" json:"started_at"`
	CurrentQuestion int       `bson:"current_question" json:"current_question"`
	Answers         []Answer  `bson:"answers" json:"answers"`
	TimeRemaining   *int      `bson:"time_remaining" json:"time_remaining"`
	LastActivity    time.Time `bson:"last_activity" json:"last_activity"`
}

type CompletedEntry struct {
	UserID      string    `bson:"user_id" json:"user_id"`
	CompletedAt time.Time `bson:"completed_at" json:"completed_at"`
	Score       float64   `bson:"score" json:"score"`
	TimeSpent   int       `bson:"time_spent" json:"time_spent"`
	Answers     []Answer  `bson:"answers" json:"answers"`
}

type Quiz struct {
	ID             string            `bson:"_id,omitempty" json:"id"`
	Title          string            `bson:"title" json:"title"`
	Description    string            `bson:"description" json:"description"`
	Topic          string            `bson:"topic" json:"topic"`
	Difficulty     Difficulty        `bson:"difficulty" json:"difficulty"`
	TimeLimit      int               `bson:"time_limit" json:"time_limit"`
	TotalQuestions int               `bson:"total_questions" json:"total_questions"`
	PassingScore   int               `bson:"passing_score" json:"passing_score"`
	Category       QuizCategory      `bson:"category" json:"category"`
	Subcategory    string            `bson:"subcategory" json:"subcategory"`
	CreatedFor     string            `bson:"created_for,omitempty" json:"created_for,omitempty"`
	Status         QuizStatus        `bson:"status" json:"status"`
	QuestionIDs    []string          `bson:"question_ids" json:"question_ids"`
	GeneratedBy    string            `bson:"generated_by" json:"generated_by"`
	Metadata       QuizMetadata      `bson:"metadata" json:"metadata"`
	InProgressBy   []InProgressEntry `bson:"in_progress_by" json:"in_progress_by"`
	CompletedBy    []CompletedEntry  `bson:"completed_by" json:"completed_by"`
	CompletedAt    *time.Time        `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	ExpiresAt      *time.Time        `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	Version        int64             `bson:"version" json:"version"`
	CreatedAt      time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `bson:"updated_at" json:"updated_at"`
}

func (q *Quiz) InProgressIndex(userID string) int {
	for i := range q.InProgressBy {
		if q.InProgressBy[i].UserID == userID {
			return i
		}
	}
	return -1
}

func (q *Quiz) CompletedIndex(userID string) int {
	for i := range q.CompletedBy {
		if q.CompletedBy[i].UserID == userID {
			return i
		}
	}
	return -1
}

// QuizFilter narrows quiz listings. Zero values are ignored.
type QuizFilter struct {
	Category    QuizCategory
	Subcategory string
	Statuses    []QuizStatus
	CreatedFor  string
	Limit       int64
	Skip        int64
}
