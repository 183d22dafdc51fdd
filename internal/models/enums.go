package models

import (
	"fmt"
	"strings"
)

type QuestionType string

const (
	TypeCodeAnalysis   QuestionType = "code_analysis"
	TypeAlgorithm      QuestionType = "algorithm"
	TypeDataStructure  QuestionType = "data_structure"
	TypeProblemSolving QuestionType = "problem_solving"
)

// QuestionTypes lists every question type in a stable order.
var QuestionTypes = []QuestionType{TypeCodeAnalysis, TypeAlgorithm, TypeDataStructure, TypeProblemSolving}

func (t QuestionType) Valid() bool {
	switch t {
	case TypeCodeAnalysis, TypeAlgorithm, TypeDataStructure, TypeProblemSolving:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	// DifficultyMixed is only meaningful on a quiz, never on a question.
	DifficultyMixed Difficulty = "mixed"
)

var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Label returns the capitalized name used in quiz titles.
func (d Difficulty) Label() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

type BigIdea int

const (
	MinBigIdea BigIdea = 1
	MaxBigIdea BigIdea = 5
)

var BigIdeas = []BigIdea{1, 2, 3, 4, 5}

var bigIdeaNames = map[BigIdea]string{
	1: "Creative Development",
	2: "Data",
	3: "Algorithms and Programming",
	4: "Computer Systems and Networks",
	5: "Impact of Computing",
}

func (b BigIdea) Valid() bool {
	return b >= MinBigIdea && b <= MaxBigIdea
}

func (b BigIdea) Name() string {
	if name, ok := bigIdeaNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Big Idea %d", int(b))
}

type QuizStatus string

const (
	StatusActive     QuizStatus = "active"
	StatusInProgress QuizStatus = "in-progress"
	StatusCompleted  QuizStatus = "completed"
	StatusArchived   QuizStatus = "archived"
)

// Takeable reports whether users may start or complete the quiz.
func (s QuizStatus) Takeable() bool {
	return s == StatusActive || s == StatusInProgress
}

type QuizCategory string

const (
	CategoryPractice QuizCategory = "practice"
	CategoryExam     QuizCategory = "exam"
	CategoryMixed    QuizCategory = "mixed"
	CategoryTopic    QuizCategory = "topic"
	CategoryCustom   QuizCategory = "custom"
)

func (c QuizCategory) Valid() bool {
	switch c {
	case CategoryPractice, CategoryExam, CategoryMixed, CategoryTopic, CategoryCustom:
		return true
	}
	return false
}

func (c QuizCategory) Label() string {
	switch c {
	case CategoryPractice:
		return "Practice"
	case CategoryExam:
		return "Practice Exam"
	case CategoryMixed:
		return "Mixed Review"
	case CategoryTopic:
		return "Topic Review"
	case CategoryCustom:
		return "Custom Quiz"
	}
	return "Quiz"
}

// BigIdeaSubcategory is the subcategory naming scheme for topic pools.
func BigIdeaSubcategory(b BigIdea) string {
	return fmt.Sprintf("big-idea-%d", int(b))
}

// ParseBigIdeaSubcategory returns the big idea encoded in a topic subcategory.
func ParseBigIdeaSubcategory(sub string) (BigIdea, bool) {
	var n int
	if _, err := fmt.Sscanf(sub, "big-idea-%d", &n); err != nil {
		return 0, false
	}
	b := BigIdea(n)
	return b, b.Valid()
}
