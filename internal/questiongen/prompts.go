package questiongen

import (
	"fmt"
	"strings"

	"apcsp-quiz/internal/models"
)

const RobotNavigationTag = "robot-navigation"

const generatorSystemPrompt = "You write multiple-choice questions for the AP Computer Science Principles exam. " +
	"Every question has exactly 4 options and exactly one correct answer. Reply with a single JSON object and nothing else."

const critiqueSystemPrompt = "You review AP Computer Science Principles exam questions for accuracy, clarity and fairness. " +
	"Reply with a single JSON object and nothing else."

// Prompt template names recorded in question metadata.
const (
	TemplateCodeAnalysis    = "code_analysis_v1"
	TemplateAlgorithm       = "algorithm_v1"
	TemplateDataStructure   = "data_structure_v1"
	TemplateProblemSolving  = "problem_solving_v1"
	TemplateRobotNavigation = "robot_navigation_v1"
)

var typeInstructions = map[models.QuestionType]string{
	models.TypeCodeAnalysis: "Show a short program in AP CSP exam reference sheet pseudocode " +
		"(assignment with <-, DISPLAY, IF/ELSE, REPEAT n TIMES, REPEAT UNTIL, FOR EACH, PROCEDURE, lists indexed from 1) " +
		"and ask what it displays or what a variable holds afterwards.",
	models.TypeAlgorithm: "Describe a task and ask which algorithm, or which ordering of steps, correctly solves it. " +
		"Use sequencing, selection and iteration; the distractors should contain realistic off-by-one or ordering mistakes.",
	models.TypeDataStructure: "Ask about storing or processing data with lists, strings or records: " +
		"traversals, INSERT, APPEND, REMOVE, LENGTH, filtering and aggregating values.",
	models.TypeProblemSolving: "Pose a realistic scenario and ask the student to reason about a solution, " +
		"its efficiency, its limitations, or its impact.",
}

// slot is one question the batch still has to produce.
type slot struct {
	Index        int
	BigIdea      models.BigIdea
	QuestionType models.QuestionType
	Difficulty   models.Difficulty
	Topic        string
}

func (s slot) robotNavigation() bool {
	return s.QuestionType == models.TypeAlgorithm && s.BigIdea == 3 && s.Index%2 == 1
}

func (s slot) template() string {
	if s.robotNavigation() {
		return TemplateRobotNavigation
	}
	switch s.QuestionType {
	case models.TypeCodeAnalysis:
		return TemplateCodeAnalysis
	case models.TypeAlgorithm:
		return TemplateAlgorithm
	case models.TypeDataStructure:
		return TemplateDataStructure
	}
	return TemplateProblemSolving
}

// buildPrompt renders the generation prompt for s.
func buildPrompt(s slot) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Write one %s AP Computer Science Principles question for Big Idea %d: %s.\n",
		s.Difficulty, s.BigIdea, s.BigIdea.Name()))
	if s.Topic != "" {
		sb.WriteString(fmt.Sprintf("Focus on this topic: %s.\n", s.Topic))
	}
	sb.WriteString("\n")

	if s.robotNavigation() {
		sb.WriteString(robotInstructions)
	} else {
		sb.WriteString(typeInstructions[s.QuestionType])
		sb.WriteString("\n")
	}

	sb.WriteString("\nRequirements:\n")
	sb.WriteString("- Exactly 4 options; exactly one is correct\n")
	sb.WriteString("- Distractors are plausible but clearly wrong to a student who understands the material\n")
	sb.WriteString("- The question text must not give the answer away\n")
	sb.WriteString(fmt.Sprintf("- Difficulty: %s\n", difficultyHint(s.Difficulty)))
	sb.WriteString("\nReturn this JSON object:\n")
	sb.WriteString(fmt.Sprintf(`{"questionText": "...", "options": ["...", "...", "...", "..."], "correctAnswer": 0, `+
		`"explanation": "...", "topic": "...", "bigIdea": %d, "questionType": "%s", "difficulty": "%s", "points": %d, "tags": ["..."]}`,
		s.BigIdea, s.QuestionType, s.Difficulty, models.DifficultyPoints[s.Difficulty]))
	sb.WriteString("\ncorrectAnswer is the 0-based index of the correct option.\n")

	return sb.String()
}

const robotInstructions = `Draw a 4x4 grid inside questionText, one row per line, cells separated by |.
Put the robot in one cell as > v < or ^ (the arrow is the direction it faces) and the goal in another cell as ✔.
Each option is a program built only from MOVE_FORWARD, ROTATE_LEFT, ROTATE_RIGHT and REPEAT n TIMES { ... },
with statements separated by semicolons. Exactly one option must move the robot onto the goal without leaving the grid.
Include the tag "robot-navigation".
`

func difficultyHint(d models.Difficulty) string {
	switch d {
	case models.DifficultyEasy:
		return "easy, one concept, answerable in under a minute"
	case models.DifficultyHard:
		return "hard, combines several concepts or needs careful tracing"
	}
	return "medium, needs a few steps of reasoning"
}

func buildCritiquePrompt(q *models.Question) string {
	var sb strings.Builder
	sb.WriteString("Evaluate this question.\n\n")
	sb.WriteString(fmt.Sprintf("Big Idea %d (%s), type %s, difficulty %s\n\n", q.BigIdea, q.BigIdea.Name(), q.QuestionType, q.Difficulty))
	sb.WriteString(q.QuestionText)
	sb.WriteString("\n\n")
	for i, opt := range q.Options {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i, opt))
	}
	sb.WriteString(fmt.Sprintf("\nMarked correct: option %d\nExplanation: %s\n\n", q.CorrectAnswer, q.Explanation))
	sb.WriteString("Check that the marked answer is the only correct option, the wording is unambiguous and the " +
		"content matches the big idea.\n")
	sb.WriteString(`Return {"isValid": true|false, "confidence": 0.0-1.0, "score": 0.0-1.0, "issues": ["..."]}`)
	sb.WriteString("\n")
	return sb.String()
}
