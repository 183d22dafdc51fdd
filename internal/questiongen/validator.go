package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"apcsp-quiz/internal/gridsim"
	"apcsp-quiz/internal/models"
)

const (
	MethodSimulation = "simulation"
	MethodCritique   = "llm_critique"
)

// Verdict is what a validator thinks of one generated question.
type Verdict struct {
	Method     string   `json:"method"`
	IsValid    bool     `json:"is_valid"`
	Confidence float64  `json:"confidence"`
	Score      float64  `json:"score"`
	Issues     []string `json:"issues,omitempty"`
}

// Accepted applies the batch thresholds. Simulation verdicts are exact and
// ignore them.
func (v *Verdict) Accepted(qualityThreshold, minScore float64) bool {
	if v.Method == MethodSimulation {
		return v.IsValid
	}
	return v.IsValid && v.Confidence > qualityThreshold && v.Score >= minScore
}

func (v *Verdict) reason() string {
	if len(v.Issues) > 0 {
		return strings.Join(v.Issues, "; ")
	}
	return fmt.Sprintf("valid=%v confidence=%.2f score=%.2f", v.IsValid, v.Confidence, v.Score)
}

type Validator interface {
	Validate(ctx context.Context, q *models.Question) (*Verdict, error)
}

// GridValidator runs every option of a robot-navigation question on the grid
// and requires the marked answer to be the only one reaching the goal.
type GridValidator struct{}

func (GridValidator) Validate(_ context.Context, q *models.Question) (*Verdict, error) {
	v := &Verdict{Method: MethodSimulation}
	report, err := gridsim.Check(q.QuestionText, q.Options)
	if err != nil {
		v.Issues = []string{err.Error()}
		return v, nil
	}
	idx, unique := report.Unique()
	switch {
	case !unique:
		v.Issues = []string{fmt.Sprintf("%d options reach the goal", len(report.Succeeding))}
	case idx != q.CorrectAnswer:
		v.Issues = []string{fmt.Sprintf("option %d reaches the goal but option %d is marked correct", idx, q.CorrectAnswer)}
	default:
		v.IsValid = true
		v.Confidence = 1
		v.Score = 1
	}
	return v, nil
}

// CritiqueValidator asks the model to review its own question.
type CritiqueValidator struct {
	Completer TextCompleter
}

type critiquePayload struct {
	IsValid    bool     `json:"isValid"`
	Confidence float64  `json:"confidence"`
	Score      *float64 `json:"score"`
	Issues     []string `json:"issues"`
}

func (c CritiqueValidator) Validate(ctx context.Context, q *models.Question) (*Verdict, error) {
	text, err := c.Completer.Complete(ctx, critiqueSystemPrompt, buildCritiquePrompt(q))
	if err != nil {
		return nil, &GenerationError{Kind: KindCompletion, Err: err}
	}
	raw, ok := ExtractJSON(text)
	if !ok {
		return nil, genErr(KindNoJSON, "no JSON object in critique")
	}
	var p critiquePayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, genErr(KindDecode, "invalid critique JSON: %v", err)
	}
	v := &Verdict{
		Method:     MethodCritique,
		IsValid:    p.IsValid,
		Confidence: p.Confidence,
		Score:      p.Confidence,
		Issues:     p.Issues,
	}
	if p.Score != nil {
		v.Score = *p.Score
	}
	return v, nil
}

// IsRobotQuestion reports whether q should be checked by simulation.
func IsRobotQuestion(q *models.Question) bool {
	if q.HasTag(RobotNavigationTag) {
		return true
	}
	return strings.ContainsAny(q.QuestionText, "✔✓") || gridsim.HasGrid(q.QuestionText)
}

// routingValidator sends robot questions to the simulator and the rest to
// the critique validator.
type routingValidator struct {
	grid     Validator
	critique Validator
}

func (r routingValidator) Validate(ctx context.Context, q *models.Question) (*Verdict, error) {
	if IsRobotQuestion(q) {
		return r.grid.Validate(ctx, q)
	}
	if r.critique == nil {
		return nil, errors.New("no critique validator configured")
	}
	return r.critique.Validate(ctx, q)
}
