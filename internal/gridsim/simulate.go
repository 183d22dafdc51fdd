// Package gridsim checks robot-navigation questions by running every answer
// option against the 4x4 grid drawn in the question text.
package gridsim

import "fmt"

// MaxSteps bounds the commands one program may execute, counting every
// iteration of a REPEAT body. A program that runs out is a failure.
const MaxSteps = 10000

// Outcome is the end state of one simulated program.
type Outcome struct {
	ReachedGoal bool      `json:"reached_goal"`
	OffGrid     bool      `json:"off_grid"`
	Final       Position  `json:"final"`
	Facing      Direction `json:"facing"`
	Steps       int       `json:"steps"`
	Exhausted   bool      `json:"exhausted,omitempty"`
}

type robot struct {
	grid   *Grid
	pos    Position
	facing Direction
	ops    int
	out    Outcome
}

// Simulate runs cmds from the grid's starting state. It stops as soon as
// the robot reaches the goal or leaves the grid, or after MaxSteps commands.
func Simulate(grid *Grid, cmds []Command) Outcome {
	r := &robot{grid: grid, pos: grid.Robot, facing: grid.Facing}
	r.run(cmds)
	r.out.Final = r.pos
	r.out.Facing = r.facing
	return r.out
}

// run reports whether simulation should continue.
func (r *robot) run(cmds []Command) bool {
	for _, cmd := range cmds {
		if r.ops++; r.ops > MaxSteps {
			r.out.Exhausted = true
			return false
		}
		switch c := cmd.(type) {
		case Forward:
			dr, dc := r.facing.delta()
			next := Position{Row: r.pos.Row + dr, Col: r.pos.Col + dc}
			r.out.Steps++
			if !next.inBounds() {
				r.out.OffGrid = true
				return false
			}
			r.pos = next
			if r.pos == r.grid.Goal {
				r.out.ReachedGoal = true
				return false
			}
		case Turn:
			if c.Right {
				r.facing = r.facing.right()
			} else {
				r.facing = r.facing.left()
			}
		case Face:
			r.facing = c.Dir
		case Repeat:
			for i := 0; i < c.Times; i++ {
				if !r.run(c.Body) {
					return false
				}
			}
		}
	}
	return true
}

// OptionResult is the verdict for one answer option.
type OptionResult struct {
	Index   int      `json:"index"`
	Outcome *Outcome `json:"outcome,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Report collects the verdicts for every option of a question.
type Report struct {
	Grid       Grid           `json:"grid"`
	Options    []OptionResult `json:"options"`
	Succeeding []int          `json:"succeeding"`
}

// Unique returns the single succeeding option, if there is exactly one.
func (r *Report) Unique() (int, bool) {
	if len(r.Succeeding) != 1 {
		return -1, false
	}
	return r.Succeeding[0], true
}

// Check simulates every option of a grid question. Grid errors are returned;
// an option that fails to parse counts as not reaching the goal.
func Check(text string, options []string) (*Report, error) {
	grid, err := ParseGrid(text)
	if err != nil {
		return nil, err
	}
	report := &Report{Grid: *grid, Options: make([]OptionResult, len(options))}
	for i, opt := range options {
		report.Options[i].Index = i
		cmds, err := ParseProgram(opt)
		if err != nil {
			report.Options[i].Error = fmt.Sprintf("option %d: %v", i, err)
			continue
		}
		out := Simulate(grid, cmds)
		report.Options[i].Outcome = &out
		if out.ReachedGoal {
			report.Succeeding = append(report.Succeeding, i)
		}
	}
	return report, nil
}

// ValidateQuestion reports whether exactly one option reaches the goal.
func ValidateQuestion(text string, options []string) bool {
	report, err := Check(text, options)
	if err != nil {
		return false
	}
	_, ok := report.Unique()
	return ok
}

// ValidateAnswer reports whether correct is the one option that reaches the goal.
func ValidateAnswer(text string, options []string, correct int) bool {
	report, err := Check(text, options)
	if err != nil {
		return false
	}
	idx, ok := report.Unique()
	return ok && idx == correct
}
