package gridsim

import (
	"errors"
	"reflect"
	"testing"
)

const pipeQuestion = `The robot is in the top-left square facing right. Which program moves it to the checkmark?

| > |   |   |   |
|   |   |   |   |
|   |   | ✔ |   |
|   |   |   |   |`

const glyphQuestion = `Consider the grid below.
. . . .
. ^ . .
. . . .
✓ . . .
Which program reaches the goal?`

func TestParseGrid(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Grid
	}{
		{"pipe rows", pipeQuestion, Grid{Robot: Position{0, 0}, Facing: East, Goal: Position{2, 2}}},
		{"glyph rows", glyphQuestion, Grid{Robot: Position{1, 1}, Facing: North, Goal: Position{3, 0}}},
		{"ruled rows", "+---+---+---+---+\n| v |   |   |   |\n+---+---+---+---+\n|   |   |   | ✔ |\n+---+---+---+---+\n| | | | |\n| | | | |",
			Grid{Robot: Position{0, 0}, Facing: South, Goal: Position{1, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGrid(tt.text)
			if err != nil {
				t.Fatalf("ParseGrid: %v", err)
			}
			if *got != tt.want {
				t.Errorf("ParseGrid() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestParseGridMissingGlyphs(t *testing.T) {
	if _, err := ParseGrid("| ✔ | | | |\n| | | | |"); !errors.Is(err, ErrNoRobot) {
		t.Errorf("expected ErrNoRobot, got %v", err)
	}
	if _, err := ParseGrid("| > | | | |\n| | | | |"); !errors.Is(err, ErrNoGoal) {
		t.Errorf("expected ErrNoGoal, got %v", err)
	}
	if _, err := ParseGrid("What is 2 + 2?"); !errors.Is(err, ErrNoRobot) {
		t.Errorf("plain text: expected ErrNoRobot, got %v", err)
	}
	if HasGrid("What is 2 + 2?") {
		t.Error("HasGrid should be false for plain text")
	}
}

func TestParseGridRobotOnGoal(t *testing.T) {
	text := "| > ✔ |   |   |   |\n|   |   |   |   |\n|   |   |   |   |\n|   |   |   |   |"
	if _, err := ParseGrid(text); !errors.Is(err, ErrRobotOnGoal) {
		t.Errorf("expected ErrRobotOnGoal, got %v", err)
	}
	if ValidateQuestion(text, []string{"MOVE_FORWARD", "ROTATE_LEFT", "ROTATE_RIGHT", "TURN AROUND"}) {
		t.Error("a grid that starts on the goal should not validate")
	}
}

func TestParseProgram(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Command
	}{
		{"underscored", "MOVE_FORWARD; ROTATE_LEFT", []Command{Forward{}, Turn{Right: false}}},
		{"call parens", "MOVE_FORWARD()\nROTATE_RIGHT()", []Command{Forward{}, Turn{Right: true}}},
		{"synonyms", "go forward, turn right, forward, left", []Command{Forward{}, Turn{Right: true}, Forward{}, Turn{Right: false}}},
		{"turn around", "TURN AROUND", []Command{Turn{Right: true}, Turn{Right: true}}},
		{"absolute", "Move Down; move west", []Command{Face{Dir: South}, Forward{}, Face{Dir: West}, Forward{}}},
		{"repeat", "REPEAT 2 TIMES { MOVE_FORWARD }", []Command{Repeat{Times: 2, Body: []Command{Forward{}}}}},
		{"nested repeat", "REPEAT 2 TIMES\n{\n  REPEAT 3 TIMES [ ROTATE_LEFT ]\n  MOVE_FORWARD\n}",
			[]Command{Repeat{Times: 2, Body: []Command{Repeat{Times: 3, Body: []Command{Turn{}}}, Forward{}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProgram(tt.src)
			if err != nil {
				t.Fatalf("ParseProgram(%q): %v", tt.src, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseProgram(%q) = %#v, want %#v", tt.src, got, tt.want)
			}
		})
	}
}

func TestParseProgramErrors(t *testing.T) {
	bad := []string{
		"",
		"JUMP",
		"TURN SIDEWAYS",
		"REPEAT TIMES { MOVE_FORWARD }",
		"REPEAT 2 TIMES { MOVE_FORWARD",
		"REPEAT 1000 TIMES { MOVE_FORWARD }",
		"MOVE_FORWARD }",
		"MOVE_FORWARD @",
	}
	for _, src := range bad {
		_, err := ParseProgram(src)
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("ParseProgram(%q): expected *ParseError, got %v", src, err)
		}
	}
}

func TestSimulate(t *testing.T) {
	grid, err := ParseGrid(pipeQuestion)
	if err != nil {
		t.Fatalf("ParseGrid: %v", err)
	}

	tests := []struct {
		name    string
		program string
		reached bool
		offGrid bool
	}{
		{"reaches goal", "MOVE_FORWARD; MOVE_FORWARD; ROTATE_RIGHT; MOVE_FORWARD; MOVE_FORWARD", true, false},
		{"leaves grid", "ROTATE_LEFT; MOVE_FORWARD", false, true},
		{"falls short", "MOVE_FORWARD", false, false},
		{"repeat reaches goal", "REPEAT 2 TIMES { MOVE_FORWARD }\nROTATE_RIGHT\nREPEAT 2 TIMES { MOVE_FORWARD }", true, false},
		{"stops at goal", "MOVE_FORWARD; MOVE_FORWARD; ROTATE_RIGHT; REPEAT 10 TIMES { MOVE_FORWARD }", true, false},
		{"absolute moves", "MOVE DOWN; MOVE DOWN; MOVE RIGHT; MOVE RIGHT", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds, err := ParseProgram(tt.program)
			if err != nil {
				t.Fatalf("ParseProgram: %v", err)
			}
			out := Simulate(grid, cmds)
			if out.ReachedGoal != tt.reached || out.OffGrid != tt.offGrid {
				t.Errorf("Simulate(%q) = %+v, want reached=%v offGrid=%v", tt.program, out, tt.reached, tt.offGrid)
			}
		})
	}
}

func TestSimulateStepLimit(t *testing.T) {
	grid, err := ParseGrid(pipeQuestion)
	if err != nil {
		t.Fatalf("ParseGrid: %v", err)
	}

	tests := []struct {
		name      string
		program   string
		reached   bool
		exhausted bool
	}{
		{"nested spin", "REPEAT 100 TIMES { REPEAT 100 TIMES { REPEAT 100 TIMES { REPEAT 100 TIMES { ROTATE_LEFT } } } }", false, true},
		{"spin then goal", "REPEAT 100 TIMES { REPEAT 100 TIMES { REPEAT 100 TIMES { ROTATE_LEFT } } }\nMOVE_FORWARD; MOVE_FORWARD; ROTATE_RIGHT; MOVE_FORWARD; MOVE_FORWARD", false, true},
		{"within limit", "REPEAT 100 TIMES { REPEAT 4 TIMES { ROTATE_LEFT } }\nMOVE_FORWARD; MOVE_FORWARD; ROTATE_RIGHT; MOVE_FORWARD; MOVE_FORWARD", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds, err := ParseProgram(tt.program)
			if err != nil {
				t.Fatalf("ParseProgram: %v", err)
			}
			out := Simulate(grid, cmds)
			if out.ReachedGoal != tt.reached || out.Exhausted != tt.exhausted {
				t.Errorf("Simulate = %+v, want reached=%v exhausted=%v", out, tt.reached, tt.exhausted)
			}
		})
	}
}

func TestValidateQuestion(t *testing.T) {
	unique := []string{
		"MOVE_FORWARD; MOVE_FORWARD; ROTATE_RIGHT; MOVE_FORWARD; MOVE_FORWARD",
		"ROTATE_LEFT; MOVE_FORWARD",
		"MOVE_FORWARD",
		"ROTATE_RIGHT; MOVE_FORWARD; MOVE_FORWARD; MOVE_FORWARD; MOVE_FORWARD",
	}
	if !ValidateQuestion(pipeQuestion, unique) {
		t.Error("exactly one succeeding option should validate")
	}
	if !ValidateAnswer(pipeQuestion, unique, 0) {
		t.Error("option 0 should be the validated answer")
	}
	if ValidateAnswer(pipeQuestion, unique, 2) {
		t.Error("option 2 does not reach the goal")
	}

	ambiguous := []string{
		"MOVE_FORWARD; MOVE_FORWARD; ROTATE_RIGHT; MOVE_FORWARD; MOVE_FORWARD",
		"ROTATE_RIGHT; MOVE_FORWARD; MOVE_FORWARD; ROTATE_LEFT; MOVE_FORWARD; MOVE_FORWARD",
		"ROTATE_LEFT; MOVE_FORWARD",
		"MOVE_FORWARD",
	}
	if ValidateQuestion(pipeQuestion, ambiguous) {
		t.Error("two succeeding options should not validate")
	}

	report, err := Check(pipeQuestion, ambiguous)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !reflect.DeepEqual(report.Succeeding, []int{0, 1}) {
		t.Errorf("succeeding = %v, want [0 1]", report.Succeeding)
	}

	if ValidateQuestion("no grid here", unique) {
		t.Error("a question without a grid should not validate")
	}

	withBadOption := []string{unique[0], "JUMP TWICE", unique[2], unique[3]}
	report, err = Check(pipeQuestion, withBadOption)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.Options[1].Error == "" || report.Options[1].Outcome != nil {
		t.Errorf("unparseable option should carry an error: %+v", report.Options[1])
	}
	if idx, ok := report.Unique(); !ok || idx != 0 {
		t.Errorf("Unique() = %d, %v; want 0, true", idx, ok)
	}
}
