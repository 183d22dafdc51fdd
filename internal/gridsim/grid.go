package gridsim

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Size is the side length of every robot grid.
const Size = 4

var (
	ErrNoRobot = errors.New("no robot glyph found in grid")
	ErrNoGoal  = errors.New("no goal glyph found in grid")

	ErrRobotOnGoal = errors.New("robot starts on the goal")
)

// Direction is a compass heading, clockwise from North.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	}
	return "unknown"
}

func (d Direction) right() Direction { return (d + 1) % 4 }
func (d Direction) left() Direction  { return (d + 3) % 4 }

func (d Direction) delta() (int, int) {
	switch d {
	case North:
		return -1, 0
	case East:
		return 0, 1
	case South:
		return 1, 0
	}
	return 0, -1
}

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) inBounds() bool {
	return p.Row >= 0 && p.Row < Size && p.Col >= 0 && p.Col < Size
}

// Grid is the starting state read out of a question's text.
type Grid struct {
	Robot  Position  `json:"robot"`
	Facing Direction `json:"facing"`
	Goal   Position  `json:"goal"`
}

var robotGlyphs = map[rune]Direction{
	'^': North,
	'>': East,
	'v': South,
	'V': South,
	'<': West,
}

var goalGlyphs = map[rune]bool{
	'✔': true,
	'✓': true,
	'✅': true,
}

// ParseGrid locates the robot and goal in the first block of grid rows in
// text. Rows are either pipe separated (| > |   |   |   |) or four
// whitespace separated single glyphs (> . . .).
func ParseGrid(text string) (*Grid, error) {
	rows := gridRows(text)
	if len(rows) > Size {
		rows = rows[:Size]
	}

	var grid Grid
	haveRobot, haveGoal := false, false
	for r, cells := range rows {
		for c, cell := range cells {
			for _, ch := range cell {
				if dir, ok := robotGlyphs[ch]; ok && !haveRobot {
					grid.Robot = Position{Row: r, Col: c}
					grid.Facing = dir
					haveRobot = true
				}
				if goalGlyphs[ch] && !haveGoal {
					grid.Goal = Position{Row: r, Col: c}
					haveGoal = true
				}
			}
		}
	}
	if !haveRobot {
		return nil, ErrNoRobot
	}
	if !haveGoal {
		return nil, ErrNoGoal
	}
	if grid.Robot == grid.Goal {
		return nil, ErrRobotOnGoal
	}
	return &grid, nil
}

// HasGrid reports whether text carries a robot grid with both glyphs.
func HasGrid(text string) bool {
	_, err := ParseGrid(text)
	return err == nil
}

// gridRows returns the first run of consecutive grid rows. Ruler lines such
// as +---+---+ are skipped without ending the run.
func gridRows(text string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if isRuler(line) {
			continue
		}
		cells, ok := pipeCells(line)
		if !ok {
			cells, ok = glyphCells(line)
		}
		if ok {
			rows = append(rows, cells)
			continue
		}
		if len(rows) > 0 {
			break
		}
	}
	return rows
}

func pipeCells(line string) ([]string, bool) {
	if !strings.Contains(line, "|") {
		return nil, false
	}
	parts := strings.Split(strings.TrimSpace(line), "|")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}
	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) != Size {
		return nil, false
	}
	cells := make([]string, Size)
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells, true
}

func glyphCells(line string) ([]string, bool) {
	fields := strings.Fields(line)
	if len(fields) != Size {
		return nil, false
	}
	for _, f := range fields {
		if utf8.RuneCountInString(f) != 1 {
			return nil, false
		}
		r, _ := utf8.DecodeRuneInString(f)
		if unicode.IsDigit(r) {
			return nil, false
		}
		if unicode.IsLetter(r) && !strings.ContainsRune("vVxXoO", r) {
			return nil, false
		}
	}
	return fields, true
}

func isRuler(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.ContainsAny(trimmed, "-=") {
		return false
	}
	return strings.Trim(trimmed, "+-=|: ") == ""
}
