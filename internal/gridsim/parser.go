package gridsim

import (
	"fmt"
	"strconv"
)

// MaxRepeat bounds the count of a single REPEAT. Nesting is bounded by
// MaxSteps at simulation time.
const MaxRepeat = 100

// Command is one node of a parsed robot program.
type Command interface {
	isCommand()
}

// Forward moves one cell in the facing direction.
type Forward struct{}

// Turn rotates a quarter turn in place.
type Turn struct {
	Right bool
}

// Face points the robot in an absolute direction.
type Face struct {
	Dir Direction
}

type Repeat struct {
	Times int
	Body  []Command
}

func (Forward) isCommand() {}
func (Turn) isCommand()    {}
func (Face) isCommand()    {}
func (Repeat) isCommand()  {}

// ParseProgram turns the text of one answer option into commands.
func ParseProgram(src string) ([]Command, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	cmds, err := p.statements()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok, "unexpected %s", describe(tok))
	}
	if len(cmds) == 0 {
		return nil, &ParseError{Pos: 0, Msg: "empty program"}
	}
	return cmds, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) peekAt(offset int) token {
	if p.pos+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+offset]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(tok token, format string, args ...interface{}) *ParseError {
	return &ParseError{Pos: tok.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSeparators() {
	for p.peek().kind == tokSep {
		p.next()
	}
}

// statements parses until '}' or the end of input.
func (p *parser) statements() ([]Command, error) {
	var cmds []Command
	for {
		p.skipSeparators()
		switch p.peek().kind {
		case tokEOF, tokRBrace:
			return cmds, nil
		}
		cmd, err := p.statement()
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd...)
	}
}

func (p *parser) statement() ([]Command, error) {
	tok := p.peek()
	if tok.kind != tokWord {
		return nil, p.errorf(tok, "expected a command, got %s", describe(tok))
	}
	if tok.text == "REPEAT" {
		return p.repeat()
	}
	cmds, err := p.command()
	if err != nil {
		return nil, err
	}
	p.skipCallParens()
	return cmds, nil
}

// repeat parses REPEAT n [TIMES] { ... }.
func (p *parser) repeat() ([]Command, error) {
	p.next()
	numTok := p.next()
	if numTok.kind != tokNumber {
		return nil, p.errorf(numTok, "REPEAT needs a count, got %s", describe(numTok))
	}
	n, err := strconv.Atoi(numTok.text)
	if err != nil || n < 0 || n > MaxRepeat {
		return nil, p.errorf(numTok, "repeat count %s out of range", numTok.text)
	}
	if p.peek().kind == tokWord && p.peek().text == "TIMES" {
		p.next()
	}
	p.skipSeparators()
	open := p.next()
	if open.kind != tokLBrace {
		return nil, p.errorf(open, "expected '{' after REPEAT %d, got %s", n, describe(open))
	}
	body, err := p.statements()
	if err != nil {
		return nil, err
	}
	if closing := p.next(); closing.kind != tokRBrace {
		return nil, p.errorf(closing, "unclosed REPEAT block")
	}
	return []Command{Repeat{Times: n, Body: body}}, nil
}

func (p *parser) command() ([]Command, error) {
	tok := p.next()
	switch tok.text {
	case "MOVE", "GO", "STEP":
		next := p.peek()
		if next.kind == tokWord {
			if next.text == "FORWARD" || next.text == "FORWARDS" || next.text == "AHEAD" {
				p.next()
				return []Command{Forward{}}, nil
			}
			if dir, ok := directionWords[next.text]; ok {
				p.next()
				return []Command{Face{Dir: dir}, Forward{}}, nil
			}
			if tok.text == "GO" {
				return nil, p.errorf(next, "unknown direction %s", next.text)
			}
		}
		return []Command{Forward{}}, nil
	case "FORWARD":
		return []Command{Forward{}}, nil
	case "TURN", "ROTATE":
		dirTok := p.next()
		switch dirTok.text {
		case "LEFT":
			return []Command{Turn{Right: false}}, nil
		case "RIGHT":
			return []Command{Turn{Right: true}}, nil
		case "AROUND":
			return []Command{Turn{Right: true}, Turn{Right: true}}, nil
		}
		return nil, p.errorf(dirTok, "%s needs LEFT, RIGHT or AROUND", tok.text)
	case "LEFT":
		return []Command{Turn{Right: false}}, nil
	case "RIGHT":
		return []Command{Turn{Right: true}}, nil
	case "FACE":
		dirTok := p.next()
		if dir, ok := directionWords[dirTok.text]; ok {
			return []Command{Face{Dir: dir}}, nil
		}
		return nil, p.errorf(dirTok, "FACE needs a direction")
	}
	return nil, p.errorf(tok, "unknown command %s", tok.text)
}

// skipCallParens accepts a trailing empty argument list, as in MOVE_FORWARD().
func (p *parser) skipCallParens() {
	if p.peek().kind == tokLParen && p.peekAt(1).kind == tokRParen {
		p.next()
		p.next()
	}
}

var directionWords = map[string]Direction{
	"UP":    North,
	"NORTH": North,
	"DOWN":  South,
	"SOUTH": South,
	"LEFT":  West,
	"WEST":  West,
	"RIGHT": East,
	"EAST":  East,
}

func describe(tok token) string {
	if tok.kind == tokWord || tok.kind == tokNumber {
		return fmt.Sprintf("%q", tok.text)
	}
	return tok.kind.String()
}
