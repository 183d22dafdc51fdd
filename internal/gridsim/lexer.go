package gridsim

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokWord tokenKind = iota
	tokNumber
	tokLBrace
	tokRBrace
	tokLParen
	tokRParen
	tokSep
	tokEOF
)

func (k tokenKind) String() string {
	switch k {
	case tokWord:
		return "word"
	case tokNumber:
		return "number"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokSep:
		return "separator"
	}
	return "end of program"
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

// ParseError reports where a program stopped making sense.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d: %s", e.Pos, e.Msg)
}

// lex splits a program into tokens. Words are upper-cased; underscores and
// hyphens inside words split them, so MOVE_FORWARD lexes as MOVE FORWARD.
func lex(src string) ([]token, error) {
	var tokens []token
	runes := []rune(src)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == ';' || r == ',' || r == '\n' || r == '\r':
			tokens = append(tokens, token{kind: tokSep, text: string(r), pos: i})
			i++
		case unicode.IsSpace(r) || r == '_' || r == '-' || r == '.' || r == ':':
			i++
		case r == '{' || r == '[':
			tokens = append(tokens, token{kind: tokLBrace, text: string(r), pos: i})
			i++
		case r == '}' || r == ']':
			tokens = append(tokens, token{kind: tokRBrace, text: string(r), pos: i})
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		case unicode.IsDigit(r):
			start := i
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokNumber, text: string(runes[start:i]), pos: start})
		case unicode.IsLetter(r):
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i])) {
				i++
			}
			tokens = append(tokens, token{kind: tokWord, text: strings.ToUpper(string(runes[start:i])), pos: start})
		default:
			return nil, &ParseError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(runes)})
	return tokens, nil
}
