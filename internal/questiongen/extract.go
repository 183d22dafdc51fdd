package questiongen

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"apcsp-quiz/internal/models"
)

// ExtractJSON returns the first balanced {...} object in text, skipping
// braces that appear inside JSON strings. Models often wrap the object in
// prose or a fenced code block.
func ExtractJSON(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		if end, ok := matchBrace(text, start); ok {
			return text[start : end+1], true
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// flexInt accepts 3, "3" or "Big Idea 3".
type flexInt struct {
	value int
	set   bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		v, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return err
		}
		f.value, f.set = int(v), true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	digits := strings.TrimFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if i := strings.IndexFunc(digits, func(r rune) bool { return !unicode.IsDigit(r) }); i >= 0 {
		digits = digits[:i]
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return err
	}
	f.value, f.set = v, true
	return nil
}

// questionPayload is the JSON contract the prompts ask the model to return.
type questionPayload struct {
	QuestionText  string   `json:"questionText"`
	QuestionsText string   `json:"questionsText"`
	Options       []string `json:"options"`
	CorrectAnswer flexInt  `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Topic         string   `json:"topic"`
	BigIdea       flexInt  `json:"bigIdea"`
	QuestionType  string   `json:"questionType"`
	Difficulty    string   `json:"difficulty"`
	Points        int      `json:"points"`
	Tags          []string `json:"tags"`
}

// decodeQuestion turns a model reply into a question. Big idea, type and
// difficulty always come from the slot being filled so the batch keeps its
// planned distribution.
func decodeQuestion(text string, s slot) (*models.Question, error) {
	raw, ok := ExtractJSON(text)
	if !ok {
		return nil, genErr(KindNoJSON, "no JSON object in completion")
	}
	var p questionPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, genErr(KindDecode, "invalid question JSON: %v", err)
	}

	questionText := p.QuestionText
	if strings.TrimSpace(questionText) == "" {
		questionText = p.QuestionsText
	}
	if !p.CorrectAnswer.set {
		return nil, genErr(KindDecode, "correctAnswer missing")
	}

	q := &models.Question{
		QuestionText:  strings.TrimSpace(questionText),
		Options:       trimAll(p.Options),
		CorrectAnswer: p.CorrectAnswer.value,
		Explanation:   strings.TrimSpace(p.Explanation),
		Topic:         strings.TrimSpace(p.Topic),
		BigIdea:       s.BigIdea,
		QuestionType:  s.QuestionType,
		Difficulty:    s.Difficulty,
		Points:        p.Points,
		Tags:          normalizeTags(p.Tags),
	}
	if q.Topic == "" {
		q.Topic = s.BigIdea.Name()
	}
	q.EnsurePoints()
	if err := q.Validate(); err != nil {
		return nil, &GenerationError{Kind: KindDecode, Err: err}
	}
	return q, nil
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
