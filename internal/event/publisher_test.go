package event

import (
	"encoding/json"
	"testing"

	"apcsp-quiz/internal/logger"
)

func TestNewEvent(t *testing.T) {
	a := NewEvent(QuizCompleted, map[string]string{"quiz_id": "q1"})
	b := NewEvent(QuizCompleted, nil)

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("event ids should be unique and non-empty: %q %q", a.ID, b.ID)
	}
	if a.Type != QuizCompleted {
		t.Errorf("Type = %q", a.Type)
	}

	body, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "type", "payload", "occurred_at"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("encoded event is missing %q", key)
		}
	}
}

func TestLogPublisherNeverFails(t *testing.T) {
	var p Publisher = LogPublisher{Log: logger.Nop()}
	if err := p.Publish(QuizStarted, nil); err != nil {
		t.Errorf("Publish returned %v", err)
	}
	if err := (LogPublisher{}).Publish(QuizStarted, nil); err != nil {
		t.Errorf("Publish without logger returned %v", err)
	}
}
