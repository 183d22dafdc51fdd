package event

import (
	"encoding/json"
	"sync"
	"time"

	"apcsp-quiz/internal/logger"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

const (
	QuizGenerated      = "quiz.generated"
	QuizStarted        = "quiz.started"
	QuizCompleted      = "quiz.completed"
	QuizAbandoned      = "quiz.abandoned"
	QuizRetaken        = "quiz.retaken"
	QuizzesArchived    = "quiz.archived"
	QuizzesExpired     = "quiz.expired"
	QuestionsGenerated = "question.batch_generated"
)

type Publisher interface {
	Publish(eventType string, payload interface{}) error
}

type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func NewEvent(eventType string, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

type EventPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *logger.Logger
}

func NewEventPublisher(amqpURL, exchange string, log *logger.Logger) (*EventPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &EventPublisher{conn: conn, channel: ch, exchange: exchange, log: log}, nil
}

// Publish sends the event with its type as the topic routing key.
func (p *EventPublisher) Publish(eventType string, payload interface{}) error {
	evt := NewEvent(eventType, payload)
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	p.log.Debug("publishing event", "type", eventType, "event_id", evt.ID)

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.Publish(
		p.exchange,
		eventType,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    evt.ID,
			Timestamp:    evt.OccurredAt,
			Type:         eventType,
			Body:         body,
		},
	)
}

func (p *EventPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// LogPublisher only logs events. It stands in when RabbitMQ is not configured.
type LogPublisher struct {
	Log *logger.Logger
}

func (p LogPublisher) Publish(eventType string, payload interface{}) error {
	if p.Log != nil {
		p.Log.Debug("event", "type", eventType, "payload", payload)
	}
	return nil
}
