// file: internals/events/publisher.go
package events

import (
	"encoding/json"
	"log"

	"github.com/streadway/amqp"
)

/* =========================================================
   EVENT TYPES (routing key di topic exchange)
========================================================= */

const (
	EventLessonScored        = "lesson.scored"
	EventModuleUnlocked      = "module.unlocked"
	EventModuleCompleted     = "module.completed"
	EventModuleFailed        = "module.failed"
	EventModuleSuspended     = "module.suspended"
	EventAppealWindowOpened  = "appeal.window_opened"
	EventAppealWindowExpired = "appeal.window_expired"
	EventAppealResolved      = "appeal.resolved"
)

// Publisher dipakai semua service mastery untuk menyiarkan event domain.
// Konsumennya collaborator lain (notifikasi, dashboard); engine tidak menunggu.
type Publisher interface {
	Publish(eventType string, payload interface{}) error
}

/* =========================================================
   AMQP (RabbitMQ topic exchange)
========================================================= */

type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewAMQPPublisher(amqpURL, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, err
	}
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(eventType string, payload interface{}) error {
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	log.Printf("[EVENT] %s: %v", eventType, payload)

	// event type jadi routing key
	return p.channel.Publish(
		p.exchange,
		eventType,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

/* =========================================================
   LOG FALLBACK (tanpa broker, mis. lokal / test)
========================================================= */

type LogPublisher struct{}

func NewLogPublisher() *LogPublisher { return &LogPublisher{} }

func (p *LogPublisher) Publish(eventType string, payload interface{}) error {
	log.Printf("[EVENT] %s: %v", eventType, payload)
	return nil
}

// NewPublisherFromEnv: pakai AMQP kalau RABBITMQ_URL diset, selain itu log saja.
func NewPublisherFromEnv(amqpURL, exchange string) Publisher {
	if amqpURL == "" {
		return NewLogPublisher()
	}
	pub, err := NewAMQPPublisher(amqpURL, exchange)
	if err != nil {
		log.Printf("[WARN] Gagal konek RabbitMQ (%v), fallback ke log publisher", err)
		return NewLogPublisher()
	}
	return pub
}
