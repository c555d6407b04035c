package observe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/onsale/marketplace/internal/clock"
)

// ObservationQueue is the durable queue all observations are published to.
const ObservationQueue = "marketplace.observations"

type envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    Observation `json:"payload"`
}

// AMQPPublisher publishes observations to a RabbitMQ queue as JSON
// envelopes.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	clock   clock.Clock
}

// DialAMQP connects to the broker and declares the observation queue.
func DialAMQP(url string, clk clock.Clock) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := channel.QueueDeclare(
		ObservationQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	return &AMQPPublisher{
		conn:    conn,
		channel: channel,
		clock:   clk,
	}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, o Observation) error {
	body, err := json.Marshal(envelope{
		Type:       o.Kind(),
		OccurredAt: p.clock.Now(),
		Payload:    o,
	})
	if err != nil {
		return fmt.Errorf("marshal observation: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		"",               // exchange
		ObservationQueue, // routing key
		false,            // mandatory
		false,            // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish observation: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
