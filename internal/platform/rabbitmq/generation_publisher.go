package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"linkcraft/internal/model"
)

// GenerationPublisher hands finished generation records to the broker so
// the request path never blocks on a MySQL write.
type GenerationPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewGenerationPublisher(conn *amqp.Connection, queueName string) *GenerationPublisher {
	return &GenerationPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *GenerationPublisher) Persist(ctx context.Context, record model.GenerationRecord) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal generation record failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish generation record failed: %w", err)
	}
	return nil
}
