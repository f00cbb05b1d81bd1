package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"linkcraft/internal/model"
	"linkcraft/internal/repository"
)

// GenerationPersistWorker drains the generation record queue and writes
// each record to MySQL. Records carry their own UUID, so replays after a
// redelivery hit the primary key and are logged rather than duplicated.
type GenerationPersistWorker struct {
	conn      *amqp.Connection
	repo      *repository.GenerationRepository
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewGenerationPersistWorker(conn *amqp.Connection, repo *repository.GenerationRepository, queueName string) *GenerationPersistWorker {
	return &GenerationPersistWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
	}
}

func (w *GenerationPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var record model.GenerationRecord
				if err := json.Unmarshal(d.Body, &record); err != nil {
					log.Printf("generation worker: drop malformed payload: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.repo.Create(&record); err != nil {
					log.Printf("generation worker: persist record %s failed: %v", record.ID, err)
					_ = d.Nack(false, true)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *GenerationPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
