package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/config"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/pkg/logger"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/pkg/metrics"
	"github.com/rabbitmq/amqp091-go"
)

// LogSink logs contract events. Default sink when no broker is configured.
type LogSink struct{}

func (LogSink) Notify(ctx context.Context, event, contractID string, recipients []string) error {
	logger.Info(ctx, "contract event", "event", event, "contract_id", contractID, "recipients", recipients)
	metrics.RecordNotification(event, "ok")
	return nil
}

// contractEvent is the message published to the broker.
type contractEvent struct {
	Event      string    `json:"event"`
	ContractID string    `json:"contract_id"`
	Recipients []string  `json:"recipients"`
	At         time.Time `json:"at"`
}

// AMQPSink publishes contract events to a durable RabbitMQ queue, where the
// notification workers (e-mail, UI) consume them. Delivery failures are
// reported to the caller, which logs and moves on; a lost notification never
// rolls back a lifecycle transition.
type AMQPSink struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	queue   string
}

func NewAMQPSink(cfg *config.AMQPConfig) (*AMQPSink, error) {
	conn, err := amqp091.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}

	return &AMQPSink{conn: conn, channel: channel, queue: cfg.Queue}, nil
}

func (s *AMQPSink) Notify(ctx context.Context, event, contractID string, recipients []string) error {
	body, err := json.Marshal(contractEvent{
		Event:      event,
		ContractID: contractID,
		Recipients: recipients,
		At:         time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = s.channel.PublishWithContext(ctx, "", s.queue, false, false, amqp091.Publishing{
		DeliveryMode: amqp091.Persistent,
		ContentType:  "application/json",
		Body:         body,
	})
	if err != nil {
		metrics.RecordNotification(event, "error")
		return fmt.Errorf("failed to publish event: %w", err)
	}

	metrics.RecordNotification(event, "ok")
	return nil
}

// Close shuts down the channel and connection.
func (s *AMQPSink) Close() error {
	if err := s.channel.Close(); err != nil {
		return err
	}
	return s.conn.Close()
}
