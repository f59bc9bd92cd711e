// Package events publishes order lifecycle snapshots to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/Harsh-Singh007/grabit/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const (
	OrderPlaced        = "placed"
	OrderPaid          = "paid"
	OrderPaymentFailed = "payment_failed"
	OrderStatusChanged = "status"
	OrderCancelled     = "cancelled"
)

type Publisher interface {
	Publish(ctx context.Context, event string, order *entity.Order) error
}

// EventHeader names the message header carrying the event. Messages are
// keyed by order ID so every event of one order lands on the same partition.
const EventHeader = "event"

// NewMessage builds the Kafka message for an order event.
func NewMessage(event string, order *entity.Order) (kafka.Message, error) {
	orderJSON, err := json.Marshal(order)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:     []byte(order.ID),
		Value:   orderJSON,
		Headers: []kafka.Header{{Key: EventHeader, Value: []byte(event)}},
	}, nil
}

// EventOf reads the event and order ID of a message built by NewMessage.
func EventOf(msg kafka.Message) (event, orderID string, ok bool) {
	for _, h := range msg.Headers {
		if h.Key == EventHeader {
			event = string(h.Value)
		}
	}
	if event == "" || len(msg.Key) == 0 {
		return "", "", false
	}
	return event, string(msg.Key), true
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event string, order *entity.Order) error {
	msg, err := NewMessage(event, order)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event for order %s: %w", event, order.ID, err)
	}
	return nil
}

// LogPublisher only logs events. Used when no brokers are configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event string, order *entity.Order) error {
	logger.Info().Str("event", event).Str("order_id", order.ID).Str("status", string(order.Status)).Msg("Order event")
	return nil
}
