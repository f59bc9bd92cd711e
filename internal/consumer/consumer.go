package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/Harsh-Singh007/grabit/internal/entity"
	"github.com/Harsh-Singh007/grabit/internal/events"
	"github.com/Harsh-Singh007/grabit/internal/mailer"
	"github.com/Harsh-Singh007/grabit/internal/repository"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Consumer turns order events into buyer notifications.
type Consumer struct {
	reader messageReader
	users  repository.UserRepository
	mail   mailer.Sender
}

func NewConsumer(reader *kafka.Reader, users repository.UserRepository, mail mailer.Sender) *Consumer {
	return &Consumer{reader: reader, users: users, mail: mail}
}

// Run reads the order topic until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error().Err(err).Msg("Error reading message")
			continue
		}

		if err := c.processMessage(ctx, msg); err != nil {
			logger.Error().Err(err).Str("key", string(msg.Key)).Msg("Error processing order event")
		}
	}
}

// processMessage notifies the buyer about status changes and cancellations.
// Other events are ignored.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	event, orderID, ok := events.EventOf(msg)
	if !ok {
		return fmt.Errorf("malformed order event with key %q", msg.Key)
	}

	switch event {
	case events.OrderStatusChanged, events.OrderCancelled:
	default:
		return nil
	}

	var order entity.Order
	if err := json.Unmarshal(msg.Value, &order); err != nil {
		return fmt.Errorf("decode order %s: %w", orderID, err)
	}

	user, err := c.users.GetByID(ctx, order.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn().Str("order_id", orderID).Msg("Buyer of order no longer exists")
			return nil
		}
		return err
	}

	m, err := mailer.OrderUpdateMessage(user.Email, user.Name, &order)
	if err != nil {
		return err
	}
	return c.mail.Send(ctx, m)
}
