package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harsh-Singh007/grabit/internal/entity"
	"github.com/Harsh-Singh007/grabit/internal/events"
	"github.com/Harsh-Singh007/grabit/internal/mailer"
	"github.com/Harsh-Singh007/grabit/internal/repository/memory"
)

type recordingSender struct {
	sent []mailer.Message
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.sent = append(s.sent, msg)
	return nil
}

func newTestConsumer(t *testing.T) (*Consumer, *recordingSender) {
	t.Helper()
	users := memory.NewUserRepository()
	require.NoError(t, users.Create(context.Background(), &entity.User{ID: "u1", Name: "Ana", Email: "ana@example.com"}))

	sender := &recordingSender{}
	return &Consumer{users: users, mail: sender}, sender
}

func orderMessage(t *testing.T, event string, order *entity.Order) kafka.Message {
	t.Helper()
	msg, err := events.NewMessage(event, order)
	require.NoError(t, err)
	return msg
}

func TestProcessMessage_NotifiesOnStatus(t *testing.T) {
	c, sender := newTestConsumer(t)
	order := &entity.Order{ID: "o1", UserID: "u1", Status: entity.StatusShipped}

	require.NoError(t, c.processMessage(context.Background(), orderMessage(t, events.OrderStatusChanged, order)))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ana@example.com", sender.sent[0].To)
	assert.Equal(t, "Your order is Shipped", sender.sent[0].Subject)
}

func TestProcessMessage_IgnoresOtherEvents(t *testing.T) {
	c, sender := newTestConsumer(t)
	order := &entity.Order{ID: "o1", UserID: "u1", Status: entity.StatusOrderPlaced}

	require.NoError(t, c.processMessage(context.Background(), orderMessage(t, events.OrderPlaced, order)))
	assert.Empty(t, sender.sent)
}

func TestProcessMessage_UnknownBuyer(t *testing.T) {
	c, sender := newTestConsumer(t)
	order := &entity.Order{ID: "o1", UserID: "ghost", Status: entity.StatusCancelled, CancelledBy: entity.CancelledByAdmin}

	require.NoError(t, c.processMessage(context.Background(), orderMessage(t, events.OrderCancelled, order)))
	assert.Empty(t, sender.sent)
}

func TestProcessMessage_Malformed(t *testing.T) {
	c, _ := newTestConsumer(t)

	assert.Error(t, c.processMessage(context.Background(), kafka.Message{Key: []byte("o1")}))
	assert.Error(t, c.processMessage(context.Background(), kafka.Message{
		Key:     []byte("o1"),
		Value:   []byte("{"),
		Headers: []kafka.Header{{Key: events.EventHeader, Value: []byte(events.OrderStatusChanged)}},
	}))
}

type scriptedReader struct {
	msgs   []kafka.Message
	cancel context.CancelFunc
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	if msg.Key == nil {
		return kafka.Message{}, errors.New("transient")
	}
	return msg, nil
}

func TestRun_StopsOnCancel(t *testing.T) {
	c, sender := newTestConsumer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	order := &entity.Order{ID: "o1", UserID: "u1", Status: entity.StatusDelivered}
	c.reader = &scriptedReader{
		msgs:   []kafka.Message{{}, orderMessage(t, events.OrderStatusChanged, order)},
		cancel: cancel,
	}

	c.Run(ctx)
	assert.Len(t, sender.sent, 1)
}
