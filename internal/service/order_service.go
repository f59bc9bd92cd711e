package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Harsh-Singh007/grabit/internal/entity"
	"github.com/Harsh-Singh007/grabit/internal/events"
	"github.com/Harsh-Singh007/grabit/internal/payment"
	"github.com/Harsh-Singh007/grabit/internal/repository"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const (
	idempotencyTTL = 24 * time.Hour

	// maxItemQuantity caps a single line of an order.
	maxItemQuantity = 1000
	// maxSubtotal leaves room for the surcharge arithmetic in entity.OrderAmount.
	maxSubtotal = math.MaxInt64 / 100
)

// OrderService places orders and drives them through their lifecycle.
type OrderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	users     repository.UserRepository
	payments  payment.Gateway
	publisher events.Publisher
	rdb       *redis.Client
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService. payments and rdb may be nil.
func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, users repository.UserRepository,
	payments payment.Gateway, publisher events.Publisher, rdb *redis.Client) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		users:     users,
		payments:  payments,
		publisher: publisher,
		rdb:       rdb,
		now:       time.Now,
	}
}

type PlaceOrderInput struct {
	UserID        string
	Items         []entity.OrderItem
	Address       entity.Address
	IdempotentKey string
}

// PlaceCOD creates a cash-on-delivery order and empties the buyer's cart.
func (s *OrderService) PlaceCOD(ctx context.Context, in PlaceOrderInput) (*entity.Order, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}
	if err := s.claimIdempotentKey(ctx, in.IdempotentKey); err != nil {
		return nil, err
	}

	order, _, err := s.buildOrder(ctx, in, entity.PaymentCOD)
	if err != nil {
		s.releaseIdempotentKey(ctx, in.IdempotentKey)
		return nil, err
	}
	if err := s.orders.Create(ctx, order); err != nil {
		logger.Error().Err(err).Msg("Error creating order")
		s.releaseIdempotentKey(ctx, in.IdempotentKey)
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.clearCart(ctx, order.UserID)
	s.publish(ctx, events.OrderPlaced, order)
	return order, nil
}

// PlaceCard creates an unpaid card order and opens a hosted checkout for it.
// origin is where the checkout redirects back to. The order is removed again
// when the checkout cannot be opened.
func (s *OrderService) PlaceCard(ctx context.Context, in PlaceOrderInput, origin string) (*entity.Order, string, error) {
	if s.payments == nil {
		return nil, "", payment.ErrNotConfigured
	}
	if err := validateOrderInput(in); err != nil {
		return nil, "", err
	}
	if err := s.claimIdempotentKey(ctx, in.IdempotentKey); err != nil {
		return nil, "", err
	}

	order, lineItems, err := s.buildOrder(ctx, in, entity.PaymentCardHosted)
	if err != nil {
		s.releaseIdempotentKey(ctx, in.IdempotentKey)
		return nil, "", err
	}
	if err := s.orders.Create(ctx, order); err != nil {
		logger.Error().Err(err).Msg("Error creating order")
		s.releaseIdempotentKey(ctx, in.IdempotentKey)
		return nil, "", fmt.Errorf("create order: %w", err)
	}

	var subtotal int64
	for _, li := range lineItems {
		subtotal += li.UnitPrice * li.Quantity
	}
	surcharge, _ := entity.OrderAmount(subtotal)

	origin = strings.TrimRight(origin, "/")
	url, err := s.payments.CreateCheckout(ctx, payment.CheckoutRequest{
		OrderID:    order.ID,
		UserID:     order.UserID,
		Items:      lineItems,
		Surcharge:  surcharge,
		SuccessURL: fmt.Sprintf("%s/verify?success=true&orderId=%s", origin, order.ID),
		CancelURL:  fmt.Sprintf("%s/verify?success=false&orderId=%s", origin, order.ID),
	})
	if err != nil {
		logger.Error().Err(err).Msgf("Error creating checkout for order %s", order.ID)
		if delErr := s.orders.Delete(ctx, order.ID); delErr != nil {
			logger.Error().Err(delErr).Msgf("Error removing unpaid order %s", order.ID)
		}
		s.releaseIdempotentKey(ctx, in.IdempotentKey)
		return nil, "", err
	}
	return order, url, nil
}

// VerifyCardPayment records the checkout outcome. A successful payment marks
// the order paid; a failed one removes the order. An order cancelled before
// the payment is confirmed stays unpaid.
func (s *OrderService) VerifyCardPayment(ctx context.Context, userID, orderID string, success bool) error {
	if orderID == "" {
		return newError(ErrInvalidInput, "Order id is required")
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return notFound(err, "Order not found")
	}
	if order.UserID != userID {
		return newError(ErrUnauthorized, "Unauthorized")
	}
	if order.PaymentType != entity.PaymentCardHosted {
		return newError(ErrInvalidInput, "Order was not paid by card")
	}

	if !success {
		if order.IsPaid {
			return newError(ErrConflict, "Order is already paid")
		}
		if err := s.orders.Delete(ctx, orderID); err != nil {
			return notFound(err, "Order not found")
		}
		s.publish(ctx, events.OrderPaymentFailed, order)
		return nil
	}

	if err := s.orders.MarkPaid(ctx, orderID); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return s.paymentAlreadySettled(ctx, orderID)
		}
		return notFound(err, "Order not found")
	}
	order.IsPaid = true

	s.clearCart(ctx, userID)
	s.publish(ctx, events.OrderPaid, order)
	return nil
}

// paymentAlreadySettled explains a MarkPaid that matched nothing: either an
// earlier call confirmed the payment or the order was cancelled first.
func (s *OrderService) paymentAlreadySettled(ctx context.Context, orderID string) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return notFound(err, "Order not found")
	}
	if order.IsPaid {
		return nil
	}
	if order.Status == entity.StatusCancelled {
		return ErrPaidAfterCancel
	}
	return ErrStaleOrder
}

// ListForUser returns the buyer's COD and paid orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID string) ([]entity.Order, error) {
	orders, err := s.orders.ListVisible(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.populate(ctx, orders)
	return orders, nil
}

// ListAll returns every COD and paid order, newest first.
func (s *OrderService) ListAll(ctx context.Context) ([]entity.Order, error) {
	orders, err := s.orders.ListVisible(ctx, "")
	if err != nil {
		return nil, err
	}
	s.populate(ctx, orders)
	return orders, nil
}

// CancelByUser cancels the buyer's own order while it has not shipped.
func (s *OrderService) CancelByUser(ctx context.Context, userID, orderID string) (*entity.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "Order not found")
	}
	if order.UserID != userID {
		return nil, newError(ErrUnauthorized, "Unauthorized")
	}

	expected := order.Status
	if err := order.CancelByUser(); err != nil {
		return nil, &Error{
			Kind:    ErrConflict,
			Message: fmt.Sprintf("Cannot cancel order. Current status: %s", expected),
			Err:     ErrNotCancellable,
		}
	}
	if err := s.saveState(ctx, order, expected); err != nil {
		return nil, err
	}

	s.publish(ctx, events.OrderCancelled, order)
	return order, nil
}

// UpdateStatus applies a seller status change.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status string) (*entity.Order, error) {
	target, ok := entity.ParseOrderStatus(status)
	if !ok {
		return nil, newError(ErrInvalidInput, "Invalid order status")
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "Order not found")
	}

	expected := order.Status
	if err := order.SetStatusByAdmin(target); err != nil {
		if errors.Is(err, entity.ErrCancelledByUser) {
			return nil, ErrCancelledByUser
		}
		return nil, err
	}
	if err := s.saveState(ctx, order, expected); err != nil {
		return nil, err
	}

	event := events.OrderStatusChanged
	if target == entity.StatusCancelled {
		event = events.OrderCancelled
	}
	s.publish(ctx, event, order)
	return order, nil
}

func (s *OrderService) saveState(ctx context.Context, order *entity.Order, expected entity.OrderStatus) error {
	err := s.orders.UpdateState(ctx, order, expected)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrStale):
		return ErrStaleOrder
	default:
		logger.Error().Err(err).Msgf("Error updating order %s", order.ID)
		return notFound(err, "Order not found")
	}
}

func validateOrderInput(in PlaceOrderInput) error {
	if in.Address.IsZero() || len(in.Items) == 0 {
		return ErrInvalidOrder
	}
	for _, item := range in.Items {
		if item.ProductID == "" || item.Quantity <= 0 || item.Quantity > maxItemQuantity {
			return ErrInvalidOrder
		}
	}
	return nil
}

// buildOrder prices the items at their current offer price. Any product that
// does not resolve aborts the whole order.
func (s *OrderService) buildOrder(ctx context.Context, in PlaceOrderInput, method entity.PaymentMethod) (*entity.Order, []payment.LineItem, error) {
	items := make([]entity.OrderItem, 0, len(in.Items))
	lineItems := make([]payment.LineItem, 0, len(in.Items))
	var subtotal int64

	for _, item := range in.Items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			logger.Error().Err(err).Msgf("Error resolving product %s", item.ProductID)
			return nil, nil, fmt.Errorf("resolve product %s: %w", item.ProductID, err)
		}
		qty := int64(item.Quantity)
		if product.OfferPrice < 0 || product.OfferPrice > (maxSubtotal-subtotal)/qty {
			return nil, nil, ErrInvalidOrder
		}
		subtotal += product.OfferPrice * qty
		items = append(items, entity.OrderItem{ProductID: product.ID, Quantity: item.Quantity})
		lineItems = append(lineItems, payment.LineItem{
			Name:      product.Name,
			UnitPrice: product.OfferPrice,
			Quantity:  int64(item.Quantity),
		})
	}

	_, amount := entity.OrderAmount(subtotal)
	return &entity.Order{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		Items:       items,
		Address:     in.Address,
		Amount:      amount,
		PaymentType: method,
		Status:      entity.StatusOrderPlaced,
		CreatedAt:   s.now().UTC(),
	}, lineItems, nil
}

// populate attaches each item's product. Products that no longer exist are
// left unset.
func (s *OrderService) populate(ctx context.Context, orders []entity.Order) {
	seen := make(map[string]*entity.Product)
	for i := range orders {
		for j := range orders[i].Items {
			id := orders[i].Items[j].ProductID
			p, ok := seen[id]
			if !ok {
				var err error
				p, err = s.products.GetByID(ctx, id)
				if err != nil && !errors.Is(err, repository.ErrNotFound) {
					logger.Warn().Err(err).Msgf("Error loading product %s", id)
				}
				seen[id] = p
			}
			orders[i].Items[j].Product = p
		}
	}
}

// claimIdempotentKey records key for 24h. A key seen before is a Conflict.
func (s *OrderService) claimIdempotentKey(ctx context.Context, key string) error {
	if key == "" || s.rdb == nil {
		return nil
	}
	ok, err := s.rdb.SetNX(ctx, "idempotent-key:"+key, "exists", idempotencyTTL).Result()
	if err != nil {
		return fmt.Errorf("check idempotent key: %w", err)
	}
	if !ok {
		return newError(ErrConflict, "Duplicate request")
	}
	return nil
}

// releaseIdempotentKey frees a claimed key so a failed request can be retried.
func (s *OrderService) releaseIdempotentKey(ctx context.Context, key string) {
	if key == "" || s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, "idempotent-key:"+key).Err(); err != nil {
		logger.Warn().Err(err).Msgf("Error releasing idempotent key %s", key)
	}
}

func (s *OrderService) clearCart(ctx context.Context, userID string) {
	if err := s.users.UpdateCart(ctx, userID, []entity.CartItem{}); err != nil {
		logger.Warn().Err(err).Msgf("Error clearing cart of user %s", userID)
	}
}

func (s *OrderService) publish(ctx context.Context, event string, order *entity.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event, order); err != nil {
		logger.Error().Err(err).Msgf("Error publishing %s event for order %s", event, order.ID)
	}
}
