package repository

import (
	"context"
	"errors"

	"github.com/Harsh-Singh007/grabit/internal/entity"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrStale is returned by conditional writes whose precondition no longer holds.
	ErrStale = errors.New("record changed since it was read")
)

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// ListVisible returns COD or paid orders, newest first. An empty userID lists every buyer.
	ListVisible(ctx context.Context, userID string) ([]entity.Order, error)
	// UpdateState writes status and cancelledBy if the stored status still equals expected.
	// isPaid is only ever raised, never cleared.
	UpdateState(ctx context.Context, order *entity.Order, expected entity.OrderStatus) error
	// MarkPaid flags an unpaid card order as paid unless it was cancelled.
	MarkPaid(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type ProductFilter struct {
	Category string
}

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	CreateMany(ctx context.Context, products []*entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]entity.Product, error)
	Categories(ctx context.Context) ([]string, error)
	// Update writes the seller-editable fields.
	Update(ctx context.Context, product *entity.Product) error
	SetStock(ctx context.Context, id string, inStock bool) (*entity.Product, error)
	// SaveReviews writes reviews and rating summary if the stored review count still equals expectedCount.
	SaveReviews(ctx context.Context, product *entity.Product, expectedCount int) error
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	UpdateCart(ctx context.Context, userID string, cart []entity.CartItem) error
}

type SellerRepository interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, seller *entity.Seller) error
	GetByEmail(ctx context.Context, email string) (*entity.Seller, error)
	Update(ctx context.Context, seller *entity.Seller) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Orders   OrderRepository
	Products ProductRepository
	Users    UserRepository
	Sellers  SellerRepository
	Close    func(ctx context.Context) error
}
