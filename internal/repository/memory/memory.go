// Package memory keeps every record in process memory. It backs local runs
// with STORE_DRIVER=memory and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Harsh-Singh007/grabit/internal/entity"
	"github.com/Harsh-Singh007/grabit/internal/repository"
)

// NewStore returns a repository.Store whose repositories share nothing but the process.
func NewStore() *repository.Store {
	return &repository.Store{
		Orders:   NewOrderRepository(),
		Products: NewProductRepository(),
		Users:    NewUserRepository(),
		Sellers:  NewSellerRepository(),
		Close:    func(context.Context) error { return nil },
	}
}

type OrderRepository struct {
	mu     sync.Mutex
	orders map[string]entity.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]entity.Order)}
}

func (r *OrderRepository) Create(ctx context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; ok {
		return repository.ErrDuplicate
	}
	r.orders[order.ID] = copyOrder(*order)
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o = copyOrder(o)
	return &o, nil
}

func (r *OrderRepository) ListVisible(ctx context.Context, userID string) ([]entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders := make([]entity.Order, 0)
	for _, o := range r.orders {
		if userID != "" && o.UserID != userID {
			continue
		}
		if !o.Visible() {
			continue
		}
		orders = append(orders, copyOrder(o))
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (r *OrderRepository) UpdateState(ctx context.Context, order *entity.Order, expected entity.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Status != expected {
		return repository.ErrStale
	}
	stored.Status = order.Status
	stored.CancelledBy = order.CancelledBy
	if order.IsPaid {
		stored.IsPaid = true
	}
	r.orders[order.ID] = stored
	return nil
}

func (r *OrderRepository) MarkPaid(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.IsPaid || stored.PaymentType != entity.PaymentCardHosted || stored.Status == entity.StatusCancelled {
		return repository.ErrStale
	}
	stored.IsPaid = true
	r.orders[id] = stored
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func copyOrder(o entity.Order) entity.Order {
	items := make([]entity.OrderItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = entity.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	o.Items = items
	return o
}

type ProductRepository struct {
	mu       sync.Mutex
	products map[string]entity.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[string]entity.Product)}
}

func (r *ProductRepository) Create(ctx context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; ok {
		return repository.ErrDuplicate
	}
	r.products[product.ID] = copyProduct(*product)
	return nil
}

func (r *ProductRepository) CreateMany(ctx context.Context, products []*entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range products {
		if _, ok := r.products[p.ID]; ok {
			return repository.ErrDuplicate
		}
	}
	for _, p := range products {
		r.products[p.ID] = copyProduct(*p)
	}
	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p = copyProduct(p)
	return &p, nil
}

func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	products := make([]entity.Product, 0, len(r.products))
	for _, p := range r.products {
		if filter.Category != "" && !strings.EqualFold(p.Category, filter.Category) {
			continue
		}
		products = append(products, copyProduct(p))
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, p := range r.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[product.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name = product.Name
	stored.Description = append([]string(nil), product.Description...)
	stored.Category = product.Category
	stored.Price = product.Price
	stored.OfferPrice = product.OfferPrice
	stored.Images = append([]string(nil), product.Images...)
	stored.UpdatedAt = product.UpdatedAt
	r.products[product.ID] = stored
	return nil
}

func (r *ProductRepository) SetStock(ctx context.Context, id string, inStock bool) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	stored.InStock = inStock
	r.products[id] = stored
	p := copyProduct(stored)
	return &p, nil
}

func (r *ProductRepository) SaveReviews(ctx context.Context, product *entity.Product, expectedCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[product.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.ReviewCount != expectedCount {
		return repository.ErrStale
	}
	stored.Reviews = append([]entity.Review(nil), product.Reviews...)
	stored.ReviewCount = product.ReviewCount
	stored.AverageRating = product.AverageRating
	r.products[product.ID] = stored
	return nil
}

func copyProduct(p entity.Product) entity.Product {
	p.Description = append([]string(nil), p.Description...)
	p.Images = append([]string(nil), p.Images...)
	p.Reviews = append([]entity.Review(nil), p.Reviews...)
	return p
}

type UserRepository struct {
	mu    sync.Mutex
	users map[string]entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]entity.User)}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return repository.ErrDuplicate
	}
	if r.emailTaken(user.Email, "") {
		return repository.ErrDuplicate
	}
	r.users[user.ID] = copyUser(*user)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u = copyUser(u)
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			u = copyUser(u)
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return repository.ErrDuplicate
	}
	r.users[user.ID] = copyUser(*user)
	return nil
}

func (r *UserRepository) UpdateCart(ctx context.Context, userID string, cart []entity.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Cart = append([]entity.CartItem(nil), cart...)
	r.users[userID] = u
	return nil
}

func (r *UserRepository) emailTaken(email, exceptID string) bool {
	for id, u := range r.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func copyUser(u entity.User) entity.User {
	u.Cart = append([]entity.CartItem(nil), u.Cart...)
	return u
}

type SellerRepository struct {
	mu      sync.Mutex
	sellers map[string]entity.Seller
}

func NewSellerRepository() *SellerRepository {
	return &SellerRepository{sellers: make(map[string]entity.Seller)}
}

func (r *SellerRepository) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.sellers)), nil
}

func (r *SellerRepository) Create(ctx context.Context, seller *entity.Seller) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sellers {
		if s.Email == seller.Email {
			return repository.ErrDuplicate
		}
	}
	r.sellers[seller.ID] = *seller
	return nil
}

func (r *SellerRepository) GetByEmail(ctx context.Context, email string) (*entity.Seller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sellers {
		if s.Email == email {
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *SellerRepository) Update(ctx context.Context, seller *entity.Seller) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sellers[seller.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, s := range r.sellers {
		if id != seller.ID && s.Email == seller.Email {
			return repository.ErrDuplicate
		}
	}
	r.sellers[seller.ID] = *seller
	return nil
}
