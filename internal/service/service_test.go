package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Harsh-Singh007/grabit/internal/entity"
	"github.com/Harsh-Singh007/grabit/internal/imagestore"
	"github.com/Harsh-Singh007/grabit/internal/mailer"
	"github.com/Harsh-Singh007/grabit/internal/payment"
	"github.com/Harsh-Singh007/grabit/internal/repository"
	"github.com/Harsh-Singh007/grabit/internal/repository/memory"
)

type publishedEvent struct {
	event string
	order entity.Order
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event string, order *entity.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{event, *order})
	return p.err
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.event
	}
	return out
}

type recordingSender struct {
	sent []mailer.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

type fakeGateway struct {
	requests []payment.CheckoutRequest
	err      error
}

func (g *fakeGateway) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (string, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return "", g.err
	}
	return "https://checkout.example.com/" + req.OrderID, nil
}

type fakeUploader struct {
	uploaded []string
	err      error
}

func (u *fakeUploader) Upload(_ context.Context, f imagestore.File) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.uploaded = append(u.uploaded, f.Name)
	return "https://cdn.example.com/" + f.Name, nil
}

var errBoom = errors.New("boom")

type fixture struct {
	store     *repository.Store
	publisher *recordingPublisher
	sender    *recordingSender
	gateway   *fakeGateway
	uploader  *fakeUploader
	tokens    *TokenIssuer

	orders   *OrderService
	products *ProductService
	users    *UserService
	sellers  *SellerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     memory.NewStore(),
		publisher: &recordingPublisher{},
		sender:    &recordingSender{},
		gateway:   &fakeGateway{},
		uploader:  &fakeUploader{},
		tokens:    NewTokenIssuer("test-secret"),
	}
	f.orders = NewOrderService(f.store.Orders, f.store.Products, f.store.Users, f.gateway, f.publisher, nil)
	f.products = NewProductService(f.store.Products, f.store.Users, f.uploader, nil, time.Minute)
	f.users = NewUserService(f.store.Users, f.sender, f.tokens)
	f.sellers = NewSellerService(f.store.Sellers, f.tokens)
	return f
}

func (f *fixture) addProduct(t *testing.T, name string, price, offer int64) *entity.Product {
	t.Helper()
	p := &entity.Product{
		ID: name + "-id", Name: name, Category: "Fruits", Price: price, OfferPrice: offer,
		Description: []string{"fresh"}, Images: []string{"https://cdn.example.com/" + name}, InStock: true,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.store.Products.Create(context.Background(), p))
	return p
}

func (f *fixture) addUser(t *testing.T, id, email, password string, verified bool) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &entity.User{ID: id, Name: "User " + id, Email: email, Password: string(hash), IsVerified: verified, CreatedAt: time.Now().UTC()}
	require.NoError(t, f.store.Users.Create(context.Background(), u))
	return u
}

var testAddress = entity.Address{
	FirstName: "Ana", LastName: "Silva", Street: "1 Main St", City: "Pune",
	State: "MH", Zipcode: "411001", Country: "IN", Phone: "9999999999",
}
