package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Harsh-Singh007/grabit/internal/entity"
	"github.com/Harsh-Singh007/grabit/internal/events"
	"github.com/Harsh-Singh007/grabit/internal/imagestore"
	"github.com/Harsh-Singh007/grabit/internal/mailer"
	"github.com/Harsh-Singh007/grabit/internal/payment"
	"github.com/Harsh-Singh007/grabit/internal/repository"
	"github.com/Harsh-Singh007/grabit/internal/repository/memory"
	"github.com/Harsh-Singh007/grabit/internal/service"
)

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, f imagestore.File) (string, error) {
	if _, err := io.ReadAll(f.Body); err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + f.Name, nil
}

type stubGateway struct{ err error }

func (g stubGateway) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return "https://checkout.example.com/" + req.OrderID, nil
}

type testServer struct {
	e      *echo.Echo
	store  *repository.Store
	tokens *service.TokenIssuer
}

func newTestServer(t *testing.T, gateway payment.Gateway) *testServer {
	t.Helper()
	store := memory.NewStore()
	tokens := service.NewTokenIssuer("test-secret")

	sellers := service.NewSellerService(store.Sellers, tokens)
	require.NoError(t, sellers.SeedSeller(context.Background(), "admin@example.com", "admin"))

	cookies := NewCookieConfig(false)
	e := echo.New()
	RegisterRoutes(e, Handlers{
		Orders:   NewOrderHandler(service.NewOrderService(store.Orders, store.Products, store.Users, gateway, events.LogPublisher{}, nil), "http://localhost:5173"),
		Products: NewProductHandler(service.NewProductService(store.Products, store.Users, stubUploader{}, nil, time.Minute)),
		Users:    NewUserHandler(service.NewUserService(store.Users, mailer.LogSender{}, tokens), cookies),
		Sellers:  NewSellerHandler(sellers, cookies),
	}, tokens.Secret(), nil)

	return &testServer{e: e, store: store, tokens: tokens}
}

func (s *testServer) do(t *testing.T, req *http.Request, cookies ...*http.Cookie) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func (s *testServer) post(t *testing.T, path string, payload interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return s.do(t, req, cookies...)
}

func (s *testServer) get(t *testing.T, path string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	return s.do(t, httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

func (s *testServer) buyer(t *testing.T, id, email string) *http.Cookie {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, s.store.Users.Create(context.Background(), &entity.User{
		ID: id, Name: "Buyer " + id, Email: email, Password: string(hash), IsVerified: true,
	}))
	token, err := s.tokens.IssueBuyer(id)
	require.NoError(t, err)
	return &http.Cookie{Name: buyerCookie, Value: token}
}

func (s *testServer) seller(t *testing.T) *http.Cookie {
	t.Helper()
	token, err := s.tokens.IssueSeller("admin@example.com")
	require.NoError(t, err)
	return &http.Cookie{Name: sellerCookie, Value: token}
}

func (s *testServer) product(t *testing.T, id string, offerPrice int64) {
	t.Helper()
	require.NoError(t, s.store.Products.Create(context.Background(), &entity.Product{
		ID: id, Name: id, Category: "Fruits", Price: offerPrice, OfferPrice: offerPrice, InStock: true,
		CreatedAt: time.Now(),
	}))
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var testAddress = map[string]string{
	"firstName": "Ana", "lastName": "Silva", "street": "1 Main St", "city": "Pune",
	"state": "MH", "zipcode": "411001", "country": "IN", "phone": "5550100",
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec, resp := s.get(t, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "grabit", resp["service"])
}

func TestRegisterVerifyLogin(t *testing.T) {
	s := newTestServer(t, nil)
	creds := map[string]string{"name": "Ana", "email": "ana@example.com", "password": "secret"}

	rec, resp := s.post(t, "/api/user/register", creds)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, resp["success"])

	rec, _ = s.post(t, "/api/user/register", creds)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, resp = s.post(t, "/api/user/login", creds)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, true, resp["notVerified"])
	assert.Nil(t, cookieNamed(rec, buyerCookie))

	stored, err := s.store.Users.GetByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	rec, _ = s.post(t, "/api/user/verify-account", map[string]string{"email": "ana@example.com", "otp": "bad"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = s.post(t, "/api/user/verify-account", map[string]string{"email": "ana@example.com", "otp": stored.VerifyOTP})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.post(t, "/api/user/login", map[string]string{"email": "ana@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.post(t, "/api/user/login", creds)
	require.Equal(t, http.StatusOK, rec.Code)
	session := cookieNamed(rec, buyerCookie)
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, int(service.TokenTTL/time.Second), session.MaxAge)

	rec, resp = s.get(t, "/api/user/is-auth", session)
	require.Equal(t, http.StatusOK, rec.Code)
	user := resp["user"].(map[string]interface{})
	assert.Equal(t, "ana@example.com", user["email"])
	assert.NotContains(t, user, "password")

	rec, _ = s.get(t, "/api/user/logout", session)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := cookieNamed(rec, buyerCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	s := newTestServer(t, nil)
	buyer := s.buyer(t, "u1", "ana@example.com")

	for _, path := range []string{"/api/user/is-auth", "/api/order/user", "/api/order/seller", "/api/seller/is-auth"} {
		rec, resp := s.get(t, path)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "Not Authorized", resp["message"], path)
	}

	rec, _ := s.get(t, "/api/order/seller", buyer)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "a buyer session is not a seller session")

	forged := &http.Cookie{Name: buyerCookie, Value: "not-a-jwt"}
	rec, _ = s.get(t, "/api/user/is-auth", forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSellerLoginAndProfile(t *testing.T) {
	s := newTestServer(t, nil)

	rec, _ := s.post(t, "/api/seller/login", map[string]string{"email": "admin@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.post(t, "/api/seller/login", map[string]string{"email": "admin@example.com", "password": "admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	session := cookieNamed(rec, sellerCookie)
	require.NotNil(t, session)

	rec, resp := s.post(t, "/api/seller/update-profile",
		map[string]string{"email": "boss@example.com", "password": "admin", "newPassword": "boss"}, session)
	require.Equal(t, http.StatusOK, rec.Code)
	renewed := cookieNamed(rec, sellerCookie)
	require.NotNil(t, renewed)
	assert.Equal(t, "boss@example.com", resp["seller"].(map[string]interface{})["email"])

	rec, resp = s.get(t, "/api/seller/is-auth", renewed)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "boss@example.com", resp["seller"].(map[string]interface{})["email"])
}

func productUpload(t *testing.T, fields map[string][]string, images ...string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, values := range fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	for _, name := range images {
		part, err := w.CreateFormFile("image", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("png-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/product/add-product", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestAddAndBrowseProducts(t *testing.T) {
	s := newTestServer(t, nil)
	seller := s.seller(t)
	fields := map[string][]string{
		"name": {"Apple"}, "category": {"Fruits"}, "price": {"100"}, "offerPrice": {"90"},
		"description": {"Fresh\nCrunchy"},
	}

	rec, _ := s.do(t, productUpload(t, fields, "a.png"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, productUpload(t, fields), seller)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "an image is required")

	rec, resp := s.do(t, productUpload(t, fields, "a.png", "b.png"), seller)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := resp["product"].(map[string]interface{})
	id := product["_id"].(string)
	assert.Equal(t, []interface{}{"https://cdn.example.com/a.png", "https://cdn.example.com/b.png"}, product["image"])
	assert.Equal(t, []interface{}{"Fresh", "Crunchy"}, product["description"])

	rec, resp = s.post(t, "/api/product/bulk-add", map[string]interface{}{
		"products": []map[string]interface{}{
			{"name": "Milk", "category": "Dairy", "price": 60, "image": "https://img/milk.png", "description": "Full cream"},
		},
	}, seller)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	milk := resp["products"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(60), milk["offerPrice"])
	assert.Equal(t, true, milk["inStock"])

	rec, resp = s.get(t, "/api/product/list?category=fruits")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp["products"], 1)

	_, resp = s.get(t, "/api/product/categories")
	assert.Equal(t, []interface{}{"Dairy", "Fruits"}, resp["categories"])

	rec, resp = s.get(t, "/api/product/id?id="+id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Apple", resp["product"].(map[string]interface{})["name"])

	rec, _ = s.get(t, "/api/product/id?id=missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, resp = s.post(t, "/api/product/stock", map[string]interface{}{"id": id, "inStock": false}, seller)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, resp["product"].(map[string]interface{})["inStock"])
}

func TestReview(t *testing.T) {
	s := newTestServer(t, nil)
	s.product(t, "apple", 90)
	buyer := s.buyer(t, "u1", "ana@example.com")

	review := map[string]interface{}{"productId": "apple", "rating": 4, "comment": "good"}
	rec, resp := s.post(t, "/api/product/review", review, buyer)
	require.Equal(t, http.StatusCreated, rec.Code)
	product := resp["product"].(map[string]interface{})
	assert.Equal(t, float64(1), product["numReviews"])
	assert.Equal(t, float64(4), product["rating"])

	rec, _ = s.post(t, "/api/product/review", review, buyer)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = s.post(t, "/api/product/review", map[string]interface{}{"productId": "missing", "rating": 4}, buyer)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCODOrderLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	s.product(t, "apple", 100)
	buyer := s.buyer(t, "u1", "ana@example.com")
	other := s.buyer(t, "u2", "ben@example.com")
	seller := s.seller(t)

	rec, _ := s.post(t, "/api/order/cod", map[string]interface{}{"items": []interface{}{}, "address": testAddress}, buyer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp := s.post(t, "/api/order/cod", map[string]interface{}{
		"items":   []map[string]interface{}{{"product": "apple", "quantity": 2}},
		"address": testAddress,
	}, buyer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := resp["order"].(map[string]interface{})
	orderID := order["_id"].(string)
	assert.Equal(t, float64(204), order["amount"])
	assert.Equal(t, "Order Placed", order["status"])

	rec, resp = s.get(t, "/api/order/user", buyer)
	require.Equal(t, http.StatusOK, rec.Code)
	orders := resp["orders"].([]interface{})
	require.Len(t, orders, 1)
	item := orders[0].(map[string]interface{})["items"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "apple", item["product"].(map[string]interface{})["name"])

	rec, _ = s.post(t, "/api/order/cancel", map[string]string{"orderId": orderID}, other)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.post(t, "/api/order/status", map[string]string{"orderId": orderID, "status": "Teleported"}, seller)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.post(t, "/api/order/status", map[string]string{"orderId": orderID, "status": "Packing"}, seller)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp = s.post(t, "/api/order/cancel", map[string]string{"orderId": orderID}, buyer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User", resp["order"].(map[string]interface{})["cancelledBy"])

	rec, resp = s.post(t, "/api/order/status", map[string]string{"orderId": orderID, "status": "Shipped"}, seller)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Cannot change status of an order cancelled by the user", resp["message"])

	rec, resp = s.get(t, "/api/order/seller", seller)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp["orders"], 1)
}

func TestCardCheckout(t *testing.T) {
	s := newTestServer(t, stubGateway{})
	s.product(t, "apple", 100)
	buyer := s.buyer(t, "u1", "ana@example.com")
	other := s.buyer(t, "u2", "ben@example.com")
	place := map[string]interface{}{
		"items":   []map[string]interface{}{{"productId": "apple", "quantity": 1}},
		"address": testAddress,
	}

	rec, resp := s.post(t, "/api/order/stripe", place, buyer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	orderID := resp["orderId"].(string)
	assert.Equal(t, "https://checkout.example.com/"+orderID, resp["url"])

	_, resp = s.get(t, "/api/order/user", buyer)
	assert.Empty(t, resp["orders"], "unpaid card orders stay hidden")

	rec, _ = s.post(t, "/api/order/verify-stripe", map[string]string{"orderId": orderID, "success": "true"}, other)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, resp = s.post(t, "/api/order/verify-stripe", map[string]string{"orderId": orderID, "success": "true"}, buyer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])

	_, resp = s.get(t, "/api/order/user", buyer)
	assert.Len(t, resp["orders"], 1)
}

func TestCardCheckout_Failures(t *testing.T) {
	s := newTestServer(t, stubGateway{})
	s.product(t, "apple", 100)
	buyer := s.buyer(t, "u1", "ana@example.com")
	place := map[string]interface{}{
		"items":   []map[string]interface{}{{"productId": "apple", "quantity": 1}},
		"address": testAddress,
	}

	_, resp := s.post(t, "/api/order/stripe", place, buyer)
	orderID := resp["orderId"].(string)

	rec, resp := s.post(t, "/api/order/verify-stripe", map[string]interface{}{"orderId": orderID, "success": false}, buyer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, resp["success"])

	_, err := s.store.Orders.GetByID(context.Background(), orderID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	unconfigured := newTestServer(t, nil)
	unconfigured.product(t, "apple", 100)
	rec, _ = unconfigured.post(t, "/api/order/stripe", place, unconfigured.buyer(t, "u1", "ana@example.com"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	broken := newTestServer(t, stubGateway{err: errors.New("stripe down")})
	broken.product(t, "apple", 100)
	rec, resp = broken.post(t, "/api/order/stripe", place, broken.buyer(t, "u1", "ana@example.com"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", resp["message"])
}

func TestUpdateCart(t *testing.T) {
	s := newTestServer(t, nil)
	buyer := s.buyer(t, "u1", "ana@example.com")

	rec, resp := s.post(t, "/api/cart/update", map[string]interface{}{
		"cartItems": map[string]int{"banana": 2, "apple": 1, "kiwi": 0},
	}, buyer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{
		map[string]interface{}{"productId": "apple", "quantity": float64(1)},
		map[string]interface{}{"productId": "banana", "quantity": float64(2)},
	}, resp["cartItems"])
}

func TestRateLimiter(t *testing.T) {
	e := echo.New()
	e.GET("/limited", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RateLimiter(0.001, 1))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/limited", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/limited", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestNewCookieConfig(t *testing.T) {
	prod := NewCookieConfig(true)
	assert.True(t, prod.Secure)
	assert.Equal(t, http.SameSiteNoneMode, prod.SameSite)

	dev := NewCookieConfig(false)
	assert.False(t, dev.Secure)
	assert.Equal(t, http.SameSiteLaxMode, dev.SameSite)
}
