package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Orders   *OrderHandler
	Products *ProductHandler
	Users    *UserHandler
	Sellers  *SellerHandler
}

// RegisterRoutes mounts every endpoint under /api. authLimiter guards the
// credential endpoints and may be nil.
func RegisterRoutes(e *echo.Echo, h Handlers, secret []byte, authLimiter echo.MiddlewareFunc) {
	buyer := BuyerAuth(secret)
	seller := SellerAuth(secret)

	limited := []echo.MiddlewareFunc{}
	if authLimiter != nil {
		limited = append(limited, authLimiter)
	}

	g := e.Group("/api")

	g.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": "grabit",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	user := g.Group("/user")
	user.POST("/register", h.Users.Register, limited...)
	user.POST("/login", h.Users.Login, limited...)
	user.POST("/verify-account", h.Users.VerifyAccount, limited...)
	user.POST("/resend-otp", h.Users.ResendOTP, limited...)
	user.GET("/is-auth", h.Users.IsAuth, buyer)
	user.GET("/logout", h.Users.Logout, buyer)
	user.POST("/update-profile", h.Users.UpdateProfile, buyer)

	g.POST("/cart/update", h.Users.UpdateCart, buyer)

	sel := g.Group("/seller")
	sel.POST("/login", h.Sellers.Login, limited...)
	sel.GET("/is-auth", h.Sellers.IsAuth, seller)
	sel.GET("/logout", h.Sellers.Logout, seller)
	sel.POST("/update-profile", h.Sellers.UpdateProfile, seller)

	product := g.Group("/product")
	product.GET("/list", h.Products.List)
	product.GET("/categories", h.Products.Categories)
	product.GET("/id", h.Products.Get)
	product.POST("/add-product", h.Products.Add, seller)
	product.POST("/bulk-add", h.Products.BulkAdd, seller)
	product.POST("/update", h.Products.Update, seller)
	product.POST("/stock", h.Products.SetStock, seller)
	product.POST("/review", h.Products.AddReview, buyer)

	order := g.Group("/order")
	order.POST("/cod", h.Orders.PlaceCOD, buyer)
	order.POST("/stripe", h.Orders.PlaceCard, buyer)
	order.POST("/verify-stripe", h.Orders.VerifyCardPayment, buyer)
	order.GET("/user", h.Orders.ListForUser, buyer)
	order.POST("/cancel", h.Orders.Cancel, buyer)
	order.GET("/seller", h.Orders.ListAll, seller)
	order.POST("/status", h.Orders.UpdateStatus, seller)
}
