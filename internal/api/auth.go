package api

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Harsh-Singh007/grabit/internal/service"
)

const (
	buyerCookie  = "token"
	sellerCookie = "sellerToken"

	buyerContextKey  = "buyer"
	sellerContextKey = "seller"
)

// BuyerAuth admits requests carrying a valid buyer session cookie.
func BuyerAuth(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    secret,
		TokenLookup:   "cookie:" + buyerCookie,
		ContextKey:    buyerContextKey,
		NewClaimsFunc: func(echo.Context) jwt.Claims { return new(service.BuyerClaims) },
		ErrorHandler:  notAuthorized,
	})
}

// SellerAuth admits requests carrying a valid seller session cookie.
func SellerAuth(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    secret,
		TokenLookup:   "cookie:" + sellerCookie,
		ContextKey:    sellerContextKey,
		NewClaimsFunc: func(echo.Context) jwt.Claims { return new(service.SellerClaims) },
		ErrorHandler:  notAuthorized,
	})
}

func notAuthorized(c echo.Context, _ error) error {
	return fail(c, http.StatusUnauthorized, "Not Authorized")
}

func buyerID(c echo.Context) string {
	token, ok := c.Get(buyerContextKey).(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(*service.BuyerClaims)
	if !ok {
		return ""
	}
	return claims.UserID
}

func sellerEmail(c echo.Context) string {
	token, ok := c.Get(sellerContextKey).(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(*service.SellerClaims)
	if !ok {
		return ""
	}
	return claims.Email
}

// RateLimiter throttles a route group per client address.
func RateLimiter(limit float64, burst int) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(limit),
				Burst:     burst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return fail(c, http.StatusTooManyRequests, "rate limit exceeded")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return fail(c, http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}

type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
}

// NewCookieConfig returns cross-site cookies in production and lax ones elsewhere.
func NewCookieConfig(production bool) CookieConfig {
	if production {
		return CookieConfig{Secure: true, SameSite: http.SameSiteNoneMode}
	}
	return CookieConfig{SameSite: http.SameSiteLaxMode}
}

func (cc CookieConfig) set(c echo.Context, name, value string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: cc.SameSite,
		MaxAge:   int(service.TokenTTL / time.Second),
		Expires:  time.Now().Add(service.TokenTTL),
	})
}

func (cc CookieConfig) clear(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: cc.SameSite,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
