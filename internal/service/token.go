package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long a session cookie stays valid.
const TokenTTL = 7 * 24 * time.Hour

type BuyerClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

type SellerClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

func (t *TokenIssuer) Secret() []byte {
	return t.secret
}

func (t *TokenIssuer) IssueBuyer(userID string) (string, error) {
	return t.sign(&BuyerClaims{UserID: userID, RegisteredClaims: t.registered()})
}

func (t *TokenIssuer) IssueSeller(email string) (string, error) {
	return t.sign(&SellerClaims{Email: email, RegisteredClaims: t.registered()})
}

func (t *TokenIssuer) registered() jwt.RegisteredClaims {
	now := t.now()
	return jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	}
}

func (t *TokenIssuer) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}
