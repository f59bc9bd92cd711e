package service

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedSeller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.sellers.SeedSeller(ctx, "", ""))
	n, err := f.store.Sellers.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, f.sellers.SeedSeller(ctx, "admin@example.com", "admin"))
	require.NoError(t, f.sellers.SeedSeller(ctx, "other@example.com", "other"))

	n, err = f.store.Sellers.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "seeding happens once")

	_, err = f.sellers.Login(ctx, "other@example.com", "other")
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestSellerLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sellers.SeedSeller(ctx, "admin@example.com", "admin"))

	_, err := f.sellers.Login(ctx, "admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrAuthentication)

	_, err = f.sellers.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	token, err := f.sellers.Login(ctx, "admin@example.com", "admin")
	require.NoError(t, err)

	claims := &SellerClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) { return f.tokens.Secret(), nil })
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Email)
}

func TestSellerUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sellers.SeedSeller(ctx, "admin@example.com", "admin"))

	_, _, err := f.sellers.UpdateProfile(ctx, "admin@example.com", SellerProfileInput{Password: "wrong"})
	assert.ErrorIs(t, err, ErrAuthentication)

	seller, token, err := f.sellers.UpdateProfile(ctx, "admin@example.com", SellerProfileInput{
		Email: "boss@example.com", Password: "admin", NewPassword: "boss",
	})
	require.NoError(t, err)
	assert.Equal(t, "boss@example.com", seller.Email)
	assert.NotEmpty(t, token)

	_, err = f.sellers.Profile(ctx, "admin@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.sellers.Login(ctx, "boss@example.com", "boss")
	assert.NoError(t, err)
}
