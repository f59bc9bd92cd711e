package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Harsh-Singh007/grabit/internal/entity"
	"github.com/Harsh-Singh007/grabit/internal/repository"
)

type SellerService struct {
	sellers repository.SellerRepository
	tokens  *TokenIssuer
}

func NewSellerService(sellers repository.SellerRepository, tokens *TokenIssuer) *SellerService {
	return &SellerService{sellers: sellers, tokens: tokens}
}

// SeedSeller provisions the seller account from configuration when none
// exists yet. It does nothing when a seller is already present.
func (s *SellerService) SeedSeller(ctx context.Context, email, password string) error {
	count, err := s.sellers.Count(ctx)
	if err != nil {
		return fmt.Errorf("count sellers: %w", err)
	}
	if count > 0 {
		return nil
	}
	if email == "" || password == "" {
		logger.Warn().Msg("No seller account exists and SELLER_EMAIL/SELLER_PASSWORD are not set")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = s.sellers.Create(ctx, &entity.Seller{ID: uuid.NewString(), Email: email, Password: string(hash)})
	if err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("create seller: %w", err)
	}
	logger.Info().Msgf("Seller account %s provisioned", email)
	return nil
}

func (s *SellerService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", newError(ErrInvalidInput, "Please fill all the fields")
	}

	seller, err := s.sellers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", errInvalidCredentials
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(seller.Password), []byte(password)) != nil {
		return "", errInvalidCredentials
	}
	return s.tokens.IssueSeller(seller.Email)
}

func (s *SellerService) Profile(ctx context.Context, email string) (*entity.Seller, error) {
	seller, err := s.sellers.GetByEmail(ctx, email)
	if err != nil {
		return nil, notFound(err, "Seller not found")
	}
	return seller, nil
}

type SellerProfileInput struct {
	Email       string
	Password    string
	NewPassword string
}

// UpdateProfile changes the seller's email or password and returns a fresh
// token, since the token carries the email.
func (s *SellerService) UpdateProfile(ctx context.Context, currentEmail string, in SellerProfileInput) (*entity.Seller, string, error) {
	seller, err := s.sellers.GetByEmail(ctx, currentEmail)
	if err != nil {
		return nil, "", notFound(err, "Seller not found")
	}
	if bcrypt.CompareHashAndPassword([]byte(seller.Password), []byte(in.Password)) != nil {
		return nil, "", newError(ErrAuthentication, "Incorrect current password")
	}

	if email := strings.TrimSpace(in.Email); email != "" {
		seller.Email = email
	}
	if in.NewPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcryptCost)
		if err != nil {
			return nil, "", fmt.Errorf("hash password: %w", err)
		}
		seller.Password = string(hash)
	}

	if err := s.sellers.Update(ctx, seller); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", newError(ErrConflict, "Email already in use")
		}
		return nil, "", notFound(err, "Seller not found")
	}

	token, err := s.tokens.IssueSeller(seller.Email)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return seller, token, nil
}
