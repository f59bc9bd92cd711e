package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Harsh-Singh007/grabit/internal/entity"
	"github.com/Harsh-Singh007/grabit/internal/mailer"
	"github.com/Harsh-Singh007/grabit/internal/repository"
)

const (
	bcryptCost = 10
	otpTTL     = 24 * time.Hour
)

type UserService struct {
	users  repository.UserRepository
	mail   mailer.Sender
	tokens *TokenIssuer
	now    func() time.Time
	newOTP func() (string, error)
}

// NewUserService creates a new instance of UserService.
func NewUserService(users repository.UserRepository, mail mailer.Sender, tokens *TokenIssuer) *UserService {
	return &UserService{
		users:  users,
		mail:   mail,
		tokens: tokens,
		now:    time.Now,
		newOTP: generateOTP,
	}
}

// Register creates an unverified buyer and mails the verification code.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*entity.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, newError(ErrInvalidInput, "Please fill all the fields")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, newError(ErrConflict, "User already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	otp, err := s.newOTP()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	user := &entity.User{
		ID:              uuid.NewString(),
		Name:            name,
		Email:           email,
		Password:        string(hash),
		Cart:            []entity.CartItem{},
		VerifyOTP:       otp,
		VerifyOTPExpire: s.now().Add(otpTTL).UTC(),
		CreatedAt:       s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "User already exists")
		}
		logger.Error().Err(err).Msg("Error creating user")
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.sendOTP(ctx, user, false)
	return user, nil
}

// Login checks the credentials and returns a session token for a verified buyer.
func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, "", newError(ErrInvalidInput, "Please fill all the fields")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", errInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", errInvalidCredentials
	}
	if !user.IsVerified {
		return nil, "", ErrNotVerified
	}

	token, err := s.tokens.IssueBuyer(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

func (s *UserService) VerifyAccount(ctx context.Context, email, otp string) error {
	email, otp = strings.TrimSpace(email), strings.TrimSpace(otp)
	if email == "" || otp == "" {
		return newError(ErrInvalidInput, "Email and OTP are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return notFound(err, "User not found")
	}
	if user.IsVerified {
		return newError(ErrInvalidInput, "Account already verified")
	}
	if !user.OTPValid(otp, s.now()) {
		return newError(ErrInvalidInput, "Invalid or expired OTP")
	}

	user.IsVerified = true
	user.VerifyOTP = ""
	user.VerifyOTPExpire = time.Time{}
	if err := s.users.Update(ctx, user); err != nil {
		return notFound(err, "User not found")
	}
	return nil
}

func (s *UserService) ResendOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return newError(ErrInvalidInput, "Email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return notFound(err, "User not found")
	}
	if user.IsVerified {
		return newError(ErrInvalidInput, "Account already verified")
	}

	otp, err := s.newOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	user.VerifyOTP = otp
	user.VerifyOTPExpire = s.now().Add(otpTTL).UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return notFound(err, "User not found")
	}

	s.sendOTP(ctx, user, true)
	return nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	return user, nil
}

type UpdateProfileInput struct {
	Name            string
	Email           string
	CurrentPassword string
	NewPassword     string
}

// UpdateProfile changes name, email or password once the current password checks out.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)) != nil {
		return nil, newError(ErrAuthentication, "Incorrect current password")
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		user.Name = name
	}
	if email := strings.TrimSpace(in.Email); email != "" && email != user.Email {
		other, err := s.users.GetByEmail(ctx, email)
		switch {
		case err == nil && other.ID != user.ID:
			return nil, newError(ErrConflict, "Email already in use")
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
		user.Email = email
	}
	if in.NewPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.Password = string(hash)
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "Email already in use")
		}
		return nil, notFound(err, "User not found")
	}
	return user, nil
}

// UpdateCart replaces the buyer's cart with the normalized items.
func (s *UserService) UpdateCart(ctx context.Context, userID string, items []entity.CartItem) ([]entity.CartItem, error) {
	cart := entity.NormalizeCart(items)
	if err := s.users.UpdateCart(ctx, userID, cart); err != nil {
		return nil, notFound(err, "User not found")
	}
	return cart, nil
}

// sendOTP mails the verification code. Delivery failures are only logged.
func (s *UserService) sendOTP(ctx context.Context, user *entity.User, resend bool) {
	msg, err := mailer.VerificationMessage(user.Email, user.Name, user.VerifyOTP, resend)
	if err == nil {
		err = s.mail.Send(ctx, msg)
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error sending verification email to %s", user.Email)
	}
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
