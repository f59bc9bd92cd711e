package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Harsh-Singh007/grabit/internal/entity"
	"github.com/Harsh-Singh007/grabit/internal/repository"
)

const userColumns = `id, name, email, password, cart, is_verified, verify_otp, verify_otp_expire, created_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	cart, err := jsonValue(user.Cart)
	if err != nil {
		return err
	}

	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.Password, cart,
		user.IsVerified, user.VerifyOTP, nullTime(user), user.CreatedAt)
	return translate(err)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`

	var (
		user   entity.User
		cart   []byte
		expire sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, value).Scan(&user.ID, &user.Name, &user.Email, &user.Password,
		&cart, &user.IsVerified, &user.VerifyOTP, &expire, &user.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	if err := json.Unmarshal(cart, &user.Cart); err != nil {
		return nil, fmt.Errorf("decode cart of user %s: %w", user.ID, err)
	}
	if expire.Valid {
		user.VerifyOTPExpire = expire.Time
	}
	return &user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	cart, err := jsonValue(user.Cart)
	if err != nil {
		return err
	}

	query := `UPDATE users SET name = ?, email = ?, password = ?, cart = ?, is_verified = ?, verify_otp = ?, verify_otp_expire = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, user.Name, user.Email, user.Password, cart,
		user.IsVerified, user.VerifyOTP, nullTime(user), user.ID)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateCart(ctx context.Context, userID string, items []entity.CartItem) error {
	cart, err := jsonValue(items)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `UPDATE users SET cart = ? WHERE id = ?`, cart, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nullTime(user *entity.User) sql.NullTime {
	return sql.NullTime{Time: user.VerifyOTPExpire, Valid: !user.VerifyOTPExpire.IsZero()}
}

type SellerRepository struct {
	db *sql.DB
}

func NewSellerRepository(db *sql.DB) *SellerRepository {
	return &SellerRepository{db}
}

func (r *SellerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sellers`).Scan(&count)
	return count, err
}

func (r *SellerRepository) Create(ctx context.Context, seller *entity.Seller) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO sellers (id, email, password) VALUES (?, ?, ?)`,
		seller.ID, seller.Email, seller.Password)
	return translate(err)
}

func (r *SellerRepository) GetByEmail(ctx context.Context, email string) (*entity.Seller, error) {
	var seller entity.Seller
	err := r.db.QueryRowContext(ctx, `SELECT id, email, password FROM sellers WHERE email = ?`, email).
		Scan(&seller.ID, &seller.Email, &seller.Password)
	if err != nil {
		return nil, translate(err)
	}
	return &seller, nil
}

func (r *SellerRepository) Update(ctx context.Context, seller *entity.Seller) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sellers SET email = ?, password = ? WHERE id = ?`,
		seller.Email, seller.Password, seller.ID)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
