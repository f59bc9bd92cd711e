package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Harsh-Singh007/grabit/internal/entity"
	"github.com/Harsh-Singh007/grabit/internal/repository"
	"github.com/Harsh-Singh007/grabit/internal/sharding"
)

const orderColumns = `id, user_id, items, address, amount, payment_type, is_paid, status, cancelled_by, created_at`

type OrderRepository struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewOrderRepository(dbShards []*sql.DB, router *sharding.ShardRouter) *OrderRepository {
	return &OrderRepository{dbShards, router}
}

func (r *OrderRepository) shard(id string) *sql.DB {
	return r.dbShards[r.router.GetShard(id)]
}

func (r *OrderRepository) Create(ctx context.Context, order *entity.Order) error {
	items, err := jsonValue(order.Items)
	if err != nil {
		return err
	}
	address, err := json.Marshal(order.Address)
	if err != nil {
		return err
	}

	query := `INSERT INTO orders (` + orderColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.shard(order.ID).ExecContext(ctx, query,
		order.ID, order.UserID, items, address, order.Amount, order.PaymentType,
		order.IsPaid, order.Status, nullString(string(order.CancelledBy)), order.CreatedAt,
	)
	return translate(err)
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	order, err := scanOrder(r.shard(id).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return order, nil
}

// ListVisible queries every shard and merges the results newest first.
func (r *OrderRepository) ListVisible(ctx context.Context, userID string) ([]entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE (payment_type = ? OR is_paid = TRUE)`
	args := []interface{}{entity.PaymentCOD}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}

	orders := make([]entity.Order, 0)
	for i, db := range r.dbShards {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("query shard %d: %w", i, err)
		}
		for rows.Next() {
			order, err := scanOrder(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			orders = append(orders, *order)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (r *OrderRepository) UpdateState(ctx context.Context, order *entity.Order, expected entity.OrderStatus) error {
	query := `UPDATE orders SET status = ?, cancelled_by = ?, is_paid = (is_paid OR ?) WHERE id = ? AND status = ?`
	res, err := r.shard(order.ID).ExecContext(ctx, query,
		order.Status, nullString(string(order.CancelledBy)), order.IsPaid, order.ID, expected,
	)
	if err != nil {
		return err
	}
	return r.checkMatched(ctx, res, order.ID)
}

func (r *OrderRepository) MarkPaid(ctx context.Context, id string) error {
	query := `UPDATE orders SET is_paid = TRUE WHERE id = ? AND is_paid = FALSE AND payment_type = ? AND status <> ?`
	res, err := r.shard(id).ExecContext(ctx, query, id, entity.PaymentCardHosted, entity.StatusCancelled)
	if err != nil {
		return err
	}
	return r.checkMatched(ctx, res, id)
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	res, err := r.shard(id).ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
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

// checkMatched tells a missing order apart from a failed precondition.
func (r *OrderRepository) checkMatched(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var count int
	if err := r.shard(id).QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE id = ?`, id).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrStale
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	var (
		order       entity.Order
		items       []byte
		address     []byte
		cancelledBy sql.NullString
	)
	err := row.Scan(&order.ID, &order.UserID, &items, &address, &order.Amount, &order.PaymentType,
		&order.IsPaid, &order.Status, &cancelledBy, &order.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", order.ID, err)
	}
	if err := json.Unmarshal(address, &order.Address); err != nil {
		return nil, fmt.Errorf("decode address of order %s: %w", order.ID, err)
	}
	order.CancelledBy = entity.CancelledBy(cancelledBy.String)
	return &order, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
