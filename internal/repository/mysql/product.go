package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Harsh-Singh007/grabit/internal/entity"
	"github.com/Harsh-Singh007/grabit/internal/repository"
)

const productColumns = `id, name, description, category, price, offer_price, images, in_stock, reviews, review_count, average_rating, created_at, updated_at`

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db}
}

func (r *ProductRepository) Create(ctx context.Context, product *entity.Product) error {
	return r.insert(ctx, r.db, product)
}

// CreateMany inserts every product in one transaction.
func (r *ProductRepository) CreateMany(ctx context.Context, products []*entity.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range products {
		if err := r.insert(ctx, tx, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *ProductRepository) insert(ctx context.Context, db execer, p *entity.Product) error {
	description, err := jsonValue(p.Description)
	if err != nil {
		return err
	}
	images, err := jsonValue(p.Images)
	if err != nil {
		return err
	}
	reviews, err := jsonValue(p.Reviews)
	if err != nil {
		return err
	}

	query := `INSERT INTO products (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = db.ExecContext(ctx, query,
		p.ID, p.Name, description, p.Category, p.Price, p.OfferPrice, images, p.InStock,
		reviews, p.ReviewCount, p.AverageRating, p.CreatedAt, p.UpdatedAt,
	)
	return translate(err)
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return product, nil
}

func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	var args []interface{}
	if filter.Category != "" {
		query += ` WHERE LOWER(category) = LOWER(?)`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]entity.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	return products, rows.Err()
}

func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT category FROM products ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *ProductRepository) Update(ctx context.Context, p *entity.Product) error {
	description, err := jsonValue(p.Description)
	if err != nil {
		return err
	}
	images, err := jsonValue(p.Images)
	if err != nil {
		return err
	}

	query := `UPDATE products SET name = ?, description = ?, category = ?, price = ?, offer_price = ?, images = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, p.Name, description, p.Category, p.Price, p.OfferPrice, images, p.UpdatedAt, p.ID)
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

func (r *ProductRepository) SetStock(ctx context.Context, id string, inStock bool) (*entity.Product, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET in_stock = ? WHERE id = ?`, inStock, id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, repository.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *ProductRepository) SaveReviews(ctx context.Context, p *entity.Product, expectedCount int) error {
	reviews, err := jsonValue(p.Reviews)
	if err != nil {
		return err
	}

	query := `UPDATE products SET reviews = ?, review_count = ?, average_rating = ? WHERE id = ? AND review_count = ?`
	res, err := r.db.ExecContext(ctx, query, reviews, p.ReviewCount, p.AverageRating, p.ID, expectedCount)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE id = ?`, p.ID).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrStale
}

func scanProduct(row rowScanner) (*entity.Product, error) {
	var (
		p           entity.Product
		description []byte
		images      []byte
		reviews     []byte
	)
	err := row.Scan(&p.ID, &p.Name, &description, &p.Category, &p.Price, &p.OfferPrice, &images,
		&p.InStock, &reviews, &p.ReviewCount, &p.AverageRating, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	for _, col := range []struct {
		raw  []byte
		dest interface{}
	}{
		{description, &p.Description},
		{images, &p.Images},
		{reviews, &p.Reviews},
	} {
		if err := json.Unmarshal(col.raw, col.dest); err != nil {
			return nil, fmt.Errorf("decode product %s: %w", p.ID, err)
		}
	}
	return &p, nil
}
