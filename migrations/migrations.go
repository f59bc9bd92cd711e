package migrations

import (
	"database/sql"
	"fmt"
	"time"
)

const ordersTable = `
	CREATE TABLE IF NOT EXISTS orders (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL,
		items JSON NOT NULL,
		address JSON NOT NULL,
		amount BIGINT NOT NULL,
		payment_type VARCHAR(16) NOT NULL,
		is_paid BOOLEAN NOT NULL DEFAULT FALSE,
		status VARCHAR(32) NOT NULL,
		cancelled_by VARCHAR(8) NULL,
		created_at DATETIME(3) NOT NULL,
		INDEX user_created_idx (user_id, created_at)
	);
`

const productsTable = `
	CREATE TABLE IF NOT EXISTS products (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description JSON NOT NULL,
		category VARCHAR(128) NOT NULL,
		price BIGINT NOT NULL,
		offer_price BIGINT NOT NULL,
		images JSON NOT NULL,
		in_stock BOOLEAN NOT NULL DEFAULT TRUE,
		reviews JSON NOT NULL,
		review_count INT NOT NULL DEFAULT 0,
		average_rating DOUBLE NOT NULL DEFAULT 0,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		INDEX category_idx (category)
	);
`

const usersTable = `
	CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password VARCHAR(255) NOT NULL,
		cart JSON NOT NULL,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		verify_otp VARCHAR(6) NOT NULL DEFAULT '',
		verify_otp_expire DATETIME(3) NULL,
		created_at DATETIME(3) NOT NULL,
		UNIQUE INDEX email_idx (email)
	);
`

const sellersTable = `
	CREATE TABLE IF NOT EXISTS sellers (
		id VARCHAR(36) PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		password VARCHAR(255) NOT NULL,
		UNIQUE INDEX email_idx (email)
	);
`

// AutoMigrateOrders creates the orders table on every shard if it does not exist.
func AutoMigrateOrders(retries int, dbs ...*sql.DB) error {
	for _, db := range dbs {
		if err := execWithRetry(db, ordersTable, retries); err != nil {
			return fmt.Errorf("migrate orders: %w", err)
		}
	}
	return nil
}

// AutoMigrateCatalog creates the products, users and sellers tables if they do not exist.
func AutoMigrateCatalog(retries int, db *sql.DB) error {
	for name, query := range map[string]string{
		"products": productsTable,
		"users":    usersTable,
		"sellers":  sellersTable,
	} {
		if err := execWithRetry(db, query, retries); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}
	return nil
}

func execWithRetry(db *sql.DB, query string, retries int) error {
	_, err := db.Exec(query)
	for i := 0; err != nil && i < retries; i++ {
		time.Sleep(1 * time.Second)
		_, err = db.Exec(query)
	}
	return err
}
