package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"github.com/Harsh-Singh007/grabit/internal/repository"
	"github.com/Harsh-Singh007/grabit/internal/sharding"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const errDuplicateEntry = 1062

// Connect opens dsn and pings it, retrying while the server comes up.
func Connect(dsn string, retries int) (*sql.DB, error) {
	dsn, err := normalizeDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL DSN: %w", err)
	}

	var db *sql.DB
	for i := 0; i < retries; i++ {
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				db.SetMaxOpenConns(25)
				db.SetMaxIdleConns(10)
				db.SetConnMaxLifetime(5 * time.Minute)
				logger.Info().Msg("Connected to MySQL")
				return db, nil
			}
			_ = db.Close()
		}
		logger.Warn().Err(err).Msgf("Retry %d: failed to connect to MySQL", i+1)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to MySQL after %d retries: %w", retries, err)
}

// NewStore builds the repositories. Orders are spread over every db; the
// catalog and accounts live on the first one.
func NewStore(dbs []*sql.DB) (*repository.Store, error) {
	if len(dbs) == 0 {
		return nil, errors.New("mysql store needs at least one database")
	}
	router := sharding.NewShardRouter(len(dbs))

	return &repository.Store{
		Orders:   NewOrderRepository(dbs, router),
		Products: NewProductRepository(dbs[0]),
		Users:    NewUserRepository(dbs[0]),
		Sellers:  NewSellerRepository(dbs[0]),
		Close: func(context.Context) error {
			var errs []error
			for _, db := range dbs {
				errs = append(errs, db.Close())
			}
			return errors.Join(errs...)
		},
	}, nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == errDuplicateEntry {
		return repository.ErrDuplicate
	}
	return err
}

// jsonValue encodes v for a JSON column, writing [] instead of null for nil slices.
func jsonValue[T any](v []T) ([]byte, error) {
	if v == nil {
		v = []T{}
	}
	return json.Marshal(v)
}

// normalizeDSN makes UPDATE report matched rows and DATETIME scan into time.Time.
func normalizeDSN(dsn string) (string, error) {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ClientFoundRows = true
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}
