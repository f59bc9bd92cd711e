package mongodb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Harsh-Singh007/grabit/internal/repository"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const (
	ordersCollection   = "orders"
	productsCollection = "products"
	usersCollection    = "users"
	sellersCollection  = "sellers"
)

// Connect dials MongoDB, retrying while the server comes up.
func Connect(ctx context.Context, uri string, retries int) (*mongo.Client, error) {
	var err error
	for i := 0; i < retries; i++ {
		var client *mongo.Client
		client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err == nil {
			err = client.Ping(ctx, nil)
			if err == nil {
				logger.Info().Msg("Connected to MongoDB")
				return client, nil
			}
			_ = client.Disconnect(ctx)
		}
		logger.Warn().Err(err).Msgf("Retry %d: failed to connect to MongoDB", i+1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return nil, fmt.Errorf("failed to connect to MongoDB after %d retries: %w", retries, err)
}

// NewStore builds the repositories on top of database and makes sure the unique indexes exist.
func NewStore(ctx context.Context, client *mongo.Client, database string) (*repository.Store, error) {
	db := client.Database(database)
	if err := ensureIndexes(ctx, db); err != nil {
		return nil, err
	}

	return &repository.Store{
		Orders:   NewOrderRepository(db),
		Products: NewProductRepository(db),
		Users:    NewUserRepository(db),
		Sellers:  NewSellerRepository(db),
		Close:    client.Disconnect,
	}, nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string]mongo.IndexModel{
		usersCollection:    {Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		sellersCollection:  {Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		ordersCollection:   {Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		productsCollection: {Keys: bson.D{{Key: "category", Value: 1}}},
	}
	for name, model := range indexes {
		if _, err := db.Collection(name).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", name, err)
		}
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrDuplicate
	}
	return err
}
