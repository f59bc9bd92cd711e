package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/Harsh-Singh007/grabit/internal/api"
	"github.com/Harsh-Singh007/grabit/internal/config"
	"github.com/Harsh-Singh007/grabit/internal/consumer"
	"github.com/Harsh-Singh007/grabit/internal/events"
	"github.com/Harsh-Singh007/grabit/internal/imagestore"
	"github.com/Harsh-Singh007/grabit/internal/mailer"
	"github.com/Harsh-Singh007/grabit/internal/payment"
	"github.com/Harsh-Singh007/grabit/internal/repository"
	"github.com/Harsh-Singh007/grabit/internal/repository/memory"
	"github.com/Harsh-Singh007/grabit/internal/repository/mongodb"
	"github.com/Harsh-Singh007/grabit/internal/repository/mysql"
	"github.com/Harsh-Singh007/grabit/internal/service"
	"github.com/Harsh-Singh007/grabit/migrations"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const connectRetries = 10

func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn().Msg("Using in-memory store, data is lost on restart")
		return memory.NewStore(), nil

	case config.DriverMySQL:
		dbs := make([]*sql.DB, 0, len(cfg.MySQLDSNs))
		for _, dsn := range cfg.MySQLDSNs {
			db, err := mysql.Connect(dsn, connectRetries)
			if err != nil {
				return nil, err
			}
			dbs = append(dbs, db)
		}
		if err := migrations.AutoMigrateOrders(3, dbs...); err != nil {
			return nil, err
		}
		if err := migrations.AutoMigrateCatalog(3, dbs[0]); err != nil {
			return nil, err
		}
		return mysql.NewStore(dbs)

	default:
		client, err := mongodb.Connect(ctx, cfg.MongoURI, connectRetries)
		if err != nil {
			return nil, err
		}
		return mongodb.NewStore(ctx, client, cfg.MongoDatabase)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open store")
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("Redis not reachable, caching and idempotency degrade until it is")
		}
	}

	var mail mailer.Sender = mailer.LogSender{}
	if cfg.SMTPHost != "" {
		smtp, err := mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SenderEmail)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to configure SMTP")
		}
		mail = smtp
	}

	var uploader imagestore.Uploader
	if cfg.CloudinaryURL != "" {
		cld, err := imagestore.NewCloudinaryUploader(cfg.CloudinaryURL, "grabit")
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to configure Cloudinary")
		}
		uploader = cld
	} else {
		logger.Warn().Msg("CLOUDINARY_URL not set, product image uploads are disabled")
	}

	var gateway payment.Gateway
	if cfg.StripeSecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeSecretKey, cfg.Currency)
	} else {
		logger.Warn().Msg("STRIPE_SECRET_KEY not set, card checkout is disabled")
	}

	var (
		publisher    events.Publisher = events.LogPublisher{}
		kafkaWriter  *kafka.Writer
		kafkaReader  *kafka.Reader
		consumerDone = make(chan struct{})
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaWriter = config.NewKafkaWriter(cfg.KafkaBrokers, cfg.OrderTopic)
		publisher = events.NewKafkaPublisher(kafkaWriter)

		kafkaReader = config.NewKafkaReader(cfg.KafkaBrokers, cfg.OrderTopic, cfg.NotificationGroup)
		notifications := consumer.NewConsumer(kafkaReader, store.Users, mail)
		go func() {
			defer close(consumerDone)
			notifications.Run(ctx)
		}()
	} else {
		close(consumerDone)
	}

	tokens := service.NewTokenIssuer(cfg.JWTSecret)
	sellerService := service.NewSellerService(store.Sellers, tokens)
	if err := sellerService.SeedSeller(ctx, cfg.SellerEmail, cfg.SellerPassword); err != nil {
		logger.Fatal().Err(err).Msg("Failed to seed seller account")
	}

	cookies := api.NewCookieConfig(cfg.IsProduction())
	handlers := api.Handlers{
		Orders: api.NewOrderHandler(
			service.NewOrderService(store.Orders, store.Products, store.Users, gateway, publisher, rdb), cfg.ClientURL),
		Products: api.NewProductHandler(
			service.NewProductService(store.Products, store.Users, uploader, rdb, cfg.ProductCacheTTL)),
		Users:   api.NewUserHandler(service.NewUserService(store.Users, mail, tokens), cookies),
		Sellers: api.NewSellerHandler(sellerService, cookies),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.ClientURL},
		AllowCredentials: true,
	}))

	api.RegisterRoutes(e, handlers, tokens.Secret(), api.RateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst))

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server stopped")
		}
	}()
	logger.Info().Msgf("Server listening on :%s", cfg.Port)

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error shutting down server")
	}
	<-consumerDone
	if kafkaReader != nil {
		if err := kafkaReader.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing Kafka reader")
		}
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing Kafka writer")
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error closing store")
	}
}
