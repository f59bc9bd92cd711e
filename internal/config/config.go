package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

type Config struct {
	Env       string
	Port      string
	ClientURL string
	JWTSecret string

	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	MySQLDSNs     []string

	RedisAddr       string
	ProductCacheTTL time.Duration

	KafkaBrokers      []string
	OrderTopic        string
	NotificationGroup string

	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	SenderEmail string

	CloudinaryURL string

	StripeSecretKey string
	Currency        string

	SellerEmail    string
	SellerPassword string

	AuthRateLimit float64
	AuthRateBurst int
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Msg("Could not load .env file")
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "4000"),
		ClientURL:         getEnv("CLIENT_URL", "http://localhost:5173"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:     getEnv("MONGO_DATABASE", "grabit"),
		MySQLDSNs:         splitList(os.Getenv("MYSQL_DSNS")),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		OrderTopic:        getEnv("ORDER_TOPIC", "order-topic"),
		NotificationGroup: getEnv("NOTIFICATION_GROUP", "notification-service-group"),
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPUser:          os.Getenv("SMTP_USER"),
		SMTPPass:          os.Getenv("SMTP_PASS"),
		SenderEmail:       os.Getenv("SENDER_EMAIL"),
		CloudinaryURL:     os.Getenv("CLOUDINARY_URL"),
		StripeSecretKey:   os.Getenv("STRIPE_SECRET_KEY"),
		Currency:          strings.ToLower(getEnv("CURRENCY", "inr")),
		SellerEmail:       os.Getenv("SELLER_EMAIL"),
		SellerPassword:    os.Getenv("SELLER_PASSWORD"),
	}

	var err error
	if cfg.SMTPPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587")); err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	if cfg.ProductCacheTTL, err = time.ParseDuration(getEnv("PRODUCT_CACHE_TTL", "5m")); err != nil {
		return nil, fmt.Errorf("invalid PRODUCT_CACHE_TTL: %w", err)
	}
	if cfg.AuthRateLimit, err = strconv.ParseFloat(getEnv("AUTH_RATE_LIMIT", "1"), 64); err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_LIMIT: %w", err)
	}
	if cfg.AuthRateBurst, err = strconv.Atoi(getEnv("AUTH_RATE_BURST", "5")); err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_BURST: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case DriverMongo, DriverMemory:
	case DriverMySQL:
		if len(c.MySQLDSNs) == 0 {
			return errors.New("MYSQL_DSNS is required for the mysql store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
