package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Booking   BookingConfig
	Catalog   CatalogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	Database      string
	Schema        string
	MigrationsDir string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig holds the secret used to verify session tokens issued by the identity provider
type JWTConfig struct {
	Secret string
}

// BookingConfig controls the checkout workflow timings and navigation targets
type BookingConfig struct {
	SettlementDelay           time.Duration
	ConfirmationDelay         time.Duration
	MissingDraftRedirectDelay time.Duration
	DraftTTL                  time.Duration
	DefaultTime               string
	DateLayout                string
	DashboardPath             string
	CatalogPath               string
	LoginPath                 string
}

type CatalogConfig struct {
	CacheTTL time.Duration
}

type RateLimitConfig struct {
	CheckoutRequests int
	CheckoutWindow   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// IsDevelopment reports whether the server runs outside production
func (c *Config) IsDevelopment() bool {
	return c.Server.Env != "production"
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("DB_MIGRATIONS_DIR", "migrations")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("BOOKING_SETTLEMENT_DELAY", "2s")
	viper.SetDefault("BOOKING_CONFIRMATION_DELAY", "3s")
	viper.SetDefault("BOOKING_MISSING_DRAFT_REDIRECT_DELAY", "2s")
	viper.SetDefault("BOOKING_DRAFT_TTL", "24h")
	viper.SetDefault("BOOKING_DEFAULT_TIME", "10:00")
	viper.SetDefault("BOOKING_DATE_LAYOUT", "02/01/2006")
	viper.SetDefault("BOOKING_DASHBOARD_PATH", "/client/dashboard")
	viper.SetDefault("BOOKING_CATALOG_PATH", "/services")
	viper.SetDefault("BOOKING_LOGIN_PATH", "/login")
	viper.SetDefault("CATALOG_CACHE_TTL", "5m")
	viper.SetDefault("RATE_LIMIT_CHECKOUT_REQUESTS", 10)
	viper.SetDefault("RATE_LIMIT_CHECKOUT_WINDOW", "1m")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:          viper.GetString("DB_HOST"),
			Port:          viper.GetString("DB_PORT"),
			User:          viper.GetString("DB_USER"),
			Password:      viper.GetString("DB_PASSWORD"),
			Database:      viper.GetString("DB_DATABASE"),
			Schema:        viper.GetString("DB_SCHEMA"),
			MigrationsDir: viper.GetString("DB_MIGRATIONS_DIR"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		Booking: BookingConfig{
			SettlementDelay:           viper.GetDuration("BOOKING_SETTLEMENT_DELAY"),
			ConfirmationDelay:         viper.GetDuration("BOOKING_CONFIRMATION_DELAY"),
			MissingDraftRedirectDelay: viper.GetDuration("BOOKING_MISSING_DRAFT_REDIRECT_DELAY"),
			DraftTTL:                  viper.GetDuration("BOOKING_DRAFT_TTL"),
			DefaultTime:               viper.GetString("BOOKING_DEFAULT_TIME"),
			DateLayout:                viper.GetString("BOOKING_DATE_LAYOUT"),
			DashboardPath:             viper.GetString("BOOKING_DASHBOARD_PATH"),
			CatalogPath:               viper.GetString("BOOKING_CATALOG_PATH"),
			LoginPath:                 viper.GetString("BOOKING_LOGIN_PATH"),
		},
		Catalog: CatalogConfig{
			CacheTTL: viper.GetDuration("CATALOG_CACHE_TTL"),
		},
		RateLimit: RateLimitConfig{
			CheckoutRequests: viper.GetInt("RATE_LIMIT_CHECKOUT_REQUESTS"),
			CheckoutWindow:   viper.GetDuration("RATE_LIMIT_CHECKOUT_WINDOW"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
