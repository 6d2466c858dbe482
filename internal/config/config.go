package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// Module provides Config loaded from the environment.
var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewQuotationConfigHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	LogLevel  string
	LogFormat string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime time.Duration
	DBAutoMigrate     bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OtelEnabled       bool
	OTLPEndpoint      string
	OTLPProtocol      string
	OtelSamplingRatio float64

	Pricing PricingConfig
}

// PricingConfig tunes the line-item pricing engine.
type PricingConfig struct {
	CompanyStateCode    string
	DefaultCurrency     string
	CatalogCacheTTL     time.Duration
	ResolveConcurrency  int
	ResolveTimeout      time.Duration
	RejectNegativeTotal bool
	DraftTTL            time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	environment := strings.ToLower(strings.TrimSpace(v.GetString("ENVIRONMENT")))

	cfg := Config{
		AppName:           strings.TrimSpace(v.GetString("APP_SERVICE")),
		AppVersion:        strings.TrimSpace(v.GetString("APP_VERSION")),
		Environment:       environment,
		HTTPAddr:          strings.TrimSpace(v.GetString("HTTP_ADDR")),
		LogLevel:          strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		LogFormat:         strings.ToLower(strings.TrimSpace(v.GetString("LOG_FORMAT"))),
		DBType:            strings.ToLower(strings.TrimSpace(v.GetString("DATABASE_TYPE"))),
		DBHost:            v.GetString("DATABASE_HOST"),
		DBPort:            v.GetString("DATABASE_PORT"),
		DBName:            v.GetString("DATABASE_NAME"),
		DBUser:            v.GetString("DATABASE_USER"),
		DBPassword:        v.GetString("DATABASE_PASSWORD"),
		DBSSLMode:         v.GetString("DATABASE_SSLMODE"),
		DBMaxIdleConn:     v.GetInt("DATABASE_MAX_IDLE_CONN"),
		DBMaxOpenConn:     v.GetInt("DATABASE_MAX_OPEN_CONN"),
		DBConnMaxLifetime: v.GetDuration("DATABASE_CONN_MAX_LIFETIME"),
		DBAutoMigrate:     v.GetBool("DATABASE_AUTO_MIGRATE"),
		RedisAddr:         strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisDB:           v.GetInt("REDIS_DB"),
		OtelEnabled:       v.GetBool("OTEL_ENABLED"),
		OTLPEndpoint:      strings.TrimSpace(v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTLPProtocol:      strings.ToLower(strings.TrimSpace(v.GetString("OTEL_EXPORTER_OTLP_PROTOCOL"))),
		OtelSamplingRatio: v.GetFloat64("OTEL_SAMPLING_RATIO"),
		Pricing: PricingConfig{
			CompanyStateCode:    strings.ToUpper(strings.TrimSpace(v.GetString("COMPANY_STATE_CODE"))),
			DefaultCurrency:     strings.ToUpper(strings.TrimSpace(v.GetString("DEFAULT_CURRENCY"))),
			CatalogCacheTTL:     v.GetDuration("CATALOG_CACHE_TTL"),
			ResolveConcurrency:  v.GetInt("RESOLVE_CONCURRENCY"),
			ResolveTimeout:      v.GetDuration("RESOLVE_TIMEOUT"),
			RejectNegativeTotal: v.GetBool("REJECT_NEGATIVE_TOTAL"),
			DraftTTL:            v.GetDuration("DRAFT_TTL"),
		},
	}

	if cfg.Pricing.ResolveConcurrency <= 0 {
		cfg.Pricing.ResolveConcurrency = 1
	}
	if cfg.Pricing.DefaultCurrency == "" {
		cfg.Pricing.DefaultCurrency = "INR"
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_SERVICE", "medbill")
	v.SetDefault("APP_VERSION", "0.1.0")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DATABASE_TYPE", "postgres")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", "5432")
	v.SetDefault("DATABASE_NAME", "medbill")
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_IDLE_CONN", 5)
	v.SetDefault("DATABASE_MAX_OPEN_CONN", 20)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DATABASE_AUTO_MIGRATE", false)

	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	v.SetDefault("OTEL_SAMPLING_RATIO", 0.1)

	v.SetDefault("COMPANY_STATE_CODE", "27")
	v.SetDefault("DEFAULT_CURRENCY", "INR")
	v.SetDefault("CATALOG_CACHE_TTL", "5m")
	v.SetDefault("RESOLVE_CONCURRENCY", 8)
	v.SetDefault("RESOLVE_TIMEOUT", "3s")
	v.SetDefault("REJECT_NEGATIVE_TOTAL", true)
	v.SetDefault("DRAFT_TTL", "2h")
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Debug reports whether verbose diagnostics should be emitted.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch c.Environment {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}
