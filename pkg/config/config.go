package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "SHOPKART"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	CORS         CORSConfig
	Redis        RedisConfig
	Identity     IdentityConfig
	Razorpay     RazorpayConfig
	Pricing      PricingConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPKART_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPKART_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHOPKART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPKART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SHOPKART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPKART_DB_DSN"`
	Driver string `envconfig:"SHOPKART_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SHOPKART_DB_HOST"`
	Port     int    `envconfig:"SHOPKART_DB_PORT" default:"5432"`
	User     string `envconfig:"SHOPKART_DB_USER"`
	Password string `envconfig:"SHOPKART_DB_PASSWORD"`
	Name     string `envconfig:"SHOPKART_DB_NAME"`
	SSLMode  string `envconfig:"SHOPKART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPKART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPKART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPKART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPKART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SHOPKART_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPKART_REDIS_URL"`
	Address      string        `envconfig:"SHOPKART_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPKART_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPKART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPKART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPKART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPKART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPKART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPKART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// IdentityConfig describes the external identity provider integration.
type IdentityConfig struct {
	JWTPublicKeyPEM string        `envconfig:"SHOPKART_IDENTITY_JWT_PUBLIC_KEY"`
	Issuer          string        `envconfig:"SHOPKART_IDENTITY_ISSUER"`
	APIBaseURL      string        `envconfig:"SHOPKART_IDENTITY_API_URL" default:"https://api.clerk.com/v1"`
	APIKey          string        `envconfig:"SHOPKART_IDENTITY_API_KEY"`
	WebhookSecret   string        `envconfig:"SHOPKART_IDENTITY_WEBHOOK_SECRET"`
	RequestTimeout  time.Duration `envconfig:"SHOPKART_IDENTITY_REQUEST_TIMEOUT" default:"10s"`
}

// RazorpayConfig carries the payment gateway credentials.
type RazorpayConfig struct {
	KeyID         string `envconfig:"SHOPKART_RAZORPAY_KEY_ID"`
	KeySecret     string `envconfig:"SHOPKART_RAZORPAY_KEY_SECRET"`
	WebhookSecret string `envconfig:"SHOPKART_RAZORPAY_WEBHOOK_SECRET"`
}

// PricingConfig holds the order pricing knobs. Amounts are in paise.
type PricingConfig struct {
	TaxRate                 string `envconfig:"SHOPKART_PRICING_TAX_RATE" default:"0.18"`
	FreeShippingAbovePaise  int64  `envconfig:"SHOPKART_PRICING_FREE_SHIPPING_ABOVE" default:"50000"`
	ShippingFlatFeePaise    int64  `envconfig:"SHOPKART_PRICING_SHIPPING_FLAT_FEE" default:"5000"`
	OrderNumberRandomDigits int    `envconfig:"SHOPKART_PRICING_ORDER_NUMBER_DIGITS" default:"4"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPKART_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SHOPKART_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"SHOPKART_PUBSUB_DOMAIN_TOPIC" default:"shopkart-domain-events"`
	DomainSubscription string `envconfig:"SHOPKART_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SHOPKART_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SHOPKART_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SHOPKART_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for env, value := range map[string]string{
		"SHOPKART_DB_HOST": db.Host,
		"SHOPKART_DB_USER": db.User,
		"SHOPKART_DB_NAME": db.Name,
	} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either SHOPKART_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
