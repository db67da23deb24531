package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Service  ServiceConfig
	Remote   RemoteConfig
	JWT      JWTConfig
	DB       DBConfig
	Redis    RedisConfig
	Offline  OfflineConfig
	Session  SessionConfig
	Checkout CheckoutConfig
	GCP      GCPConfig
	PubSub   PubSubConfig
	Cron     CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Remote.validate(); err != nil {
		return nil, err
	}
	if err := cfg.JWT.validate(); err != nil {
		return nil, err
	}
	if err := cfg.DB.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SOLECART_APP_ENV" required:"true"`
	Port         string `envconfig:"SOLECART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SOLECART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOLECART_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"SOLECART_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SOLECART_SERVICE_KIND" default:"api"`
}

// RemoteConfig points at the storefront REST API that owns carts, products and orders.
type RemoteConfig struct {
	BaseURL         string        `envconfig:"SOLECART_REMOTE_BASE_URL" required:"true"`
	Timeout         time.Duration `envconfig:"SOLECART_REMOTE_TIMEOUT" default:"8s"`
	BreakerFailures uint32        `envconfig:"SOLECART_REMOTE_BREAKER_FAILURES" default:"5"`
	BreakerCooldown time.Duration `envconfig:"SOLECART_REMOTE_BREAKER_COOLDOWN" default:"30s"`
	BreakerProbes   uint32        `envconfig:"SOLECART_REMOTE_BREAKER_PROBES" default:"1"`
}

func (r RemoteConfig) validate() error {
	raw := strings.TrimSpace(r.BaseURL)
	if raw == "" {
		return fmt.Errorf("%s is required", EnvRemoteBaseURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvRemoteBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url", EnvRemoteBaseURL)
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvRemoteTimeout)
	}
	return nil
}

// JWTConfig holds the key shared with the storefront API, which signs the
// bearer tokens callers present. Issuer is only checked when set.
type JWTConfig struct {
	Secret string `envconfig:"SOLECART_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"SOLECART_JWT_ISSUER"`
}

func (j JWTConfig) validate() error {
	if strings.TrimSpace(j.Secret) == "" {
		return fmt.Errorf("%s is required", EnvJWTSecret)
	}
	return nil
}

type DBConfig struct {
	DSN    string `envconfig:"SOLECART_DB_DSN" default:"file:solecart.db?_busy_timeout=5000"`
	Driver string `envconfig:"SOLECART_DB_DRIVER" default:"sqlite"`
	// AutoMigrate applies the embedded goose migrations at startup.
	AutoMigrate bool `envconfig:"SOLECART_DB_AUTO_MIGRATE" default:"true"`

	MaxOpenConns    int           `envconfig:"SOLECART_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"SOLECART_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"SOLECART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOLECART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsPostgres reports whether the queue database is a shared Postgres instance.
func (db DBConfig) IsPostgres() bool {
	return db.Driver == DBDriverPostgres
}

func (db *DBConfig) normalize() error {
	db.Driver = strings.ToLower(strings.TrimSpace(db.Driver))
	switch db.Driver {
	case DBDriverSQLite, DBDriverPostgres:
	default:
		return fmt.Errorf("%s must be %q or %q", EnvDBDriver, DBDriverSQLite, DBDriverPostgres)
	}
	if strings.TrimSpace(db.DSN) == "" {
		return fmt.Errorf("%s is required", EnvDBDSN)
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"SOLECART_REDIS_URL"`
	Address      string        `envconfig:"SOLECART_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"SOLECART_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOLECART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOLECART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOLECART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOLECART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOLECART_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"SOLECART_REDIS_WRITE_TIMEOUT" default:"3s"`
	CartTTL      time.Duration `envconfig:"SOLECART_REDIS_CART_TTL" default:"168h"`
}

// OfflineConfig controls the durable mutation queue used while the cart service is unreachable.
type OfflineConfig struct {
	Enabled     bool          `envconfig:"SOLECART_OFFLINE_ENABLED" default:"true"`
	MaxAttempts int           `envconfig:"SOLECART_OFFLINE_MAX_ATTEMPTS" default:"10"`
	FlushBatch  int           `envconfig:"SOLECART_OFFLINE_FLUSH_BATCH" default:"50"`
	Retention   time.Duration `envconfig:"SOLECART_OFFLINE_RETENTION" default:"72h"`
}

type SessionConfig struct {
	IdleTTL       time.Duration `envconfig:"SOLECART_SESSION_IDLE_TTL" default:"30m"`
	SweepInterval time.Duration `envconfig:"SOLECART_SESSION_SWEEP_INTERVAL" default:"5m"`
}

type CheckoutConfig struct {
	FallbackName string `envconfig:"SOLECART_CHECKOUT_FALLBACK_NAME" default:"Product"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"SOLECART_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"SOLECART_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrderStatusTopic string `envconfig:"SOLECART_PUBSUB_ORDER_STATUS_TOPIC"`
}

// NotificationsEnabled reports whether order status notifications should be published.
func (p PubSubConfig) NotificationsEnabled() bool {
	return strings.TrimSpace(p.OrderStatusTopic) != ""
}

type CronConfig struct {
	Interval time.Duration `envconfig:"SOLECART_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"SOLECART_CRON_LOCK_TTL" default:"55m"`
}
