package config

const (
	EnvPrefix = "SOLECART"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"

	EnvAppEnv             = "SOLECART_APP_ENV"
	EnvPort               = "SOLECART_APP_PORT"
	EnvRemoteBaseURL      = "SOLECART_REMOTE_BASE_URL"
	EnvRemoteTimeout      = "SOLECART_REMOTE_TIMEOUT"
	EnvJWTSecret          = "SOLECART_JWT_SECRET"
	EnvJWTIssuer          = "SOLECART_JWT_ISSUER"
	EnvDBDriver           = "SOLECART_DB_DRIVER"
	EnvDBDSN              = "SOLECART_DB_DSN"
	EnvRedisURL           = "SOLECART_REDIS_URL"
	EnvOfflineEnabled     = "SOLECART_OFFLINE_ENABLED"
	EnvOrderStatusTopic   = "SOLECART_PUBSUB_ORDER_STATUS_TOPIC"
	EnvCheckoutFallback   = "SOLECART_CHECKOUT_FALLBACK_NAME"
	EnvSessionIdleTTL     = "SOLECART_SESSION_IDLE_TTL"
	EnvOfflineMaxAttempts = "SOLECART_OFFLINE_MAX_ATTEMPTS"
)
