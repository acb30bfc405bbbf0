package config

// EnvPrefix is the envconfig prefix; individual keys override it via tags.
const EnvPrefix = "CHURCHCONNECT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv                 = "CHURCHCONNECT_APP_ENV"
	EnvPort                   = "CHURCHCONNECT_APP_PORT"
	EnvDBDSN                  = "CHURCHCONNECT_DB_DSN"
	EnvDBHost                 = "CHURCHCONNECT_DB_HOST"
	EnvDBUser                 = "CHURCHCONNECT_DB_USER"
	EnvDBName                 = "CHURCHCONNECT_DB_NAME"
	EnvRedisURL               = "CHURCHCONNECT_REDIS_URL"
	EnvJWTSecret              = "CHURCHCONNECT_JWT_SECRET"
	EnvJWTIssuer              = "CHURCHCONNECT_JWT_ISSUER"
	EnvJWTExpMins             = "CHURCHCONNECT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "CHURCHCONNECT_REFRESH_TOKEN_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
