package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Trial         TrialConfig
	Kiosk         KioskConfig
	Square        SquareConfig
	Cron          CronConfig
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
	Env          string `envconfig:"CHURCHCONNECT_APP_ENV" required:"true"`
	Port         string `envconfig:"CHURCHCONNECT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CHURCHCONNECT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHURCHCONNECT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CHURCHCONNECT_DB_DSN"`
	Driver string `envconfig:"CHURCHCONNECT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CHURCHCONNECT_DB_HOST"`
	LegacyPort     int    `envconfig:"CHURCHCONNECT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CHURCHCONNECT_DB_USER"`
	LegacyPassword string `envconfig:"CHURCHCONNECT_DB_PASSWORD"`
	LegacyName     string `envconfig:"CHURCHCONNECT_DB_NAME"`
	LegacySSLMode  string `envconfig:"CHURCHCONNECT_DB_SSLMODE" default:"disable"`

	// SupportsTransactions is an explicit capability flag decided at store
	// construction. Some serverless access modes cannot run multi-statement
	// transactions; destructive tenant operations then execute the same
	// statements sequentially without atomicity.
	SupportsTransactions bool `envconfig:"CHURCHCONNECT_DB_SUPPORTS_TRANSACTIONS" default:"true"`

	MaxOpenConns    int           `envconfig:"CHURCHCONNECT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CHURCHCONNECT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CHURCHCONNECT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CHURCHCONNECT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CHURCHCONNECT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CHURCHCONNECT_REDIS_ADDR"`
	Password     string        `envconfig:"CHURCHCONNECT_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHURCHCONNECT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHURCHCONNECT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHURCHCONNECT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHURCHCONNECT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHURCHCONNECT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHURCHCONNECT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"CHURCHCONNECT_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CHURCHCONNECT_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"CHURCHCONNECT_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"CHURCHCONNECT_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CHURCHCONNECT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CHURCHCONNECT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CHURCHCONNECT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CHURCHCONNECT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CHURCHCONNECT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CHURCHCONNECT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CHURCHCONNECT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CHURCHCONNECT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CHURCHCONNECT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CHURCHCONNECT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CHURCHCONNECT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CHURCHCONNECT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CHURCHCONNECT_AUTO_MIGRATE" default:"false"`
}

type TrialConfig struct {
	Days              int `envconfig:"CHURCHCONNECT_TRIAL_DAYS" default:"30"`
	DefaultMaxMembers int `envconfig:"CHURCHCONNECT_TRIAL_DEFAULT_MAX_MEMBERS" default:"250"`
}

type KioskConfig struct {
	DefaultSessionTimeoutMinutes int `envconfig:"CHURCHCONNECT_KIOSK_SESSION_TIMEOUT_MINUTES" default:"60"`
	MaxSessionTimeoutMinutes     int `envconfig:"CHURCHCONNECT_KIOSK_MAX_SESSION_TIMEOUT_MINUTES" default:"240"`
}

type SquareConfig struct {
	AccessToken   string `envconfig:"CHURCHCONNECT_SQUARE_ACCESS_TOKEN"`
	Env           string `envconfig:"CHURCHCONNECT_SQUARE_ENV" default:"sandbox"`
	DefaultPlanID string `envconfig:"CHURCHCONNECT_SQUARE_DEFAULT_PLAN_ID"`
	LocationID    string `envconfig:"CHURCHCONNECT_SQUARE_LOCATION_ID"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type CronConfig struct {
	Interval             time.Duration `envconfig:"CHURCHCONNECT_CRON_INTERVAL" default:"24h"`
	AbsenceWeekThreshold int           `envconfig:"CHURCHCONNECT_CRON_ABSENCE_WEEK_THRESHOLD" default:"3"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
