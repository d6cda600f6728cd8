package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Admin        AdminConfig
	Password     PasswordConfig
	Razorpay     RazorpayConfig
	Payments     PaymentsConfig
	FX           FXConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
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

// LoadPassword reads only the Argon2id settings, for tools that hash
// credentials without a full service configuration.
func LoadPassword() (PasswordConfig, error) {
	var cfg PasswordConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return PasswordConfig{}, fmt.Errorf("parsing password config: %w", err)
	}
	return cfg, nil
}

type AppConfig struct {
	Env             string        `envconfig:"AASTA_APP_ENV" required:"true"`
	Port            string        `envconfig:"AASTA_APP_PORT" default:"5000"`
	LogLevel        string        `envconfig:"AASTA_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"AASTA_LOG_WARN_STACK" default:"false"`
	LogFormat       string        `envconfig:"AASTA_LOG_FORMAT" default:"json"`
	FrontendURL     string        `envconfig:"AASTA_FRONTEND_URL"`
	ShutdownTimeout time.Duration `envconfig:"AASTA_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AASTA_DB_DSN"`
	Driver string `envconfig:"AASTA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AASTA_DB_HOST"`
	LegacyPort     int    `envconfig:"AASTA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AASTA_DB_USER"`
	LegacyPassword string `envconfig:"AASTA_DB_PASSWORD"`
	LegacyName     string `envconfig:"AASTA_DB_NAME"`
	LegacySSLMode  string `envconfig:"AASTA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AASTA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AASTA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AASTA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AASTA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional: without a URL or address the API runs without
// rate limiting and without the shared FX mirror.
type RedisConfig struct {
	URL          string        `envconfig:"AASTA_REDIS_URL"`
	Address      string        `envconfig:"AASTA_REDIS_ADDR"`
	Password     string        `envconfig:"AASTA_REDIS_PASSWORD"`
	DB           int           `envconfig:"AASTA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AASTA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AASTA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AASTA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AASTA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AASTA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"AASTA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AASTA_JWT_ISSUER" default:"aasta"`
	ExpirationMinutes int    `envconfig:"AASTA_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type AdminConfig struct {
	Username     string `envconfig:"AASTA_ADMIN_USERNAME" default:"admin"`
	PasswordHash string `envconfig:"AASTA_ADMIN_PASSWORD_HASH"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AASTA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AASTA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AASTA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AASTA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AASTA_ARGON_KEY_LEN" default:"32"`
}

type RazorpayConfig struct {
	KeyID     string        `envconfig:"AASTA_RAZORPAY_KEY_ID"`
	KeySecret string        `envconfig:"AASTA_RAZORPAY_KEY_SECRET"`
	Timeout   time.Duration `envconfig:"AASTA_RAZORPAY_TIMEOUT" default:"10s"`
}

// Configured reports whether the signing secret is present. Verification must
// refuse to run without it.
func (r RazorpayConfig) Configured() bool {
	return strings.TrimSpace(r.KeySecret) != ""
}

type PaymentsConfig struct {
	Currency               string `envconfig:"AASTA_PAYMENTS_CURRENCY" default:"INR"`
	MinimumInvestment      int64  `envconfig:"AASTA_PAYMENTS_MIN_INVESTMENT" default:"300"`
	MinimumOrderMinorUnits int64  `envconfig:"AASTA_PAYMENTS_MIN_ORDER_MINOR_UNITS" default:"100"`
	MaxPerTransaction      int64  `envconfig:"AASTA_PAYMENTS_MAX_PER_TRANSACTION" default:"50000"`
	RecentInvestorsLimit   int    `envconfig:"AASTA_PAYMENTS_RECENT_LIMIT" default:"20"`
	OrderDescription       string `envconfig:"AASTA_PAYMENTS_ORDER_DESCRIPTION" default:"Investment in AASTA"`
}

type FXConfig struct {
	URL         string        `envconfig:"AASTA_FX_URL" default:"https://open.er-api.com/v6/latest/INR"`
	Base        string        `envconfig:"AASTA_FX_BASE" default:"INR"`
	Quote       string        `envconfig:"AASTA_FX_QUOTE" default:"USD"`
	TTL         time.Duration `envconfig:"AASTA_FX_TTL" default:"15m"`
	Timeout     time.Duration `envconfig:"AASTA_FX_TIMEOUT" default:"5s"`
	DefaultRate float64       `envconfig:"AASTA_FX_DEFAULT_RATE" default:"0.012"`
}

type RateLimitConfig struct {
	Window        time.Duration `envconfig:"AASTA_RATE_LIMIT_WINDOW" default:"1m"`
	PaymentsLimit int           `envconfig:"AASTA_RATE_LIMIT_PAYMENTS" default:"30"`
	LoginLimit    int           `envconfig:"AASTA_RATE_LIMIT_LOGIN" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AASTA_AUTO_MIGRATE" default:"false"`
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
