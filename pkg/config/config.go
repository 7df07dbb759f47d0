package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "TILLPOINT"

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Loyalty      LoyaltyConfig
	Square       SquareConfig
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

type AppConfig struct {
	Env          string `envconfig:"TILLPOINT_APP_ENV" required:"true"`
	Port         string `envconfig:"TILLPOINT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TILLPOINT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TILLPOINT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TILLPOINT_DB_DSN"`
	Driver string `envconfig:"TILLPOINT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"TILLPOINT_DB_HOST"`
	Port     int    `envconfig:"TILLPOINT_DB_PORT" default:"5432"`
	User     string `envconfig:"TILLPOINT_DB_USER"`
	Password string `envconfig:"TILLPOINT_DB_PASSWORD"`
	Name     string `envconfig:"TILLPOINT_DB_NAME"`
	SSLMode  string `envconfig:"TILLPOINT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TILLPOINT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TILLPOINT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TILLPOINT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TILLPOINT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TILLPOINT_REDIS_URL"`
	Address      string        `envconfig:"TILLPOINT_REDIS_ADDR"`
	Password     string        `envconfig:"TILLPOINT_REDIS_PASSWORD"`
	DB           int           `envconfig:"TILLPOINT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TILLPOINT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TILLPOINT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TILLPOINT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TILLPOINT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TILLPOINT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// LoyaltyConfig carries the settlement policy knobs.
type LoyaltyConfig struct {
	// MinRedemptionPoints is the smallest point balance a checkout may redeem.
	MinRedemptionPoints int `envconfig:"TILLPOINT_LOYALTY_MIN_REDEMPTION_POINTS" default:"10"`
	// RestockOnCancel controls whether cancelling an order returns its
	// quantities to inventory. Off by default: cancelled stock requires a
	// manual restock via inventory adjustment.
	RestockOnCancel bool `envconfig:"TILLPOINT_LOYALTY_RESTOCK_ON_CANCEL" default:"false"`
	// EnforceCombinedFloor clamps reward redemption so that coupon plus
	// reward discounts never exceed the cart total.
	EnforceCombinedFloor bool `envconfig:"TILLPOINT_LOYALTY_ENFORCE_COMBINED_FLOOR" default:"false"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"TILLPOINT_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"TILLPOINT_SQUARE_ENV" default:"sandbox"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TILLPOINT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		"TILLPOINT_DB_HOST": db.Host,
		"TILLPOINT_DB_USER": db.User,
		"TILLPOINT_DB_NAME": db.Name,
	}
	for _, env := range []string{"TILLPOINT_DB_HOST", "TILLPOINT_DB_USER", "TILLPOINT_DB_NAME"} {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either TILLPOINT_DB_DSN or %s are required", strings.Join(missing, ", "))
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
