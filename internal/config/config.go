package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	Port          string
	Env           string
	MongoURI      string
	MongoDatabase string
	StoreDriver   string
	RedisURL      string

	JWTSecret        string
	JWTRefreshSecret string
	AccessExpiry     time.Duration
	RefreshExpiry    time.Duration
	BcryptCost       int

	CORSOrigins  []string
	BodyLimit    int64
	CookieSecure bool
	LogLevel     string
}

var keys = []string{
	"PORT", "ENV", "MONGO_URI", "MONGO_DATABASE", "STORE_DRIVER", "REDIS_URL",
	"JWT_SECRET", "JWT_REFRESH_SECRET", "JWT_ACCESS_EXPIRY", "JWT_REFRESH_EXPIRY",
	"BCRYPT_COST", "CORS_ORIGINS", "BODY_LIMIT", "COOKIE_SECURE", "LOG_LEVEL",
}

// Load reads an optional .env file into the process environment and then
// resolves every setting from the environment, falling back to defaults.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("MONGO_DATABASE", "hospital")
	v.SetDefault("STORE_DRIVER", DriverMongo)
	v.SetDefault("JWT_ACCESS_EXPIRY", "15m")
	v.SetDefault("JWT_REFRESH_EXPIRY", "168h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("BODY_LIMIT", 16*1024)
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("LOG_LEVEL", "info")
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	cfg := &Config{
		Port:             v.GetString("PORT"),
		Env:              v.GetString("ENV"),
		MongoURI:         v.GetString("MONGO_URI"),
		MongoDatabase:    v.GetString("MONGO_DATABASE"),
		StoreDriver:      strings.ToLower(v.GetString("STORE_DRIVER")),
		RedisURL:         v.GetString("REDIS_URL"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTRefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
		BcryptCost:       v.GetInt("BCRYPT_COST"),
		BodyLimit:        v.GetInt64("BODY_LIMIT"),
		CookieSecure:     v.GetBool("COOKIE_SECURE"),
		LogLevel:         v.GetString("LOG_LEVEL"),
	}

	var err error
	if cfg.AccessExpiry, err = time.ParseDuration(v.GetString("JWT_ACCESS_EXPIRY")); err != nil {
		return nil, fmt.Errorf("JWT_ACCESS_EXPIRY: %w", err)
	}
	if cfg.RefreshExpiry, err = time.ParseDuration(v.GetString("JWT_REFRESH_EXPIRY")); err != nil {
		return nil, fmt.Errorf("JWT_REFRESH_EXPIRY: %w", err)
	}

	for _, o := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate refuses configurations the server cannot run safely with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTRefreshSecret == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET is required"))
	}
	if c.JWTSecret != "" && c.JWTSecret == c.JWTRefreshSecret {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET must differ from JWT_SECRET"))
	}
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when STORE_DRIVER is mongo"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverMongo, DriverMemory, c.StoreDriver))
	}
	if c.AccessExpiry <= 0 || c.RefreshExpiry <= 0 {
		errs = append(errs, errors.New("token expiries must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost))
	}
	if c.BodyLimit <= 0 {
		errs = append(errs, errors.New("BODY_LIMIT must be positive"))
	}
	return errors.Join(errs...)
}
