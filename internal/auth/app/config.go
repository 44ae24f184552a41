package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/passguard/pkg/jwtx"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// JWTConfig configures token signing and the checks applied on validation.
type JWTConfig struct {
	SecretKey                string `koanf:"secret_key"`
	Issuer                   string `koanf:"issuer"`
	ExpiryMinutes            int    `koanf:"expiry_minutes"`
	ValidateLifetime         bool   `koanf:"validate_lifetime"`
	ValidateAudience         bool   `koanf:"validate_audience"`
	ValidateIssuer           bool   `koanf:"validate_issuer"`
	ValidateIssuerSigningKey bool   `koanf:"validate_issuer_signing_key"`
}

// UserPolicyConfig configures lockout, password expiry and strength.
type UserPolicyConfig struct {
	FailedAttempts       int  `koanf:"failed_attempts"` // 0 disables lockout
	LockoutMinutes       int  `koanf:"lockout_minutes"`
	PasswordLifetimeDays int  `koanf:"password_lifetime_days"` // 0 disables expiry
	MinLength            int  `koanf:"min_length"`
	RequireUppercase     bool `koanf:"require_uppercase"`
	RequireLowercase     bool `koanf:"require_lowercase"`
	RequireDigit         bool `koanf:"require_digit"`
	RequireNonAlphanum   bool `koanf:"require_non_alphanumeric"`
}

type Config struct {
	JWT        JWTConfig        `koanf:"jwt"`
	UserPolicy UserPolicyConfig `koanf:"user_policy"`

	DatabaseFile        string        `koanf:"database_file"`         // SQLite database path (default: ./auth.db)
	PepperFile          string        `koanf:"pepper_file"`           // Password pepper, generated on first start (default: ./pepper)
	Env                 string        `koanf:"env"`                   // dev, staging, prod (default: dev)
	LogLevel            string        `koanf:"log_level"`             // debug, info, warn, error (default: info)
	LogFormat           string        `koanf:"log_format"`            // json, text (default: json)
	Port                int           `koanf:"port"`                  // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration `koanf:"shutdown_grace_period"` // Graceful shutdown timeout (default: 10s)

	HousekeepingInterval time.Duration `koanf:"housekeeping_interval"` // Expired lockout sweep period (default: 1h)
}

// DefaultConfig is the compiled-in configuration. The signing secret has no
// default and must be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			Issuer:                   "passguard",
			ExpiryMinutes:            60,
			ValidateLifetime:         true,
			ValidateAudience:         true,
			ValidateIssuer:           true,
			ValidateIssuerSigningKey: true,
		},
		UserPolicy: UserPolicyConfig{
			FailedAttempts:       3,
			LockoutMinutes:       10,
			PasswordLifetimeDays: 90,
			MinLength:            8,
			RequireUppercase:     true,
			RequireLowercase:     true,
			RequireDigit:         true,
			RequireNonAlphanum:   true,
		},
		DatabaseFile:        "auth.db",
		PepperFile:          "pepper",
		Env:                 "dev",
		LogLevel:            "info",
		LogFormat:           "json",
		Port:                8080,
		ShutdownGracePeriod: 10 * time.Second,

		HousekeepingInterval: time.Hour,
	}
}

// RegisterFlags adds the command line overrides to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	def := DefaultConfig()
	fs.Int("port", def.Port, "HTTP server port")
	fs.String("database-file", def.DatabaseFile, "SQLite database file")
	fs.String("pepper-file", def.PepperFile, "password pepper file")
	fs.String("log-level", def.LogLevel, "log level (debug, info, warn, error)")
	fs.String("log-format", def.LogFormat, "log format (json or text)")
	fs.String("env", def.Env, "environment name")
	fs.String("jwt.issuer", def.JWT.Issuer, "token issuer")
	fs.Int("jwt.expiry-minutes", def.JWT.ExpiryMinutes, "access token lifetime in minutes")
}

// LoadConfig builds the configuration from, in increasing precedence: the
// compiled defaults, the YAML file at path (optional), flags that were set
// on fs (optional) and the environment. A .env file in the working
// directory is loaded into the environment first.
func LoadConfig(path string, fs *pflag.FlagSet) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("AUTH_CONFIG_FILE")
	}

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if fs != nil {
		// Only flags the user actually set, so unset flag defaults do not
		// shadow the file.
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.JWT.SecretKey = getEnvOrDefault("AUTH_JWT_SECRET_KEY", cfg.JWT.SecretKey)
	cfg.JWT.Issuer = getEnvOrDefault("AUTH_JWT_ISSUER", cfg.JWT.Issuer)
	cfg.JWT.ExpiryMinutes = getEnvIntOrDefault("AUTH_JWT_EXPIRY_MINUTES", cfg.JWT.ExpiryMinutes)
	cfg.JWT.ValidateLifetime = getEnvBoolOrDefault("AUTH_JWT_VALIDATE_LIFETIME", cfg.JWT.ValidateLifetime)
	cfg.JWT.ValidateAudience = getEnvBoolOrDefault("AUTH_JWT_VALIDATE_AUDIENCE", cfg.JWT.ValidateAudience)
	cfg.JWT.ValidateIssuer = getEnvBoolOrDefault("AUTH_JWT_VALIDATE_ISSUER", cfg.JWT.ValidateIssuer)
	cfg.JWT.ValidateIssuerSigningKey = getEnvBoolOrDefault("AUTH_JWT_VALIDATE_SIGNING_KEY", cfg.JWT.ValidateIssuerSigningKey)

	p := &cfg.UserPolicy
	p.FailedAttempts = getEnvIntOrDefault("AUTH_FAILED_ATTEMPTS", p.FailedAttempts)
	p.LockoutMinutes = getEnvIntOrDefault("AUTH_LOCKOUT_MINUTES", p.LockoutMinutes)
	p.PasswordLifetimeDays = getEnvIntOrDefault("AUTH_PASSWORD_LIFETIME_DAYS", p.PasswordLifetimeDays)
	p.MinLength = getEnvIntOrDefault("AUTH_PASSWORD_MIN_LENGTH", p.MinLength)
	p.RequireUppercase = getEnvBoolOrDefault("AUTH_PASSWORD_REQUIRE_UPPERCASE", p.RequireUppercase)
	p.RequireLowercase = getEnvBoolOrDefault("AUTH_PASSWORD_REQUIRE_LOWERCASE", p.RequireLowercase)
	p.RequireDigit = getEnvBoolOrDefault("AUTH_PASSWORD_REQUIRE_DIGIT", p.RequireDigit)
	p.RequireNonAlphanum = getEnvBoolOrDefault("AUTH_PASSWORD_REQUIRE_NON_ALPHANUMERIC", p.RequireNonAlphanum)

	cfg.DatabaseFile = getEnvOrDefault("AUTH_DATABASE_FILE", cfg.DatabaseFile)
	cfg.PepperFile = getEnvOrDefault("AUTH_PEPPER_FILE", cfg.PepperFile)
	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.Port = getEnvIntOrDefault("PORT", cfg.Port)
	cfg.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod)
	cfg.HousekeepingInterval = getEnvDurationOrDefault("AUTH_HOUSEKEEPING_INTERVAL", cfg.HousekeepingInterval)
}

// Validate checks that the configuration is usable.
func (cfg *Config) Validate() error {
	var errs []error

	switch {
	case cfg.JWT.SecretKey == "":
		errs = append(errs, errors.New("jwt.secret_key is required (AUTH_JWT_SECRET_KEY)"))
	case cfg.JWT.ValidateIssuerSigningKey && len(cfg.JWT.SecretKey) < jwtx.MinSecretLength:
		errs = append(errs, fmt.Errorf("jwt.secret_key must be at least %d bytes", jwtx.MinSecretLength))
	}
	if cfg.JWT.Issuer == "" {
		errs = append(errs, errors.New("jwt.issuer is required"))
	}
	if cfg.JWT.ExpiryMinutes <= 0 {
		errs = append(errs, errors.New("jwt.expiry_minutes must be positive"))
	}

	p := cfg.UserPolicy
	if p.FailedAttempts < 0 || p.LockoutMinutes < 0 || p.PasswordLifetimeDays < 0 || p.MinLength < 0 {
		errs = append(errs, errors.New("user_policy values must not be negative"))
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("log_format must be 'json' or 'text', got %q", cfg.LogFormat))
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", cfg.Port))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultValue
}
