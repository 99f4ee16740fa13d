package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when CONFIG_PATH is unset
const DefaultPath = "config/config.yml"

type AppConfig struct {
	Port     int    `yaml:"port" env:"PORT"`
	GinMode  string `yaml:"gin_mode" env:"GIN_MODE"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	Service  string `yaml:"service" env:"SERVICE_NAME"`
}

type DatabaseConfig struct {
	DSN             string `yaml:"dsn" env:"DATABASE_DSN"`
	Schema          string `yaml:"schema" env:"DATABASE_SCHEMA"`
	LogLevel        string `yaml:"log_level" env:"DATABASE_LOG_LEVEL"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret" env:"JWT_SECRET"`
	Issuer     string `yaml:"issuer" env:"JWT_ISSUER"`
	AccessTTL  string `yaml:"access_ttl" env:"JWT_ACCESS_TTL"`
	RefreshTTL string `yaml:"refresh_ttl" env:"JWT_REFRESH_TTL"`
}

type OTPConfig struct {
	TTL          string `yaml:"ttl" env:"OTP_TTL"`
	Length       int    `yaml:"length" env:"OTP_LENGTH"`
	MaxAttempts  int    `yaml:"max_attempts" env:"OTP_MAX_ATTEMPTS"`
	ResendWindow string `yaml:"resend_window" env:"OTP_RESEND_WINDOW"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid" env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `yaml:"auth_token" env:"TWILIO_AUTH_TOKEN"`
	FromNumber string `yaml:"from_number" env:"TWILIO_FROM_NUMBER"`
}

type EmailConfig struct {
	Queue string `yaml:"queue" env:"EMAIL_QUEUE"`
}

type AccountsConfig struct {
	AutoLogin       bool   `yaml:"autologin" env:"ACCOUNTS_AUTOLOGIN"`
	AmbiguousErrors bool   `yaml:"ambiguous_errors" env:"ACCOUNTS_AMBIGUOUS_ERRORS"`
	SessionTTL      string `yaml:"session_ttl" env:"ACCOUNTS_SESSION_TTL"`
	PasswordCost    int    `yaml:"password_cost" env:"ACCOUNTS_PASSWORD_COST"`
}

// ConfigFile mirrors config.yml; every field can be overridden from the environment
type ConfigFile struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	OTP      OTPConfig      `yaml:"otp"`
	Twilio   TwilioConfig   `yaml:"twilio"`
	Email    EmailConfig    `yaml:"email"`
	Accounts AccountsConfig `yaml:"accounts"`
}

type Config struct {
	Port     string
	GinMode  string
	LogLevel string
	Service  string

	DSN            string
	DBSchema       string
	DBLogLevel     string
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBConnLifetime time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	JWTSecret  string
	JWTIssuer  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	OTPTTL          time.Duration
	OTPLength       int
	OTPMaxAttempts  int
	OTPResendWindow time.Duration

	TwilioSID   string
	TwilioToken string
	TwilioFrom  string
	EmailQueue  string

	AutoLogin       bool
	AmbiguousErrors bool
	SessionTTL      time.Duration
	PasswordCost    int
}

var (
	ErrMissingSecret     = errors.New("jwt secret is required")
	ErrMissingDSN        = errors.New("database dsn is required")
	ErrConflictingPolicy = errors.New("accounts.autologin and accounts.ambiguous_errors cannot both be enabled")
)

// Load reads .env (when present), the YAML file at CONFIG_PATH or DefaultPath,
// and applies environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	return LoadFile(path)
}

// LoadFile reads the YAML file at path and applies environment overrides
func LoadFile(path string) (*Config, error) {
	file, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := env.Parse(file); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg, err := file.resolve()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.DSN == "" {
		return ErrMissingDSN
	}
	// Autologin would reveal whether signup created an account.
	if c.AutoLogin && c.AmbiguousErrors {
		return ErrConflictingPolicy
	}
	return nil
}

func (f *ConfigFile) resolve() (*Config, error) {
	cfg := &Config{
		Port:            fmt.Sprintf("%d", f.App.Port),
		GinMode:         f.App.GinMode,
		LogLevel:        f.App.LogLevel,
		Service:         f.App.Service,
		DSN:             f.Database.DSN,
		DBSchema:        f.Database.Schema,
		DBLogLevel:      f.Database.LogLevel,
		DBMaxOpenConns:  f.Database.MaxOpenConns,
		DBMaxIdleConns:  f.Database.MaxIdleConns,
		RedisAddr:       f.Redis.Addr,
		RedisPassword:   f.Redis.Password,
		RedisDB:         f.Redis.DB,
		JWTSecret:       f.JWT.Secret,
		JWTIssuer:       f.JWT.Issuer,
		OTPLength:       f.OTP.Length,
		OTPMaxAttempts:  f.OTP.MaxAttempts,
		TwilioSID:       f.Twilio.AccountSID,
		TwilioToken:     f.Twilio.AuthToken,
		TwilioFrom:      f.Twilio.FromNumber,
		EmailQueue:      f.Email.Queue,
		AutoLogin:       f.Accounts.AutoLogin,
		AmbiguousErrors: f.Accounts.AmbiguousErrors,
		PasswordCost:    f.Accounts.PasswordCost,
	}

	var err error
	if cfg.AccessTTL, err = parseDuration("JWT access TTL", f.JWT.AccessTTL, 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = parseDuration("JWT refresh TTL", f.JWT.RefreshTTL, 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.OTPTTL, err = parseDuration("OTP TTL", f.OTP.TTL, 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.OTPResendWindow, err = parseDuration("OTP resend window", f.OTP.ResendWindow, 0); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = parseDuration("session TTL", f.Accounts.SessionTTL, 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.DBConnLifetime, err = parseDuration("database connection lifetime", f.Database.ConnMaxLifetime, time.Hour); err != nil {
		return nil, err
	}

	if cfg.Port == "0" {
		cfg.Port = "8080"
	}
	if cfg.Service == "" {
		cfg.Service = "authsvc"
	}
	if cfg.OTPMaxAttempts == 0 {
		cfg.OTPMaxAttempts = 5
	}
	if cfg.EmailQueue == "" {
		cfg.EmailQueue = "jobs:sendEmail"
	}
	return cfg, nil
}

func parseDuration(name, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}
	return &config, nil
}
