package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/infrastructure/repositories"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Options configures the relational store connection
type Options struct {
	DSN             string
	Schema          string
	LogLevel        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open creates a Postgres connection with the account tables under opts.Schema
func Open(opts Options) (*gorm.DB, error) {
	config := &gorm.Config{
		Logger:         logger.Default.LogMode(ParseLogLevel(opts.LogLevel)),
		TranslateError: true,
	}
	if opts.Schema != "" {
		config.NamingStrategy = schema.NamingStrategy{TablePrefix: opts.Schema + "."}
	}

	db, err := gorm.Open(postgres.Open(opts.DSN), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	return db, nil
}

// ParseLogLevel maps a config string onto a GORM log level. Unknown values are silent.
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "info":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}

// AutoMigrate creates the account, profile and shop tables. The casbin_rule
// table is created by the policy adapter.
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&repositories.DBAccount{},
		&repositories.DBEmail{},
		&repositories.DBAccountProfile{},
		&repositories.DBShop{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate account tables: %w", err)
	}
	return nil
}
