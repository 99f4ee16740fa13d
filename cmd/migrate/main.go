// Command migrate creates the account tables, seeds the default policies and
// reports whether a primary shop is configured.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/config"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/infrastructure/auth"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/infrastructure/database"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/infrastructure/repositories"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/logging"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "migrate", "error").Error(ctx, "config", "error", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, "migrate", cfg.LogLevel)

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "migration failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logging.Logger) error {
	db, err := database.Open(database.Options{
		DSN:      cfg.DSN,
		Schema:   cfg.DBSchema,
		LogLevel: cfg.DBLogLevel,
	})
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	log.Info(ctx, "schema migrated")

	e, err := auth.NewCasbinEnforcer(db)
	if err != nil {
		return err
	}
	policies, err := e.GetPolicy()
	if err != nil {
		return err
	}
	log.Info(ctx, "policies loaded", "count", len(policies))

	shop, err := repositories.NewShopRepository(db).FindPrimary(ctx)
	if errors.Is(err, domain.ErrShopNotFound) {
		log.Warn(ctx, "no primary shop configured, OTP and admin emails will fail until one exists")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info(ctx, "primary shop found", "shop_id", shop.ID, "name", shop.Name)
	return nil
}
