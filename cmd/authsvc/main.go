package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/app"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/config"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "authsvc", "error").Error(ctx, "config", "error", err)
		os.Exit(1)
	}

	log := logging.New(os.Stdout, cfg.Service, cfg.LogLevel)
	if err := app.Run(ctx, cfg, log); err != nil {
		log.Error(ctx, "app", "error", err)
		os.Exit(1)
	}
}
