package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"rollbook/internal/application"
	"rollbook/internal/config"
	"rollbook/internal/infrastructure/i18n"
	"rollbook/internal/infrastructure/store"
	"rollbook/internal/ports/output"
	"rollbook/pkg/logging"
)

func main() {
	logging.Setup()

	if err := run(); err != nil {
		slog.Error("rollbook exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()

	var backend output.Store
	switch cfg.StoreDriver {
	case "memory":
		backend = store.NewMemory()
	default:
		if err := store.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return err
		}
		backend, err = store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
	}
	defer backend.Close()

	translator := i18n.NewTranslator(cfg.Locale)

	roster := application.NewRosterService(backend)
	attendance := application.NewAttendanceService(backend, cfg.AllowPastDates)

	if err := roster.Start(ctx); err != nil {
		return err
	}
	defer roster.Stop()

	if err := attendance.Start(ctx); err != nil {
		return err
	}
	defer attendance.Stop()

	slog.Info(translator.T(cfg.Locale, "app.ready", nil),
		"driver", cfg.StoreDriver,
		"participants", len(roster.List()),
		"records", len(attendance.List()),
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	return nil
}
