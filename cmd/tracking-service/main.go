package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/parceltrack/internal/app"
	"github.com/vladislavdragonenkov/parceltrack/internal/version"
)

func main() {
	if err := run(); err != nil {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}
	log.Info("tracking-service остановлен")
}

func run() error {
	cfg, err := app.LoadConfig(".")
	if err != nil {
		return err
	}
	if err := app.ConfigureLogging(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"version":      version.GetVersion(),
		"env":          cfg.Environment,
		"http_addr":    cfg.HTTPAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.Storage.Driver,
	}).Info("запускаем tracking-service")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
