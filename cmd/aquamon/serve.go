package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/aquamon/aquamon-go/internal/alerting"
	"github.com/aquamon/aquamon-go/internal/api"
	"github.com/aquamon/aquamon-go/internal/conf"
	"github.com/aquamon/aquamon-go/internal/datastore"
	"github.com/aquamon/aquamon-go/internal/datastore/repository"
	"github.com/aquamon/aquamon-go/internal/logger"
	"github.com/aquamon/aquamon-go/internal/mqtt"
	"github.com/aquamon/aquamon-go/internal/simulation"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the control API and simulation engine",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	settings, err := conf.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.NewSlogLogger(os.Stdout, logger.ParseLevel(settings.Logging.Level), &logger.Options{
		JSON: settings.Logging.Format == "json",
	})

	manager, err := datastore.Open(settings.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := manager.Close(); err != nil {
			log.Warn("failed to close database", logger.Error(err))
		}
	}()

	db := manager.DB()
	devices := repository.NewDeviceRepository(db)
	telemetry := repository.NewTelemetryRepository(db)
	rules := repository.NewAlertRuleRepository(db)
	alerts := repository.NewAlertRepository(db)

	ctx := context.Background()
	if err := alerting.SeedDefaults(ctx, rules, log); err != nil {
		return fmt.Errorf("failed to seed default rules: %w", err)
	}

	ruleEngine := alerting.NewEngine(rules, alerts, log)

	var opts []simulation.Option
	opts = append(opts, simulation.WithDeviceDelay(settings.Simulation.DeviceDelay.Std()))
	if settings.MQTT.Enabled {
		publisher, err := mqtt.NewPublisher(settings.MQTT, log)
		if err != nil {
			return err
		}
		defer publisher.Close()
		opts = append(opts, simulation.WithPublisher(publisher))
	}
	sim := simulation.NewEngine(devices, telemetry, ruleEngine, log, opts...)
	defer sim.Stop()

	if settings.Simulation.AutoStart {
		if err := sim.Start(ctx, simulation.Config{
			IntervalMinutes:   settings.Simulation.IntervalMinutes,
			AnomalyChance:     settings.Simulation.AnomalyChance,
			PowerOutageChance: settings.Simulation.PowerOutageChance,
		}); err != nil {
			return fmt.Errorf("failed to auto-start simulation: %w", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	api.NewController(sim, ruleEngine, devices, telemetry, alerts, log).Register(e)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", settings.HTTP.Host, settings.HTTP.Port)
		log.Info("control api listening", logger.String("addr", addr))
		errCh <- e.Start(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", logger.String("signal", sig.String()))
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown failed", logger.Error(err))
	}
	return nil
}
