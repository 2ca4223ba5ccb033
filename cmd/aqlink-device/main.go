package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aqlink/internal/device"
	"aqlink/internal/logging"
	"aqlink/internal/mqtt"
	"aqlink/internal/radio"
)

var version = "dev"
var appName = "aqlink-device"

func main() {
	cfg, err := device.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.AppEnv, version, appName)
	slog.SetDefault(logger)

	slog.Info("starting",
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
		"device_id", cfg.DeviceID,
		"log_level", cfg.LogLevel.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}

func run(ctx context.Context, cfg device.Config) error {
	plan := radio.DefaultPlan
	if cfg.RatePlanPath != "" {
		var err error
		plan, err = radio.LoadPlan(cfg.RatePlanPath)
		if err != nil {
			return err
		}
		slog.Info("rate plan loaded", "path", cfg.RatePlanPath)
	}

	client, err := mqtt.NewClient(mqtt.Options{
		Broker:   cfg.MQTTBroker,
		Port:     cfg.MQTTPort,
		ClientID: cfg.MQTTClientID,
	}, slog.Default())
	if err != nil {
		return err
	}
	defer client.Disconnect()

	if err := client.Connect(ctx); err != nil {
		return err
	}

	source := device.NewSource(time.Now().UnixNano(), cfg.DropChance)
	loop := device.NewLoop(cfg, plan, source, client, slog.Default())
	return loop.Run(ctx)
}
