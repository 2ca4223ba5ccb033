package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"aqlink/internal/alerts"
	"aqlink/internal/config"
	"aqlink/internal/db"
	"aqlink/internal/httpapi"
	"aqlink/internal/migrate"
	"aqlink/internal/modules/telemetry"
	"aqlink/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"alertsEnabled", cfg.AlertsEnabled,
	)
	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(dbConn); err != nil {
		return err
	}

	var ok int
	err = dbConn.QueryRow(`SELECT 1`).Scan(&ok)
	if err != nil {
		return err
	}
	if ok != 1 {
		return errors.New("database connection failed")
	}
	slog.Info("database connection successful")

	// Set the MQTT handler before Connect so the subscription is in
	// place when the broker flushes queued uplinks right after CONNACK.
	subscriber, err := mqtt.NewSubscriber(mqtt.Options{
		Broker:   cfg.MQTTBroker,
		Port:     cfg.MQTTPort,
		ClientID: cfg.MQTTClientID,
	}, slog.Default())
	if err != nil {
		return err
	}
	mux := httpapi.NewMux(dbConn)
	repo := telemetry.RegisterFeature(mux, dbConn, subscriber, slog.Default())

	// Use a short timeout for initial MQTT connect so we don't block startup when broker is down (e.g. E2E).
	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	err = subscriber.Connect(connectCtx)
	connectCancel()
	if err != nil {
		slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		// HTTP server and /healthz still work when MQTT is unavailable.
	}

	if cfg.AlertsEnabled {
		notifier := alerts.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, slog.Default())
		monitor := alerts.NewMonitor(repo, notifier,
			cfg.AlertCheckInterval, cfg.AlertSilenceAfter, cfg.AlertDeviceNames, slog.Default())
		go func() {
			if err := monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("stale-device monitor failed", "error", err)
			}
		}()
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("mqtt disconnecting")
	subscriber.Disconnect()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
