package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"aqlink/internal/logging"
)

// Config is the ingest server configuration, loaded from environment
// variables with dev-friendly defaults.
type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration
	SQLiteLogSQL          bool

	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string

	AlertsEnabled      bool
	AlertCheckInterval time.Duration
	AlertSilenceAfter  time.Duration
	TelegramBotToken   string
	TelegramChatID     string
	AlertDeviceNames   map[string]string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, ok := logging.ParseLevel(strings.ToLower(logLevelStr))
	if !ok {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", logLevelStr)
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	driver := strings.TrimSpace(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = "sqlite3"
	}
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	path := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if path == "" {
		path = "dev/sqlite/aqlink.db"
	}

	maxOpenConns, err := intFromEnv("DB_MAX_OPEN_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := intFromEnv("DB_MAX_IDLE_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := durationFromEnv("DB_CONN_MAX_LIFETIME", 0)
	if err != nil {
		return Config{}, err
	}
	logSQL := strings.TrimSpace(os.Getenv("DB_LOG_SQL")) == "true"

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	if mqttBroker == "" {
		mqttBroker = "localhost"
	}
	mqttPort, err := intFromEnv("MQTT_PORT", 1883)
	if err != nil {
		return Config{}, err
	}
	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "aqlink-ingest"
	}

	alertsEnabled := strings.TrimSpace(os.Getenv("ALERTS_ENABLED")) == "true"
	alertInterval, err := durationFromEnv("ALERT_CHECK_INTERVAL", time.Minute)
	if err != nil {
		return Config{}, err
	}
	silenceAfter, err := durationFromEnv("ALERT_SILENCE_AFTER", 10*time.Minute)
	if err != nil {
		return Config{}, err
	}
	botToken := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	chatID := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID"))
	if alertsEnabled && (botToken == "" || chatID == "") {
		return Config{}, fmt.Errorf("ALERTS_ENABLED requires TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
	}

	deviceNames, err := parseDeviceNames(os.Getenv("ALERT_DEVICE_NAMES"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		HTTPAddr:              httpAddr,
		SQLiteDriver:          driver,
		SQLiteDSN:             dsn,
		SQLitePath:            path,
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
		SQLiteLogSQL:          logSQL,
		MQTTBroker:            mqttBroker,
		MQTTPort:              mqttPort,
		MQTTClientID:          mqttClientID,
		AlertsEnabled:         alertsEnabled,
		AlertCheckInterval:    alertInterval,
		AlertSilenceAfter:     silenceAfter,
		TelegramBotToken:      botToken,
		TelegramChatID:        chatID,
		AlertDeviceNames:      deviceNames,
	}, nil
}

// parseDeviceNames parses "id=name,id2=name2" into a display-name map
// used by alert messages.
func parseDeviceNames(s string) (map[string]string, error) {
	out := make(map[string]string)
	s = strings.TrimSpace(s)
	if s == "" {
		return out, nil
	}
	for _, pair := range strings.Split(s, ",") {
		id, name, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found || id == "" || name == "" {
			return nil, fmt.Errorf("invalid ALERT_DEVICE_NAMES entry %q (want id=name)", pair)
		}
		out[id] = name
	}
	return out, nil
}

func intFromEnv(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}
