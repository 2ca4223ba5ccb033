// Package device is the field-device side of the link: a synthetic
// reading source standing in for the sensor hardware, and the
// transmission loop that encodes, publishes, and cycles the data rate.
package device

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"aqlink/internal/logging"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level

	DeviceID string

	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string

	// SendInterval is the fixed transmission cadence; one uplink per
	// tick, never overlapping.
	SendInterval time.Duration

	// RatePlanPath points at a YAML rate plan; empty means the
	// built-in default plan.
	RatePlanPath string

	// DropChance is the per-channel probability of simulating a failed
	// sensor read, which transmits the no-data sentinel.
	DropChance float64
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

	deviceID := strings.TrimSpace(os.Getenv("DEVICE_ID"))
	if deviceID == "" {
		deviceID = "dev-01"
	}

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	if mqttBroker == "" {
		mqttBroker = "localhost"
	}
	mqttPort := 1883
	if s := strings.TrimSpace(os.Getenv("MQTT_PORT")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", s, err)
		}
		mqttPort = n
	}
	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "aqlink-" + deviceID
	}

	sendInterval := time.Minute
	if s := strings.TrimSpace(os.Getenv("SEND_INTERVAL")); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SEND_INTERVAL %q: %w", s, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("SEND_INTERVAL must be positive, got %s", d)
		}
		sendInterval = d
	}

	ratePlanPath := strings.TrimSpace(os.Getenv("RATE_PLAN_PATH"))

	dropChance := 0.0
	if s := strings.TrimSpace(os.Getenv("DROP_CHANCE")); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DROP_CHANCE %q: %w", s, err)
		}
		if f < 0 || f > 1 {
			return Config{}, fmt.Errorf("DROP_CHANCE must be in [0,1], got %v", f)
		}
		dropChance = f
	}

	return Config{
		AppEnv:       appEnv,
		LogLevel:     level,
		DeviceID:     deviceID,
		MQTTBroker:   mqttBroker,
		MQTTPort:     mqttPort,
		MQTTClientID: mqttClientID,
		SendInterval: sendInterval,
		RatePlanPath: ratePlanPath,
		DropChance:   dropChance,
	}, nil
}
