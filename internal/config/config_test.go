package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.AppEnv != "dev" {
		t.Errorf("AppEnv = %q, want dev", cfg.AppEnv)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.SQLiteDriver != "sqlite3" {
		t.Errorf("SQLiteDriver = %q, want sqlite3", cfg.SQLiteDriver)
	}
	if cfg.MQTTPort != 1883 {
		t.Errorf("MQTTPort = %d, want 1883", cfg.MQTTPort)
	}
	if cfg.AlertSilenceAfter != 10*time.Minute {
		t.Errorf("AlertSilenceAfter = %v, want 10m", cfg.AlertSilenceAfter)
	}
	if cfg.AlertsEnabled {
		t.Error("AlertsEnabled = true by default, want false")
	}
}

func TestLoadFromEnv_InvalidAppEnv(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("LoadFromEnv accepted APP_ENV=staging")
	}
}

func TestLoadFromEnv_InvalidPort(t *testing.T) {
	t.Setenv("MQTT_PORT", "not-a-port")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("LoadFromEnv accepted MQTT_PORT=not-a-port")
	}
}

func TestLoadFromEnv_AlertsRequireTelegram(t *testing.T) {
	t.Setenv("ALERTS_ENABLED", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("LoadFromEnv accepted alerts without telegram credentials")
	}

	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if !cfg.AlertsEnabled {
		t.Error("AlertsEnabled = false, want true")
	}
}

func TestParseDeviceNames(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    map[string]string
		wantErr bool
	}{
		{"empty", "", map[string]string{}, false},
		{"single", "pilotdevice=ED0", map[string]string{"pilotdevice": "ED0"}, false},
		{"multiple", "a=ED1, b=ED2", map[string]string{"a": "ED1", "b": "ED2"}, false},
		{"missing name", "a=", nil, true},
		{"missing separator", "just-an-id", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDeviceNames(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDeviceNames(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.want))
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("names[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}
