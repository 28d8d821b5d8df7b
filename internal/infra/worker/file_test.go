package worker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSettingsFile_Empty(t *testing.T) {
	s, err := LoadSettingsFile(writeSettings(t, ""))
	if err != nil {
		t.Fatalf("empty file should be accepted: %v", err)
	}

	cfg := DefaultConfig()
	if rejected := s.Apply(&cfg); len(rejected) != 0 {
		t.Errorf("expected nothing rejected, got %v", rejected)
	}
	if cfg != DefaultConfig() {
		t.Error("empty settings must not change the config")
	}
}

func TestLoadSettingsFile_UnknownKey(t *testing.T) {
	_, err := LoadSettingsFile(writeSettings(t, "poll:\n  intervall: 5m\n"))

	if err == nil || !strings.Contains(err.Error(), "intervall") {
		t.Errorf("expected unknown key error, got %v", err)
	}
}

func TestLoadSettingsFile_SecretsRejected(t *testing.T) {
	_, err := LoadSettingsFile(writeSettings(t, "telegram:\n  token: 123:abc\n"))

	if err == nil {
		t.Error("tokens must not be accepted from the settings file")
	}
}

func TestSettings_Apply(t *testing.T) {
	path := writeSettings(t, `
practicum:
  endpoint: http://127.0.0.1:9000/statuses/
  http_timeout: 1h
poll:
  interval: 30s
  schedule: "not a cron"
telegram:
  api_url: http://127.0.0.1:9001
  timeout: 10s
error_notify:
  enabled: false
metrics_port: 80
`)
	s, err := LoadSettingsFile(path)
	if err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	rejected := s.Apply(&cfg)

	want := "http_timeout,poll_schedule,metrics_port"
	if got := strings.Join(rejected, ","); got != want {
		t.Errorf("expected rejected %s, got %s", want, got)
	}

	if cfg.Endpoint != "http://127.0.0.1:9000/statuses/" {
		t.Errorf("endpoint not applied: %s", cfg.Endpoint)
	}
	if cfg.HTTPTimeout != DefaultConfig().HTTPTimeout {
		t.Errorf("invalid timeout must keep default, got %v", cfg.HTTPTimeout)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("interval not applied: %v", cfg.PollInterval)
	}
	if cfg.TelegramAPIURL != "http://127.0.0.1:9001" || cfg.TelegramTimeout != 10*time.Second {
		t.Errorf("telegram settings not applied: %+v", cfg)
	}
	if cfg.ErrorNotifyEnabled {
		t.Error("error_notify.enabled not applied")
	}
	if cfg.MetricsPort != 9090 {
		t.Errorf("invalid port must keep default, got %d", cfg.MetricsPort)
	}
}
