// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "loadwatch.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return configPath
}

func TestLoadConfig(t *testing.T) {
	configPath := writeConfig(t, `
hostname: "test-host"
refresh_interval: 2s
cycles_for_alert: 3
cycles_between_alert: 2
cpu_usage_threshold: 85.5
mem_usage_threshold_percent: 70
dispatch_timeout: 5s
sender: "447860099299"
destination: "385981234567"
notifiers:
  - kind: webhook
    url: "https://alerts.internal/hook"
    api_key_env: "HOOK_TOKEN"
  - kind: outbox
    db_path: /var/lib/loadwatch/outbox.db
`)

	t.Setenv("HOOK_TOKEN", "hook-secret")

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Hostname != "test-host" {
		t.Errorf("Hostname = %q, want %q", cfg.Hostname, "test-host")
	}
	if cfg.RefreshInterval != 2*time.Second {
		t.Errorf("RefreshInterval = %v, want 2s", cfg.RefreshInterval)
	}
	if cfg.CyclesForAlert != 3 || cfg.CyclesBetweenAlert != 2 {
		t.Errorf("cycles = %d/%d, want 3/2", cfg.CyclesForAlert, cfg.CyclesBetweenAlert)
	}
	if cfg.CPUUsageThreshold != 85.5 {
		t.Errorf("CPUUsageThreshold = %v, want 85.5", cfg.CPUUsageThreshold)
	}
	if cfg.MemUsageThresholdPercent != 70 {
		t.Errorf("MemUsageThresholdPercent = %d, want 70", cfg.MemUsageThresholdPercent)
	}
	// Not in the file, so the default survives
	if cfg.TimestampFormat != DefaultTimestampFormat {
		t.Errorf("TimestampFormat = %q, want %q", cfg.TimestampFormat, DefaultTimestampFormat)
	}
	if len(cfg.Notifiers) != 2 {
		t.Fatalf("Notifiers count = %d, want 2", len(cfg.Notifiers))
	}
	if cfg.Notifiers[0].APIKey != "hook-secret" {
		t.Errorf("Notifiers[0].APIKey = %q, want %q", cfg.Notifiers[0].APIKey, "hook-secret")
	}
	if cfg.Notifiers[1].DBPath != "/var/lib/loadwatch/outbox.db" {
		t.Errorf("Notifiers[1].DBPath = %q", cfg.Notifiers[1].DBPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	configPath := writeConfig(t, `
sender: "from-file"
destination: "from-file"
notifiers:
  - kind: whatsapp
    api_key_env: "IB_API_KEY"
`)

	t.Setenv("WA_SENDER", "env-sender")
	t.Setenv("WA_DESTINATION", "env-dest")
	t.Setenv("LOADWATCH_HOSTNAME", "env-host")
	t.Setenv("IB_API_KEY", "ib-secret")
	t.Setenv("IB_BASE_URL", "https://xyz.api.infobip.com")

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Sender != "env-sender" {
		t.Errorf("Sender = %q, want %q", cfg.Sender, "env-sender")
	}
	if cfg.Destination != "env-dest" {
		t.Errorf("Destination = %q, want %q", cfg.Destination, "env-dest")
	}
	if cfg.Hostname != "env-host" {
		t.Errorf("Hostname = %q, want %q", cfg.Hostname, "env-host")
	}
	if cfg.Notifiers[0].URL != "https://xyz.api.infobip.com" {
		t.Errorf("Notifiers[0].URL = %q, want IB_BASE_URL", cfg.Notifiers[0].URL)
	}
	if cfg.Notifiers[0].APIKey != "ib-secret" {
		t.Errorf("Notifiers[0].APIKey = %q, want %q", cfg.Notifiers[0].APIKey, "ib-secret")
	}
}

func TestLoadConfigEnvOnly(t *testing.T) {
	t.Setenv("WA_SENDER", "sender")
	t.Setenv("WA_DESTINATION", "dest")
	t.Setenv("IB_API_KEY", "ib-secret")
	t.Setenv("IB_BASE_URL", "")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.CyclesForAlert != DefaultCyclesForAlert {
		t.Errorf("CyclesForAlert = %d, want %d", cfg.CyclesForAlert, DefaultCyclesForAlert)
	}
	if len(cfg.Notifiers) != 1 || cfg.Notifiers[0].Kind != KindWhatsApp {
		t.Fatalf("Notifiers = %+v, want a single whatsapp notifier", cfg.Notifiers)
	}
	if cfg.Notifiers[0].URL != DefaultInfobipURL {
		t.Errorf("Notifiers[0].URL = %q, want %q", cfg.Notifiers[0].URL, DefaultInfobipURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfig on missing file returned nil error")
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	configPath := writeConfig(t, "refresh_interval: [not a duration\n")
	if _, err := LoadConfig(configPath); err == nil {
		t.Error("LoadConfig on malformed YAML returned nil error")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Sender = "s"
		cfg.Destination = "d"
		cfg.Notifiers = []NotifierConfig{{Kind: KindLog}}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"zero cycles for alert", func(c *Config) { c.CyclesForAlert = 0 }, "cycles_for_alert"},
		{"negative cooldown", func(c *Config) { c.CyclesBetweenAlert = -1 }, "cycles_between_alert"},
		{"cpu threshold over 100", func(c *Config) { c.CPUUsageThreshold = 120 }, "cpu_usage_threshold"},
		{"mem threshold negative", func(c *Config) { c.MemUsageThresholdPercent = -5 }, "mem_usage_threshold_percent"},
		{"zero interval", func(c *Config) { c.RefreshInterval = 0 }, "refresh_interval"},
		{"zero dispatch timeout", func(c *Config) { c.DispatchTimeout = 0 }, "dispatch_timeout"},
		{"empty timestamp format", func(c *Config) { c.TimestampFormat = "" }, "timestamp_format"},
		{"missing sender", func(c *Config) { c.Sender = "" }, "sender is required"},
		{"missing destination", func(c *Config) { c.Destination = "" }, "destination is required"},
		{"no notifiers", func(c *Config) { c.Notifiers = nil }, "at least one notifier"},
		{"unknown kind", func(c *Config) { c.Notifiers[0].Kind = "pager" }, `unknown notifier kind "pager"`},
		{"webhook without url", func(c *Config) { c.Notifiers[0] = NotifierConfig{Kind: KindWebhook} }, "webhook notifier needs url"},
		{"outbox without path", func(c *Config) { c.Notifiers[0] = NotifierConfig{Kind: KindOutbox} }, "needs db_path"},
		{"whatsapp without key", func(c *Config) {
			c.Notifiers[0] = NotifierConfig{Kind: KindWhatsApp, URL: DefaultInfobipURL, APIKeyEnv: "IB_API_KEY"}
		}, "needs an API key"},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("baseline Validate() = %v, want nil", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !IsInvalid(err) {
				t.Errorf("IsInvalid(%v) = false, want true", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Validate() = %q, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.CyclesForAlert = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"cycles_for_alert", "sender", "destination", "notifier"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() = %q, missing %q", err, want)
		}
	}
}
