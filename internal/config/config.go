// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Notifier kinds
const (
	KindWhatsApp = "whatsapp"
	KindWebhook  = "webhook"
	KindOutbox   = "outbox"
	KindLog      = "log"
)

// Defaults match the values the monitor has always shipped with.
const (
	DefaultRefreshInterval    = time.Second
	DefaultCyclesForAlert     = 15
	DefaultCyclesBetweenAlert = 10
	DefaultCPUUsageThreshold  = 90.0
	DefaultMemUsageThreshold  = 80
	DefaultDispatchTimeout    = 10 * time.Second
	DefaultTimestampFormat    = "%m-%d-%y %T UTC"
	DefaultInfobipURL         = "https://api.infobip.com"
)

// NotifierConfig is one delivery channel in the fallback chain
type NotifierConfig struct {
	Kind      string        `yaml:"kind"`
	URL       string        `yaml:"url"`
	APIKeyEnv string        `yaml:"api_key_env"` // env var name for API key
	APIKey    string        `yaml:"-"`           // resolved at load time
	DBPath    string        `yaml:"db_path"`
	RetryMax  int           `yaml:"retry_max"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Config for the monitor
type Config struct {
	Hostname                 string           `yaml:"hostname"`
	RefreshInterval          time.Duration    `yaml:"refresh_interval"`
	CyclesForAlert           int              `yaml:"cycles_for_alert"`
	CyclesBetweenAlert       int              `yaml:"cycles_between_alert"`
	CPUUsageThreshold        float64          `yaml:"cpu_usage_threshold"`
	MemUsageThresholdPercent int              `yaml:"mem_usage_threshold_percent"`
	DispatchTimeout          time.Duration    `yaml:"dispatch_timeout"`
	TimestampFormat          string           `yaml:"timestamp_format"`
	Sender                   string           `yaml:"sender"`
	Destination              string           `yaml:"destination"`
	Notifiers                []NotifierConfig `yaml:"notifiers"`
}

// Default returns a config with every tunable set, but no sender, destination
// or notifier; those have to come from the file or the environment.
func Default() *Config {
	return &Config{
		RefreshInterval:          DefaultRefreshInterval,
		CyclesForAlert:           DefaultCyclesForAlert,
		CyclesBetweenAlert:       DefaultCyclesBetweenAlert,
		CPUUsageThreshold:        DefaultCPUUsageThreshold,
		MemUsageThresholdPercent: DefaultMemUsageThreshold,
		DispatchTimeout:          DefaultDispatchTimeout,
		TimestampFormat:          DefaultTimestampFormat,
	}
}

// LoadConfig loads config from a YAML file with env overrides.
// An empty path yields the defaults plus whatever the environment provides.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// Env overrides
	if hostname := os.Getenv("LOADWATCH_HOSTNAME"); hostname != "" {
		cfg.Hostname = hostname
	}
	if sender := os.Getenv("WA_SENDER"); sender != "" {
		cfg.Sender = sender
	}
	if dest := os.Getenv("WA_DESTINATION"); dest != "" {
		cfg.Destination = dest
	}

	// No notifiers configured: fall back to WhatsApp when an Infobip key is present
	if len(cfg.Notifiers) == 0 && os.Getenv("IB_API_KEY") != "" {
		cfg.Notifiers = []NotifierConfig{{Kind: KindWhatsApp, APIKeyEnv: "IB_API_KEY"}}
	}

	for i := range cfg.Notifiers {
		n := &cfg.Notifiers[i]
		if n.APIKeyEnv != "" {
			n.APIKey = os.Getenv(n.APIKeyEnv)
		}
		if n.Kind == KindWhatsApp {
			if base := os.Getenv("IB_BASE_URL"); base != "" {
				n.URL = base
			}
			if n.URL == "" {
				n.URL = DefaultInfobipURL
			}
		}
	}

	return cfg, nil
}

// Validate reports every problem with the config at once
func (c *Config) Validate() error {
	var errs []error

	if c.RefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("refresh_interval must be positive, got %s", c.RefreshInterval))
	}
	if c.CyclesForAlert <= 0 {
		errs = append(errs, fmt.Errorf("cycles_for_alert must be > 0, got %d", c.CyclesForAlert))
	}
	if c.CyclesBetweenAlert < 0 {
		errs = append(errs, fmt.Errorf("cycles_between_alert must be >= 0, got %d", c.CyclesBetweenAlert))
	}
	if c.CPUUsageThreshold < 0 || c.CPUUsageThreshold > 100 {
		errs = append(errs, fmt.Errorf("cpu_usage_threshold must be within [0, 100], got %g", c.CPUUsageThreshold))
	}
	if c.MemUsageThresholdPercent < 0 || c.MemUsageThresholdPercent > 100 {
		errs = append(errs, fmt.Errorf("mem_usage_threshold_percent must be within [0, 100], got %d", c.MemUsageThresholdPercent))
	}
	if c.DispatchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("dispatch_timeout must be positive, got %s", c.DispatchTimeout))
	}
	if c.TimestampFormat == "" {
		errs = append(errs, errors.New("timestamp_format must not be empty"))
	}
	if c.Sender == "" {
		errs = append(errs, errors.New("sender is required (set sender or WA_SENDER)"))
	}
	if c.Destination == "" {
		errs = append(errs, errors.New("destination is required (set destination or WA_DESTINATION)"))
	}
	if len(c.Notifiers) == 0 {
		errs = append(errs, errors.New("at least one notifier is required"))
	}
	for i, n := range c.Notifiers {
		if err := n.validate(); err != nil {
			errs = append(errs, fmt.Errorf("notifiers[%d]: %w", i, err))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func (n NotifierConfig) validate() error {
	if n.RetryMax < 0 {
		return fmt.Errorf("retry_max must be >= 0, got %d", n.RetryMax)
	}
	switch n.Kind {
	case KindWhatsApp:
		if n.URL == "" {
			return errors.New("whatsapp notifier needs url")
		}
		if n.APIKey == "" {
			return fmt.Errorf("whatsapp notifier needs an API key (env %q is empty)", n.APIKeyEnv)
		}
	case KindWebhook:
		if n.URL == "" {
			return errors.New("webhook notifier needs url")
		}
	case KindOutbox:
		if n.DBPath == "" {
			return errors.New("outbox notifier needs db_path")
		}
	case KindLog:
	default:
		return fmt.Errorf("unknown notifier kind %q", n.Kind)
	}
	return nil
}

// IsInvalid reports whether err came from Validate
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
