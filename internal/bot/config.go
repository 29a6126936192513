package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/horoscopebot/core/config"
	"github.com/m3rciful/horoscopebot/core/database"
	"github.com/m3rciful/horoscopebot/internal/horoscope"
	"github.com/m3rciful/horoscopebot/internal/secrets"
)

const (
	defaultHoroscopeTimeout = 15 * time.Second
	secretLookupTimeout     = 10 * time.Second
)

// HoroscopeConfig points the bot at the horoscope provider.
type HoroscopeConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"HOROSCOPE_BASE_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"HOROSCOPE_TIMEOUT_SECONDS"`
	Retries        int    `yaml:"retries" envconfig:"HOROSCOPE_RETRIES"`
}

// Timeout returns the per-request deadline.
func (h HoroscopeConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// HealthConfig enables the probe server when Listen is set.
type HealthConfig struct {
	Listen string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Horoscope HoroscopeConfig `yaml:"horoscope"`
	Database  database.Config `yaml:"database"`
	Health    HealthConfig    `yaml:"health"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// ReadConfig decodes path and validates the bot sections. The Telegram
// token is not required, so tooling commands can use it.
func ReadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads the configuration needed to run the bot. The token may
// come from SSM when only telegram.token_ssm_param is set.
func LoadConfig(path string) (*Config, error) {
	return loadConfig(path, &secrets.LazyParamStore{})
}

func loadConfig(path string, getter coreconfig.SecretGetter) (*Config, error) {
	cfg, err := ReadConfig(path)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), secretLookupTimeout)
	defer cancel()
	if err := coreconfig.ResolveToken(ctx, &cfg.Config, getter); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	return cfg, nil
}

func normalize(cfg *Config) error {
	cfg.Horoscope.BaseURL = strings.TrimSpace(cfg.Horoscope.BaseURL)
	if cfg.Horoscope.BaseURL == "" {
		cfg.Horoscope.BaseURL = horoscope.DefaultBaseURL
	}
	if cfg.Horoscope.TimeoutSeconds < 0 || cfg.Horoscope.Retries < 0 {
		return fmt.Errorf("horoscope.timeout_seconds and horoscope.retries must be >= 0")
	}
	if cfg.Horoscope.TimeoutSeconds == 0 {
		cfg.Horoscope.TimeoutSeconds = int(defaultHoroscopeTimeout / time.Second)
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	switch cfg.Database.Driver {
	case "":
	case database.DriverPostgres:
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
	case database.DriverSQLite:
		if strings.TrimSpace(cfg.Database.Path) == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("invalid database.driver %q; allowed: postgres, sqlite", cfg.Database.Driver)
	}

	cfg.Health.Listen = strings.TrimSpace(cfg.Health.Listen)
	return nil
}
