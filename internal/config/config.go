// Package config loads and validates fleetctl configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all fleetctl configuration knobs loaded via Viper.
type Config struct {
	Fleet    FleetConfig    `mapstructure:"fleet"`
	Provider ProviderConfig `mapstructure:"provider"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// FleetConfig describes the desired worker fleet.
type FleetConfig struct {
	// Workers is the number of worker deployments to maintain. It has no
	// default; a run with an unset worker count must fail before any
	// network call is made.
	Workers      int    `mapstructure:"workers"`
	NamePrefix   string `mapstructure:"name_prefix"`
	ScriptPath   string `mapstructure:"script_path"`
	RegistryPath string `mapstructure:"registry_path"`
}

// ProviderConfig locates the workers management API and the public hostname
// space deployed workers are served from.
type ProviderConfig struct {
	APIBase     string `mapstructure:"api_base"`
	ZoneHost    string `mapstructure:"zone_host"`
	BindingName string `mapstructure:"binding_name"`
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// ServerConfig controls the optional status server started by `fleetctl serve`.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment. When path is empty a
// fleetctl.yaml in the working directory is used if present; an explicit
// path must exist.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FLEETCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("fleetctl")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if !v.IsSet("fleet.workers") {
		return Config{}, errors.New("fleet.workers is required")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("fleet.name_prefix", "worker")
	v.SetDefault("fleet.script_path", "worker.js")
	v.SetDefault("fleet.registry_path", "workers.json")
	v.SetDefault("provider.api_base", "https://api.cloudflare.com/client/v4")
	v.SetDefault("provider.zone_host", "workers.dev")
	v.SetDefault("provider.binding_name", "WORKER_API_KEY")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Fleet.Workers < 0 {
		return fmt.Errorf("fleet.workers must be >= 0")
	}
	if strings.TrimSpace(c.Fleet.NamePrefix) == "" {
		return fmt.Errorf("fleet.name_prefix must not be empty")
	}
	if strings.TrimSpace(c.Fleet.ScriptPath) == "" {
		return fmt.Errorf("fleet.script_path must not be empty")
	}
	if strings.TrimSpace(c.Fleet.RegistryPath) == "" {
		return fmt.Errorf("fleet.registry_path must not be empty")
	}
	if strings.TrimSpace(c.Provider.APIBase) == "" {
		return fmt.Errorf("provider.api_base must not be empty")
	}
	if strings.TrimSpace(c.Provider.ZoneHost) == "" {
		return fmt.Errorf("provider.zone_host must not be empty")
	}
	if strings.TrimSpace(c.Provider.BindingName) == "" {
		return fmt.Errorf("provider.binding_name must not be empty")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// RequestTimeout converts the HTTP timeout config into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
