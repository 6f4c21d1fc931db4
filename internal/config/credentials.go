package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Credentials holds the provider account identity and API token. They are
// loaded once at startup and never mutated; the token is used as bearer
// auth and the account ID as a URL path segment.
type Credentials struct {
	AccountID string `mapstructure:"account_id"`
	APIToken  string `mapstructure:"api_token"`
}

// LoadCredentials reads the secrets document at path. A missing file or a
// missing required field is a startup-precondition failure; callers are
// expected to terminate on error.
func LoadCredentials(path string) (Credentials, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("FLEETCTL")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Credentials{}, fmt.Errorf("read secrets: %w", err)
	}

	var creds Credentials
	if err := v.Unmarshal(&creds); err != nil {
		return Credentials{}, fmt.Errorf("unmarshal secrets: %w", err)
	}

	if creds.AccountID == "" {
		return Credentials{}, fmt.Errorf("secrets %s: account_id is required", path)
	}
	if creds.APIToken == "" {
		return Credentials{}, fmt.Errorf("secrets %s: api_token is required", path)
	}

	return creds, nil
}
