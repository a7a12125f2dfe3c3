// Package config loads the Jira connection settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Recognized environment keys.
const (
	KeyBaseURL  = "BASE_URL"
	KeyUsername = "USERNAME"
	KeyAPIToken = "API_TOKEN"
	KeyFilterID = "FILTER_ID"
)

// DefaultTimeout bounds each HTTP request to Jira.
const DefaultTimeout = 30 * time.Second

// Config holds the connection settings passed to the gateway and aggregator.
type Config struct {
	BaseURL  string
	Username string
	APIToken string
	FilterID string
	Timeout  time.Duration
}

// Load reads settings from the optional dotenv file at envFile and then from
// the process environment, which takes precedence. A missing file is not an error.
func Load(envFile string) (Config, error) {
	v := viper.New()
	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading env file %s: %w", envFile, err)
			}
		}
	}
	v.AutomaticEnv()

	cfg := Config{
		BaseURL:  strings.TrimSpace(v.GetString(KeyBaseURL)),
		Username: strings.TrimSpace(v.GetString(KeyUsername)),
		APIToken: strings.TrimSpace(v.GetString(KeyAPIToken)),
		FilterID: strings.TrimSpace(v.GetString(KeyFilterID)),
		Timeout:  DefaultTimeout,
	}
	return cfg, nil
}

// Validate reports every required setting that is missing.
func (c Config) Validate() error {
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, KeyBaseURL)
	}
	if c.APIToken == "" {
		missing = append(missing, KeyAPIToken)
	}
	if c.FilterID == "" {
		missing = append(missing, KeyFilterID)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
