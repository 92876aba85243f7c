package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultServiceURL is the default mission service endpoint.
const DefaultServiceURL = "https://api.missionfeed.io"

// Output formats accepted by the watch command.
const (
	OutputJSON = "json"
	OutputText = "text"
)

// Config holds CLI configuration for missionfeed.
type Config struct {
	ServiceURL string
	AuthToken  string
	TokenFile  string

	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	DialTimeout       time.Duration

	SubscriberBuffer int
	MetricsAddr      string

	LogLevel  string
	LogFormat string
	Output    string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ServiceURL:       DefaultServiceURL,
		ReconnectDelay:   3 * time.Second,
		DialTimeout:      10 * time.Second,
		SubscriberBuffer: 64,
		LogLevel:         "info",
		LogFormat:        "console",
		Output:           OutputJSON,
		AuthToken:        os.Getenv("MISSIONFEED_AUTH_TOKEN"),
	}
}

// Validate checks the configuration for errors and normalizes the service URL.
func (c *Config) Validate() error {
	if c.AuthToken == "" && c.TokenFile == "" {
		return fmt.Errorf("auth-token or token-file is required")
	}
	if c.AuthToken != "" && c.TokenFile != "" {
		return fmt.Errorf("auth-token and token-file are mutually exclusive")
	}

	if c.ServiceURL == "" {
		c.ServiceURL = DefaultServiceURL
	}

	// Ensure no trailing slash
	if len(c.ServiceURL) > 0 && c.ServiceURL[len(c.ServiceURL)-1] == '/' {
		c.ServiceURL = c.ServiceURL[:len(c.ServiceURL)-1]
	}

	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect delay must be positive")
	}
	if c.MaxReconnectDelay != 0 && c.MaxReconnectDelay < c.ReconnectDelay {
		return fmt.Errorf("max reconnect delay must not be below reconnect delay")
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive")
	}

	switch c.Output {
	case OutputJSON, OutputText:
	default:
		return fmt.Errorf("output must be %q or %q, got %q", OutputJSON, OutputText, c.Output)
	}

	return nil
}

// MaskedToken returns the auth token with all but its last four characters
// hidden, for logging.
func (c *Config) MaskedToken() string {
	if c.AuthToken == "" {
		return ""
	}
	if len(c.AuthToken) <= 4 {
		return "****"
	}
	return "****" + c.AuthToken[len(c.AuthToken)-4:]
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}
