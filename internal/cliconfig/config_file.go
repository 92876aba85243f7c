package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	ServiceURL        string `toml:"service_url"`
	AuthToken         string `toml:"auth_token"`
	TokenFile         string `toml:"token_file"`
	ReconnectDelay    string `toml:"reconnect_delay"`
	MaxReconnectDelay string `toml:"max_reconnect_delay"`
	DialTimeout       string `toml:"dial_timeout"`
	SubscriberBuffer  int    `toml:"subscriber_buffer"`
	MetricsAddr       string `toml:"metrics_addr"`
	LogLevel          string `toml:"log_level"`
	LogFormat         string `toml:"log_format"`
	Output            string `toml:"output"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.missionfeed/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".missionfeed", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("service-url", fc.ServiceURL, &cfg.ServiceURL)
	s.setString("auth-token", fc.AuthToken, &cfg.AuthToken)
	s.setString("token-file", fc.TokenFile, &cfg.TokenFile)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)
	s.setString("output", fc.Output, &cfg.Output)

	if err := s.setDuration("reconnect-delay", fc.ReconnectDelay, &cfg.ReconnectDelay); err != nil {
		return err
	}
	if err := s.setDuration("max-reconnect-delay", fc.MaxReconnectDelay, &cfg.MaxReconnectDelay); err != nil {
		return err
	}
	if err := s.setDuration("dial-timeout", fc.DialTimeout, &cfg.DialTimeout); err != nil {
		return err
	}

	s.setInt("subscriber-buffer", fc.SubscriberBuffer, &cfg.SubscriberBuffer)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
