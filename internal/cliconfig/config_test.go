package cliconfig

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("MISSIONFEED_AUTH_TOKEN", "")
	cfg := DefaultConfig()

	if cfg.ServiceURL != DefaultServiceURL {
		t.Errorf("ServiceURL = %v, want %v", cfg.ServiceURL, DefaultServiceURL)
	}
	if cfg.ReconnectDelay != 3*time.Second {
		t.Errorf("ReconnectDelay = %v, want 3s", cfg.ReconnectDelay)
	}
	if cfg.MaxReconnectDelay != 0 {
		t.Errorf("MaxReconnectDelay = %v, want 0 (fixed delay)", cfg.MaxReconnectDelay)
	}
	if cfg.Output != OutputJSON {
		t.Errorf("Output = %v, want %v", cfg.Output, OutputJSON)
	}
	if cfg.AuthToken != "" {
		t.Errorf("AuthToken = %v, want empty", cfg.AuthToken)
	}
}

func TestDefaultConfig_TokenFromEnv(t *testing.T) {
	t.Setenv("MISSIONFEED_AUTH_TOKEN", "env-token")

	if cfg := DefaultConfig(); cfg.AuthToken != "env-token" {
		t.Errorf("AuthToken = %v, want env-token", cfg.AuthToken)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			ServiceURL:     "http://localhost:8080",
			AuthToken:      "tok",
			ReconnectDelay: time.Second,
			DialTimeout:    time.Second,
			Output:         OutputJSON,
		}
	}

	tests := []struct {
		name           string
		mutate         func(*Config)
		wantErr        bool
		wantServiceURL string
	}{
		{
			name:    "valid minimal config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "token file instead of token",
			mutate:  func(c *Config) { c.AuthToken = ""; c.TokenFile = "/tmp/token" },
			wantErr: false,
		},
		{
			name:    "missing credentials",
			mutate:  func(c *Config) { c.AuthToken = "" },
			wantErr: true,
		},
		{
			name:    "token and token file",
			mutate:  func(c *Config) { c.TokenFile = "/tmp/token" },
			wantErr: true,
		},
		{
			name:           "service url defaults when omitted",
			mutate:         func(c *Config) { c.ServiceURL = "" },
			wantErr:        false,
			wantServiceURL: DefaultServiceURL,
		},
		{
			name:           "trailing slash trimmed",
			mutate:         func(c *Config) { c.ServiceURL = "http://api.com/" },
			wantErr:        false,
			wantServiceURL: "http://api.com",
		},
		{
			name:    "invalid reconnect delay",
			mutate:  func(c *Config) { c.ReconnectDelay = -1 },
			wantErr: true,
		},
		{
			name:    "max delay below reconnect delay",
			mutate:  func(c *Config) { c.MaxReconnectDelay = time.Millisecond },
			wantErr: true,
		},
		{
			name:    "max delay enables backoff",
			mutate:  func(c *Config) { c.MaxReconnectDelay = time.Minute },
			wantErr: false,
		},
		{
			name:    "invalid dial timeout",
			mutate:  func(c *Config) { c.DialTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "text output",
			mutate:  func(c *Config) { c.Output = OutputText },
			wantErr: false,
		},
		{
			name:    "unknown output",
			mutate:  func(c *Config) { c.Output = "yaml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.wantServiceURL != "" && cfg.ServiceURL != tt.wantServiceURL {
				t.Errorf("ServiceURL = %v, want %v", cfg.ServiceURL, tt.wantServiceURL)
			}
		})
	}
}

func TestConfig_MaskedToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", ""},
		{"abc", "****"},
		{"secret-token-1234", "****1234"},
	}
	for _, tt := range tests {
		c := Config{AuthToken: tt.token}
		if got := c.MaskedToken(); got != tt.want {
			t.Errorf("MaskedToken(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}
