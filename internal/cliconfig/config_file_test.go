package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				ServiceURL:        "http://example.com",
				AuthToken:         "secret",
				ReconnectDelay:    "5s",
				MaxReconnectDelay: "1m",
				DialTimeout:       "2s",
				SubscriberBuffer:  16,
				MetricsAddr:       ":9100",
				LogLevel:          "debug",
				LogFormat:         "json",
				Output:            "text",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				ServiceURL:        "http://example.com",
				AuthToken:         "secret",
				ReconnectDelay:    5 * time.Second,
				MaxReconnectDelay: time.Minute,
				DialTimeout:       2 * time.Second,
				SubscriberBuffer:  16,
				MetricsAddr:       ":9100",
				LogLevel:          "debug",
				LogFormat:         "json",
				Output:            "text",
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				ServiceURL: "http://config.example.com",
				TokenFile:  "/config/token",
			},
			changed: map[string]bool{"service-url": true},
			initial: Config{
				ServiceURL: "http://flag.example.com",
			},
			expected: Config{
				ServiceURL: "http://flag.example.com", // unchanged because flag was set
				TokenFile:  "/config/token",
			},
			wantErr: false,
		},
		{
			name: "zero subscriber buffer keeps default",
			fileConfig: FileConfig{
				SubscriberBuffer: 0,
			},
			changed:  map[string]bool{},
			initial:  Config{SubscriberBuffer: 64},
			expected: Config{SubscriberBuffer: 64},
			wantErr:  false,
		},
		{
			name: "returns error for invalid duration",
			fileConfig: FileConfig{
				ReconnectDelay: "soon",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyFileConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyFileConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.toml")

	tomlContent := `
service_url = "http://localhost:8080"
token_file = "/run/secrets/token"
reconnect_delay = "3s"
subscriber_buffer = 32
output = "text"
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.ServiceURL != "http://localhost:8080" {
		t.Errorf("ServiceURL = %v, want http://localhost:8080", fc.ServiceURL)
	}
	if fc.TokenFile != "/run/secrets/token" {
		t.Errorf("TokenFile = %v, want /run/secrets/token", fc.TokenFile)
	}
	if fc.ReconnectDelay != "3s" {
		t.Errorf("ReconnectDelay = %v, want 3s", fc.ReconnectDelay)
	}
	if fc.SubscriberBuffer != 32 {
		t.Errorf("SubscriberBuffer = %v, want 32", fc.SubscriberBuffer)
	}
	if fc.Output != "text" {
		t.Errorf("Output = %v, want text", fc.Output)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
service_url = "http://localhost"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.Contains(path, ".missionfeed") {
		t.Errorf("DefaultConfigPath() = %v, should contain .missionfeed", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
