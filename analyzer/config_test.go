package analyzer

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Default config should validate, got: %v", err)
	}
}

func TestLoadConfigFromReader_Overrides(t *testing.T) {
	jsonConfig := `{
		"web_server_port": 9090,
		"provider_timeout": "4s",
		"request_hard_deadline": "45s",
		"warmup_days": 90,
		"cost_per_kw": 42000,
		"dry_run": true
	}`

	config, err := LoadConfigFromReader(strings.NewReader(jsonConfig))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.WebServerPort != 9090 {
		t.Errorf("Expected port 9090, got %d", config.WebServerPort)
	}
	if config.ProviderTimeout != 4*time.Second {
		t.Errorf("Expected 4s provider timeout, got %s", config.ProviderTimeout)
	}
	if config.RequestHardDeadline != 45*time.Second {
		t.Errorf("Expected 45s hard deadline, got %s", config.RequestHardDeadline)
	}
	if config.WarmupDays != 90 {
		t.Errorf("Expected 90 warmup days, got %d", config.WarmupDays)
	}
	if config.CostPerKW != 42000 {
		t.Errorf("Expected cost 42000, got %f", config.CostPerKW)
	}
	if !config.DryRun {
		t.Error("Expected dry_run true")
	}

	// Untouched fields keep their defaults.
	if config.SummarizerTimeout != 5*time.Second {
		t.Errorf("Expected default summarizer timeout, got %s", config.SummarizerTimeout)
	}
}

func TestConfig_JSONRoundTrip(t *testing.T) {
	original := DefaultConfig()
	original.ProviderTimeout = 6 * time.Second
	original.ShutdownGrace = 20 * time.Second
	original.PostgresConnString = "postgres://localhost/solar"

	var buf bytes.Buffer
	if err := original.SaveConfigToWriter(&buf); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadConfigFromReader(&buf)
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}

	if loaded.ProviderTimeout != original.ProviderTimeout {
		t.Errorf("Provider timeout mismatch: %s vs %s", loaded.ProviderTimeout, original.ProviderTimeout)
	}
	if loaded.ShutdownGrace != original.ShutdownGrace {
		t.Errorf("Shutdown grace mismatch: %s vs %s", loaded.ShutdownGrace, original.ShutdownGrace)
	}
	if loaded.PostgresConnString != original.PostgresConnString {
		t.Errorf("Conn string mismatch: %s vs %s", loaded.PostgresConnString, original.PostgresConnString)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative port", func(c *Config) { c.WebServerPort = -1 }, "web_server_port"},
		{"zero provider timeout", func(c *Config) { c.ProviderTimeout = 0 }, "provider_timeout"},
		{"soft above hard", func(c *Config) { c.RequestSoftDeadline = 2 * c.RequestHardDeadline }, "request_soft_deadline"},
		{"zero summarizer timeout", func(c *Config) { c.SummarizerTimeout = 0 }, "summarizer_timeout"},
		{"negative warmup", func(c *Config) { c.WarmupDays = -1 }, "warmup_days"},
		{"zero cost", func(c *Config) { c.CostPerKW = 0 }, "cost_per_kw"},
		{"empty user agent", func(c *Config) { c.UserAgent = "" }, "user_agent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error naming %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadConfigFromReader_BadDuration(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader(`{"provider_timeout": "fast"}`))
	if err == nil {
		t.Fatal("Expected error for unparseable duration")
	}
	if !strings.Contains(err.Error(), "provider_timeout") {
		t.Errorf("Expected error naming the field, got: %v", err)
	}
}
