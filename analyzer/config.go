package analyzer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Config represents the configuration for the site analyzer
type Config struct {
	// Server settings
	WebServerPort int  `json:"web_server_port"` // Port for the REST/websocket server (0 = disabled)
	DryRun        bool `json:"dry_run"`         // Skip persistence writes (analysis still runs)

	// Pipeline deadlines
	ProviderTimeout     time.Duration `json:"provider_timeout"`      // Per-provider fetch deadline
	RequestSoftDeadline time.Duration `json:"request_soft_deadline"` // Logged when exceeded
	RequestHardDeadline time.Duration `json:"request_hard_deadline"` // Request fails when exceeded
	SummarizerTimeout   time.Duration `json:"summarizer_timeout"`    // Narrative generation deadline
	ShutdownGrace       time.Duration `json:"shutdown_grace"`        // In-flight drain window on stop

	// Calibrator settings
	WarmupDays int `json:"warmup_days"` // History window replayed at startup

	// Financial settings
	CostPerKW float64 `json:"cost_per_kw"` // Benchmark installed cost per kW

	// Persistence
	PostgresConnString string `json:"postgres_conn_string"` // Empty disables history

	// Provider settings
	UserAgent             string `json:"user_agent"`               // User agent for provider clients
	NASABaseURL           string `json:"nasa_base_url"`            // Override for the POWER API (empty = production)
	MeteoBaseURL          string `json:"meteo_base_url"`           // Override for Open-Meteo (empty = production)
	OpenElevationURL      string `json:"open_elevation_url"`       // Override for Open-Elevation (empty = production)
	GoogleElevationAPIKey string `json:"google_elevation_api_key"` // Empty disables the primary elevation provider

	// Summarizer settings
	GeminiAPIKey  string `json:"gemini_api_key"`  // Empty forces the deterministic template
	GeminiBaseURL string `json:"gemini_base_url"` // Override for the generation API (empty = production)
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		WebServerPort:       8080,
		DryRun:              false,
		ProviderTimeout:     8 * time.Second,
		RequestSoftDeadline: 30 * time.Second,
		RequestHardDeadline: 60 * time.Second,
		SummarizerTimeout:   5 * time.Second,
		ShutdownGrace:       15 * time.Second,
		WarmupDays:          180,
		CostPerKW:           50000,
		PostgresConnString:  "",
		UserAgent:           "SolarSiteAnalyzer/2.0 (ops@example.com)",
	}
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	config := DefaultConfig()

	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config JSON: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to a JSON file
func (c *Config) SaveConfig(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	return c.SaveConfigToWriter(file)
}

// SaveConfigToWriter saves the configuration to an io.Writer
func (c *Config) SaveConfigToWriter(writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config JSON: %w", err)
	}

	return nil
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if c.WebServerPort < 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("web_server_port must be between 0 and 65535, got: %d", c.WebServerPort)
	}

	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("provider_timeout must be greater than 0, got: %s", c.ProviderTimeout)
	}

	if c.RequestSoftDeadline <= 0 {
		return fmt.Errorf("request_soft_deadline must be greater than 0, got: %s", c.RequestSoftDeadline)
	}

	if c.RequestHardDeadline <= 0 {
		return fmt.Errorf("request_hard_deadline must be greater than 0, got: %s", c.RequestHardDeadline)
	}

	if c.RequestSoftDeadline > c.RequestHardDeadline {
		return fmt.Errorf("request_soft_deadline (%s) cannot be greater than request_hard_deadline (%s)",
			c.RequestSoftDeadline, c.RequestHardDeadline)
	}

	if c.SummarizerTimeout <= 0 {
		return fmt.Errorf("summarizer_timeout must be greater than 0, got: %s", c.SummarizerTimeout)
	}

	if c.ShutdownGrace <= 0 {
		return fmt.Errorf("shutdown_grace must be greater than 0, got: %s", c.ShutdownGrace)
	}

	if c.WarmupDays < 0 {
		return fmt.Errorf("warmup_days must be non-negative, got: %d", c.WarmupDays)
	}

	if c.CostPerKW <= 0 {
		return fmt.Errorf("cost_per_kw must be greater than 0, got: %f", c.CostPerKW)
	}

	if c.UserAgent == "" {
		return fmt.Errorf("user_agent cannot be empty")
	}

	return nil
}

// MarshalJSON implements custom JSON marshaling to handle durations
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	return json.Marshal(&struct {
		*Alias
		ProviderTimeout     string `json:"provider_timeout"`
		RequestSoftDeadline string `json:"request_soft_deadline"`
		RequestHardDeadline string `json:"request_hard_deadline"`
		SummarizerTimeout   string `json:"summarizer_timeout"`
		ShutdownGrace       string `json:"shutdown_grace"`
	}{
		Alias:               (*Alias)(c),
		ProviderTimeout:     c.ProviderTimeout.String(),
		RequestSoftDeadline: c.RequestSoftDeadline.String(),
		RequestHardDeadline: c.RequestHardDeadline.String(),
		SummarizerTimeout:   c.SummarizerTimeout.String(),
		ShutdownGrace:       c.ShutdownGrace.String(),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling to handle durations
func (c *Config) UnmarshalJSON(data []byte) error {
	type Alias Config
	aux := &struct {
		*Alias
		ProviderTimeout     string `json:"provider_timeout"`
		RequestSoftDeadline string `json:"request_soft_deadline"`
		RequestHardDeadline string `json:"request_hard_deadline"`
		SummarizerTimeout   string `json:"summarizer_timeout"`
		ShutdownGrace       string `json:"shutdown_grace"`
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if aux.ProviderTimeout != "" {
		if c.ProviderTimeout, err = time.ParseDuration(aux.ProviderTimeout); err != nil {
			return fmt.Errorf("invalid provider_timeout: %w", err)
		}
	}

	if aux.RequestSoftDeadline != "" {
		if c.RequestSoftDeadline, err = time.ParseDuration(aux.RequestSoftDeadline); err != nil {
			return fmt.Errorf("invalid request_soft_deadline: %w", err)
		}
	}

	if aux.RequestHardDeadline != "" {
		if c.RequestHardDeadline, err = time.ParseDuration(aux.RequestHardDeadline); err != nil {
			return fmt.Errorf("invalid request_hard_deadline: %w", err)
		}
	}

	if aux.SummarizerTimeout != "" {
		if c.SummarizerTimeout, err = time.ParseDuration(aux.SummarizerTimeout); err != nil {
			return fmt.Errorf("invalid summarizer_timeout: %w", err)
		}
	}

	if aux.ShutdownGrace != "" {
		if c.ShutdownGrace, err = time.ParseDuration(aux.ShutdownGrace); err != nil {
			return fmt.Errorf("invalid shutdown_grace: %w", err)
		}
	}

	return nil
}

// String returns a string representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
