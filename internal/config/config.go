// Package config loads stack-scanner settings from an optional YAML file and
// STACK_SCANNER_* environment variables. Environment wins over the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Collection sinks.
const (
	SinkSheets   = "sheets"
	SinkPostgres = "postgres"
)

// EnvServiceAccount holds service account JSON when no credentials file is
// configured.
const EnvServiceAccount = "GCP_SERVICE_ACCOUNT"

// Config holds all stack-scanner configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	OCR           OCRConfig           `yaml:"ocr"`
	Collection    CollectionConfig    `yaml:"collection"`
	Session       SessionConfig       `yaml:"session"`
	Upload        UploadConfig        `yaml:"upload"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr             string        `yaml:"addr"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// OCRConfig holds text recognition settings.
type OCRConfig struct {
	Language       string  `yaml:"language"`
	TessdataPrefix string  `yaml:"tessdata_prefix"`
	Binary         string  `yaml:"binary"`
	Contrast       float64 `yaml:"contrast"`
}

// CollectionConfig selects and configures where saved cars go.
type CollectionConfig struct {
	Sink            string        `yaml:"sink"` // sheets or postgres
	SpreadsheetID   string        `yaml:"spreadsheet_id"`
	Worksheet       string        `yaml:"worksheet"`
	CredentialsFile string        `yaml:"credentials_file"`
	Hyperlinks      bool          `yaml:"hyperlinks"`
	DSN             string        `yaml:"dsn"`
	Migrate         bool          `yaml:"migrate"`
	Timeout         time.Duration `yaml:"timeout"`
	Retries         int           `yaml:"retries"`

	// CredentialsJSON is read from GCP_SERVICE_ACCOUNT, never from the file.
	CredentialsJSON string `yaml:"-"`
}

// SessionConfig holds batch session settings.
type SessionConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MergeScans bool          `yaml:"merge_scans"`
}

// UploadConfig limits uploaded photos.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`

	// PreviewWidth is the width in pixels of the thumbnail kept per scan.
	PreviewWidth int `yaml:"preview_width"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		if cfg.Collection.CredentialsFile != "" {
			cfg.Collection.CredentialsFile = ResolveRelativePath(path, cfg.Collection.CredentialsFile)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:             ":8501",
			ReadTimeout:      60 * time.Second,
			WriteTimeout:     120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		OCR: OCRConfig{
			Language: "eng",
			Binary:   "tesseract",
			Contrast: 2.0,
		},
		Collection: CollectionConfig{
			Sink:       SinkSheets,
			Worksheet:  "Sheet1",
			Hyperlinks: true,
			Migrate:    true,
			Timeout:    15 * time.Second,
			Retries:    1,
		},
		Session: SessionConfig{
			TTL: 2 * time.Hour,
		},
		Upload: UploadConfig{
			MaxBytes:     20 << 20,
			PreviewWidth: 300,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is empty")
	}

	if c.OCR.Contrast <= 0 {
		return fmt.Errorf("invalid ocr contrast: %v", c.OCR.Contrast)
	}

	if c.OCR.Language == "" {
		return fmt.Errorf("ocr language is empty")
	}

	switch c.Collection.Sink {
	case SinkSheets, SinkPostgres:
	default:
		return fmt.Errorf("invalid collection sink: %s", c.Collection.Sink)
	}

	if c.Collection.Timeout <= 0 {
		return fmt.Errorf("collection timeout must be positive")
	}

	if c.Collection.Retries < 0 || c.Collection.Retries > 5 {
		return fmt.Errorf("collection retries must be between 0 and 5")
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}

	if c.Upload.MaxBytes < 1<<10 {
		return fmt.Errorf("upload max_bytes too small: %d", c.Upload.MaxBytes)
	}

	if c.Upload.PreviewWidth <= 0 {
		return fmt.Errorf("invalid upload preview_width: %d", c.Upload.PreviewWidth)
	}

	return nil
}

// HasSheetCredentials reports whether any service account is configured.
func (c *CollectionConfig) HasSheetCredentials() bool {
	return c.CredentialsJSON != "" || c.CredentialsFile != ""
}

// applyEnvOverrides applies STACK_SCANNER_* environment variables.
func applyEnvOverrides(cfg *Config) error {
	str := func(name string, dst *string) {
		if v := os.Getenv("STACK_SCANNER_" + name); v != "" {
			*dst = v
		}
	}

	str("ADDR", &cfg.Server.Addr)
	str("OCR_LANGUAGE", &cfg.OCR.Language)
	str("TESSDATA_PREFIX", &cfg.OCR.TessdataPrefix)
	str("TESSERACT_BINARY", &cfg.OCR.Binary)
	str("SINK", &cfg.Collection.Sink)
	str("SPREADSHEET_ID", &cfg.Collection.SpreadsheetID)
	str("WORKSHEET", &cfg.Collection.Worksheet)
	str("CREDENTIALS_FILE", &cfg.Collection.CredentialsFile)
	str("DSN", &cfg.Collection.DSN)
	str("LOG_LEVEL", &cfg.Observability.LogLevel)
	str("LOG_FORMAT", &cfg.Observability.LogFormat)

	if v := os.Getenv(EnvServiceAccount); v != "" {
		cfg.Collection.CredentialsJSON = v
	}

	if v := os.Getenv("STACK_SCANNER_OCR_CONTRAST"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("STACK_SCANNER_OCR_CONTRAST: %w", err)
		}
		cfg.OCR.Contrast = f
	}

	if v := os.Getenv("STACK_SCANNER_HYPERLINKS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("STACK_SCANNER_HYPERLINKS: %w", err)
		}
		cfg.Collection.Hyperlinks = b
	}

	if v := os.Getenv("STACK_SCANNER_MERGE_SCANS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("STACK_SCANNER_MERGE_SCANS: %w", err)
		}
		cfg.Session.MergeScans = b
	}

	if v := os.Getenv("STACK_SCANNER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STACK_SCANNER_TIMEOUT: %w", err)
		}
		cfg.Collection.Timeout = d
	}

	if v := os.Getenv("STACK_SCANNER_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STACK_SCANNER_RETRIES: %w", err)
		}
		cfg.Collection.Retries = n
	}

	if v := os.Getenv("STACK_SCANNER_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STACK_SCANNER_SESSION_TTL: %w", err)
		}
		cfg.Session.TTL = d
	}

	cfg.Collection.Sink = strings.ToLower(cfg.Collection.Sink)
	return nil
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	return filepath.Join(filepath.Dir(configPath), targetPath)
}
