// Package config loads the settings that select and tune a backend:
// local-vs-S3 selection, S3 connection details, retry tuning, and log level.
// Values come from defaults, an optional YAML file, and environment
// variables, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Configuration is the complete, YAML-serializable application configuration.
type Configuration struct {
	Global  GlobalConfig  `yaml:"global"`
	Backend BackendConfig `yaml:"backend"`
	S3      S3Config      `yaml:"s3"`
	Retry   RetryConfig   `yaml:"retry"`
}

// GlobalConfig holds settings that apply regardless of backend.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// BackendConfig selects which Fs implementation to construct.
type BackendConfig struct {
	// Kind is "local" or "s3".
	Kind string `yaml:"kind"`
	// LocalRoot is the filesystem root for the local backend.
	LocalRoot string `yaml:"local_root"`
}

// S3Config holds the connection settings for the S3 backend.
type S3Config struct {
	Bucket          string        `yaml:"bucket"`
	Region          string        `yaml:"region"`
	Endpoint        string        `yaml:"endpoint"`
	PathStyle       bool          `yaml:"path_style"`
	MultipartPartMB int           `yaml:"multipart_part_mb"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	// CredentialsSource is "env", "static", or "instance".
	CredentialsSource string `yaml:"credentials_source"`
}

// RetryConfig mirrors pkg/retry.Config for YAML loading.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Jitter       bool          `yaml:"jitter"`
}

// NewDefault returns a configuration with sensible defaults: local backend,
// 5 MiB multipart threshold, and the retry package's full-jitter 4-attempt
// policy.
func NewDefault() *Configuration {
	return &Configuration{
		Global: GlobalConfig{
			LogLevel: "INFO",
		},
		Backend: BackendConfig{
			Kind:      "local",
			LocalRoot: ".",
		},
		S3: S3Config{
			Region:            "us-east-1",
			PathStyle:         false,
			MultipartPartMB:   5,
			RequestTimeout:    30 * time.Second,
			CredentialsSource: "env",
		},
		Retry: RetryConfig{
			MaxAttempts:  4,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

// LoadFromFile loads configuration from a YAML file, overwriting whatever
// fields the file sets.
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv overlays the OBJECTFS_* backend, logging, S3 and retry knobs
// plus AWS_REGION and AWS_ENDPOINT. It reads no credential variables;
// internal/adapter reads those directly.
func (c *Configuration) LoadFromEnv() error {
	if val := os.Getenv("OBJECTFS_LOG_LEVEL"); val != "" {
		c.Global.LogLevel = val
	}
	if val := os.Getenv("OBJECTFS_LOG_FILE"); val != "" {
		c.Global.LogFile = val
	}
	if val := os.Getenv("OBJECTFS_BACKEND"); val != "" {
		c.Backend.Kind = val
	}
	if val := os.Getenv("OBJECTFS_LOCAL_ROOT"); val != "" {
		c.Backend.LocalRoot = val
	}

	if val := os.Getenv("AWS_REGION"); val != "" {
		c.S3.Region = val
	}
	if val := os.Getenv("AWS_ENDPOINT"); val != "" {
		c.S3.Endpoint = val
	}
	if val := os.Getenv("OBJECTFS_S3_BUCKET"); val != "" {
		c.S3.Bucket = val
	}
	if val := os.Getenv("OBJECTFS_S3_PATH_STYLE"); val != "" {
		c.S3.PathStyle = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("OBJECTFS_S3_MULTIPART_PART_MB"); val != "" {
		if mb, err := strconv.Atoi(val); err == nil {
			c.S3.MultipartPartMB = mb
		}
	}

	if val := os.Getenv("OBJECTFS_RETRY_MAX_ATTEMPTS"); val != "" {
		if attempts, err := strconv.Atoi(val); err == nil {
			c.Retry.MaxAttempts = attempts
		}
	}

	return nil
}

// SaveToFile writes the configuration to a YAML file, creating parent
// directories as needed.
func (c *Configuration) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for internal consistency.
func (c *Configuration) Validate() error {
	switch c.Backend.Kind {
	case "local", "s3":
	default:
		return fmt.Errorf("invalid backend kind: %s (must be local or s3)", c.Backend.Kind)
	}

	if c.Backend.Kind == "s3" && c.S3.Bucket == "" {
		return fmt.Errorf("s3 backend requires s3.bucket")
	}

	if c.S3.MultipartPartMB <= 0 {
		return fmt.Errorf("s3.multipart_part_mb must be greater than 0")
	}

	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be greater than 0")
	}

	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	logLevelValid := false
	for _, level := range validLogLevels {
		if c.Global.LogLevel == level {
			logLevelValid = true
			break
		}
	}
	if !logLevelValid {
		return fmt.Errorf("invalid log_level: %s (must be one of: %s)",
			c.Global.LogLevel, strings.Join(validLogLevels, ", "))
	}

	return nil
}
