// Package config loads and validates the gr-hdfs configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (GRHDFS_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/mxl-space/gr-hdfs/internal/bytesize"
	"github.com/mxl-space/gr-hdfs/pkg/blocks"
	"github.com/mxl-space/gr-hdfs/pkg/sample"
	"github.com/mxl-space/gr-hdfs/pkg/webhdfs"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the gr-hdfs configuration.
//
// It covers the remote store connection, the sink and source block settings,
// and the ambient concerns (logging, metrics). Per-run overrides such as the
// remote filename are normally supplied via CLI flags on top of this.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// WebHDFS configures the remote file store connection
	WebHDFS WebHDFSConfig `mapstructure:"webhdfs" yaml:"webhdfs"`

	// Sink configures the sample-writing block
	Sink SinkConfig `mapstructure:"sink" yaml:"sink"`

	// Source configures the sample-reading block
	Source SourceConfig `mapstructure:"source" yaml:"source"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// WebHDFSConfig configures the connection to the WebHDFS service.
type WebHDFSConfig struct {
	// Address is the namenode address, host:port
	Address string `mapstructure:"address" validate:"required,hostname_port" yaml:"address"`

	// User is the identity passed as the user.name query parameter
	User string `mapstructure:"user" validate:"required" yaml:"user"`

	// Timeout bounds each HTTP request
	// Default: 10s
	Timeout time.Duration `mapstructure:"timeout" validate:"omitempty,gt=0" yaml:"timeout"`

	// RateLimit caps remote requests per second; 0 disables limiting
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0" yaml:"rate_limit,omitempty"`

	// Burst is the limiter burst size when RateLimit is set
	Burst int `mapstructure:"burst" validate:"gte=0" yaml:"burst,omitempty"`
}

// ClientConfig converts the section into a webhdfs client configuration.
func (c WebHDFSConfig) ClientConfig() webhdfs.Config {
	return webhdfs.Config{
		Address:   c.Address,
		User:      c.User,
		Timeout:   c.Timeout,
		RateLimit: c.RateLimit,
		Burst:     c.Burst,
	}
}

// SinkConfig configures the sample-writing block.
type SinkConfig struct {
	// Filename is the remote file name (usually supplied via CLI flag)
	Filename string `mapstructure:"filename" yaml:"filename,omitempty"`

	// Folder is the remote folder path
	// Example: /user/mxl/input
	Folder string `mapstructure:"folder" yaml:"folder"`

	// Mode selects behavior for an existing file
	// Valid values: append, overwrite
	Mode blocks.WriteMode `mapstructure:"mode" yaml:"mode"`

	// SampleType is the per-item wire format
	// Valid values: complex, float, int, short, byte (or the Go type names)
	SampleType sample.Type `mapstructure:"sample_type" yaml:"sample_type"`

	// BufferSize is the transfer chunk size
	// Supports human-readable formats: "128Mi", "1GB", or plain byte counts
	// Default: 128Mi
	BufferSize bytesize.ByteSize `mapstructure:"buffer_size" yaml:"buffer_size"`

	// PollInterval bounds the background writer's queue waits
	// Default: 1s
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"omitempty,gt=0" yaml:"poll_interval"`
}

// BlockConfig converts the section into a sink block configuration.
func (c SinkConfig) BlockConfig() blocks.SinkConfig {
	return blocks.SinkConfig{
		Filename:     c.Filename,
		Folder:       c.Folder,
		Mode:         c.Mode,
		SampleType:   c.SampleType,
		BufferSize:   c.BufferSize,
		PollInterval: c.PollInterval,
	}
}

// SourceConfig configures the sample-reading block.
type SourceConfig struct {
	// Filename is the remote file name (usually supplied via CLI flag)
	Filename string `mapstructure:"filename" yaml:"filename,omitempty"`

	// Folder is the remote folder path
	Folder string `mapstructure:"folder" yaml:"folder"`

	// SampleType is the per-item wire format
	SampleType sample.Type `mapstructure:"sample_type" yaml:"sample_type"`

	// ChunkSize is the number of bytes requested per ranged read
	// Default: 128Mi
	ChunkSize bytesize.ByteSize `mapstructure:"chunk_size" yaml:"chunk_size"`

	// PollInterval bounds the pipeline's queue waits
	// Default: 1s
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"omitempty,gt=0" yaml:"poll_interval"`
}

// BlockConfig converts the section into a source block configuration.
func (c SourceConfig) BlockConfig() blocks.SourceConfig {
	return blocks.SourceConfig{
		Filename:     c.Filename,
		Folder:       c.Folder,
		SampleType:   c.SampleType,
		ChunkSize:    c.ChunkSize,
		PollInterval: c.PollInterval,
	}
}

// Load reads configuration from the given file path (or the default location
// when empty), applies environment overrides, fills in defaults, and
// validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	// No config file: environment variables on top of defaults. AutomaticEnv
	// only resolves keys viper already knows about, so seed them.
	if !configFileFound {
		bindDefaults(v)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides user-friendly instructions if not.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  gr-hdfs init\n\n"+
				"Or specify a custom config file:\n"+
				"  gr-hdfs <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  gr-hdfs init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Use yaml.Marshal directly to respect yaml tags
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the GRHDFS_ prefix and underscores
	// Example: GRHDFS_WEBHDFS_ADDRESS=namenode:50070
	v.SetEnvPrefix("GRHDFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/gr-hdfs/config.yaml
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return false, nil
		}
		// Also check for os.PathError when an explicit config file doesn't exist
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// bindDefaults registers every config key with viper so that environment
// variables resolve even without a config file.
func bindDefaults(v *viper.Viper) {
	defaults := GetDefaultConfig()

	var flat map[string]interface{}
	data, err := yaml.Marshal(defaults)
	if err != nil {
		return
	}
	if err := yaml.Unmarshal(data, &flat); err != nil {
		return
	}
	for key, value := range flat {
		v.SetDefault(key, value)
	}
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
		sampleTypeDecodeHook(),
		writeModeDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings and integers to bytesize.ByteSize.
// This enables config files to use human-readable sizes like "128Mi", "1GB",
// or plain numbers.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.Parse(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings like "30s", "5m" to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// sampleTypeDecodeHook converts strings like "complex" or "int16" to sample.Type.
func sampleTypeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(sample.Type(0)) {
			return data, nil
		}

		if s, ok := data.(string); ok {
			return sample.Parse(s)
		}
		return data, nil
	}
}

// writeModeDecodeHook converts strings "append"/"overwrite" to blocks.WriteMode.
func writeModeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(blocks.WriteMode(0)) {
			return data, nil
		}

		if s, ok := data.(string); ok {
			return blocks.ParseWriteMode(s)
		}
		return data, nil
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "gr-hdfs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "gr-hdfs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
