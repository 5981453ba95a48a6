package config

import (
	"strings"
	"time"

	"github.com/mxl-space/gr-hdfs/internal/bytesize"
	"github.com/mxl-space/gr-hdfs/pkg/blocks"
	"github.com/mxl-space/gr-hdfs/pkg/webhdfs"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values (0, "", false) are replaced with defaults; explicit values are
// preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
	applyWebHDFSDefaults(&cfg.WebHDFS)
	applySinkDefaults(&cfg.Sink)
	applySourceDefaults(&cfg.Source)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in)
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyWebHDFSDefaults(cfg *WebHDFSConfig) {
	if cfg.User == "" {
		cfg.User = "hadoop"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = webhdfs.DefaultTimeout
	}
	if cfg.RateLimit > 0 && cfg.Burst == 0 {
		cfg.Burst = 1
	}
}

func applySinkDefaults(cfg *SinkConfig) {
	if cfg.Folder == "" {
		cfg.Folder = "/"
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = blocks.DefaultTransferSize
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = blocks.DefaultPollInterval
	}
}

func applySourceDefaults(cfg *SourceConfig) {
	if cfg.Folder == "" {
		cfg.Folder = "/"
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = blocks.DefaultTransferSize
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = blocks.DefaultPollInterval
	}
}

// GetDefaultConfig returns a configuration populated entirely with defaults.
// The WebHDFS address intentionally points at a local namenode; deployments
// override it via config file, GRHDFS_WEBHDFS_ADDRESS, or CLI flag.
func GetDefaultConfig() *Config {
	cfg := &Config{
		WebHDFS: WebHDFSConfig{
			Address: "localhost:50070",
			Timeout: 10 * time.Second,
		},
		Sink: SinkConfig{
			BufferSize: 128 * bytesize.MiB,
		},
		Source: SourceConfig{
			ChunkSize: 128 * bytesize.MiB,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
