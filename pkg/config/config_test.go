package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mxl-space/gr-hdfs/internal/bytesize"
	"github.com/mxl-space/gr-hdfs/pkg/blocks"
	"github.com/mxl-space/gr-hdfs/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// Point the default config location at an empty directory so a developer's
	// real config cannot leak into the test.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, "localhost:50070", cfg.WebHDFS.Address)
	assert.Equal(t, "hadoop", cfg.WebHDFS.User)
	assert.Equal(t, 10*time.Second, cfg.WebHDFS.Timeout)
	assert.Equal(t, 128*bytesize.MiB, cfg.Sink.BufferSize)
	assert.Equal(t, 128*bytesize.MiB, cfg.Source.ChunkSize)
	assert.Equal(t, time.Second, cfg.Sink.PollInterval)
	assert.Equal(t, blocks.ModeAppend, cfg.Sink.Mode)
	assert.Equal(t, sample.Complex64, cfg.Sink.SampleType)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
  format: json
webhdfs:
  address: namenode:50070
  user: grc
  timeout: 30s
  rate_limit: 5
sink:
  folder: /user/grc/input
  mode: overwrite
  sample_type: short
  buffer_size: 64Mi
  poll_interval: 250ms
source:
  folder: /user/grc/output
  sample_type: float
  chunk_size: 1Mi
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level) // normalized to uppercase
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "namenode:50070", cfg.WebHDFS.Address)
	assert.Equal(t, "grc", cfg.WebHDFS.User)
	assert.Equal(t, 30*time.Second, cfg.WebHDFS.Timeout)
	assert.Equal(t, 5.0, cfg.WebHDFS.RateLimit)
	assert.Equal(t, 1, cfg.WebHDFS.Burst) // defaulted alongside rate_limit

	assert.Equal(t, "/user/grc/input", cfg.Sink.Folder)
	assert.Equal(t, blocks.ModeOverwrite, cfg.Sink.Mode)
	assert.Equal(t, sample.Int16, cfg.Sink.SampleType)
	assert.Equal(t, 64*bytesize.MiB, cfg.Sink.BufferSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Sink.PollInterval)

	assert.Equal(t, "/user/grc/output", cfg.Source.Folder)
	assert.Equal(t, sample.Float32, cfg.Source.SampleType)
	assert.Equal(t, 1*bytesize.MiB, cfg.Source.ChunkSize)
	assert.Equal(t, time.Second, cfg.Source.PollInterval) // untouched default
}

func TestLoad_BufferSizeAsPlainBytes(t *testing.T) {
	path := writeConfigFile(t, `
webhdfs:
  address: namenode:50070
sink:
  buffer_size: 4096
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, bytesize.ByteSize(4096), cfg.Sink.BufferSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
webhdfs:
  address: namenode:50070
  user: filevalue
`)
	t.Setenv("GRHDFS_WEBHDFS_USER", "envvalue")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "envvalue", cfg.WebHDFS.User)
}

func TestLoad_InvalidSampleType(t *testing.T) {
	path := writeConfigFile(t, `
webhdfs:
  address: namenode:50070
sink:
  sample_type: quaternion
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quaternion")
}

func TestLoad_InvalidWriteMode(t *testing.T) {
	path := writeConfigFile(t, `
webhdfs:
  address: namenode:50070
sink:
  mode: truncate
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncate")
}

func TestLoad_InvalidByteSize(t *testing.T) {
	path := writeConfigFile(t, `
webhdfs:
  address: namenode:50070
source:
  chunk_size: lots
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveConfig_Roundtrip(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.WebHDFS.Address = "namenode:50070"
	cfg.Sink.Folder = "/user/grc/input"
	cfg.Sink.Mode = blocks.ModeOverwrite
	cfg.Sink.SampleType = sample.Int16
	cfg.Sink.BufferSize = 64 * bytesize.MiB

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "namenode:50070", loaded.WebHDFS.Address)
	assert.Equal(t, "/user/grc/input", loaded.Sink.Folder)
	assert.Equal(t, blocks.ModeOverwrite, loaded.Sink.Mode)
	assert.Equal(t, sample.Int16, loaded.Sink.SampleType)
	assert.Equal(t, 64*bytesize.MiB, loaded.Sink.BufferSize)
}

func TestMustLoad_MissingExplicitFile(t *testing.T) {
	_, err := MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestClientConfigConversion(t *testing.T) {
	cfg := WebHDFSConfig{
		Address:   "namenode:50070",
		User:      "grc",
		Timeout:   5 * time.Second,
		RateLimit: 2,
		Burst:     3,
	}

	cc := cfg.ClientConfig()
	assert.Equal(t, "namenode:50070", cc.Address)
	assert.Equal(t, "grc", cc.User)
	assert.Equal(t, 5*time.Second, cc.Timeout)
	assert.Equal(t, 2.0, cc.RateLimit)
	assert.Equal(t, 3, cc.Burst)
}
