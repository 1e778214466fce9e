package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "files/input", cfg.Watch.InputDir)
	assert.Equal(t, 1, cfg.Watch.Workers)
	assert.Equal(t, time.Second, cfg.Watch.StabilityDelay)
	assert.Equal(t, 3, cfg.Watch.StabilityRetries)
	assert.Equal(t, "files/output", cfg.Output.Dir)
	assert.False(t, cfg.Sync.Enabled)
	assert.Equal(t, 120*time.Second, cfg.Sync.Interval)
	assert.Equal(t, SyncLogFile, cfg.Sync.LogBackend)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
watch:
  input_dir: /srv/inbox
  workers: 4
  stability_delay: 250ms
output:
  xlsx: true
sync:
  batch_size: 25
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/inbox", cfg.Watch.InputDir)
	assert.Equal(t, 4, cfg.Watch.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.StabilityDelay)
	assert.True(t, cfg.Output.XLSX)
	assert.Equal(t, 25, cfg.Sync.BatchSize)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("INVWATCH_WATCH_WORKERS", "3")
	t.Setenv("INVWATCH_OUTPUT_DIR", "/tmp/out")
	t.Setenv("INVWATCH_SYNC_ENABLED", "true")
	t.Setenv("GRIST_API_KEY", "secret")
	t.Setenv("GRIST_DOC_ID", "doc123")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Watch.Workers)
	assert.Equal(t, "/tmp/out", cfg.Output.Dir)
	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, "secret", cfg.Sync.APIKey)
	assert.Equal(t, "doc123", cfg.Sync.DocID)
}

func TestLoad_UploadIntervalSeconds(t *testing.T) {
	t.Setenv("UPLOAD_INTERVAL", "300")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
}

func TestLoad_PrefixedIntervalWins(t *testing.T) {
	t.Setenv("UPLOAD_INTERVAL", "300")
	t.Setenv("INVWATCH_SYNC_INTERVAL", "45s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Sync.Interval)
}

func TestLoad_BadUploadInterval(t *testing.T) {
	t.Setenv("UPLOAD_INTERVAL", "soon")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_SyncEnabledRequiresCredentials(t *testing.T) {
	t.Setenv("INVWATCH_SYNC_ENABLED", "true")
	t.Setenv("INVWATCH_SYNC_DOC_ID", "")
	t.Setenv("GRIST_DOC_ID", "")
	t.Setenv("INVWATCH_SYNC_API_KEY", "")
	t.Setenv("GRIST_API_KEY", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync.doc_id")
	assert.Contains(t, err.Error(), "sync.api_key")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Watch: WatchConfig{Workers: 1, StabilityRetries: 3},
			Sync:  SyncConfig{BatchSize: 10, LogBackend: SyncLogPostgres},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"ok", func(*Config) {}, ""},
		{"zero workers", func(c *Config) { c.Watch.Workers = 0 }, "watch.workers"},
		{"zero retries", func(c *Config) { c.Watch.StabilityRetries = 0 }, "watch.stability_retries"},
		{"zero batch", func(c *Config) { c.Sync.BatchSize = 0 }, "sync.batch_size"},
		{"unknown backend", func(c *Config) { c.Sync.LogBackend = "redis" }, "sync.log_backend"},
		{"s3 without bucket", func(c *Config) { c.S3.Enabled = true }, "s3.bucket"},
		{"sync without interval", func(c *Config) {
			c.Sync.Enabled = true
			c.Sync.DocID = "d"
			c.Sync.APIKey = "k"
		}, "sync.interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDSN(t *testing.T) {
	d := DBConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "n", SSLMode: "require"}
	assert.Equal(t, "postgres://u:p@db:5433/n?sslmode=require", d.DSN())
}
