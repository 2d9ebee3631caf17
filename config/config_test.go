package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "hdfsbridge/protocols/hdfs"
)

const sample = `
history = "hdfs://namenode:8020/ops/history.json"

[[tasks]]
name = "sftp-to-hdfs"
cron = "*/5 * * * *"
source = "sftp://drop.example.com/outgoing"
source_regex = '\.csv$'
target = "hdfs://namenode:8020/landing"
retention_days = 7
source_newer_days = 2

[tasks.source_auth]
user = "etl"
key_file = "/etc/etl/id_ed25519"
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "hdfs://namenode:8020/ops/history.json", cfg.History)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	require.Len(t, cfg.Tasks, 1)

	task := cfg.Tasks[0]
	assert.Equal(t, "sftp-to-hdfs", task.Name)
	assert.Equal(t, `\.csv$`, task.SourceRegex)
	assert.Equal(t, 7, task.RetentionDays)
	assert.Equal(t, 2, task.SourceNewerDays)
	require.NotNil(t, task.SourceAuth)
	assert.Equal(t, "etl", task.SourceAuth.User)
	assert.Equal(t, "/etc/etl/id_ed25519", task.SourceAuth.KeyFile)
	assert.Nil(t, task.TargetAuth)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[tasks]]
name = "local"
cron = "@hourly"
source = "/data/in"
target = "/data/out"
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultHistory, cfg.History)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestValidationFailures(t *testing.T) {
	base := func() *Config {
		return &Config{
			History:  DefaultHistory,
			LogLevel: "info",
			Tasks: []Task{{
				Name:   "a",
				Cron:   "0 * * * *",
				Source: "/in",
				Target: "hdfs://namenode/out",
			}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"no tasks", func(c *Config) { c.Tasks = nil }, "Config.Tasks"},
		{"missing name", func(c *Config) { c.Tasks[0].Name = "" }, "Config.Tasks[0].Name"},
		{"negative retention", func(c *Config) { c.Tasks[0].RetentionDays = -1 }, "RetentionDays"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "LogLevel"},
		{"duplicate names", func(c *Config) { c.Tasks = append(c.Tasks, c.Tasks[0]) }, "duplicate task name"},
		{"bad cron", func(c *Config) { c.Tasks[0].Cron = "every minute" }, "invalid cron"},
		{"bad regex", func(c *Config) { c.Tasks[0].SourceRegex = "([" }, "invalid source_regex"},
		{"unknown protocol", func(c *Config) { c.Tasks[0].Target = "gopher://host/x" }, "unknown fs type: gopher"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			require.NoError(t, Validate(cfg))
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
