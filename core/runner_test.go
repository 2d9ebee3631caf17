package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"hdfsbridge/config"
)

func TestRunnerRunsImmediately(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeLocal(t, filepath.Join(src, "now.txt"), "now")

	tm, _ := newTestManager(t)
	cfg := &config.Config{Tasks: []config.Task{{
		Name:   "immediate",
		Cron:   "@every 1h",
		Source: src,
		Target: dst,
	}}}

	runner := NewRunner(cfg, tm, zaptest.NewLogger(t))
	require.NoError(t, runner.Start())
	runner.Stop()

	_, err := os.Stat(filepath.Join(dst, "now.txt"))
	assert.NoError(t, err)
	assert.Len(t, runner.Cron.Entries(), 1)
}

func TestRunnerRejectsBadSchedule(t *testing.T) {
	tm, _ := newTestManager(t)
	cfg := &config.Config{Tasks: []config.Task{{Name: "bad", Cron: "whenever"}}}

	runner := NewRunner(cfg, tm, nil)
	err := runner.Start()
	assert.ErrorContains(t, err, "failed to schedule task bad")
	runner.Stop()
}

func TestCronLogger(t *testing.T) {
	l := cronLogger{s: zaptest.NewLogger(t).Sugar()}
	l.Info("tick", "entry", 1)
	l.Error(assert.AnError, "boom", "entry", 1)
}
