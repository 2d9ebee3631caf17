package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hdfsbridge/parquetfile"
	"hdfsbridge/protocols"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "hdfsbridge %s", strings.Join(args, " "))
	return out
}

func TestFileCommands(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(local, []byte("hello world"), 0644))

	remote := filepath.Join(dir, "remote")
	mustRun(t, "mkdir", "-p", remote+"/in")
	mustRun(t, "put", local, remote+"/in/hello.txt")

	out := mustRun(t, "ls", remote+"/in")
	assert.Equal(t, remote+"/in/hello.txt\n", out)

	out = mustRun(t, "ls", "-l", remote+"/in")
	assert.Contains(t, out, "11 B")
	assert.True(t, strings.HasPrefix(out, "-"))

	assert.Equal(t, "hello world", mustRun(t, "cat", remote+"/in/hello.txt"))
	assert.Equal(t, "world", mustRun(t, "cat", "--offset", "-5", remote+"/in/hello.txt"))
	assert.Equal(t, "hello", mustRun(t, "cat", "--length", "5", remote+"/in/hello.txt"))

	out = mustRun(t, "info", remote+"/in/hello.txt")
	assert.Contains(t, out, `"Size": 11`)
	assert.Contains(t, out, `"Type": "file"`)

	_, err := run(t, "cp", remote+"/in", remote+"/copy")
	assert.ErrorIs(t, err, protocols.ErrInvalidArgument)
	mustRun(t, "cp", "-r", remote+"/in", remote+"/copy")
	assert.Equal(t, remote+"/copy/hello.txt\n", mustRun(t, "find", remote+"/copy"))

	mustRun(t, "mv", remote+"/copy/hello.txt", remote+"/copy/moved.txt")
	assert.Equal(t, "22\n", mustRun(t, "du", remote))
	assert.Equal(t, "22 B\n", mustRun(t, "du", "-H", remote))

	got := filepath.Join(dir, "got.txt")
	mustRun(t, "get", remote+"/copy/moved.txt", got)
	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	_, err = run(t, "rm", remote+"/copy")
	assert.ErrorIs(t, err, protocols.ErrInvalidArgument)
	mustRun(t, "rm", "-r", remote+"/copy")
	assert.NoDirExists(t, remote+"/copy")

	_, err = run(t, "cat", remote+"/missing")
	assert.ErrorIs(t, err, protocols.ErrNotFound)
}

func TestParquetCommand(t *testing.T) {
	type row struct {
		ID   int64  `parquet:"name=id, type=INT64"`
		Name string `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	}
	dir := t.TempDir()
	file := filepath.Join(dir, "rows.parquet")
	require.NoError(t, parquetfile.Write(&protocols.LocalFileSystem{}, file, []row{{1, "a"}, {2, "b"}}))

	out := mustRun(t, "parquet", file)
	assert.Contains(t, out, "rows: 2\n")
	assert.Contains(t, out, "INT64")
	assert.Contains(t, out, "BYTE_ARRAY")
}

func TestSyncCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.MkdirAll(src, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.csv"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "b.txt"), []byte("b"), 0644))

	cfgPath := filepath.Join(dir, "config.toml")
	cfg := `history = "` + filepath.Join(dir, "history.json") + `"

[[tasks]]
name = "csv"
cron = "@hourly"
source = "` + src + `"
source_regex = '\.csv$'
target = "` + dst + `"

[[tasks]]
name = "all"
cron = "@hourly"
source = "` + src + `"
target = "` + filepath.Join(dir, "all") + `"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	out := mustRun(t, "sync", "-c", cfgPath, "-t", "csv")
	assert.Equal(t, "csv: 1 transferred, 0 skipped, 0 failed, 0 removed\n", out)
	assert.FileExists(t, filepath.Join(dst, "a.csv"))
	assert.NoFileExists(t, filepath.Join(dst, "b.txt"))
	assert.NoDirExists(t, filepath.Join(dir, "all"))
	assert.FileExists(t, filepath.Join(dir, "history.json"))

	out = mustRun(t, "sync", "-c", cfgPath)
	assert.Contains(t, out, "csv: 0 transferred, 1 skipped")
	assert.Contains(t, out, "all: 2 transferred")

	_, err := run(t, "sync", "-c", cfgPath, "-t", "nope")
	assert.ErrorContains(t, err, "no task matches")
}

func TestRootFlags(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "version")
	assert.ErrorContains(t, err, "invalid log level")

	_, err = run(t, "--log-format", "xml", "version")
	assert.ErrorContains(t, err, "invalid log format")

	out := mustRun(t, "version")
	assert.True(t, strings.HasPrefix(out, "hdfsbridge dev"))
}

func TestHDFSURLValidation(t *testing.T) {
	_, err := run(t, "ls", "hdfs://namenode:8020/data?replication=0")
	assert.ErrorIs(t, err, protocols.ErrInvalidArgument)
}
