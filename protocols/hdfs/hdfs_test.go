package hdfs_test

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hdfsbridge/protocols"
	"hdfsbridge/protocols/fstest"
	"hdfsbridge/protocols/hdfs"
)

func newMemoryFS(t *testing.T) *hdfs.FileSystem {
	t.Helper()
	fsys := hdfs.NewWithClient(hdfs.NewMemoryClient(), hdfs.Config{Host: "namenode", Port: 8020})
	t.Cleanup(func() { _ = fsys.Close() })
	return fsys
}

func TestMemoryFileSystem(t *testing.T) {
	suite := &fstest.Suite{
		NewFileSystem: func(t *testing.T) (protocols.FileSystem, string) {
			fsys := hdfs.NewWithClient(hdfs.NewMemoryClient(), hdfs.Config{})
			require.NoError(t, fsys.Mkdir("/fstest", true))
			return fsys, "/fstest"
		},
	}
	suite.Run(t)
}

func TestLocalModeFileSystem(t *testing.T) {
	suite := &fstest.Suite{
		NewFileSystem: func(t *testing.T) (protocols.FileSystem, string) {
			fsys, err := hdfs.New(hdfs.Config{Host: hdfs.LocalHost})
			require.NoError(t, err)
			return fsys, t.TempDir()
		},
	}
	suite.Run(t)
}

func TestProtocolAndFSID(t *testing.T) {
	a := hdfs.NewWithClient(hdfs.NewMemoryClient(), hdfs.Config{Host: "nn1", Port: 8020})
	b := hdfs.NewWithClient(hdfs.NewMemoryClient(), hdfs.Config{Host: "nn1", Port: 8020})
	c := hdfs.NewWithClient(hdfs.NewMemoryClient(), hdfs.Config{Host: "nn2", Port: 8020})

	assert.Equal(t, "hdfs", a.Protocol())
	assert.True(t, strings.HasPrefix(a.FSID(), "hdfs_"))
	assert.Equal(t, a.FSID(), b.FSID())
	assert.NotEqual(t, a.FSID(), c.FSID())

	implicitPort := hdfs.NewWithClient(hdfs.NewMemoryClient(), hdfs.Config{Host: "nn1"})
	assert.Equal(t, a.FSID(), implicitPort.FSID())
	otherPort := hdfs.NewWithClient(hdfs.NewMemoryClient(), hdfs.Config{Host: "nn1", Port: 9000})
	assert.NotEqual(t, a.FSID(), otherPort.FSID())
	local := hdfs.NewWithClient(hdfs.NewMemoryClient(), hdfs.Config{})
	assert.NotEqual(t, local.FSID(), hdfs.NewWithClient(hdfs.NewMemoryClient(), hdfs.Config{Host: hdfs.DefaultHost}).FSID())
}

func TestURLPathsAreStripped(t *testing.T) {
	fsys := newMemoryFS(t)
	require.NoError(t, fsys.Mkdir("hdfs://namenode:8020/data/in", true))

	assert.True(t, fsys.Exists("/data/in"))
	assert.True(t, fsys.Exists("hdfs:///data/in/"))
	assert.True(t, fsys.Exists("hdfs://namenode/data"))

	info, err := fsys.Info("hdfs://namenode:8020/data/in")
	require.NoError(t, err)
	assert.Equal(t, "/data/in", info.Name)
	assert.True(t, info.IsDir())
}

func TestRelativePathsResolveAgainstHome(t *testing.T) {
	fsys := newMemoryFS(t)

	require.NoError(t, protocols.Pipe(fsys, "notes.txt", []byte("rel")))
	info, err := fsys.Info("/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size)
}

func TestNotFoundEverywhere(t *testing.T) {
	fsys := newMemoryFS(t)
	missing := "/no/such/path"

	_, err := fsys.Info(missing)
	assert.ErrorIs(t, err, protocols.ErrNotFound)
	_, err = fsys.Ls(missing)
	assert.ErrorIs(t, err, protocols.ErrNotFound)
	assert.False(t, fsys.Exists(missing))
	_, err = fsys.Open(missing, "rb")
	assert.ErrorIs(t, err, protocols.ErrNotFound)
	assert.ErrorIs(t, fsys.Rm(missing, false), protocols.ErrNotFound)
	assert.ErrorIs(t, fsys.RmFile(missing), protocols.ErrNotFound)
	assert.ErrorIs(t, fsys.Rmdir(missing), protocols.ErrNotFound)
	assert.ErrorIs(t, fsys.Mv(missing, "/elsewhere"), protocols.ErrNotFound)
	_, err = fsys.Modified(missing)
	assert.ErrorIs(t, err, protocols.ErrNotFound)
}

func TestWriteNeedsParent(t *testing.T) {
	fsys := newMemoryFS(t)

	_, err := fsys.Open("/nowhere/file", "wb")
	assert.ErrorIs(t, err, protocols.ErrNotFound)
}

func TestPathBelowFileIsNotFound(t *testing.T) {
	fsys, err := hdfs.New(hdfs.Config{Host: hdfs.LocalHost})
	require.NoError(t, err)
	defer fsys.Close()

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, protocols.Pipe(fsys, file, []byte("x")))
	child := file + "/child"

	_, err = fsys.Info(child)
	assert.ErrorIs(t, err, protocols.ErrNotFound)
	_, err = fsys.Ls(child)
	assert.ErrorIs(t, err, protocols.ErrNotFound)
	assert.False(t, fsys.Exists(child))
}

func TestMemoryClientRenameKeepsDirectories(t *testing.T) {
	client := hdfs.NewMemoryClient()
	fsys := hdfs.NewWithClient(client, hdfs.Config{})
	require.NoError(t, fsys.Mkdir("/t/sub", true))
	require.NoError(t, protocols.Pipe(fsys, "/t/sub/keep.txt", []byte("keep")))
	require.NoError(t, protocols.Pipe(fsys, "/t/a.txt", []byte("a")))

	assert.Error(t, client.Rename("/t/a.txt", "/t/sub"))
	assert.Error(t, client.Rename("/t/a.txt", "/t"))

	info, err := fsys.Info("/t/sub")
	require.NoError(t, err)
	assert.Equal(t, protocols.TypeDirectory, info.Type)
	data, err := protocols.Cat(fsys, "/t/sub/keep.txt")
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))

	assert.ErrorIs(t, fsys.CpFile("/t/a.txt", "/t/sub"), protocols.ErrInvalidArgument)
	assert.ErrorIs(t, fsys.Mv("/t/a.txt", "/t"), protocols.ErrInvalidArgument)
	assert.True(t, fsys.Exists("/t/a.txt"))
}

func TestRmNonEmptyDirectory(t *testing.T) {
	fsys := newMemoryFS(t)
	require.NoError(t, fsys.Mkdir("/d", true))
	require.NoError(t, protocols.Pipe(fsys, "/d/f", []byte("1")))

	err := fsys.Rm("/d", false)
	assert.ErrorIs(t, err, protocols.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "cannot delete directory without recursive")

	require.NoError(t, fsys.Rm("/d", true))
	assert.False(t, fsys.Exists("/d"))
}

func TestCopyScenario(t *testing.T) {
	fsys := newMemoryFS(t)
	require.NoError(t, fsys.Mkdir("/t", true))
	require.NoError(t, protocols.Pipe(fsys, "/t/a.txt", []byte("hello")))

	require.NoError(t, fsys.CpFile("/t/a.txt", "/t/b.txt"))

	names, err := protocols.ListNames(fsys, "/t")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/t/a.txt", "/t/b.txt"}, names)

	data, err := protocols.Cat(fsys, "/t/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// Move into an existing subdirectory.
	require.NoError(t, fsys.Mkdir("/t/sub", true))
	require.NoError(t, fsys.Mv("/t/b.txt", "/t/sub/b.txt"))
	assert.False(t, fsys.Exists("/t/b.txt"))
	data, err = protocols.Cat(fsys, "/t/sub/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestEntryDetails(t *testing.T) {
	fsys := newMemoryFS(t)
	require.NoError(t, protocols.Pipe(fsys, "/f.bin", []byte("abcd")))

	entries, err := fsys.Ls("/")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/f.bin", entries[0].Name)
	assert.Equal(t, int64(4), entries[0].Size)
	assert.Equal(t, protocols.TypeFile, entries[0].Type)
	assert.False(t, entries[0].ModTime.IsZero())
}

func TestStreamIntrospection(t *testing.T) {
	fsys := hdfs.NewWithClient(hdfs.NewMemoryClient(), hdfs.Config{BlockSize: 64 << 20})

	f, err := fsys.Open("/blocks", "wb")
	require.NoError(t, err)
	assert.Equal(t, int64(64<<20), f.BlockSize())
	assert.Equal(t, "/blocks", f.Path())
	assert.Equal(t, protocols.ModeWrite, f.Mode())
	require.NoError(t, f.Close())

	f, err = fsys.Open("/blocks", "rb", protocols.WithBlockSize(4096), protocols.WithSeekable(false))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, int64(4096), f.BlockSize())
	assert.False(t, f.Seekable())
	_, err = io.ReadAll(f)
	assert.NoError(t, err)
}

func TestRegisteredProtocol(t *testing.T) {
	assert.Contains(t, protocols.Protocols(), "hdfs")

	_, err := protocols.Filesystem("hdfs", protocols.StorageOptions{
		Host:  "namenode",
		Query: map[string][]string{"replication": {"0"}},
	})
	assert.ErrorIs(t, err, protocols.ErrInvalidArgument)
}
