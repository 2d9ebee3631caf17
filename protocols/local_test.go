package protocols_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hdfsbridge/protocols"
	"hdfsbridge/protocols/fstest"
)

func TestLocalFileSystem(t *testing.T) {
	suite := &fstest.Suite{
		NewFileSystem: func(t *testing.T) (protocols.FileSystem, string) {
			return &protocols.LocalFileSystem{}, filepath.ToSlash(t.TempDir())
		},
	}
	suite.Run(t)
}

func TestLocalFileSystemRooted(t *testing.T) {
	suite := &fstest.Suite{
		NewFileSystem: func(t *testing.T) (protocols.FileSystem, string) {
			fsys := &protocols.LocalFileSystem{RootPath: filepath.Join(t.TempDir(), "root")}
			require.NoError(t, fsys.Init())
			return fsys, "/"
		},
	}
	suite.Run(t)
}

func TestLocalFileSystemConfinedToRoot(t *testing.T) {
	root := t.TempDir()
	fsys := &protocols.LocalFileSystem{RootPath: root}

	require.NoError(t, protocols.Pipe(fsys, "/../../escape.txt", []byte("x")))

	_, err := os.Stat(filepath.Join(root, "escape.txt"))
	assert.NoError(t, err)
	info, err := fsys.Info("/escape.txt")
	require.NoError(t, err)
	assert.Equal(t, "/escape.txt", info.Name)
}

func TestLocalFileSystemFromURL(t *testing.T) {
	dir := filepath.ToSlash(t.TempDir())

	fsys, p, err := protocols.FromURL("file://" + dir)
	require.NoError(t, err)
	defer fsys.Close()

	assert.Equal(t, "file", fsys.Protocol())
	assert.Equal(t, dir, p)
	assert.True(t, protocols.IsDir(fsys, p))
}
