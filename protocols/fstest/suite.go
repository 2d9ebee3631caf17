// Package fstest holds a conformance suite every protocols.FileSystem
// implementation is expected to pass.
package fstest

import (
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"hdfsbridge/protocols"
)

// Suite checks the FileSystem contract, not implementation details, so the
// same tests run against every backend.
//
// Usage:
//
//	func TestLocalFileSystem(t *testing.T) {
//	    suite := &fstest.Suite{
//	        NewFileSystem: func(t *testing.T) (protocols.FileSystem, string) {
//	            return &protocols.LocalFileSystem{}, t.TempDir()
//	        },
//	    }
//	    suite.Run(t)
//	}
type Suite struct {
	// NewFileSystem returns a fresh filesystem and an existing, empty
	// directory inside it that the test may use freely.
	NewFileSystem func(t *testing.T) (protocols.FileSystem, string)
}

// Run executes all tests in the suite.
func (suite *Suite) Run(t *testing.T) {
	t.Run("Namespace", suite.RunNamespaceTests)
	t.Run("Streams", suite.RunStreamTests)
	t.Run("Copy", suite.RunCopyTests)
}

func (suite *Suite) setup(t *testing.T) (protocols.FileSystem, string) {
	t.Helper()
	fsys, root := suite.NewFileSystem(t)
	t.Cleanup(func() { _ = fsys.Close() })
	return fsys, root
}

// mustWrite creates p with data.
func mustWrite(t *testing.T, fsys protocols.FileSystem, p string, data string) {
	t.Helper()
	require.NoError(t, protocols.Pipe(fsys, p, []byte(data)))
}

// mustRead returns the whole content of p.
func mustRead(t *testing.T, fsys protocols.FileSystem, p string) string {
	t.Helper()
	data, err := protocols.Cat(fsys, p)
	require.NoError(t, err)
	return string(data)
}

// names lists the base names directly under dir.
func names(t *testing.T, fsys protocols.FileSystem, dir string) []string {
	t.Helper()
	full, err := protocols.ListNames(fsys, dir)
	require.NoError(t, err)
	out := make([]string, len(full))
	for i, n := range full {
		out[i] = path.Base(n)
	}
	return out
}

// assertNoTempFiles fails when a staging file for dst is left in its parent.
func assertNoTempFiles(t *testing.T, fsys protocols.FileSystem, dst string) {
	t.Helper()
	prefix := path.Base(dst) + ".tmp."
	for _, n := range names(t, fsys, path.Dir(dst)) {
		require.False(t, strings.HasPrefix(n, prefix), "temporary file %s left behind", n)
	}
}
