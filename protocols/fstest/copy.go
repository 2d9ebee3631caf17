package fstest

import (
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hdfsbridge/protocols"
)

// RunCopyTests covers CpFile and the composite operations built on the
// primitives.
func (suite *Suite) RunCopyTests(t *testing.T) {
	t.Run("CpFile", suite.testCpFile)
	t.Run("CpFile_Overwrite", suite.testCpFileOverwrite)
	t.Run("CpFile_NotFound", suite.testCpFileNotFound)
	t.Run("CpFile_OntoDirectory", suite.testCpFileOntoDirectory)
	t.Run("Copy_Recursive", suite.testCopyRecursive)
	t.Run("Walk_FindDu", suite.testWalkFindDu)
	t.Run("DeleteDirContents", suite.testDeleteDirContents)
}

func (suite *Suite) testCpFile(t *testing.T) {
	fsys, root := suite.setup(t)
	dir := path.Join(root, "t")
	require.NoError(t, fsys.Mkdir(dir, true))
	a, b := path.Join(dir, "a.txt"), path.Join(dir, "b.txt")
	mustWrite(t, fsys, a, "hello")

	require.NoError(t, fsys.CpFile(a, b))

	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, names(t, fsys, dir))
	assert.Equal(t, "hello", mustRead(t, fsys, b))
	assert.Equal(t, "hello", mustRead(t, fsys, a))
	assertNoTempFiles(t, fsys, b)
}

func (suite *Suite) testCpFileOverwrite(t *testing.T) {
	fsys, root := suite.setup(t)
	src, dst := path.Join(root, "src"), path.Join(root, "dst")
	mustWrite(t, fsys, src, "new content")
	mustWrite(t, fsys, dst, "old")

	require.NoError(t, fsys.CpFile(src, dst+"/"))
	assert.Equal(t, "new content", mustRead(t, fsys, dst))
}

func (suite *Suite) testCpFileNotFound(t *testing.T) {
	fsys, root := suite.setup(t)
	dst := path.Join(root, "never")

	err := fsys.CpFile(path.Join(root, "missing"), dst)
	assert.ErrorIs(t, err, protocols.ErrNotFound)
	assert.False(t, fsys.Exists(dst))
	assertNoTempFiles(t, fsys, dst)
}

func (suite *Suite) testCpFileOntoDirectory(t *testing.T) {
	fsys, root := suite.setup(t)
	src := path.Join(root, "a.txt")
	dir := path.Join(root, "sub")
	mustWrite(t, fsys, src, "a")
	require.NoError(t, fsys.Mkdir(dir, true))
	mustWrite(t, fsys, path.Join(dir, "keep.txt"), "keep")

	assert.ErrorIs(t, fsys.CpFile(src, dir), protocols.ErrInvalidArgument)
	assert.True(t, protocols.IsDir(fsys, dir))
	assert.Equal(t, "keep", mustRead(t, fsys, path.Join(dir, "keep.txt")))
	assertNoTempFiles(t, fsys, dir)
}

func (suite *Suite) testCopyRecursive(t *testing.T) {
	fsys, root := suite.setup(t)
	src := path.Join(root, "src")
	require.NoError(t, fsys.Mkdir(path.Join(src, "nested"), true))
	mustWrite(t, fsys, path.Join(src, "top.txt"), "top")
	mustWrite(t, fsys, path.Join(src, "nested", "leaf.txt"), "leaf")

	dst := path.Join(root, "dst")
	assert.ErrorIs(t, protocols.Copy(fsys, src, dst, false), protocols.ErrInvalidArgument)

	require.NoError(t, protocols.Copy(fsys, src, dst, true))
	assert.Equal(t, "top", mustRead(t, fsys, path.Join(dst, "top.txt")))
	assert.Equal(t, "leaf", mustRead(t, fsys, path.Join(dst, "nested", "leaf.txt")))
}

func (suite *Suite) testWalkFindDu(t *testing.T) {
	fsys, root := suite.setup(t)
	base := path.Join(root, "w")
	require.NoError(t, fsys.Mkdir(path.Join(base, "b", "skip"), true))
	mustWrite(t, fsys, path.Join(base, "a.txt"), "12")
	mustWrite(t, fsys, path.Join(base, "b", "c.txt"), "345")
	mustWrite(t, fsys, path.Join(base, "b", "skip", "d.txt"), "6789")

	var visited []string
	err := protocols.Walk(fsys, base, func(entry protocols.FileEntry, err error) error {
		require.NoError(t, err)
		rel := protocols.Rel(base, entry.Name)
		visited = append(visited, rel)
		if rel == "b/skip" {
			return protocols.SkipDir
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"", "a.txt", "b", "b/c.txt", "b/skip"}, visited)

	files, err := protocols.Find(fsys, base)
	require.NoError(t, err)
	assert.Len(t, files, 3)

	total, err := protocols.Du(fsys, base)
	require.NoError(t, err)
	assert.Equal(t, int64(9), total)
}

func (suite *Suite) testDeleteDirContents(t *testing.T) {
	fsys, root := suite.setup(t)
	dir := path.Join(root, "clean")
	require.NoError(t, fsys.Mkdir(path.Join(dir, "sub"), true))
	mustWrite(t, fsys, path.Join(dir, "f1"), "1")
	mustWrite(t, fsys, path.Join(dir, "sub", "f2"), "2")

	require.NoError(t, protocols.DeleteDirContents(fsys, dir))
	assert.True(t, protocols.IsDir(fsys, dir))
	assert.Empty(t, names(t, fsys, dir))
}
