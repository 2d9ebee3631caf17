package fstest

import (
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hdfsbridge/protocols"
)

// RunNamespaceTests covers listing, metadata, directory and delete calls.
func (suite *Suite) RunNamespaceTests(t *testing.T) {
	t.Run("Info_NotFound", suite.testInfoNotFound)
	t.Run("Ls_NotFound", suite.testLsNotFound)
	t.Run("Exists_MatchesInfo", suite.testExistsMatchesInfo)
	t.Run("Ls_Directory", suite.testLsDirectory)
	t.Run("Ls_File", suite.testLsFile)
	t.Run("Mkdir_Idempotent", suite.testMkdirIdempotent)
	t.Run("Mkdir_WithoutParents", suite.testMkdirWithoutParents)
	t.Run("Makedirs_ExistOK", suite.testMakedirsExistOK)
	t.Run("Rm_Directory", suite.testRmDirectory)
	t.Run("Rm_File", suite.testRmFile)
	t.Run("RmFile_Directory", suite.testRmFileDirectory)
	t.Run("Rmdir", suite.testRmdir)
	t.Run("Rmdir_File", suite.testRmdirFile)
	t.Run("Mv_File", suite.testMvFile)
	t.Run("Mv_NotFound", suite.testMvNotFound)
	t.Run("Mv_OntoDirectory", suite.testMvOntoDirectory)
	t.Run("Modified", suite.testModified)
}

func (suite *Suite) testInfoNotFound(t *testing.T) {
	fsys, root := suite.setup(t)

	_, err := fsys.Info(path.Join(root, "missing"))
	assert.ErrorIs(t, err, protocols.ErrNotFound)
}

func (suite *Suite) testLsNotFound(t *testing.T) {
	fsys, root := suite.setup(t)

	_, err := fsys.Ls(path.Join(root, "missing"))
	assert.ErrorIs(t, err, protocols.ErrNotFound)
}

func (suite *Suite) testExistsMatchesInfo(t *testing.T) {
	fsys, root := suite.setup(t)
	file := path.Join(root, "present.txt")
	mustWrite(t, fsys, file, "x")

	paths := []string{
		root,
		file,
		path.Join(root, "absent"),
		path.Join(root, "absent", "deeper"),
		path.Join(file, "child"),
	}
	for _, p := range paths {
		_, err := fsys.Info(p)
		assert.Equal(t, err == nil, fsys.Exists(p), p)
		if err != nil {
			assert.True(t, protocols.IsNotFound(err), p)
		}
	}
}

func (suite *Suite) testLsDirectory(t *testing.T) {
	fsys, root := suite.setup(t)
	mustWrite(t, fsys, path.Join(root, "a.txt"), "hello")
	require.NoError(t, fsys.Mkdir(path.Join(root, "sub"), true))

	entries, err := fsys.Ls(root)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byName := map[string]protocols.FileEntry{}
	for _, e := range entries {
		byName[path.Base(e.Name)] = e
	}
	assert.Equal(t, protocols.TypeFile, byName["a.txt"].Type)
	assert.Equal(t, int64(5), byName["a.txt"].Size)
	assert.Equal(t, protocols.TypeDirectory, byName["sub"].Type)
	assert.ElementsMatch(t, []string{"a.txt", "sub"}, names(t, fsys, root))
}

func (suite *Suite) testLsFile(t *testing.T) {
	fsys, root := suite.setup(t)
	file := path.Join(root, "only.txt")
	mustWrite(t, fsys, file, "abc")

	entries, err := fsys.Ls(file)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "only.txt", path.Base(entries[0].Name))
	assert.Equal(t, int64(3), entries[0].Size)
}

func (suite *Suite) testMkdirIdempotent(t *testing.T) {
	fsys, root := suite.setup(t)
	dir := path.Join(root, "x", "y", "z")

	require.NoError(t, fsys.Mkdir(dir, true))
	require.NoError(t, fsys.Mkdir(dir, true))
	assert.True(t, protocols.IsDir(fsys, dir))
}

func (suite *Suite) testMkdirWithoutParents(t *testing.T) {
	fsys, root := suite.setup(t)

	err := fsys.Mkdir(path.Join(root, "nope", "child"), false)
	assert.ErrorIs(t, err, protocols.ErrNotFound)

	dir := path.Join(root, "one")
	require.NoError(t, fsys.Mkdir(dir, false))
	assert.True(t, protocols.IsDir(fsys, dir))

	err = fsys.Mkdir(dir, false)
	assert.ErrorIs(t, err, protocols.ErrAlreadyExists)
}

func (suite *Suite) testMakedirsExistOK(t *testing.T) {
	fsys, root := suite.setup(t)
	dir := path.Join(root, "made")

	require.NoError(t, fsys.Makedirs(dir, false))
	require.NoError(t, fsys.Makedirs(dir, true))
	assert.ErrorIs(t, fsys.Makedirs(dir, false), protocols.ErrAlreadyExists)
}

func (suite *Suite) testRmDirectory(t *testing.T) {
	fsys, root := suite.setup(t)
	dir := path.Join(root, "full")
	require.NoError(t, fsys.Mkdir(dir, true))
	mustWrite(t, fsys, path.Join(dir, "f"), "data")

	err := fsys.Rm(dir, false)
	assert.ErrorIs(t, err, protocols.ErrInvalidArgument)
	assert.True(t, fsys.Exists(dir))

	require.NoError(t, fsys.Rm(dir+"/", true))
	assert.False(t, fsys.Exists(dir))

	assert.ErrorIs(t, fsys.Rm(dir, true), protocols.ErrNotFound)
}

func (suite *Suite) testRmFile(t *testing.T) {
	fsys, root := suite.setup(t)
	file := path.Join(root, "gone.txt")
	mustWrite(t, fsys, file, "bye")

	require.NoError(t, fsys.Rm(file, false))
	assert.False(t, fsys.Exists(file))
}

func (suite *Suite) testRmFileDirectory(t *testing.T) {
	fsys, root := suite.setup(t)
	dir := path.Join(root, "d")
	require.NoError(t, fsys.Mkdir(dir, true))

	assert.ErrorIs(t, fsys.RmFile(dir), protocols.ErrInvalidArgument)
	assert.ErrorIs(t, fsys.RmFile(path.Join(root, "missing")), protocols.ErrNotFound)

	file := path.Join(dir, "f")
	mustWrite(t, fsys, file, "1")
	require.NoError(t, fsys.RmFile(file))
	assert.False(t, fsys.Exists(file))
}

func (suite *Suite) testRmdir(t *testing.T) {
	fsys, root := suite.setup(t)
	dir := path.Join(root, "tree")
	require.NoError(t, fsys.Mkdir(path.Join(dir, "a", "b"), true))
	mustWrite(t, fsys, path.Join(dir, "a", "b", "leaf"), "x")

	require.NoError(t, fsys.Rmdir(dir))
	assert.False(t, fsys.Exists(dir))
	assert.ErrorIs(t, fsys.Rmdir(dir), protocols.ErrNotFound)
}

func (suite *Suite) testRmdirFile(t *testing.T) {
	fsys, root := suite.setup(t)
	file := path.Join(root, "plain.txt")
	mustWrite(t, fsys, file, "keep")

	assert.ErrorIs(t, fsys.Rmdir(file), protocols.ErrInvalidArgument)
	assert.Equal(t, "keep", mustRead(t, fsys, file))
}

func (suite *Suite) testMvFile(t *testing.T) {
	fsys, root := suite.setup(t)
	src := path.Join(root, "b.txt")
	sub := path.Join(root, "sub")
	dst := path.Join(sub, "b.txt")
	mustWrite(t, fsys, src, "hello")
	require.NoError(t, fsys.Mkdir(sub, true))

	require.NoError(t, fsys.Mv(src, dst+"/"))
	assert.False(t, fsys.Exists(src))
	assert.Equal(t, "hello", mustRead(t, fsys, dst))
}

func (suite *Suite) testMvNotFound(t *testing.T) {
	fsys, root := suite.setup(t)

	err := fsys.Mv(path.Join(root, "missing"), path.Join(root, "other"))
	assert.ErrorIs(t, err, protocols.ErrNotFound)
}

func (suite *Suite) testMvOntoDirectory(t *testing.T) {
	fsys, root := suite.setup(t)
	src := path.Join(root, "a.txt")
	dir := path.Join(root, "sub")
	mustWrite(t, fsys, src, "a")
	require.NoError(t, fsys.Mkdir(dir, true))
	mustWrite(t, fsys, path.Join(dir, "keep.txt"), "keep")

	assert.ErrorIs(t, fsys.Mv(src, dir), protocols.ErrInvalidArgument)
	assert.True(t, protocols.IsDir(fsys, dir))
	assert.Equal(t, "keep", mustRead(t, fsys, path.Join(dir, "keep.txt")))
	assert.Equal(t, "a", mustRead(t, fsys, src))

	assert.ErrorIs(t, fsys.Mv(src, root), protocols.ErrInvalidArgument)
	assert.True(t, protocols.IsDir(fsys, root))
}

func (suite *Suite) testModified(t *testing.T) {
	fsys, root := suite.setup(t)
	file := path.Join(root, "m.txt")
	mustWrite(t, fsys, file, "m")

	mtime, err := fsys.Modified(file)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), mtime, time.Hour)

	_, err = fsys.Modified(path.Join(root, "missing"))
	assert.ErrorIs(t, err, protocols.ErrNotFound)
}
