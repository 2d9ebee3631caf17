package fstest

import (
	"bytes"
	"io"
	"io/fs"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hdfsbridge/protocols"
)

// RunStreamTests covers Open and the returned stream.
func (suite *Suite) RunStreamTests(t *testing.T) {
	t.Run("WriteRead_RoundTrip", suite.testWriteReadRoundTrip)
	t.Run("Write_Truncates", suite.testWriteTruncates)
	t.Run("Append", suite.testAppend)
	t.Run("Append_CreatesFile", suite.testAppendCreatesFile)
	t.Run("Open_NotFound", suite.testOpenNotFound)
	t.Run("Open_UnsupportedMode", suite.testOpenUnsupportedMode)
	t.Run("Open_TextMode", suite.testOpenTextMode)
	t.Run("Stream_Capabilities", suite.testStreamCapabilities)
	t.Run("Stream_Seek", suite.testStreamSeek)
	t.Run("Stream_Close", suite.testStreamClose)
	t.Run("CatFile_Range", suite.testCatFileRange)
}

func (suite *Suite) testWriteReadRoundTrip(t *testing.T) {
	fsys, root := suite.setup(t)
	p := path.Join(root, "round.bin")
	payload := bytes.Repeat([]byte("0123456789abcdef"), 4096)

	err := protocols.WithFile(fsys, p, "wb", func(f *protocols.File) error {
		_, err := f.Write(payload)
		return err
	})
	require.NoError(t, err)

	var got []byte
	err = protocols.WithFile(fsys, p, "rb", func(f *protocols.File) error {
		var err error
		got, err = io.ReadAll(f)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	size, err := protocols.Size(fsys, p)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), size)
}

func (suite *Suite) testWriteTruncates(t *testing.T) {
	fsys, root := suite.setup(t)
	p := path.Join(root, "over.txt")
	mustWrite(t, fsys, p, "a much longer first version")
	mustWrite(t, fsys, p, "short")

	assert.Equal(t, "short", mustRead(t, fsys, p))
}

func (suite *Suite) testAppend(t *testing.T) {
	fsys, root := suite.setup(t)
	p := path.Join(root, "log.txt")
	mustWrite(t, fsys, p, "one,")

	err := protocols.WithFile(fsys, p, "ab", func(f *protocols.File) error {
		pos, err := f.Tell()
		if err != nil {
			return err
		}
		assert.Equal(t, int64(4), pos)
		_, err = f.Write([]byte("two"))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "one,two", mustRead(t, fsys, p))
}

func (suite *Suite) testAppendCreatesFile(t *testing.T) {
	fsys, root := suite.setup(t)
	p := path.Join(root, "new.txt")

	err := protocols.WithFile(fsys, p, "a", func(f *protocols.File) error {
		_, err := f.Write([]byte("first"))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "first", mustRead(t, fsys, p))
}

func (suite *Suite) testOpenNotFound(t *testing.T) {
	fsys, root := suite.setup(t)

	_, err := fsys.Open(path.Join(root, "missing"), "rb")
	assert.ErrorIs(t, err, protocols.ErrNotFound)
}

func (suite *Suite) testOpenUnsupportedMode(t *testing.T) {
	fsys, root := suite.setup(t)
	p := path.Join(root, "f")
	mustWrite(t, fsys, p, "x")

	for _, mode := range []string{"", "r+", "rw", "xb", "w+b", "tb"} {
		_, err := fsys.Open(p, mode)
		assert.ErrorIs(t, err, protocols.ErrInvalidArgument, mode)
	}
}

func (suite *Suite) testOpenTextMode(t *testing.T) {
	fsys, root := suite.setup(t)
	p := path.Join(root, "text.txt")

	f, err := fsys.Open(p, "wt")
	require.NoError(t, err)
	_, err = io.WriteString(f, "line\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = fsys.Open(p, "rt")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, protocols.ModeRead, f.Mode())
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(data))
}

func (suite *Suite) testStreamCapabilities(t *testing.T) {
	fsys, root := suite.setup(t)
	p := path.Join(root, "caps.txt")

	w, err := fsys.Open(p, "wb", protocols.WithBlockSize(1<<20))
	require.NoError(t, err)
	assert.True(t, w.Writable())
	assert.False(t, w.Readable())
	assert.Equal(t, int64(1<<20), w.BlockSize())
	_, err = w.Read(make([]byte, 1))
	assert.ErrorIs(t, err, protocols.ErrUnsupported)
	_, err = w.Write([]byte("12345"))
	require.NoError(t, err)
	size, err := w.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
	require.NoError(t, w.Close())

	r, err := fsys.Open(p, "rb")
	require.NoError(t, err)
	defer r.Close()
	assert.True(t, r.Readable())
	assert.False(t, r.Writable())
	assert.Equal(t, path.Base(p), path.Base(r.Path()))
	size, err = r.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
	_, err = r.Write([]byte("x"))
	assert.ErrorIs(t, err, protocols.ErrUnsupported)
}

func (suite *Suite) testStreamSeek(t *testing.T) {
	fsys, root := suite.setup(t)
	p := path.Join(root, "seek.txt")
	mustWrite(t, fsys, p, "0123456789")

	f, err := fsys.Open(p, "rb", protocols.WithSeekable(true))
	require.NoError(t, err)
	if !f.Seekable() {
		f.Close()
		t.Skip("backend does not offer seekable reads")
	}

	pos, err := f.Seek(4, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)

	buf := make([]byte, 3)
	_, err = io.ReadFull(f, buf)
	require.NoError(t, err)
	assert.Equal(t, "456", string(buf))

	pos, err = f.Tell()
	require.NoError(t, err)
	assert.Equal(t, int64(7), pos)
	// Some backends carry one transfer at a time.
	require.NoError(t, f.Close())

	seq, err := fsys.Open(p, "rb", protocols.WithSeekable(false))
	require.NoError(t, err)
	defer seq.Close()
	assert.False(t, seq.Seekable())
	_, err = seq.Seek(2, io.SeekStart)
	assert.ErrorIs(t, err, protocols.ErrUnsupported)
}

func (suite *Suite) testStreamClose(t *testing.T) {
	fsys, root := suite.setup(t)
	p := path.Join(root, "close.txt")
	mustWrite(t, fsys, p, "abc")

	f, err := fsys.Open(p, "rb")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	assert.True(t, f.Closed())
	assert.False(t, f.Readable())

	_, err = f.Read(make([]byte, 1))
	assert.ErrorIs(t, err, fs.ErrClosed)
}

func (suite *Suite) testCatFileRange(t *testing.T) {
	fsys, root := suite.setup(t)
	p := path.Join(root, "range.txt")
	mustWrite(t, fsys, p, "0123456789")

	cases := []struct {
		start, end int64
		want       string
	}{
		{0, 0, "0123456789"},
		{2, 5, "234"},
		{7, 0, "789"},
		{-3, 0, "789"},
		{0, -8, "01"},
		{6, 4, ""},
	}
	for _, tc := range cases {
		data, err := protocols.CatFile(fsys, p, tc.start, tc.end)
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(data), "start=%d end=%d", tc.start, tc.end)
	}
}
