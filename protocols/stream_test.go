package protocols

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopWriteCloser struct {
	bytes.Buffer
	closed int
	err    error
}

func (w *nopWriteCloser) Close() error {
	w.closed++
	return w.err
}

func TestReaderSeekable(t *testing.T) {
	src := io.NopCloser(bytes.NewReader([]byte("abcdef")))
	// NopCloser hides Seek, so the stream is sequential even when asked.
	rs := NewReader(src, 6, true)
	assert.False(t, rs.Seekable())

	rs = NewReader(readSeekCloser{bytes.NewReader([]byte("abcdef"))}, 6, true)
	require.True(t, rs.Seekable())
	pos, err := rs.Seek(-2, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)
	rest, err := io.ReadAll(rs)
	require.NoError(t, err)
	assert.Equal(t, "ef", string(rest))
	tell, _ := rs.Tell()
	assert.Equal(t, int64(6), tell)
}

func TestReaderSequential(t *testing.T) {
	rs := NewReader(readSeekCloser{bytes.NewReader([]byte("abc"))}, 3, false)
	assert.False(t, rs.Seekable())

	buf := make([]byte, 2)
	_, err := io.ReadFull(rs, buf)
	require.NoError(t, err)
	pos, err := rs.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pos)

	_, err = rs.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestWriterPosition(t *testing.T) {
	w := &nopWriteCloser{}
	ws := NewWriter(w, 10)

	_, err := ws.Write([]byte("xyz"))
	require.NoError(t, err)
	pos, _ := ws.Tell()
	assert.Equal(t, int64(13), pos)

	_, err = ws.Seek(0, io.SeekEnd)
	assert.NoError(t, err)
	_, err = ws.Seek(1, io.SeekStart)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFileCloseIdempotent(t *testing.T) {
	w := &nopWriteCloser{}
	f := NewFile(NewWriter(w, 0), "/x", ModeWrite, 0)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	assert.Equal(t, 1, w.closed)

	_, err := f.Write([]byte("late"))
	assert.ErrorIs(t, err, fs.ErrClosed)
	_, err = f.Tell()
	assert.ErrorIs(t, err, fs.ErrClosed)
	assert.False(t, f.Writable())
}

type stubFS struct {
	FileSystem
	file *File
}

func (s *stubFS) Open(string, string, ...OpenOption) (*File, error) {
	return s.file, nil
}

func TestWithFileClosesOnEveryPath(t *testing.T) {
	t.Run("success reports close error", func(t *testing.T) {
		w := &nopWriteCloser{err: errors.New("flush failed")}
		fsys := &stubFS{file: NewFile(NewWriter(w, 0), "/x", ModeWrite, 0)}

		err := WithFile(fsys, "/x", "wb", func(f *File) error { return nil })
		assert.EqualError(t, err, "flush failed")
		assert.Equal(t, 1, w.closed)
	})

	t.Run("callback error wins", func(t *testing.T) {
		w := &nopWriteCloser{err: errors.New("flush failed")}
		fsys := &stubFS{file: NewFile(NewWriter(w, 0), "/x", ModeWrite, 0)}

		boom := errors.New("boom")
		err := WithFile(fsys, "/x", "wb", func(f *File) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, w.closed)
	})

	t.Run("panic", func(t *testing.T) {
		w := &nopWriteCloser{}
		fsys := &stubFS{file: NewFile(NewWriter(w, 0), "/x", ModeWrite, 0)}

		assert.Panics(t, func() {
			_ = WithFile(fsys, "/x", "wb", func(f *File) error { panic("bad") })
		})
		assert.Equal(t, 1, w.closed)
	})
}

func TestParseMode(t *testing.T) {
	for mode, want := range map[string]Mode{
		"r": ModeRead, "rb": ModeRead, "rt": ModeRead,
		"w": ModeWrite, "wb": ModeWrite, "wt": ModeWrite,
		"a": ModeAppend, "ab": ModeAppend, "at": ModeAppend,
	} {
		got, err := ParseMode(mode)
		require.NoError(t, err, mode)
		assert.Equal(t, want, got, mode)
	}

	_, err := ParseMode("r+b")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

type readSeekCloser struct {
	*bytes.Reader
}

func (readSeekCloser) Close() error { return nil }
