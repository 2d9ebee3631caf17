package protocols

import (
	"io/fs"
)

// RawStream is the byte stream a backend client hands back from an open call.
// File forwards each method as is.
type RawStream interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
	Tell() (int64, error)
	Close() error
	Readable() bool
	Writable() bool
	Seekable() bool
	Size() (int64, error)
}

// File is an open stream bound to one path and one mode. It is owned by the
// caller that opened it and must be closed; it is not safe for concurrent use.
type File struct {
	raw       RawStream
	path      string
	mode      Mode
	blockSize int64
	closed    bool
}

func NewFile(raw RawStream, path string, mode Mode, blockSize int64) *File {
	return &File{
		raw:       raw,
		path:      path,
		mode:      mode,
		blockSize: blockSize,
	}
}

func (f *File) Path() string { return f.path }
func (f *File) Mode() Mode { return f.mode }
func (f *File) BlockSize() int64 { return f.blockSize }
func (f *File) Closed() bool { return f.closed }

func (f *File) Read(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	return f.raw.Read(p)
}

func (f *File) Write(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	return f.raw.Write(p)
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	return f.raw.Seek(offset, whence)
}

func (f *File) Tell() (int64, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	return f.raw.Tell()
}

func (f *File) Size() (int64, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	return f.raw.Size()
}

func (f *File) Readable() bool { return !f.closed && f.raw.Readable() }
func (f *File) Writable() bool { return !f.closed && f.raw.Writable() }
func (f *File) Seekable() bool { return !f.closed && f.raw.Seekable() }

// Close releases the underlying stream. Only the first call reaches the
// backend; later calls return nil.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.raw.Close()
}

// WithFile opens path, hands the stream to fn and closes it on every exit
// path, panics included. A close failure is reported only when fn succeeded.
func WithFile(fsys FileSystem, path, mode string, fn func(*File) error, opts ...OpenOption) (err error) {
	f, err := fsys.Open(path, mode, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}
