package protocols

import (
	"io"
)

// NewReader turns a client read handle into a RawStream. The stream is
// seekable only when asked for and r implements io.Seeker.
func NewReader(r io.ReadCloser, size int64, seekable bool) RawStream {
	rs := &readStream{r: r, size: size}
	if s, ok := r.(io.Seeker); ok && seekable {
		rs.seeker = s
	}
	return rs
}

type readStream struct {
	r      io.ReadCloser
	seeker io.Seeker
	size   int64
	pos    int64
}

func (s *readStream) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.pos += int64(n)
	return n, err
}

func (s *readStream) Write([]byte) (int, error) {
	return 0, Unsupported("write", "", "stream opened for reading")
}

func (s *readStream) Seek(offset int64, whence int) (int64, error) {
	if s.seeker == nil {
		if offset == 0 && whence == io.SeekCurrent {
			return s.pos, nil
		}
		return s.pos, Unsupported("seek", "", "stream is not seekable")
	}
	pos, err := s.seeker.Seek(offset, whence)
	if err != nil {
		return s.pos, err
	}
	s.pos = pos
	return pos, nil
}

func (s *readStream) Tell() (int64, error) { return s.pos, nil }
func (s *readStream) Size() (int64, error) { return s.size, nil }
func (s *readStream) Close() error { return s.r.Close() }
func (s *readStream) Readable() bool { return true }
func (s *readStream) Writable() bool { return false }
func (s *readStream) Seekable() bool { return s.seeker != nil }

// NewWriter turns a client write handle into a RawStream. offset is the
// length of the file before the first write: zero for new files, the current
// size when appending.
func NewWriter(w io.WriteCloser, offset int64) RawStream {
	return &writeStream{w: w, pos: offset}
}

type writeStream struct {
	w   io.WriteCloser
	pos int64
}

func (s *writeStream) Read([]byte) (int, error) {
	return 0, Unsupported("read", "", "stream opened for writing")
}

func (s *writeStream) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.pos += int64(n)
	return n, err
}

// Seek only answers position queries; write streams are append-only.
func (s *writeStream) Seek(offset int64, whence int) (int64, error) {
	switch {
	case whence == io.SeekCurrent && offset == 0,
		whence == io.SeekStart && offset == s.pos,
		whence == io.SeekEnd && offset == 0:
		return s.pos, nil
	}
	return s.pos, Unsupported("seek", "", "write streams only support seeking to the current position")
}

func (s *writeStream) Tell() (int64, error) { return s.pos, nil }
func (s *writeStream) Size() (int64, error) { return s.pos, nil }
func (s *writeStream) Close() error { return s.w.Close() }
func (s *writeStream) Readable() bool { return false }
func (s *writeStream) Writable() bool { return true }
func (s *writeStream) Seekable() bool { return false }
