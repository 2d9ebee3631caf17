package protocols

import (
	"fmt"
	"os"
	"time"
)

type EntryType string

const (
	TypeFile      EntryType = "file"
	TypeDirectory EntryType = "directory"
)

// FileEntry describes one path as reported by a backend. Name is always the
// absolute path inside the filesystem, never a bare base name.
type FileEntry struct {
	Name    string
	Size    int64
	Type    EntryType
	ModTime time.Time

	// Optional, zero when the backend does not report them.
	Owner       string
	Group       string
	Mode        os.FileMode
	Replication int
	BlockSize   int64
}

func (e FileEntry) IsDir() bool {
	return e.Type == TypeDirectory
}

// FileSystem is the operation contract every protocol adapter satisfies.
// Paths may carry a scheme://host:port prefix; adapters strip it before use.
type FileSystem interface {
	// Protocol returns the URL scheme the adapter is registered under.
	Protocol() string
	// FSID identifies the remote session; equal for adapters pointing at the
	// same endpoint.
	FSID() string

	// Ls lists the children of a directory, or the entry itself for a file.
	Ls(path string) ([]FileEntry, error)
	Info(path string) (*FileEntry, error)
	// Exists never fails; it reports false whenever Info would return NotFound.
	Exists(path string) bool
	Open(path, mode string, opts ...OpenOption) (*File, error)

	Mkdir(path string, createParents bool) error
	Makedirs(path string, existOK bool) error
	Rm(path string, recursive bool) error
	RmFile(path string) error
	Rmdir(path string) error
	Mv(path1, path2 string) error
	CpFile(path1, path2 string) error
	Modified(path string) (time.Time, error)

	Close() error
}

// Mode is the access mode of an open stream.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
	ModeAppend
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "rb"
	case ModeWrite:
		return "wb"
	case ModeAppend:
		return "ab"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts r, w and a with an optional b or t suffix. Text modes are
// served as byte streams.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "r", "rb", "rt":
		return ModeRead, nil
	case "w", "wb", "wt":
		return ModeWrite, nil
	case "a", "ab", "at":
		return ModeAppend, nil
	}
	return 0, InvalidArgument("open", "", fmt.Sprintf("unsupported mode %q", s))
}

// OpenConfig carries the tunables of a single open call.
type OpenConfig struct {
	BlockSize   int64
	Replication int
	Seekable    bool
}

type OpenOption func(*OpenConfig)

// WithBlockSize sets the block size of a newly written file. Zero keeps the
// backend default.
func WithBlockSize(n int64) OpenOption {
	return func(c *OpenConfig) {
		c.BlockSize = n
	}
}

func WithReplication(n int) OpenOption {
	return func(c *OpenConfig) {
		c.Replication = n
	}
}

// WithSeekable asks for a seekable read stream. Sequential readers pass false
// so backends can hand out a cheaper stream.
func WithSeekable(seekable bool) OpenOption {
	return func(c *OpenConfig) {
		c.Seekable = seekable
	}
}

func NewOpenConfig(opts ...OpenOption) OpenConfig {
	cfg := OpenConfig{Seekable: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
