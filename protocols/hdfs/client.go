package hdfs

import (
	"os"
	"time"

	"hdfsbridge/protocols"
)

// PathInfo is the record a Client reports for a single path.
type PathInfo struct {
	Name        string
	Size        int64
	Kind        protocols.EntryType
	LastMod     time.Time
	Owner       string
	Group       string
	Permission  os.FileMode
	Replication int
	BlockSize   int64
}

// FileOptions tune a single OpenFile call.
type FileOptions struct {
	BlockSize   int64
	Replication int
	// Seekable asks for a read stream that supports Seek. Sequential readers
	// leave it false so the client may hand back a cheaper stream.
	Seekable bool
}

// Client is the set of primitive HDFS calls the adapter is built on. Errors
// are returned raw; the adapter classifies them.
type Client interface {
	ListDirectory(path string) ([]PathInfo, error)
	GetPathInfo(path string) (PathInfo, error)
	Exists(path string) bool
	// OpenFile opens path for reading, writing (truncating any existing file)
	// or appending to an existing file.
	OpenFile(path string, mode protocols.Mode, opts FileOptions) (protocols.RawStream, error)
	// CreateDirectory creates path and any missing parents.
	CreateDirectory(path string) error
	Delete(path string, recursive bool) error
	Rename(from, to string) error
	// WorkingDirectory is the directory relative paths resolve against.
	WorkingDirectory() string
	Close() error
}

func infoFromFileInfo(name string, fi os.FileInfo) PathInfo {
	info := PathInfo{
		Name:       name,
		Size:       fi.Size(),
		Kind:       protocols.TypeFile,
		LastMod:    fi.ModTime(),
		Permission: fi.Mode().Perm(),
	}
	if fi.IsDir() {
		info.Kind = protocols.TypeDirectory
		info.Size = 0
	}
	return info
}
