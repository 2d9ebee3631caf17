// Package parquetfile reads and writes Parquet through any
// protocols.FileSystem.
package parquetfile

import (
	"github.com/xitongsys/parquet-go/source"

	"hdfsbridge/protocols"
)

// File adapts a protocols.File to source.ParquetFile. Handles from Open are
// seekable reads; the reader reopens the same path for every column chunk.
type File struct {
	*protocols.File
	fsys protocols.FileSystem
	path string
}

var _ source.ParquetFile = (*File)(nil)

// Open opens path for reading.
func Open(fsys protocols.FileSystem, path string) (*File, error) {
	f, err := fsys.Open(path, "rb", protocols.WithSeekable(true))
	if err != nil {
		return nil, err
	}
	if !f.Seekable() {
		f.Close()
		return nil, protocols.Unsupported("open", path, "parquet footers need a seekable stream")
	}
	return &File{File: f, fsys: fsys, path: path}, nil
}

// Open returns a new handle on name, or on this file's path when name is
// empty.
func (f *File) Open(name string) (source.ParquetFile, error) {
	if name == "" {
		name = f.path
	}
	pf, err := Open(f.fsys, name)
	if err != nil {
		return nil, err
	}
	return pf, nil
}

func (f *File) Create(name string) (source.ParquetFile, error) {
	if name == "" {
		name = f.path
	}
	w, err := f.fsys.Open(name, "wb")
	if err != nil {
		return nil, err
	}
	return &File{File: w, fsys: f.fsys, path: name}, nil
}
