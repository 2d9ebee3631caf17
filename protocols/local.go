package protocols

import (
	"os"
	"path"
	"path/filepath"
	"time"
)

// LocalFileSystem serves the local disk. With an empty RootPath paths are
// taken as they are (relative ones against the working directory); otherwise
// they are confined below RootPath.
type LocalFileSystem struct {
	RootPath string
}

func (l *LocalFileSystem) Init() error {
	if l.RootPath == "" {
		return nil
	}
	return os.MkdirAll(l.RootPath, 0755)
}

func (l *LocalFileSystem) Close() error {
	return nil
}

func (l *LocalFileSystem) Protocol() string {
	return "file"
}

func (l *LocalFileSystem) FSID() string {
	return "local"
}

// resolve returns the path as reported in entries and the OS path behind it.
func (l *LocalFileSystem) resolve(p string) (string, string) {
	p = StripProtocol(p)
	if l.RootPath == "" {
		abs, err := filepath.Abs(p)
		if err != nil {
			return p, p
		}
		return filepath.ToSlash(abs), abs
	}
	name := path.Clean("/" + filepath.ToSlash(p))
	return name, filepath.Join(l.RootPath, filepath.FromSlash(name))
}

func localEntry(name string, info os.FileInfo) FileEntry {
	entry := FileEntry{
		Name:    name,
		Size:    info.Size(),
		Type:    TypeFile,
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
	}
	if info.IsDir() {
		entry.Type = TypeDirectory
		entry.Size = 0
	}
	return entry
}

func (l *LocalFileSystem) Ls(p string) ([]FileEntry, error) {
	name, fullPath := l.resolve(p)
	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, Classify("ls", name, err)
	}
	if !info.IsDir() {
		return []FileEntry{localEntry(name, info)}, nil
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, Classify("ls", name, err)
	}

	files := make([]FileEntry, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, localEntry(path.Join(name, entry.Name()), info))
	}
	return files, nil
}

func (l *LocalFileSystem) Info(p string) (*FileEntry, error) {
	name, fullPath := l.resolve(p)
	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, Classify("info", name, err)
	}
	entry := localEntry(name, info)
	return &entry, nil
}

func (l *LocalFileSystem) Exists(p string) bool {
	_, fullPath := l.resolve(p)
	_, err := os.Stat(fullPath)
	return err == nil
}

func (l *LocalFileSystem) Open(p, mode string, opts ...OpenOption) (*File, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	cfg := NewOpenConfig(opts...)
	name, fullPath := l.resolve(p)

	var raw RawStream
	switch m {
	case ModeRead:
		f, err := os.Open(fullPath)
		if err != nil {
			return nil, Classify("open", name, err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, Classify("open", name, err)
		}
		if info.IsDir() {
			f.Close()
			return nil, InvalidArgument("open", name, "is a directory")
		}
		raw = NewReader(f, info.Size(), cfg.Seekable)
	case ModeWrite:
		f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return nil, Classify("open", name, err)
		}
		raw = NewWriter(f, 0)
	case ModeAppend:
		f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return nil, Classify("open", name, err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, Classify("open", name, err)
		}
		raw = NewWriter(f, info.Size())
	}
	return NewFile(raw, name, m, cfg.BlockSize), nil
}

func (l *LocalFileSystem) Mkdir(p string, createParents bool) error {
	name, fullPath := l.resolve(p)
	if createParents {
		return Classify("mkdir", name, os.MkdirAll(fullPath, 0755))
	}
	return Classify("mkdir", name, os.Mkdir(fullPath, 0755))
}

func (l *LocalFileSystem) Makedirs(p string, existOK bool) error {
	name, fullPath := l.resolve(p)
	if !existOK && l.Exists(p) {
		return AlreadyExists("makedirs", name, nil)
	}
	return Classify("makedirs", name, os.MkdirAll(fullPath, 0755))
}

func (l *LocalFileSystem) Rm(p string, recursive bool) error {
	name, fullPath := l.resolve(TrimSlash(StripProtocol(p)))
	info, err := os.Stat(fullPath)
	if err != nil {
		return Classify("rm", name, err)
	}
	if info.IsDir() {
		if !recursive {
			return InvalidArgument("rm", name, "cannot delete directory without recursive")
		}
		return Classify("rm", name, os.RemoveAll(fullPath))
	}
	return Classify("rm", name, os.Remove(fullPath))
}

func (l *LocalFileSystem) RmFile(p string) error {
	name, fullPath := l.resolve(p)
	info, err := os.Stat(fullPath)
	if err != nil {
		return Classify("rm_file", name, err)
	}
	if info.IsDir() {
		return InvalidArgument("rm_file", name, "is a directory")
	}
	return Classify("rm_file", name, os.Remove(fullPath))
}

func (l *LocalFileSystem) Rmdir(p string) error {
	name, fullPath := l.resolve(p)
	info, err := os.Stat(fullPath)
	if err != nil {
		return Classify("rmdir", name, err)
	}
	if !info.IsDir() {
		return InvalidArgument("rmdir", name, "not a directory")
	}
	return Classify("rmdir", name, os.RemoveAll(fullPath))
}

func (l *LocalFileSystem) Mv(path1, path2 string) error {
	src, srcPath := l.resolve(TrimSlash(StripProtocol(path1)))
	dst, dstPath := l.resolve(TrimSlash(StripProtocol(path2)))
	if info, err := os.Stat(dstPath); err == nil && info.IsDir() {
		return errDestinationIsDir("mv", dst)
	}
	return Classify("mv", src, os.Rename(srcPath, dstPath))
}

func (l *LocalFileSystem) CpFile(path1, path2 string) error {
	return Transfer(l, TrimSlash(StripProtocol(path1)), l, TrimSlash(StripProtocol(path2)))
}

func (l *LocalFileSystem) Modified(p string) (time.Time, error) {
	info, err := l.Info(p)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime, nil
}

func init() {
	Register("file", func(opts StorageOptions) (FileSystem, error) {
		fs := &LocalFileSystem{RootPath: opts.Query.Get("root")}
		return fs, fs.Init()
	})
}
