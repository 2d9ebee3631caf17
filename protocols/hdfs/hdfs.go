package hdfs

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hdfsbridge/protocols"
)

// Protocol is the URL scheme the adapter registers under.
const Protocol = "hdfs"

// FileSystem is the HDFS implementation of protocols.FileSystem. It owns one
// Client for its whole life and is not safe for concurrent use.
type FileSystem struct {
	client Client
	cfg    Config
	home   string
}

var _ protocols.FileSystem = (*FileSystem)(nil)

// New dials the cluster cfg describes.
func New(cfg Config) (*FileSystem, error) {
	client, err := Dial(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithClient(client, cfg), nil
}

// NewWithClient builds the adapter over an existing client, typically one
// from NewMemoryClient in tests.
func NewWithClient(client Client, cfg Config) *FileSystem {
	home := client.WorkingDirectory()
	if home == "" {
		home = "/"
	}
	return &FileSystem{client: client, cfg: cfg, home: home}
}

func (f *FileSystem) Client() Client { return f.client }
func (f *FileSystem) Config() Config { return f.cfg }

func (f *FileSystem) Protocol() string {
	return Protocol
}

// FSID identifies the session by namenode address. It is stable across
// processes so callers can key caches on it. Port 0 and DefaultPort name
// the same namenode.
func (f *FileSystem) FSID() string {
	key := f.cfg.Host
	if key != LocalHost && key != DefaultHost {
		key = f.cfg.Address()
	}
	return "hdfs_" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

func (f *FileSystem) Close() error {
	return f.client.Close()
}

// path strips any URL prefix, resolves relative paths against the home
// directory and drops trailing slashes.
func (f *FileSystem) path(p string) string {
	p = protocols.StripProtocol(p)
	if !strings.HasPrefix(p, "/") {
		p = path.Join(f.home, p)
	}
	return path.Clean(p)
}

func makeEntry(info PathInfo) protocols.FileEntry {
	return protocols.FileEntry{
		Name:        info.Name,
		Size:        info.Size,
		Type:        info.Kind,
		ModTime:     info.LastMod,
		Owner:       info.Owner,
		Group:       info.Group,
		Mode:        info.Permission,
		Replication: info.Replication,
		BlockSize:   info.BlockSize,
	}
}

func (f *FileSystem) Ls(p string) ([]protocols.FileEntry, error) {
	p = f.path(p)
	info, err := f.client.GetPathInfo(p)
	if err != nil {
		return nil, protocols.Classify("ls", p, err)
	}
	if info.Kind != protocols.TypeDirectory {
		return []protocols.FileEntry{makeEntry(info)}, nil
	}

	infos, err := f.client.ListDirectory(p)
	if err != nil {
		return nil, protocols.Classify("ls", p, err)
	}
	entries := make([]protocols.FileEntry, len(infos))
	for i, info := range infos {
		entries[i] = makeEntry(info)
	}
	return entries, nil
}

func (f *FileSystem) Info(p string) (*protocols.FileEntry, error) {
	p = f.path(p)
	info, err := f.client.GetPathInfo(p)
	if err != nil {
		return nil, protocols.Classify("info", p, err)
	}
	entry := makeEntry(info)
	return &entry, nil
}

func (f *FileSystem) Exists(p string) bool {
	return f.client.Exists(f.path(p))
}

func (f *FileSystem) isDir(p string) bool {
	info, err := f.client.GetPathInfo(p)
	return err == nil && info.Kind == protocols.TypeDirectory
}

// Open opens p in mode r, w or a (optionally suffixed with b or t; text
// modes are byte streams too). Appending to a missing file creates it.
func (f *FileSystem) Open(p, mode string, opts ...protocols.OpenOption) (*protocols.File, error) {
	m, err := protocols.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	p = f.path(p)
	cfg := protocols.NewOpenConfig(opts...)

	fileOpts := FileOptions{
		BlockSize:   cfg.BlockSize,
		Replication: cfg.Replication,
		Seekable:    cfg.Seekable,
	}
	if fileOpts.BlockSize == 0 {
		fileOpts.BlockSize = f.cfg.BlockSize
	}
	if fileOpts.Replication == 0 {
		fileOpts.Replication = f.cfg.Replication
	}

	clientMode := m
	if m == protocols.ModeAppend && !f.client.Exists(p) {
		clientMode = protocols.ModeWrite
	}

	raw, err := f.client.OpenFile(p, clientMode, fileOpts)
	if err != nil {
		return nil, protocols.Classify("open", p, err)
	}
	protocols.Logger().Debug("opened hdfs file",
		zap.String("path", p),
		zap.Stringer("mode", m),
		zap.Bool("seekable", raw.Seekable()))
	return protocols.NewFile(raw, p, m, fileOpts.BlockSize), nil
}

// Mkdir creates p. Without createParents the parent must exist and p must
// not.
func (f *FileSystem) Mkdir(p string, createParents bool) error {
	if createParents {
		return f.Makedirs(p, true)
	}
	p = f.path(p)
	if f.client.Exists(p) {
		return protocols.AlreadyExists("mkdir", p, nil)
	}
	if parent := path.Dir(p); !f.isDir(parent) {
		return protocols.NotFound("mkdir", parent, nil)
	}
	return protocols.Classify("mkdir", p, f.client.CreateDirectory(p))
}

func (f *FileSystem) Makedirs(p string, existOK bool) error {
	p = f.path(p)
	if info, err := f.client.GetPathInfo(p); err == nil {
		if !existOK || info.Kind != protocols.TypeDirectory {
			return protocols.AlreadyExists("makedirs", p, nil)
		}
		return nil
	}
	return protocols.Classify("makedirs", p, f.client.CreateDirectory(p))
}

func (f *FileSystem) Rm(p string, recursive bool) error {
	p = f.path(p)
	info, err := f.client.GetPathInfo(p)
	if err != nil {
		return protocols.Classify("rm", p, err)
	}
	if info.Kind == protocols.TypeDirectory {
		if !recursive {
			return protocols.InvalidArgument("rm", p, "cannot delete directory without recursive")
		}
		return protocols.Classify("rm", p, f.client.Delete(p, true))
	}
	return protocols.Classify("rm", p, f.client.Delete(p, false))
}

func (f *FileSystem) RmFile(p string) error {
	p = f.path(p)
	info, err := f.client.GetPathInfo(p)
	if err != nil {
		return protocols.Classify("rm_file", p, err)
	}
	if info.Kind == protocols.TypeDirectory {
		return protocols.InvalidArgument("rm_file", p, "is a directory")
	}
	return protocols.Classify("rm_file", p, f.client.Delete(p, false))
}

// Rmdir deletes the directory p and everything below it.
func (f *FileSystem) Rmdir(p string) error {
	p = f.path(p)
	info, err := f.client.GetPathInfo(p)
	if err != nil {
		return protocols.Classify("rmdir", p, err)
	}
	if info.Kind != protocols.TypeDirectory {
		return protocols.InvalidArgument("rmdir", p, "not a directory")
	}
	return protocols.Classify("rmdir", p, f.client.Delete(p, true))
}

// Mv renames path1 to path2, replacing an existing file at path2.
func (f *FileSystem) Mv(path1, path2 string) error {
	src, dst := f.path(path1), f.path(path2)
	if f.isDir(dst) {
		return protocols.InvalidArgument("mv", dst, "destination is a directory")
	}
	return protocols.Classify("mv", src, f.client.Rename(src, dst))
}

func (f *FileSystem) Modified(p string) (time.Time, error) {
	info, err := f.Info(p)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime, nil
}
