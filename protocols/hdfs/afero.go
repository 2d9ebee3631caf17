package hdfs

import (
	"os"
	"path"
	"syscall"

	"github.com/spf13/afero"

	"hdfsbridge/protocols"
)

// aferoClient gives an afero filesystem HDFS namespace semantics: writes need
// an existing parent, non-recursive deletes refuse non-empty directories and
// renames need the destination's parent.
type aferoClient struct {
	fs   afero.Fs
	home string
}

// NewAferoClient serves HDFS calls from fs. Relative paths resolve against
// home.
func NewAferoClient(fs afero.Fs, home string) Client {
	return &aferoClient{fs: fs, home: home}
}

// NewMemoryClient returns a simulated HDFS held in memory.
func NewMemoryClient() Client {
	return NewAferoClient(afero.NewMemMapFs(), "/")
}

// NewLocalClient serves HDFS calls from the local disk, the equivalent of
// connecting with an empty host.
func NewLocalClient() (Client, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return NewAferoClient(afero.NewOsFs(), wd), nil
}

func (c *aferoClient) ListDirectory(p string) ([]PathInfo, error) {
	fis, err := afero.ReadDir(c.fs, p)
	if err != nil {
		return nil, err
	}
	infos := make([]PathInfo, 0, len(fis))
	for _, fi := range fis {
		infos = append(infos, infoFromFileInfo(path.Join(p, fi.Name()), fi))
	}
	return infos, nil
}

func (c *aferoClient) GetPathInfo(p string) (PathInfo, error) {
	fi, err := c.fs.Stat(p)
	if err != nil {
		return PathInfo{}, err
	}
	return infoFromFileInfo(p, fi), nil
}

func (c *aferoClient) Exists(p string) bool {
	ok, err := afero.Exists(c.fs, p)
	return ok && err == nil
}

func (c *aferoClient) requireDir(op, p string) error {
	ok, err := afero.IsDir(c.fs, p)
	if err != nil {
		return err
	}
	if !ok {
		return &os.PathError{Op: op, Path: p, Err: syscall.ENOTDIR}
	}
	return nil
}

func (c *aferoClient) OpenFile(p string, mode protocols.Mode, opts FileOptions) (protocols.RawStream, error) {
	switch mode {
	case protocols.ModeRead:
		f, err := c.fs.Open(p)
		if err != nil {
			return nil, err
		}
		fi, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, err
		}
		if fi.IsDir() {
			f.Close()
			return nil, protocols.InvalidArgument("open", p, "is a directory")
		}
		return protocols.NewReader(f, fi.Size(), opts.Seekable), nil

	case protocols.ModeWrite:
		if err := c.requireDir("create", path.Dir(p)); err != nil {
			return nil, err
		}
		if ok, _ := afero.IsDir(c.fs, p); ok {
			return nil, protocols.InvalidArgument("open", p, "is a directory")
		}
		f, err := c.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, defaultFilePermissions)
		if err != nil {
			return nil, err
		}
		return protocols.NewWriter(f, 0), nil

	case protocols.ModeAppend:
		fi, err := c.fs.Stat(p)
		if err != nil {
			return nil, err
		}
		f, err := c.fs.OpenFile(p, os.O_WRONLY|os.O_APPEND, defaultFilePermissions)
		if err != nil {
			return nil, err
		}
		return protocols.NewWriter(f, fi.Size()), nil
	}
	return nil, protocols.InvalidArgument("open", p, "unsupported mode "+mode.String())
}

func (c *aferoClient) CreateDirectory(p string) error {
	return c.fs.MkdirAll(p, 0755)
}

func (c *aferoClient) Delete(p string, recursive bool) error {
	fi, err := c.fs.Stat(p)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return c.fs.Remove(p)
	}
	if recursive {
		return c.fs.RemoveAll(p)
	}
	children, err := afero.ReadDir(c.fs, p)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return &os.PathError{Op: "delete", Path: p, Err: syscall.ENOTEMPTY}
	}
	return c.fs.Remove(p)
}

func (c *aferoClient) Rename(from, to string) error {
	if _, err := c.fs.Stat(from); err != nil {
		return err
	}
	// afero's in-memory rename would replace a directory and orphan its
	// children.
	if ok, _ := afero.IsDir(c.fs, to); ok {
		return &os.PathError{Op: "rename", Path: to, Err: syscall.EISDIR}
	}
	if err := c.requireDir("rename", path.Dir(to)); err != nil {
		return err
	}
	return c.fs.Rename(from, to)
}

func (c *aferoClient) WorkingDirectory() string {
	return c.home
}

func (c *aferoClient) Close() error {
	return nil
}
