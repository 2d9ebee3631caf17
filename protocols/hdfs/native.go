package hdfs

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path"

	gohdfs "github.com/colinmarc/hdfs/v2"
	"github.com/colinmarc/hdfs/v2/hadoopconf"
	"go.uber.org/zap"

	"hdfsbridge/protocols"
)

const (
	defaultFilePermissions os.FileMode = 0644
	defaultReadBuffer                  = 128 * 1024
)

// Dial connects to the namenode cfg names. Host "" returns a client over the
// local filesystem.
func Dial(cfg Config) (Client, error) {
	if cfg.Host == LocalHost {
		return NewLocalClient()
	}

	userName, err := cfg.ResolveUser()
	if err != nil {
		return nil, err
	}

	var opts gohdfs.ClientOptions
	if cfg.Host == DefaultHost {
		conf, err := hadoopconf.LoadFromEnvironment()
		if err != nil {
			return nil, err
		}
		opts = gohdfs.ClientOptionsFromConf(conf)
		if len(opts.Addresses) == 0 {
			return nil, errors.New("no namenode found in the hadoop configuration")
		}
	} else {
		opts.Addresses = []string{cfg.Address()}
	}
	opts.User = userName

	client, err := gohdfs.NewClient(opts)
	if err != nil {
		return nil, err
	}
	protocols.Logger().Info("connected to hdfs",
		zap.Strings("namenodes", opts.Addresses),
		zap.String("user", userName))
	return NewNativeClient(client), nil
}

type nativeClient struct {
	client   *gohdfs.Client
	defaults *gohdfs.ServerDefaults
}

// NewNativeClient wraps a connected colinmarc/hdfs client.
func NewNativeClient(client *gohdfs.Client) Client {
	return &nativeClient{client: client}
}

func nativeInfo(name string, fi os.FileInfo) PathInfo {
	info := infoFromFileInfo(name, fi)
	if hfi, ok := fi.(*gohdfs.FileInfo); ok {
		info.Owner = hfi.Owner()
		info.Group = hfi.OwnerGroup()
	}
	if status, ok := fi.Sys().(interface {
		GetBlockReplication() uint32
		GetBlocksize() uint64
	}); ok {
		info.Replication = int(status.GetBlockReplication())
		info.BlockSize = int64(status.GetBlocksize())
	}
	return info
}

func (c *nativeClient) ListDirectory(p string) ([]PathInfo, error) {
	fis, err := c.client.ReadDir(p)
	if err != nil {
		return nil, err
	}
	infos := make([]PathInfo, 0, len(fis))
	for _, fi := range fis {
		infos = append(infos, nativeInfo(path.Join(p, fi.Name()), fi))
	}
	return infos, nil
}

func (c *nativeClient) GetPathInfo(p string) (PathInfo, error) {
	fi, err := c.client.Stat(p)
	if err != nil {
		return PathInfo{}, err
	}
	return nativeInfo(p, fi), nil
}

func (c *nativeClient) Exists(p string) bool {
	_, err := c.client.Stat(p)
	return err == nil
}

func (c *nativeClient) serverDefaults() (gohdfs.ServerDefaults, error) {
	if c.defaults == nil {
		defaults, err := c.client.ServerDefaults()
		if err != nil {
			return gohdfs.ServerDefaults{}, err
		}
		c.defaults = &defaults
	}
	return *c.defaults, nil
}

func (c *nativeClient) OpenFile(p string, mode protocols.Mode, opts FileOptions) (protocols.RawStream, error) {
	switch mode {
	case protocols.ModeRead:
		fr, err := c.client.Open(p)
		if err != nil {
			return nil, err
		}
		size := fr.Stat().Size()
		if opts.Seekable {
			return protocols.NewReader(fr, size, true), nil
		}
		bufSize := int(opts.BlockSize)
		if bufSize <= 0 {
			bufSize = defaultReadBuffer
		}
		return protocols.NewReader(&bufferedReader{Reader: bufio.NewReaderSize(fr, bufSize), Closer: fr}, size, false), nil

	case protocols.ModeWrite:
		// CreateFile refuses to overwrite.
		if fi, err := c.client.Stat(p); err == nil {
			if fi.IsDir() {
				return nil, protocols.InvalidArgument("open", p, "is a directory")
			}
			if err := c.client.Remove(p); err != nil {
				return nil, err
			}
		}
		replication, blockSize := opts.Replication, opts.BlockSize
		if replication == 0 || blockSize == 0 {
			defaults, err := c.serverDefaults()
			if err != nil {
				return nil, err
			}
			if replication == 0 {
				replication = defaults.Replication
			}
			if blockSize == 0 {
				blockSize = defaults.BlockSize
			}
		}
		fw, err := c.client.CreateFile(p, replication, blockSize, defaultFilePermissions)
		if err != nil {
			return nil, err
		}
		return protocols.NewWriter(fw, 0), nil

	case protocols.ModeAppend:
		fi, err := c.client.Stat(p)
		if err != nil {
			return nil, err
		}
		fw, err := c.client.Append(p)
		if err != nil {
			return nil, err
		}
		return protocols.NewWriter(fw, fi.Size()), nil
	}
	return nil, protocols.InvalidArgument("open", p, "unsupported mode "+mode.String())
}

func (c *nativeClient) CreateDirectory(p string) error {
	return c.client.MkdirAll(p, 0755)
}

func (c *nativeClient) Delete(p string, recursive bool) error {
	if recursive {
		return c.client.RemoveAll(p)
	}
	return c.client.Remove(p)
}

func (c *nativeClient) Rename(from, to string) error {
	return c.client.Rename(from, to)
}

func (c *nativeClient) WorkingDirectory() string {
	return path.Join("/user", c.client.User())
}

func (c *nativeClient) Close() error {
	return c.client.Close()
}

type bufferedReader struct {
	*bufio.Reader
	io.Closer
}
