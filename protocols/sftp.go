package protocols

import (
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const DefaultSFTPPort = 22

// SFTPFileSystem talks to an SSH server's SFTP subsystem. Paths are rooted at
// RootPath on the server.
type SFTPFileSystem struct {
	Host           string
	Port           int
	User           string
	Password       string
	KeyFile        string
	KnownHostsFile string
	RootPath       string
	client         *sftp.Client
	sshConn        *ssh.Client
}

// NewSFTPWithClient wraps an already connected client. Closing the
// filesystem closes the client.
func NewSFTPWithClient(client *sftp.Client, rootPath string) *SFTPFileSystem {
	return &SFTPFileSystem{RootPath: rootPath, client: client}
}

func (s *SFTPFileSystem) authMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if s.KeyFile != "" {
		key, err := os.ReadFile(s.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse key file: %w", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if s.Password != "" {
		methods = append(methods, ssh.Password(s.Password))
	}
	return methods, nil
}

func (s *SFTPFileSystem) Init() error {
	auth, err := s.authMethods()
	if err != nil {
		return err
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if s.KnownHostsFile != "" {
		hostKeyCallback, err = knownhosts.New(s.KnownHostsFile)
		if err != nil {
			return fmt.Errorf("load known hosts: %w", err)
		}
	}

	config := &ssh.ClientConfig{
		User:            s.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         30 * time.Second,
	}

	port := s.Port
	if port == 0 {
		port = DefaultSFTPPort
	}
	addr := fmt.Sprintf("%s:%d", s.Host, port)
	conn, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return err
	}
	s.sshConn = conn

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return err
	}
	s.client = client
	Logger().Debug("sftp connected", zap.String("addr", addr), zap.String("user", s.User))
	return nil
}

func (s *SFTPFileSystem) Close() error {
	var err error
	if s.client != nil {
		err = s.client.Close()
		s.client = nil
	}
	if s.sshConn != nil {
		s.sshConn.Close()
		s.sshConn = nil
	}
	return err
}

func (s *SFTPFileSystem) Protocol() string {
	return "sftp"
}

func (s *SFTPFileSystem) FSID() string {
	return fmt.Sprintf("sftp_%s_%d", s.Host, s.Port)
}

func (s *SFTPFileSystem) resolve(p string) (string, string) {
	name := path.Clean("/" + StripProtocol(p))
	if s.RootPath == "" {
		return name, name
	}
	return name, path.Join(s.RootPath, name)
}

func sftpEntry(name string, info os.FileInfo) FileEntry {
	entry := FileEntry{
		Name:    name,
		Size:    info.Size(),
		Type:    TypeFile,
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
	}
	if stat, ok := info.Sys().(*sftp.FileStat); ok {
		entry.Owner = strconv.FormatUint(uint64(stat.UID), 10)
		entry.Group = strconv.FormatUint(uint64(stat.GID), 10)
	}
	if info.IsDir() {
		entry.Type = TypeDirectory
		entry.Size = 0
	}
	return entry
}

func (s *SFTPFileSystem) Ls(p string) ([]FileEntry, error) {
	name, fullPath := s.resolve(p)
	info, err := s.client.Stat(fullPath)
	if err != nil {
		return nil, Classify("ls", name, err)
	}
	if !info.IsDir() {
		return []FileEntry{sftpEntry(name, info)}, nil
	}

	entries, err := s.client.ReadDir(fullPath)
	if err != nil {
		return nil, Classify("ls", name, err)
	}

	files := make([]FileEntry, 0, len(entries))
	for _, entry := range entries {
		files = append(files, sftpEntry(path.Join(name, entry.Name()), entry))
	}
	return files, nil
}

func (s *SFTPFileSystem) Info(p string) (*FileEntry, error) {
	name, fullPath := s.resolve(p)
	info, err := s.client.Stat(fullPath)
	if err != nil {
		return nil, Classify("info", name, err)
	}
	entry := sftpEntry(name, info)
	return &entry, nil
}

func (s *SFTPFileSystem) Exists(p string) bool {
	_, fullPath := s.resolve(p)
	_, err := s.client.Stat(fullPath)
	return err == nil
}

func (s *SFTPFileSystem) Open(p, mode string, opts ...OpenOption) (*File, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	cfg := NewOpenConfig(opts...)
	name, fullPath := s.resolve(p)

	var raw RawStream
	switch m {
	case ModeRead:
		info, err := s.client.Stat(fullPath)
		if err != nil {
			return nil, Classify("open", name, err)
		}
		if info.IsDir() {
			return nil, InvalidArgument("open", name, "is a directory")
		}
		f, err := s.client.Open(fullPath)
		if err != nil {
			return nil, Classify("open", name, err)
		}
		raw = NewReader(f, info.Size(), cfg.Seekable)
	case ModeWrite:
		f, err := s.client.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
		if err != nil {
			return nil, Classify("open", name, err)
		}
		raw = NewWriter(f, 0)
	case ModeAppend:
		// Positioned writes instead of O_APPEND: servers backed by os.File
		// reject WriteAt on append-only handles.
		f, err := s.client.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE)
		if err != nil {
			return nil, Classify("open", name, err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, Classify("open", name, err)
		}
		if _, err := f.Seek(info.Size(), io.SeekStart); err != nil {
			f.Close()
			return nil, Classify("open", name, err)
		}
		raw = NewWriter(f, info.Size())
	}
	return NewFile(raw, name, m, cfg.BlockSize), nil
}

func (s *SFTPFileSystem) Mkdir(p string, createParents bool) error {
	name, fullPath := s.resolve(p)
	if createParents {
		return Classify("mkdir", name, s.client.MkdirAll(fullPath))
	}
	if s.Exists(name) {
		return AlreadyExists("mkdir", name, nil)
	}
	if !IsDir(s, Parent(name)) {
		return NotFound("mkdir", Parent(name), nil)
	}
	return Classify("mkdir", name, s.client.Mkdir(fullPath))
}

func (s *SFTPFileSystem) Makedirs(p string, existOK bool) error {
	name, fullPath := s.resolve(p)
	if !existOK && s.Exists(name) {
		return AlreadyExists("makedirs", name, nil)
	}
	return Classify("makedirs", name, s.client.MkdirAll(fullPath))
}

func (s *SFTPFileSystem) Rm(p string, recursive bool) error {
	name, fullPath := s.resolve(TrimSlash(StripProtocol(p)))
	info, err := s.client.Stat(fullPath)
	if err != nil {
		return Classify("rm", name, err)
	}
	if info.IsDir() {
		if !recursive {
			return InvalidArgument("rm", name, "cannot delete directory without recursive")
		}
		return Classify("rm", name, s.client.RemoveAll(fullPath))
	}
	return Classify("rm", name, s.client.Remove(fullPath))
}

func (s *SFTPFileSystem) RmFile(p string) error {
	name, fullPath := s.resolve(p)
	info, err := s.client.Stat(fullPath)
	if err != nil {
		return Classify("rm_file", name, err)
	}
	if info.IsDir() {
		return InvalidArgument("rm_file", name, "is a directory")
	}
	return Classify("rm_file", name, s.client.Remove(fullPath))
}

func (s *SFTPFileSystem) Rmdir(p string) error {
	name, fullPath := s.resolve(p)
	info, err := s.client.Stat(fullPath)
	if err != nil {
		return Classify("rmdir", name, err)
	}
	if !info.IsDir() {
		return InvalidArgument("rmdir", name, "not a directory")
	}
	return Classify("rmdir", name, s.client.RemoveAll(fullPath))
}

func (s *SFTPFileSystem) Mv(path1, path2 string) error {
	src, srcPath := s.resolve(TrimSlash(StripProtocol(path1)))
	dst, dstPath := s.resolve(TrimSlash(StripProtocol(path2)))
	if info, err := s.client.Stat(dstPath); err == nil && info.IsDir() {
		return errDestinationIsDir("mv", dst)
	}
	return Classify("mv", src, s.client.PosixRename(srcPath, dstPath))
}

func (s *SFTPFileSystem) CpFile(path1, path2 string) error {
	return Transfer(s, TrimSlash(StripProtocol(path1)), s, TrimSlash(StripProtocol(path2)))
}

func (s *SFTPFileSystem) Modified(p string) (time.Time, error) {
	info, err := s.Info(p)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime, nil
}

func init() {
	Register("sftp", func(opts StorageOptions) (FileSystem, error) {
		fs := &SFTPFileSystem{
			Host:           opts.Host,
			Port:           opts.Port,
			User:           opts.Username,
			Password:       opts.Password,
			KeyFile:        opts.Query.Get("key_file"),
			KnownHostsFile: opts.Query.Get("known_hosts"),
			RootPath:       opts.Query.Get("root"),
		}
		return fs, fs.Init()
	})
}
