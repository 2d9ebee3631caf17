package protocols

import (
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"os"
	"path"
	"time"

	"github.com/jlaffaye/ftp"
	"go.uber.org/zap"
)

const DefaultFTPPort = 21

// FTPFileSystem speaks plain FTP over a single control connection. Only one
// stream may be open at a time.
type FTPFileSystem struct {
	Host     string
	Port     int
	User     string
	Password string
	RootPath string
	conn     *ftp.ServerConn
}

func (f *FTPFileSystem) Init() error {
	port := f.Port
	if port == 0 {
		port = DefaultFTPPort
	}
	user := f.User
	if user == "" {
		user = "anonymous"
	}

	addr := fmt.Sprintf("%s:%d", f.Host, port)
	c, err := ftp.Dial(addr, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return err
	}

	if err := c.Login(user, f.Password); err != nil {
		c.Quit()
		return err
	}
	f.conn = c
	Logger().Debug("ftp connected", zap.String("addr", addr), zap.String("user", user))
	return nil
}

func (f *FTPFileSystem) Close() error {
	if f.conn != nil {
		err := f.conn.Quit()
		f.conn = nil
		return err
	}
	return nil
}

func (f *FTPFileSystem) Protocol() string {
	return "ftp"
}

func (f *FTPFileSystem) FSID() string {
	return fmt.Sprintf("ftp_%s_%d", f.Host, f.Port)
}

func (f *FTPFileSystem) resolve(p string) (string, string) {
	name := path.Clean("/" + StripProtocol(p))
	if f.RootPath == "" {
		return name, name
	}
	return name, path.Join(f.RootPath, name)
}

// ftpError maps reply code 550 to NotFound before falling back to Classify.
func ftpError(op, p string, err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && tpErr.Code == ftp.StatusFileUnavailable {
		return NotFound(op, p, err)
	}
	return Classify(op, p, err)
}

func ftpEntry(name string, entry *ftp.Entry) FileEntry {
	fe := FileEntry{
		Name:    name,
		Size:    int64(entry.Size),
		Type:    TypeFile,
		ModTime: entry.Time,
	}
	if entry.Type == ftp.EntryTypeFolder {
		fe.Type = TypeDirectory
		fe.Size = 0
	}
	return fe
}

func (f *FTPFileSystem) stat(name, fullPath string) (*FileEntry, error) {
	if fullPath == "/" || name == "/" {
		return &FileEntry{Name: name, Type: TypeDirectory}, nil
	}
	// LIST of the parent is the only stat every server answers.
	entries, err := f.conn.List(path.Dir(fullPath))
	if err != nil {
		// A permanent reply means the parent is not a listable directory.
		var tpErr *textproto.Error
		if errors.As(err, &tpErr) && tpErr.Code >= 500 {
			return nil, &os.PathError{Op: "list", Path: fullPath, Err: os.ErrNotExist}
		}
		return nil, err
	}
	base := path.Base(fullPath)
	for _, entry := range entries {
		if entry.Name == base {
			fe := ftpEntry(name, entry)
			return &fe, nil
		}
	}
	return nil, os.ErrNotExist
}

func (f *FTPFileSystem) Ls(p string) ([]FileEntry, error) {
	name, fullPath := f.resolve(p)
	info, err := f.stat(name, fullPath)
	if err != nil {
		return nil, ftpError("ls", name, err)
	}
	if !info.IsDir() {
		return []FileEntry{*info}, nil
	}

	entries, err := f.conn.List(fullPath)
	if err != nil {
		return nil, ftpError("ls", name, err)
	}

	files := make([]FileEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Name == "." || entry.Name == ".." {
			continue
		}
		files = append(files, ftpEntry(path.Join(name, entry.Name), entry))
	}
	return files, nil
}

func (f *FTPFileSystem) Info(p string) (*FileEntry, error) {
	name, fullPath := f.resolve(p)
	info, err := f.stat(name, fullPath)
	if err != nil {
		return nil, ftpError("info", name, err)
	}
	return info, nil
}

func (f *FTPFileSystem) Exists(p string) bool {
	_, err := f.Info(p)
	return err == nil
}

func (f *FTPFileSystem) Open(p, mode string, opts ...OpenOption) (*File, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	cfg := NewOpenConfig(opts...)
	name, fullPath := f.resolve(p)

	var raw RawStream
	switch m {
	case ModeRead:
		info, err := f.stat(name, fullPath)
		if err != nil {
			return nil, ftpError("open", name, err)
		}
		if info.IsDir() {
			return nil, InvalidArgument("open", name, "is a directory")
		}
		raw = NewReader(&ftpReader{conn: f.conn, path: fullPath}, info.Size, cfg.Seekable)
	case ModeWrite:
		raw = NewWriter(newFTPWriter(fullPath, f.conn.Stor), 0)
	case ModeAppend:
		var offset int64
		if info, err := f.stat(name, fullPath); err == nil {
			offset = info.Size
		}
		raw = NewWriter(newFTPWriter(fullPath, f.conn.Append), offset)
	}
	return NewFile(raw, name, m, cfg.BlockSize), nil
}

func (f *FTPFileSystem) Mkdir(p string, createParents bool) error {
	name, fullPath := f.resolve(p)
	if createParents {
		return f.Makedirs(name, true)
	}
	if f.Exists(name) {
		return AlreadyExists("mkdir", name, nil)
	}
	if !IsDir(f, Parent(name)) {
		return NotFound("mkdir", Parent(name), nil)
	}
	return ftpError("mkdir", name, f.conn.MakeDir(fullPath))
}

func (f *FTPFileSystem) Makedirs(p string, existOK bool) error {
	name, fullPath := f.resolve(p)
	if f.Exists(name) {
		if !existOK {
			return AlreadyExists("makedirs", name, nil)
		}
		return nil
	}

	dirs := []string{}
	curr := fullPath
	for curr != "." && curr != "/" && curr != "" {
		dirs = append(dirs, curr)
		curr = path.Dir(curr)
	}
	var lastErr error
	for i := len(dirs) - 1; i >= 0; i-- {
		// Existing levels answer 550; the final check below decides.
		if err := f.conn.MakeDir(dirs[i]); err != nil {
			lastErr = err
		}
	}

	if !IsDir(f, name) {
		return NotFound("makedirs", name, lastErr)
	}
	return nil
}

func (f *FTPFileSystem) Rm(p string, recursive bool) error {
	name, fullPath := f.resolve(TrimSlash(StripProtocol(p)))
	info, err := f.stat(name, fullPath)
	if err != nil {
		return ftpError("rm", name, err)
	}
	if info.IsDir() {
		if !recursive {
			return InvalidArgument("rm", name, "cannot delete directory without recursive")
		}
		return ftpError("rm", name, f.conn.RemoveDirRecur(fullPath))
	}
	return ftpError("rm", name, f.conn.Delete(fullPath))
}

func (f *FTPFileSystem) RmFile(p string) error {
	name, fullPath := f.resolve(p)
	info, err := f.stat(name, fullPath)
	if err != nil {
		return ftpError("rm_file", name, err)
	}
	if info.IsDir() {
		return InvalidArgument("rm_file", name, "is a directory")
	}
	return ftpError("rm_file", name, f.conn.Delete(fullPath))
}

func (f *FTPFileSystem) Rmdir(p string) error {
	name, fullPath := f.resolve(p)
	info, err := f.stat(name, fullPath)
	if err != nil {
		return ftpError("rmdir", name, err)
	}
	if !info.IsDir() {
		return InvalidArgument("rmdir", name, "not a directory")
	}
	return ftpError("rmdir", name, f.conn.RemoveDirRecur(fullPath))
}

func (f *FTPFileSystem) Mv(path1, path2 string) error {
	src, srcPath := f.resolve(TrimSlash(StripProtocol(path1)))
	dst, dstPath := f.resolve(TrimSlash(StripProtocol(path2)))
	// RNTO onto an existing file is refused by some servers.
	if info, err := f.stat(dst, dstPath); err == nil {
		if info.IsDir() {
			return errDestinationIsDir("mv", dst)
		}
		if err := f.conn.Delete(dstPath); err != nil {
			return ftpError("mv", dst, err)
		}
	}
	return ftpError("mv", src, f.conn.Rename(srcPath, dstPath))
}

// CpFile spools through a local temporary file because the control
// connection cannot carry two transfers at once.
func (f *FTPFileSystem) CpFile(path1, path2 string) error {
	src := TrimSlash(StripProtocol(path1))
	dst := TrimSlash(StripProtocol(path2))

	spool, err := os.CreateTemp("", "hdfsbridge-ftp-*")
	if err != nil {
		return err
	}
	spoolPath := spool.Name()
	spool.Close()
	defer os.Remove(spoolPath)

	local := &LocalFileSystem{}
	if err := Transfer(f, src, local, spoolPath); err != nil {
		return err
	}
	return Transfer(local, spoolPath, f, dst)
}

func (f *FTPFileSystem) Modified(p string) (time.Time, error) {
	info, err := f.Info(p)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime, nil
}

// ftpReader issues RETR on the first Read and reissues it with a REST offset
// after every seek that moves.
type ftpReader struct {
	conn   *ftp.ServerConn
	path   string
	resp   *ftp.Response
	offset int64
}

func (r *ftpReader) reopen() error {
	if r.resp != nil {
		r.resp.Close()
		r.resp = nil
	}
	resp, err := r.conn.RetrFrom(r.path, uint64(r.offset))
	if err != nil {
		return err
	}
	r.resp = resp
	return nil
}

func (r *ftpReader) Read(p []byte) (int, error) {
	if r.resp == nil {
		if err := r.reopen(); err != nil {
			return 0, err
		}
	}
	n, err := r.resp.Read(p)
	r.offset += int64(n)
	return n, err
}

func (r *ftpReader) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.offset + offset
	default:
		return r.offset, Unsupported("seek", r.path, "ftp streams cannot seek from the end")
	}
	if target < 0 {
		return r.offset, InvalidArgument("seek", r.path, "negative position")
	}
	if target != r.offset {
		if r.resp != nil {
			r.resp.Close()
			r.resp = nil
		}
		r.offset = target
	}
	return r.offset, nil
}

func (r *ftpReader) Close() error {
	if r.resp == nil {
		return nil
	}
	err := r.resp.Close()
	r.resp = nil
	return err
}

// ftpWriter feeds a STOR or APPE running in the background. Close returns
// the server's verdict on the upload.
type ftpWriter struct {
	pw   *io.PipeWriter
	done chan error
}

func newFTPWriter(fullPath string, store func(string, io.Reader) error) *ftpWriter {
	pr, pw := io.Pipe()
	w := &ftpWriter{pw: pw, done: make(chan error, 1)}
	go func() {
		err := store(fullPath, pr)
		if err != nil {
			pr.CloseWithError(err)
		} else {
			pr.Close()
		}
		w.done <- err
	}()
	return w
}

func (w *ftpWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *ftpWriter) Close() error {
	w.pw.Close()
	return <-w.done
}

func init() {
	Register("ftp", func(opts StorageOptions) (FileSystem, error) {
		fs := &FTPFileSystem{
			Host:     opts.Host,
			Port:     opts.Port,
			User:     opts.Username,
			Password: opts.Password,
			RootPath: opts.Query.Get("root"),
		}
		return fs, fs.Init()
	})
}
