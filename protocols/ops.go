package protocols

import (
	"io"
	"io/fs"
	"path"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TempName returns a sibling of p used to stage writes before the final
// rename. The suffix is a random UUID so concurrent writers to the same
// destination never share a temporary file.
func TempName(p string) string {
	return TrimSlash(p) + ".tmp." + uuid.NewString()
}

// ListNames is Ls without details.
func ListNames(fsys FileSystem, p string) ([]string, error) {
	entries, err := fsys.Ls(p)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names, nil
}

func IsDir(fsys FileSystem, p string) bool {
	info, err := fsys.Info(p)
	return err == nil && info.IsDir()
}

func IsFile(fsys FileSystem, p string) bool {
	info, err := fsys.Info(p)
	return err == nil && !info.IsDir()
}

func Size(fsys FileSystem, p string) (int64, error) {
	info, err := fsys.Info(p)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// CatFile returns the bytes in [start, end) of a file. A negative start or
// end counts back from the end of the file; end == 0 reads to EOF. Only reads
// with a non-zero start ask the backend for a seekable stream.
func CatFile(fsys FileSystem, p string, start, end int64) ([]byte, error) {
	if start < 0 || end < 0 {
		size, err := Size(fsys, p)
		if err != nil {
			return nil, err
		}
		if start < 0 {
			start = max(size+start, 0)
		}
		if end < 0 {
			end = max(size+end, 0)
			if end == 0 {
				return []byte{}, nil
			}
		}
	}
	if end > 0 && end <= start {
		return []byte{}, nil
	}

	var data []byte
	err := WithFile(fsys, p, "rb", func(f *File) error {
		if start > 0 {
			if _, err := f.Seek(start, io.SeekStart); err != nil {
				return err
			}
		}
		var r io.Reader = f
		if end > 0 {
			r = io.LimitReader(f, end-start)
		}
		var err error
		data, err = io.ReadAll(r)
		return err
	}, WithSeekable(start != 0))
	return data, err
}

// Cat reads a whole file.
func Cat(fsys FileSystem, p string) ([]byte, error) {
	return CatFile(fsys, p, 0, 0)
}

// Pipe writes data to p, replacing any existing file.
func Pipe(fsys FileSystem, p string, data []byte) error {
	return WithFile(fsys, p, "wb", func(f *File) error {
		_, err := f.Write(data)
		return err
	})
}

// SkipDir returned from a WalkFunc skips the children of a directory.
var SkipDir = fs.SkipDir

// WalkFunc is called for every entry under the walk root. When listing a
// directory fails it is called a second time for that directory with the
// error. Returning fs.SkipDir from a directory skips its children.
type WalkFunc func(entry FileEntry, err error) error

// Walk visits root and everything below it depth first, children in name
// order.
func Walk(fsys FileSystem, root string, fn WalkFunc) error {
	info, err := fsys.Info(root)
	if err != nil {
		return fn(FileEntry{Name: StripProtocol(root)}, err)
	}
	err = walk(fsys, *info, fn)
	if err == fs.SkipDir {
		return nil
	}
	return err
}

func walk(fsys FileSystem, entry FileEntry, fn WalkFunc) error {
	if err := fn(entry, nil); err != nil {
		if err == fs.SkipDir && entry.IsDir() {
			return nil
		}
		return err
	}
	if !entry.IsDir() {
		return nil
	}

	children, err := fsys.Ls(entry.Name)
	if err != nil {
		if err := fn(entry, err); err != nil && err != fs.SkipDir {
			return err
		}
		return nil
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	for _, child := range children {
		if err := walk(fsys, child, fn); err != nil {
			return err
		}
	}
	return nil
}

// Find returns every file below root.
func Find(fsys FileSystem, root string) ([]FileEntry, error) {
	var files []FileEntry
	err := Walk(fsys, root, func(entry FileEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			files = append(files, entry)
		}
		return nil
	})
	return files, err
}

// Du sums the sizes of every file below root.
func Du(fsys FileSystem, root string) (int64, error) {
	files, err := Find(fsys, root)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total, nil
}

// Copy copies src to dst inside one filesystem. Directories need recursive
// and are rebuilt under dst with CpFile for every file.
func Copy(fsys FileSystem, src, dst string, recursive bool) error {
	info, err := fsys.Info(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fsys.CpFile(src, dst)
	}
	if !recursive {
		return InvalidArgument("copy", src, "cannot copy directory without recursive")
	}

	srcRoot := info.Name
	dstRoot := TrimSlash(StripProtocol(dst))
	return Walk(fsys, srcRoot, func(entry FileEntry, err error) error {
		if err != nil {
			return err
		}
		target := path.Join(dstRoot, Rel(srcRoot, entry.Name))
		if entry.IsDir() {
			return fsys.Makedirs(target, true)
		}
		return fsys.CpFile(entry.Name, target)
	})
}

// DeleteDirContents removes everything inside p and keeps p itself.
func DeleteDirContents(fsys FileSystem, p string) error {
	children, err := fsys.Ls(p)
	if err != nil {
		return err
	}
	for _, child := range children {
		if child.IsDir() {
			err = fsys.Rmdir(child.Name)
		} else {
			err = fsys.RmFile(child.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Transfer copies one file between two filesystems, possibly the same one.
// Bytes are staged in a temporary sibling of dstPath and renamed into place,
// so dstPath is either untouched or complete. The source is read
// sequentially.
func Transfer(src FileSystem, srcPath string, dst FileSystem, dstPath string) error {
	in, err := src.Open(srcPath, "rb", WithSeekable(false))
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := TempName(StripProtocol(dstPath))
	err = WithFile(dst, tmp, "wb", func(out *File) error {
		_, err := io.Copy(out, in)
		return err
	})
	if err == nil {
		err = dst.Mv(tmp, dstPath)
	}
	if err != nil {
		if rmErr := dst.RmFile(tmp); rmErr != nil && !IsNotFound(rmErr) {
			Logger().Warn("failed to remove temporary file",
				zap.String("path", tmp),
				zap.Error(rmErr))
		}
		return err
	}
	return nil
}

// Get downloads rpath to the local path lpath, recursing into directories.
func Get(fsys FileSystem, rpath, lpath string) error {
	return CopyTree(fsys, rpath, &LocalFileSystem{}, lpath)
}

// Put uploads the local path lpath to rpath, recursing into directories.
func Put(fsys FileSystem, lpath, rpath string) error {
	return CopyTree(&LocalFileSystem{}, lpath, fsys, rpath)
}

// CopyTree copies a file or directory tree from one filesystem to another.
func CopyTree(src FileSystem, srcPath string, dst FileSystem, dstPath string) error {
	info, err := src.Info(srcPath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return Transfer(src, info.Name, dst, dstPath)
	}

	srcRoot := info.Name
	dstRoot := TrimSlash(StripProtocol(dstPath))
	return Walk(src, srcRoot, func(entry FileEntry, err error) error {
		if err != nil {
			return err
		}
		target := path.Join(dstRoot, Rel(srcRoot, entry.Name))
		if entry.IsDir() {
			return dst.Makedirs(target, true)
		}
		return Transfer(src, entry.Name, dst, target)
	})
}
