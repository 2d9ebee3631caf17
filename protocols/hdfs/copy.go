package hdfs

import (
	"io"

	"go.uber.org/zap"

	"hdfsbridge/protocols"
)

// CpFile copies path1 to path2. HDFS has no server-side copy, so the bytes
// are streamed into a temporary sibling of path2 which is then renamed over
// it. On failure the temporary file is removed on a best-effort basis and
// path2 is left as it was.
func (f *FileSystem) CpFile(path1, path2 string) error {
	src, dst := f.path(path1), f.path(path2)
	if f.isDir(dst) {
		return protocols.InvalidArgument("cp_file", dst, "destination is a directory")
	}

	in, err := f.client.OpenFile(src, protocols.ModeRead, FileOptions{BlockSize: f.cfg.BlockSize})
	if err != nil {
		return protocols.Classify("cp_file", src, err)
	}
	defer in.Close()

	tmp := protocols.TempName(dst)
	if err := f.copyTo(in, tmp); err != nil {
		f.discard(tmp)
		return protocols.Classify("cp_file", src, err)
	}
	if err := f.client.Rename(tmp, dst); err != nil {
		f.discard(tmp)
		return protocols.Classify("cp_file", dst, err)
	}

	protocols.Logger().Debug("copied hdfs file", zap.String("src", src), zap.String("dst", dst))
	return nil
}

func (f *FileSystem) copyTo(in io.Reader, tmp string) (err error) {
	out, err := f.client.OpenFile(tmp, protocols.ModeWrite, FileOptions{
		BlockSize:   f.cfg.BlockSize,
		Replication: f.cfg.Replication,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// discard removes a temporary copy target. Its own failure is logged and
// dropped so the caller reports the error that caused the cleanup.
func (f *FileSystem) discard(tmp string) {
	err := f.client.Delete(tmp, false)
	if err == nil || protocols.IsNotFound(protocols.Classify("delete", tmp, err)) {
		return
	}
	protocols.Logger().Warn("failed to remove temporary copy",
		zap.String("path", tmp),
		zap.Error(err))
}
