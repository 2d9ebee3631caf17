package core

import (
	"fmt"
	"path"
	"regexp"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"hdfsbridge/config"
	"hdfsbridge/protocols"
)

// Summary counts what one run of a task did.
type Summary struct {
	Transferred int
	Skipped     int
	Failed      int
	Removed     int
	Bytes       int64
}

type TransferManager struct {
	HistoryManager *HistoryManager
	logger         *zap.Logger
	now            func() time.Time
}

func NewTransferManager(hm *HistoryManager, logger *zap.Logger) *TransferManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferManager{
		HistoryManager: hm,
		logger:         logger,
		now:            time.Now,
	}
}

// OpenURL connects to the filesystem a URL names, with auth overriding the
// URL's credentials, and returns the path inside it.
func OpenURL(rawURL string, auth *config.Auth) (protocols.FileSystem, string, error) {
	opts, err := protocols.InferStorageOptions(rawURL)
	if err != nil {
		return nil, "", err
	}
	if auth != nil {
		if auth.User != "" {
			opts.Username = auth.User
		}
		if auth.Password != "" {
			opts.Password = auth.Password
		}
		if auth.KeyFile != "" {
			opts.Query.Set("key_file", auth.KeyFile)
		}
	}
	fsys, err := protocols.Filesystem(opts.Protocol, opts)
	if err != nil {
		return nil, "", err
	}
	return fsys, protocols.StripProtocol(rawURL), nil
}

// RunTask copies every new or changed source file matching the task filters
// to the target, then applies retention and saves the history. Failures on
// single files do not stop the run; they are returned together.
func (tm *TransferManager) RunTask(task config.Task) (Summary, error) {
	var summary Summary
	log := tm.logger.With(zap.String("task", task.Name))
	log.Info("starting task")

	regex, err := regexp.Compile(task.SourceRegex)
	if err != nil {
		return summary, fmt.Errorf("invalid regex: %w", err)
	}

	srcFS, srcPath, err := OpenURL(task.Source, task.SourceAuth)
	if err != nil {
		return summary, fmt.Errorf("failed to init source fs: %w", err)
	}
	defer srcFS.Close()

	dstFS, dstPath, err := OpenURL(task.Target, task.TargetAuth)
	if err != nil {
		return summary, fmt.Errorf("failed to init target fs: %w", err)
	}
	defer dstFS.Close()

	root, err := srcFS.Info(srcPath)
	if err != nil {
		return summary, err
	}
	history := tm.HistoryManager.GetTaskHistory(task.Name)
	dstRoot := protocols.TrimSlash(dstPath)

	var errs error
	var cutoff time.Time
	if task.SourceNewerDays > 0 {
		cutoff = tm.now().AddDate(0, 0, -task.SourceNewerDays)
	}

	walkErr := protocols.Walk(srcFS, root.Name, func(entry protocols.FileEntry, err error) error {
		if err != nil {
			log.Warn("failed to list directory", zap.String("path", entry.Name), zap.Error(err))
			errs = multierr.Append(errs, err)
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if !regex.MatchString(path.Base(entry.Name)) {
			return nil
		}
		if !cutoff.IsZero() && entry.ModTime.Before(cutoff) {
			return nil
		}

		rel := protocols.Rel(root.Name, entry.Name)
		if rel == "" {
			rel = path.Base(entry.Name)
		}
		if history.Unchanged(rel, entry.Size, entry.ModTime) {
			summary.Skipped++
			return nil
		}

		target := path.Join(dstRoot, rel)
		if err := tm.transferFile(srcFS, entry.Name, dstFS, target); err != nil {
			log.Warn("failed to transfer file", zap.String("path", rel), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", rel, err))
			summary.Failed++
			return nil
		}
		log.Info("transferred file", zap.String("path", rel), zap.Int64("size", entry.Size))

		history.Add(rel, Record{
			TransferredAt: tm.now(),
			Size:          entry.Size,
			ModTime:       entry.ModTime,
		})
		summary.Transferred++
		summary.Bytes += entry.Size
		return nil
	})
	errs = multierr.Append(errs, walkErr)

	if task.RetentionDays > 0 {
		removed, err := tm.cleanup(dstFS, dstRoot, task, history)
		summary.Removed = removed
		errs = multierr.Append(errs, err)
	}

	if err := tm.HistoryManager.Save(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("save history: %w", err))
	}

	log.Info("finished task",
		zap.Int("transferred", summary.Transferred),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("removed", summary.Removed),
		zap.Int64("bytes", summary.Bytes))
	return summary, errs
}

func (tm *TransferManager) transferFile(srcFS protocols.FileSystem, src string, dstFS protocols.FileSystem, dst string) error {
	if parentDir := path.Dir(dst); parentDir != "." && parentDir != "/" {
		if err := dstFS.Makedirs(parentDir, true); err != nil {
			return fmt.Errorf("failed to mkdir %s: %w", parentDir, err)
		}
	}
	return protocols.Transfer(srcFS, src, dstFS, dst)
}

// cleanup removes target files whose transfer is older than the retention
// window. History records are kept so the source is not transferred again.
func (tm *TransferManager) cleanup(dstFS protocols.FileSystem, dstRoot string, task config.Task, history *TaskHistory) (int, error) {
	cutoff := tm.now().AddDate(0, 0, -task.RetentionDays)

	var removed int
	var errs error
	for _, rel := range history.TransferredBefore(cutoff) {
		target := path.Join(dstRoot, rel)
		if !dstFS.Exists(target) {
			continue
		}

		rec, _ := history.Get(rel)
		tm.logger.Info("cleaning up old file",
			zap.String("task", task.Name),
			zap.String("path", target),
			zap.Time("transferred_at", rec.TransferredAt))
		if err := dstFS.RmFile(target); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		removed++
	}
	return removed, errs
}
