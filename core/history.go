package core

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"hdfsbridge/protocols"
)

// Record is what the history remembers about one transferred file.
type Record struct {
	TransferredAt time.Time `json:"transferred_at"`
	Size          int64     `json:"size"`
	ModTime       time.Time `json:"mod_time"`
}

type TaskHistory struct {
	// Map path relative to the task source -> Record
	Records map[string]Record `json:"records"`
	mu      sync.RWMutex
}

// HistoryManager keeps per-task transfer history in a JSON file that may
// live on any filesystem.
type HistoryManager struct {
	// TaskName -> History
	Tasks map[string]*TaskHistory `json:"tasks"`
	fsys  protocols.FileSystem
	path  string
	mu    sync.RWMutex
}

func NewHistoryManager(fsys protocols.FileSystem, path string) *HistoryManager {
	return &HistoryManager{
		Tasks: make(map[string]*TaskHistory),
		fsys:  fsys,
		path:  path,
	}
}

// Load reads the history file. A missing file is an empty history.
func (hm *HistoryManager) Load() error {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	data, err := protocols.Cat(hm.fsys, hm.path)
	if protocols.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	tasks := make(map[string]*TaskHistory)
	if err := json.Unmarshal(data, &tasks); err != nil {
		return fmt.Errorf("decode history %s: %w", hm.path, err)
	}
	for _, th := range tasks {
		if th.Records == nil {
			th.Records = make(map[string]Record)
		}
	}
	hm.Tasks = tasks
	return nil
}

// Save writes the history next to its final path and renames it into place
// so readers never see a partial file.
func (hm *HistoryManager) Save() error {
	hm.mu.RLock()
	for _, th := range hm.Tasks {
		th.mu.RLock()
	}
	data, err := json.MarshalIndent(hm.Tasks, "", "  ")
	for _, th := range hm.Tasks {
		th.mu.RUnlock()
	}
	hm.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := hm.fsys.Makedirs(protocols.Parent(hm.path), true); err != nil {
		return err
	}
	tmp := protocols.TempName(hm.path)
	err = protocols.Pipe(hm.fsys, tmp, data)
	if err == nil {
		err = hm.fsys.Mv(tmp, hm.path)
	}
	if err != nil {
		hm.discard(tmp)
		return err
	}
	return nil
}

// discard removes a staged history file after a failed save.
func (hm *HistoryManager) discard(tmp string) {
	if err := hm.fsys.RmFile(tmp); err != nil && !protocols.IsNotFound(err) {
		protocols.Logger().Warn("failed to remove temporary file",
			zap.String("path", tmp),
			zap.Error(err))
	}
}

func (hm *HistoryManager) GetTaskHistory(taskName string) *TaskHistory {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if _, ok := hm.Tasks[taskName]; !ok {
		hm.Tasks[taskName] = &TaskHistory{
			Records: make(map[string]Record),
		}
	}
	return hm.Tasks[taskName]
}

func (th *TaskHistory) Add(path string, rec Record) {
	th.mu.Lock()
	defer th.mu.Unlock()
	th.Records[path] = rec
}

func (th *TaskHistory) Get(path string) (Record, bool) {
	th.mu.RLock()
	defer th.mu.RUnlock()
	rec, ok := th.Records[path]
	return rec, ok
}

// Unchanged reports whether path was transferred before with the same size
// and modification time.
func (th *TaskHistory) Unchanged(path string, size int64, modTime time.Time) bool {
	rec, ok := th.Get(path)
	return ok && rec.Size == size && rec.ModTime.Equal(modTime)
}

// TransferredBefore lists the paths transferred before cutoff.
func (th *TaskHistory) TransferredBefore(cutoff time.Time) []string {
	th.mu.RLock()
	defer th.mu.RUnlock()

	var paths []string
	for p, rec := range th.Records {
		if rec.TransferredAt.Before(cutoff) {
			paths = append(paths, p)
		}
	}
	return paths
}

func (th *TaskHistory) Remove(path string) {
	th.mu.Lock()
	defer th.mu.Unlock()
	delete(th.Records, path)
}
