package ratings

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/smitebuilds/recommender/internal/models"
)

// debounceDelay batches the event burst a rename-over-write produces.
const debounceDelay = 200 * time.Millisecond

// Watcher reloads the snapshot file when the trainer rewrites it and hands
// the result to onChange. It watches the directory rather than the file:
// the atomic rename replaces the inode a file watch would stay pinned to.
type Watcher struct {
	path     string
	onChange func(*models.RatingsSnapshot)
	logger   *zap.SugaredLogger
	fsw      *fsnotify.Watcher
	done     chan struct{}
	once     sync.Once
}

// NewWatcher starts watching path. Close releases the watch.
func NewWatcher(path string, onChange func(*models.RatingsSnapshot), logger *zap.SugaredLogger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     path,
		onChange: onChange,
		logger:   logger,
		fsw:      fsw,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	base := filepath.Base(w.path)
	var debounce <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			debounce = time.After(debounceDelay)
		case <-debounce:
			debounce = nil
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("Snapshot watch error", "error", err)
		case <-w.done:
			return
		}
	}
}

// reload swallows bad snapshots so a torn or corrupt write never replaces
// a good one already being served.
func (w *Watcher) reload() {
	snap, err := Load(w.path)
	if err != nil {
		w.logger.Warnw("Snapshot reload failed", "path", w.path, "error", err)
		return
	}
	w.logger.Infow("Reloaded ratings snapshot", "run_id", snap.RunID, "gods", len(snap.Gods))
	w.onChange(snap)
}

// Close stops the watch loop. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}
