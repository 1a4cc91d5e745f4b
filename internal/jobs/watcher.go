package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kingrea/careerflow/internal/diag"
)

// Snapshot is one reload of the collection triggered by a change on disk.
type Snapshot struct {
	Jobs []Job
	Err  error
	At   time.Time
}

// Watcher reloads a store whenever its backing file changes and publishes
// the result on Updates. Bursts of writes collapse into a single reload.
type Watcher struct {
	store    Store
	watcher  *fsnotify.Watcher
	debounce *diag.Debouncer
	updates  chan Snapshot
	target   string

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// DefaultDebounce is the quiet interval before a reload.
const DefaultDebounce = 150 * time.Millisecond

// NewWatcher prepares a watcher for store. Call Start to begin.
func NewWatcher(store Store, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("jobs: create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		store:    store,
		watcher:  fw,
		debounce: diag.NewDebouncer(debounce),
		updates:  make(chan Snapshot, 1),
		target:   filepath.Clean(store.Path()),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Updates delivers reloaded collections. Only the newest pending snapshot
// is kept.
func (w *Watcher) Updates() <-chan Snapshot { return w.updates }

// Start watches the directory holding the store file. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dir := filepath.Dir(w.target)
	err := os.MkdirAll(dir, 0o755)
	if err == nil {
		err = w.watcher.Add(dir)
	}
	if err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return fmt.Errorf("jobs: watch %s: %w", dir, err)
	}
	go w.run(ctx)
	return nil
}

// Stop ends the watch loop and releases the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.debounce.Stop()
	return w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.debounce.Trigger(func() { w.reload(ctx) })
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.publish(Snapshot{Err: fmt.Errorf("jobs: watch: %w", err), At: time.Now()})
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.target {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}

func (w *Watcher) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	list, err := w.store.Load(ctx)
	w.publish(Snapshot{Jobs: list, Err: err, At: time.Now()})
}

// publish replaces any unread snapshot with s.
func (w *Watcher) publish(s Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- s:
	default:
	}
}
