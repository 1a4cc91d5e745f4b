package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kingrea/careerflow/internal/kanban"
)

// Store persists the whole job collection. Replace swaps in a new
// collection atomically; callers never see a partially written one.
type Store interface {
	Load(ctx context.Context) ([]Job, error)
	Replace(ctx context.Context, list []Job) error
	// Path is the file a Watcher should observe.
	Path() string
	Close() error
}

// Backend names accepted by Open.
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// Open returns the store for backend rooted at path.
func Open(ctx context.Context, backend, path string, opts ...Option) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendYAML:
		return NewFileStore(path, opts...), nil
	case BackendSQLite:
		return OpenSQLite(ctx, path, opts...)
	default:
		return nil, fmt.Errorf("jobs: unknown backend %q", backend)
	}
}

// Option customizes stores during construction.
type Option func(*storeOptions)

type storeOptions struct {
	now func() time.Time
}

// WithClock overrides the clock used for record timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *storeOptions) {
		if clock != nil {
			o.now = clock
		}
	}
}

func buildOptions(opts []Option) storeOptions {
	o := storeOptions{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Add appends job to the stored collection.
func Add(ctx context.Context, s Store, job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	list, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if Index(list, job.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, job.ID)
	}
	return s.Replace(ctx, append(list, job))
}

// Remove deletes the job with id and returns it.
func Remove(ctx context.Context, s Store, id kanban.JobID) (Job, error) {
	list, err := s.Load(ctx)
	if err != nil {
		return Job{}, err
	}
	idx := Index(list, id)
	if idx < 0 {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	removed := list[idx]
	kept := append(append([]Job(nil), list[:idx]...), list[idx+1:]...)
	if err := s.Replace(ctx, kept); err != nil {
		return Job{}, err
	}
	return removed, nil
}

// Move applies the board's drop rule to one stored job: it is exactly what
// dragging the card onto the target column does. The updated job is
// returned; a Backlog target leaves the status alone.
func Move(ctx context.Context, s Store, statuses kanban.StatusSet, id kanban.JobID, target string, now time.Time) (Job, error) {
	target = strings.TrimSpace(target)
	if statuses.Index(target) < 0 {
		return Job{}, fmt.Errorf("jobs: %q is not a board column (have %s)", target, strings.Join(statuses.Names(), ", "))
	}
	list, err := s.Load(ctx)
	if err != nil {
		return Job{}, err
	}
	if Index(list, id) < 0 {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	var published []kanban.Job
	board := kanban.NewBoard(statuses, ToKanban(list), func(updated []kanban.Job) {
		published = updated
	})
	board.Drop(kanban.Card{Job: kanban.Job{ID: id}}.DragStart(), target)
	updated := FromKanban(published, now)
	if err := s.Replace(ctx, updated); err != nil {
		return Job{}, err
	}
	return updated[Index(updated, id)], nil
}
