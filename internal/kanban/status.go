// Package kanban partitions a job collection into board columns and applies
// the status transitions produced by dragging a card onto a column.
//
// Everything here is pure: the board never touches disk or network. The
// owner of the collection hands it a replace callback and receives the full
// updated collection after every drop.
package kanban

import (
	"errors"
	"fmt"
	"strings"
)

// Backlog is the pseudo-status of the first column. Jobs land there when
// their status is not one of the workflow statuses.
const Backlog = "Backlog"

// ErrInvalidStatusSet reports a status list that cannot back a board.
var ErrInvalidStatusSet = errors.New("kanban: invalid status set")

// DefaultStatuses is the workflow used when no configuration overrides it.
var DefaultStatuses = []string{Backlog, "Applied", "Interviewing", "Offer", "Rejected"}

// StatusSet is the ordered list of recognized statuses. The first entry is
// always Backlog; the rest are the real workflow columns.
type StatusSet struct {
	names []string
}

// NewStatusSet validates and normalizes a status list.
func NewStatusSet(names []string) (StatusSet, error) {
	if len(names) == 0 {
		return StatusSet{}, fmt.Errorf("%w: no statuses", ErrInvalidStatusSet)
	}
	seen := make(map[string]struct{}, len(names))
	cleaned := make([]string, 0, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return StatusSet{}, fmt.Errorf("%w: status %d is blank", ErrInvalidStatusSet, i)
		}
		if _, ok := seen[name]; ok {
			return StatusSet{}, fmt.Errorf("%w: duplicate status %q", ErrInvalidStatusSet, name)
		}
		seen[name] = struct{}{}
		cleaned = append(cleaned, name)
	}
	if cleaned[0] != Backlog {
		return StatusSet{}, fmt.Errorf("%w: first status must be %q, got %q", ErrInvalidStatusSet, Backlog, cleaned[0])
	}
	return StatusSet{names: cleaned}, nil
}

// MustStatusSet is NewStatusSet for static lists known to be valid.
func MustStatusSet(names ...string) StatusSet {
	set, err := NewStatusSet(names)
	if err != nil {
		panic(err)
	}
	return set
}

// DefaultStatusSet returns the built-in workflow.
func DefaultStatusSet() StatusSet {
	return MustStatusSet(DefaultStatuses...)
}

// Names returns every status, Backlog first.
func (s StatusSet) Names() []string {
	return append([]string(nil), s.names...)
}

// Workflow returns the statuses after Backlog.
func (s StatusSet) Workflow() []string {
	if len(s.names) <= 1 {
		return nil
	}
	return append([]string(nil), s.names[1:]...)
}

// IsWorkflow reports whether status places a job in a workflow column.
func (s StatusSet) IsWorkflow(status string) bool {
	for _, name := range s.names[min(1, len(s.names)):] {
		if name == status {
			return true
		}
	}
	return false
}

// Column returns the column a job with the given status is rendered in.
func (s StatusSet) Column(status string) string {
	if s.IsWorkflow(status) {
		return status
	}
	return Backlog
}

// Index returns the position of a status in the set, or -1.
func (s StatusSet) Index(status string) int {
	for i, name := range s.names {
		if name == status {
			return i
		}
	}
	return -1
}

// Len returns the number of columns including Backlog.
func (s StatusSet) Len() int { return len(s.names) }
