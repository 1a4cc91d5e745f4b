package kanban

import (
	"strings"
	"time"
)

// JobID identifies a job across drags and reloads.
type JobID string

// Job is the slice of a job record the board cares about. Ref carries the
// owner's full record through the board untouched.
type Job struct {
	ID       JobID
	Status   string
	Company  string
	Title    string
	Deadline string
	Ref      any
}

// DragPayload is what a card hands to the column it is dropped on: the job
// identifier and nothing else. The receiving side resolves every other field
// by looking the id up in the current collection.
type DragPayload struct {
	data string
}

// ParsePayload wraps a raw payload string as received from a drop event.
func ParsePayload(raw string) DragPayload {
	return DragPayload{data: raw}
}

// JobID returns the carried identifier; ok is false for an empty payload.
// The payload is used verbatim, so a padded id matches no job.
func (p DragPayload) JobID() (JobID, bool) {
	if p.data == "" {
		return "", false
	}
	return JobID(p.data), true
}

// String returns the raw payload.
func (p DragPayload) String() string { return p.data }

// Card is the draggable view of one job.
type Card struct {
	Job Job
}

// DragStart returns the payload for dragging this card.
func (c Card) DragStart() DragPayload {
	return DragPayload{data: string(c.Job.ID)}
}

// Classification buckets a deadline for display.
type Classification string

const (
	Overdue Classification = "overdue"
	DueSoon Classification = "due-soon"
	Normal  Classification = "normal"
	Unknown Classification = "unknown"
)

// DeadlinePolicy controls when a deadline counts as due soon.
type DeadlinePolicy struct {
	SoonDays int
}

// DefaultDeadlinePolicy flags deadlines within a week.
func DefaultDeadlinePolicy() DeadlinePolicy {
	return DeadlinePolicy{SoonDays: 7}
}

var deadlineLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"Jan 2, 2006",
}

// ParseDeadline parses a deadline string in any accepted layout. Date-only
// values are read as UTC midnight.
func ParseDeadline(value string) (time.Time, bool) {
	return ParseDeadlineIn(value, time.UTC)
}

// ParseDeadlineIn is ParseDeadline with date-only values read in loc.
// Values carrying their own offset keep it.
func ParseDeadlineIn(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DaysUntil returns whole calendar days from now's date to the deadline's
// date, both evaluated in now's location.
func DaysUntil(deadline, now time.Time) int {
	y, m, d := deadline.In(now.Location()).Date()
	due := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(due.Sub(today).Hours() / 24)
}

// Classify buckets a deadline relative to now. Date-only deadlines are
// calendar days in now's location.
func Classify(deadline string, now time.Time, policy DeadlinePolicy) Classification {
	due, ok := ParseDeadlineIn(deadline, now.Location())
	if !ok {
		return Unknown
	}
	days := DaysUntil(due, now)
	switch {
	case days < 0:
		return Overdue
	case days <= policy.SoonDays:
		return DueSoon
	default:
		return Normal
	}
}
