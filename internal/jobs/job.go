// Package jobs owns the job collection: the record type, the stores that
// persist it, and the watcher that notices when it changes on disk.
package jobs

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/careerflow/internal/kanban"
)

var (
	// ErrNotFound indicates no job has the requested id.
	ErrNotFound = errors.New("jobs: job not found")
	// ErrDuplicateID indicates two jobs share an id.
	ErrDuplicateID = errors.New("jobs: duplicate job id")
)

// Job is one tracked application.
type Job struct {
	ID        kanban.JobID `yaml:"id"`
	Company   string       `yaml:"company"`
	Title     string       `yaml:"title"`
	Status    string       `yaml:"status"`
	Deadline  string       `yaml:"deadline,omitempty"`
	Location  string       `yaml:"location,omitempty"`
	URL       string       `yaml:"url,omitempty"`
	Notes     string       `yaml:"notes,omitempty"`
	CreatedAt time.Time    `yaml:"created_at"`
	UpdatedAt time.Time    `yaml:"updated_at"`
}

// Draft holds the user-supplied fields of a new job.
type Draft struct {
	Company  string
	Title    string
	Status   string
	Deadline string
	Location string
	URL      string
	Notes    string
}

// New builds a job from a draft with a fresh id. An empty status puts the
// job in Backlog.
func New(d Draft, now time.Time) (Job, error) {
	job := Job{
		ID:        kanban.JobID(uuid.NewString()),
		Company:   strings.TrimSpace(d.Company),
		Title:     strings.TrimSpace(d.Title),
		Status:    strings.TrimSpace(d.Status),
		Deadline:  strings.TrimSpace(d.Deadline),
		Location:  strings.TrimSpace(d.Location),
		URL:       strings.TrimSpace(d.URL),
		Notes:     strings.TrimSpace(d.Notes),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	if job.Status == "" {
		job.Status = kanban.Backlog
	}
	if err := job.Validate(); err != nil {
		return Job{}, err
	}
	return job, nil
}

// Validate checks the fields every stored job must have.
func (j Job) Validate() error {
	if strings.TrimSpace(string(j.ID)) == "" {
		return fmt.Errorf("jobs: id is required")
	}
	if j.Company == "" && j.Title == "" {
		return fmt.Errorf("jobs: %s needs a company or a title", j.ID)
	}
	if j.Deadline != "" {
		if _, ok := kanban.ParseDeadline(j.Deadline); !ok {
			return fmt.Errorf("jobs: %s has unrecognized deadline %q", j.ID, j.Deadline)
		}
	}
	return nil
}

// Label is the short human name used in logs and status lines.
func (j Job) Label() string {
	switch {
	case j.Company != "" && j.Title != "":
		return fmt.Sprintf("%s · %s", j.Company, j.Title)
	case j.Company != "":
		return j.Company
	case j.Title != "":
		return j.Title
	default:
		return string(j.ID)
	}
}

// ToKanban converts jobs to board jobs, carrying each record in Ref.
func ToKanban(list []Job) []kanban.Job {
	out := make([]kanban.Job, len(list))
	for i, job := range list {
		out[i] = kanban.Job{
			ID:       job.ID,
			Status:   job.Status,
			Company:  job.Company,
			Title:    job.Title,
			Deadline: job.Deadline,
			Ref:      job,
		}
	}
	return out
}

// FromKanban turns board jobs back into records. Status is the only field
// the board changes; a changed status bumps UpdatedAt to now.
func FromKanban(list []kanban.Job, now time.Time) []Job {
	out := make([]Job, len(list))
	for i, bj := range list {
		job, ok := bj.Ref.(Job)
		if !ok {
			job = Job{ID: bj.ID, Company: bj.Company, Title: bj.Title, Deadline: bj.Deadline, CreatedAt: now.UTC()}
		}
		if job.Status != bj.Status {
			job.Status = bj.Status
			job.UpdatedAt = now.UTC()
		}
		out[i] = job
	}
	return out
}

// Index returns the position of id in list, or -1.
func Index(list []Job, id kanban.JobID) int {
	for i, job := range list {
		if job.ID == id {
			return i
		}
	}
	return -1
}

// CheckUnique reports the first id that appears twice.
func CheckUnique(list []Job) error {
	seen := make(map[kanban.JobID]struct{}, len(list))
	for _, job := range list {
		if _, ok := seen[job.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, job.ID)
		}
		seen[job.ID] = struct{}{}
	}
	return nil
}
