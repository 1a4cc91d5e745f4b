package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kingrea/careerflow/internal/kanban"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func sampleJobs() []Job {
	return []Job{
		{ID: "a", Company: "Acme", Title: "SRE", Status: kanban.Backlog, Deadline: "2026-10-20", CreatedAt: testNow, UpdatedAt: testNow},
		{ID: "b", Company: "Globex", Title: "Backend Engineer", Status: "Applied", CreatedAt: testNow, UpdatedAt: testNow},
		{ID: "c", Company: "Initech", Title: "Platform", Status: "Ghosted", Notes: "no reply", CreatedAt: testNow, UpdatedAt: testNow},
	}
}

// storeFactories lets every behavioural test run against both backends.
func storeFactories(t *testing.T) map[string]func() Store {
	t.Helper()
	return map[string]func() Store{
		"yaml": func() Store {
			return NewFileStore(filepath.Join(t.TempDir(), "data", "jobs.yaml"), WithClock(fixedClock))
		},
		"sqlite": func() Store {
			s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "data", "jobs.db"))
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStoreRoundTripPreservesOrderAndUnknownStatus(t *testing.T) {
	ctx := context.Background()
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := open()
			empty, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("load empty: %v", err)
			}
			if len(empty) != 0 {
				t.Fatalf("new store has %d jobs", len(empty))
			}
			if err := store.Replace(ctx, sampleJobs()); err != nil {
				t.Fatalf("replace: %v", err)
			}
			got, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if diff := cmp.Diff(sampleJobs(), got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoreRejectsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := open()
			list := append(sampleJobs(), Job{ID: "a", Company: "Dup"})
			if err := store.Replace(ctx, list); !errors.Is(err, ErrDuplicateID) {
				t.Fatalf("expected ErrDuplicateID, got %v", err)
			}
		})
	}
}

func TestAddAndRemove(t *testing.T) {
	ctx := context.Background()
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := open()
			job, err := New(Draft{Company: "Hooli", Title: "SWE", Deadline: "2026-11-01"}, testNow)
			if err != nil {
				t.Fatalf("new job: %v", err)
			}
			if job.Status != kanban.Backlog {
				t.Fatalf("default status = %q, want Backlog", job.Status)
			}
			if err := Add(ctx, store, job); err != nil {
				t.Fatalf("add: %v", err)
			}
			if err := Add(ctx, store, job); !errors.Is(err, ErrDuplicateID) {
				t.Fatalf("second add: expected ErrDuplicateID, got %v", err)
			}
			removed, err := Remove(ctx, store, job.ID)
			if err != nil {
				t.Fatalf("remove: %v", err)
			}
			if removed.ID != job.ID {
				t.Fatalf("removed %s, want %s", removed.ID, job.ID)
			}
			if _, err := Remove(ctx, store, job.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("second remove: expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestMoveFollowsDropRules(t *testing.T) {
	ctx := context.Background()
	statuses := kanban.MustStatusSet(kanban.Backlog, "Applied", "Interviewing")
	later := testNow.Add(time.Hour)
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := open()
			if err := store.Replace(ctx, sampleJobs()); err != nil {
				t.Fatal(err)
			}

			moved, err := Move(ctx, store, statuses, "a", "Interviewing", later)
			if err != nil {
				t.Fatalf("move: %v", err)
			}
			if moved.Status != "Interviewing" || !moved.UpdatedAt.Equal(later) {
				t.Fatalf("unexpected moved job: %+v", moved)
			}

			kept, err := Move(ctx, store, statuses, "b", kanban.Backlog, later)
			if err != nil {
				t.Fatalf("move to backlog: %v", err)
			}
			if kept.Status != "Applied" || !kept.UpdatedAt.Equal(testNow) {
				t.Fatalf("backlog drop changed job: %+v", kept)
			}

			if _, err := Move(ctx, store, statuses, "zzz", "Applied", later); !errors.Is(err, ErrNotFound) {
				t.Fatalf("unknown id: expected ErrNotFound, got %v", err)
			}
			if _, err := Move(ctx, store, statuses, "a", "Offer", later); err == nil {
				t.Fatalf("expected error for a status that is not a column")
			}

			got, err := store.Load(ctx)
			if err != nil {
				t.Fatal(err)
			}
			want := sampleJobs()
			want[0].Status = "Interviewing"
			want[0].UpdatedAt = later
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("stored jobs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFileStoreWritesVersionedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	store := NewFileStore(path, WithClock(fixedClock))
	if err := store.Replace(context.Background(), sampleJobs()[:1]); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{"careerflow:", "version: 1", "2026-10-17T12:00:00Z", "company: Acme"} {
		if !strings.Contains(text, want) {
			t.Fatalf("document missing %q:\n%s", want, text)
		}
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestFileStoreRejectsNewerFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	if err := os.WriteFile(path, []byte("careerflow:\n  version: 9\njobs: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Fatalf("expected error for newer format version")
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), "firestore", filepath.Join(t.TempDir(), "x")); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestKanbanConversionKeepsRecord(t *testing.T) {
	list := sampleJobs()
	board := ToKanban(list)
	board = kanban.ApplyDrop(board, "c", "Applied")
	later := testNow.Add(time.Minute)
	back := FromKanban(board, later)

	want := sampleJobs()
	want[2].Status = "Applied"
	want[2].UpdatedAt = later
	if diff := cmp.Diff(want, back); diff != "" {
		t.Fatalf("conversion mismatch (-want +got):\n%s", diff)
	}
}

func TestNewValidatesDraft(t *testing.T) {
	if _, err := New(Draft{}, testNow); err == nil {
		t.Fatalf("expected error for empty draft")
	}
	if _, err := New(Draft{Company: "Acme", Deadline: "next tuesday"}, testNow); err == nil {
		t.Fatalf("expected error for unparseable deadline")
	}
	a, err := New(Draft{Title: "SRE"}, testNow)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(Draft{Title: "SRE"}, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Fatalf("ids must be unique, both %s", a.ID)
	}
	if a.Label() != "SRE" {
		t.Fatalf("label = %q", a.Label())
	}
}
