package kanban

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testStatuses() StatusSet {
	return MustStatusSet(Backlog, "Applied", "Interviewing")
}

func TestApplyDropMovesJobToTarget(t *testing.T) {
	jobs := []Job{
		{ID: "a", Status: Backlog},
		{ID: "b", Status: "Applied"},
	}
	got := ApplyDrop(jobs, "a", "Interviewing")
	want := []Job{
		{ID: "a", Status: "Interviewing"},
		{ID: "b", Status: "Applied"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ApplyDrop mismatch (-want +got):\n%s", diff)
	}
	p := PartitionJobs(testStatuses(), got)
	if p.Backlog.Count() != 0 {
		t.Fatalf("backlog count = %d, want 0", p.Backlog.Count())
	}
	if diff := cmp.Diff([]Job{{ID: "b", Status: "Applied"}}, p.Columns[0].Jobs); diff != "" {
		t.Fatalf("applied column mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Job{{ID: "a", Status: "Interviewing"}}, p.Columns[1].Jobs); diff != "" {
		t.Fatalf("interviewing column mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyDropOntoBacklogKeepsStatus(t *testing.T) {
	jobs := []Job{
		{ID: "a", Status: Backlog},
		{ID: "b", Status: "Applied"},
	}
	got := ApplyDrop(jobs, "b", Backlog)
	if got[1].Status != "Applied" {
		t.Fatalf("status = %q, want Applied", got[1].Status)
	}
	p := PartitionJobs(testStatuses(), got)
	if p.Columns[0].Count() != 1 || p.Columns[0].Jobs[0].ID != "b" {
		t.Fatalf("expected b to stay in Applied, got %+v", p.Columns[0].Jobs)
	}
}

func TestApplyDropUnknownIDIsNoop(t *testing.T) {
	jobs := []Job{
		{ID: "a", Status: Backlog, Company: "Acme"},
		{ID: "b", Status: "Applied", Title: "Engineer"},
	}
	got := ApplyDrop(jobs, "zzz", "Applied")
	if diff := cmp.Diff(jobs, got); diff != "" {
		t.Fatalf("unknown id changed collection (-want +got):\n%s", diff)
	}
}

func TestApplyDropDoesNotMutateInput(t *testing.T) {
	jobs := []Job{{ID: "a", Status: "Applied"}}
	_ = ApplyDrop(jobs, "a", "Interviewing")
	if jobs[0].Status != "Applied" {
		t.Fatalf("input mutated: %q", jobs[0].Status)
	}
}

func TestApplyDropChangesAtMostOneStatus(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	statuses := []string{Backlog, "Applied", "Interviewing", "Offer", "Rejected", "Withdrawn"}
	for round := 0; round < 200; round++ {
		jobs := randomJobs(rng, statuses, rng.Intn(12))
		var id JobID = "missing"
		if len(jobs) > 0 && rng.Intn(4) != 0 {
			id = jobs[rng.Intn(len(jobs))].ID
		}
		target := statuses[rng.Intn(len(statuses))]
		got := ApplyDrop(jobs, id, target)
		if len(got) != len(jobs) {
			t.Fatalf("round %d: length %d, want %d", round, len(got), len(jobs))
		}
		changed := 0
		for i := range jobs {
			before, after := jobs[i], got[i]
			if before.ID != after.ID {
				t.Fatalf("round %d: order changed at %d", round, i)
			}
			after.Status = before.Status
			if diff := cmp.Diff(before, after); diff != "" {
				t.Fatalf("round %d: non-status field changed (-want +got):\n%s", round, diff)
			}
			if got[i].Status != jobs[i].Status {
				changed++
			}
		}
		if changed > 1 {
			t.Fatalf("round %d: %d statuses changed", round, changed)
		}
	}
}

func TestBacklogDropInvariance(t *testing.T) {
	for _, status := range []string{"Applied", "Interviewing", "Offer", "Ghosted", ""} {
		job := Job{ID: "j", Status: status}
		got := ApplyDrop([]Job{job}, job.ID, Backlog)
		if got[0].Status != status {
			t.Fatalf("status %q became %q after Backlog drop", status, got[0].Status)
		}
	}
}

func TestPartitionIsComplete(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pool := []string{Backlog, "Applied", "Interviewing", "Offer", "Rejected", "Ghosted", ""}
	set := MustStatusSet(Backlog, "Applied", "Interviewing", "Offer")
	for round := 0; round < 100; round++ {
		jobs := randomJobs(rng, pool, rng.Intn(20))
		p := PartitionJobs(set, jobs)
		var ids []string
		for _, col := range p.All() {
			for _, job := range col.Jobs {
				ids = append(ids, string(job.ID))
				if col.Name == Backlog && set.IsWorkflow(job.Status) {
					t.Fatalf("round %d: workflow job %s in backlog", round, job.ID)
				}
				if col.Name != Backlog && job.Status != col.Name {
					t.Fatalf("round %d: job %s with status %q in column %s", round, job.ID, job.Status, col.Name)
				}
			}
		}
		var want []string
		for _, job := range jobs {
			want = append(want, string(job.ID))
		}
		sort.Strings(ids)
		sort.Strings(want)
		if diff := cmp.Diff(want, ids); diff != "" {
			t.Fatalf("round %d: partition lost or duplicated jobs (-want +got):\n%s", round, diff)
		}
	}
}

func TestPartitionKeepsUnknownStatusInBacklog(t *testing.T) {
	jobs := []Job{
		{ID: "a", Status: "Ghosted"},
		{ID: "b", Status: "Applied"},
		{ID: "c", Status: Backlog},
	}
	p := PartitionJobs(testStatuses(), jobs)
	if p.Backlog.Count() != 2 {
		t.Fatalf("backlog count = %d, want 2", p.Backlog.Count())
	}
	if p.Backlog.Jobs[0].Status != "Ghosted" {
		t.Fatalf("unknown status was rewritten: %q", p.Backlog.Jobs[0].Status)
	}
	if p.Backlog.Jobs[0].ID != "a" || p.Backlog.Jobs[1].ID != "c" {
		t.Fatalf("backlog order not preserved: %+v", p.Backlog.Jobs)
	}
}

func TestBoardDropPublishesOnce(t *testing.T) {
	var published [][]Job
	board := NewBoard(testStatuses(), []Job{
		{ID: "a", Status: Backlog},
		{ID: "b", Status: "Applied"},
	}, func(jobs []Job) {
		published = append(published, jobs)
	})

	card := Card{Job: Job{ID: "a"}}
	columns := board.Columns()
	if len(columns) != 3 {
		t.Fatalf("columns = %d, want 3", len(columns))
	}
	columns[2].OnDrop(board, card.DragStart())

	if len(published) != 1 {
		t.Fatalf("replace called %d times, want 1", len(published))
	}
	want := []Job{
		{ID: "a", Status: "Interviewing"},
		{ID: "b", Status: "Applied"},
	}
	if diff := cmp.Diff(want, published[0]); diff != "" {
		t.Fatalf("published mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, board.Jobs()); diff != "" {
		t.Fatalf("board state mismatch (-want +got):\n%s", diff)
	}
}

func TestBoardDropWithoutPayloadIsNoop(t *testing.T) {
	for _, raw := range []string{"", "   "} {
		calls := 0
		jobs := []Job{{ID: "a", Status: "Applied"}}
		board := NewBoard(testStatuses(), jobs, func([]Job) { calls++ })
		board.Drop(ParsePayload(raw), "Interviewing")
		if calls != 1 {
			t.Fatalf("payload %q: replace called %d times, want 1", raw, calls)
		}
		if diff := cmp.Diff(jobs, board.Jobs()); diff != "" {
			t.Fatalf("payload %q changed jobs (-want +got):\n%s", raw, diff)
		}
	}
}

func TestBoardPublishedSliceIsIndependent(t *testing.T) {
	var last []Job
	board := NewBoard(testStatuses(), []Job{{ID: "a", Status: Backlog}}, func(jobs []Job) { last = jobs })
	board.Drop(ParsePayload("a"), "Applied")
	last[0].Status = "tampered"
	if job, _ := board.Find("a"); job.Status != "Applied" {
		t.Fatalf("board shares storage with published slice: %q", job.Status)
	}
}

func TestBoardNeighborClamps(t *testing.T) {
	board := NewBoard(testStatuses(), nil, nil)
	cases := []struct {
		from  string
		delta int
		want  string
	}{
		{Backlog, -1, Backlog},
		{Backlog, 1, "Applied"},
		{"Applied", 1, "Interviewing"},
		{"Interviewing", 1, "Interviewing"},
		{"Ghosted", 1, "Applied"},
	}
	for _, tc := range cases {
		if got := board.Neighbor(tc.from, tc.delta); got != tc.want {
			t.Fatalf("Neighbor(%q, %d) = %q, want %q", tc.from, tc.delta, got, tc.want)
		}
	}
}

func TestBoardToggle(t *testing.T) {
	board := NewBoard(testStatuses(), nil, nil)
	if board.Expanded() {
		t.Fatalf("new board should start collapsed")
	}
	if !board.Toggle() || !board.Expanded() {
		t.Fatalf("toggle should expand the board")
	}
	if board.Toggle() {
		t.Fatalf("second toggle should collapse the board")
	}
}

func randomJobs(rng *rand.Rand, statuses []string, n int) []Job {
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = Job{
			ID:       JobID(fmt.Sprintf("job-%d", i)),
			Status:   statuses[rng.Intn(len(statuses))],
			Company:  fmt.Sprintf("company-%d", rng.Intn(5)),
			Title:    fmt.Sprintf("title-%d", rng.Intn(5)),
			Deadline: fmt.Sprintf("2026-0%d-1%d", 1+rng.Intn(9), rng.Intn(10)),
		}
	}
	return jobs
}
