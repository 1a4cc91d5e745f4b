package kanban

// Column is the view over the jobs assigned to one status.
type Column struct {
	Name string
	Jobs []Job
}

// Count returns the number of cards in the column.
func (c Column) Count() int { return len(c.Jobs) }

// Cards wraps the column's jobs as draggable cards.
func (c Column) Cards() []Card {
	cards := make([]Card, len(c.Jobs))
	for i, job := range c.Jobs {
		cards[i] = Card{Job: job}
	}
	return cards
}

// AcceptsDrag reports whether a drag may hover this column. Every column
// accepts drops.
func (c Column) AcceptsDrag() bool { return true }

// OnDrop routes a drop on this column to the board, tagged with the
// column's status.
func (c Column) OnDrop(b *Board, payload DragPayload) {
	b.Drop(payload, c.Name)
}

// Partition is the board split into Backlog plus one column per workflow
// status.
type Partition struct {
	Backlog Column
	Columns []Column
}

// All returns Backlog followed by the workflow columns.
func (p Partition) All() []Column {
	return append([]Column{p.Backlog}, p.Columns...)
}

// PartitionJobs splits jobs by status. Every job lands in exactly one
// column and keeps its relative order.
func PartitionJobs(statuses StatusSet, jobs []Job) Partition {
	workflow := statuses.Workflow()
	index := make(map[string]int, len(workflow))
	p := Partition{
		Backlog: Column{Name: Backlog},
		Columns: make([]Column, len(workflow)),
	}
	for i, name := range workflow {
		index[name] = i
		p.Columns[i] = Column{Name: name}
	}
	for _, job := range jobs {
		if i, ok := index[job.Status]; ok {
			p.Columns[i].Jobs = append(p.Columns[i].Jobs, job)
			continue
		}
		p.Backlog.Jobs = append(p.Backlog.Jobs, job)
	}
	return p
}

// ApplyDrop returns a copy of jobs with the job identified by id moved to
// target. Unknown ids leave the collection as is, and a Backlog target
// keeps the job's current status since Backlog is not a status a job can
// be set to. The input slice is never modified.
func ApplyDrop(jobs []Job, id JobID, target string) []Job {
	updated := make([]Job, len(jobs))
	copy(updated, jobs)
	if target == Backlog {
		return updated
	}
	for i := range updated {
		if updated[i].ID == id {
			updated[i].Status = target
		}
	}
	return updated
}

// Board owns the job collection shown on screen and republishes it through
// replace after every drop.
type Board struct {
	statuses StatusSet
	jobs     []Job
	replace  func([]Job)
	expanded bool
}

// NewBoard builds a board over jobs. replace may be nil.
func NewBoard(statuses StatusSet, jobs []Job, replace func([]Job)) *Board {
	return &Board{
		statuses: statuses,
		jobs:     append([]Job(nil), jobs...),
		replace:  replace,
	}
}

// Statuses returns the board's status set.
func (b *Board) Statuses() StatusSet { return b.statuses }

// Jobs returns a copy of the current collection.
func (b *Board) Jobs() []Job {
	return append([]Job(nil), b.jobs...)
}

// SetJobs swaps in a collection pushed by the owner, e.g. after a reload.
// It does not call replace.
func (b *Board) SetJobs(jobs []Job) {
	b.jobs = append([]Job(nil), jobs...)
}

// Partition splits the current collection into columns.
func (b *Board) Partition() Partition {
	return PartitionJobs(b.statuses, b.jobs)
}

// Columns returns Backlog followed by the workflow columns.
func (b *Board) Columns() []Column {
	return b.Partition().All()
}

// Find looks a job up by id.
func (b *Board) Find(id JobID) (Job, bool) {
	for _, job := range b.jobs {
		if job.ID == id {
			return job, true
		}
	}
	return Job{}, false
}

// Drop applies a drop of payload onto the column for target and publishes
// the resulting collection once. A missing payload behaves like an unknown
// id.
func (b *Board) Drop(payload DragPayload, target string) {
	id, ok := payload.JobID()
	if ok {
		b.jobs = ApplyDrop(b.jobs, id, target)
	} else {
		b.jobs = append([]Job(nil), b.jobs...)
	}
	if b.replace != nil {
		b.replace(b.Jobs())
	}
}

// Neighbor returns the column name delta steps away from column, clamped to
// the board edges.
func (b *Board) Neighbor(column string, delta int) string {
	names := b.statuses.Names()
	if len(names) == 0 {
		return column
	}
	idx := b.statuses.Index(b.statuses.Column(column))
	if idx < 0 {
		idx = 0
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(names) {
		idx = len(names) - 1
	}
	return names[idx]
}

// Expanded reports whether the columns are shown.
func (b *Board) Expanded() bool { return b.expanded }

// SetExpanded sets the view toggle.
func (b *Board) SetExpanded(expanded bool) { b.expanded = expanded }

// Toggle flips the view toggle and returns the new value.
func (b *Board) Toggle() bool {
	b.expanded = !b.expanded
	return b.expanded
}
