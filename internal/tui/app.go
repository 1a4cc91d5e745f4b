// internal/tui/app.go
//
// This is the kanban board TUI. It uses bubbletea, which follows The Elm
// Architecture:
//
// 1. Model: the board, the cursor, and whatever card is being dragged
// 2. Update: keys and store events become messages that change the model
// 3. View: the model rendered to a string
//
// Dragging is done from the keyboard: space picks a card up (drag start),
// the arrow keys carry it across columns, and space again drops it on the
// focused column. Esc cancels the drag without touching the board.

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/kingrea/careerflow/internal/config"
	"github.com/kingrea/careerflow/internal/diag"
	"github.com/kingrea/careerflow/internal/jobs"
	"github.com/kingrea/careerflow/internal/kanban"
	"github.com/kingrea/careerflow/internal/logbook"
)

const (
	saveTimeout = 5 * time.Second

	spanDrop   = "drop"
	spanRender = "render"
	spanLoad   = "load"
)

// jobsLoadedMsg carries the result of reading the store.
type jobsLoadedMsg struct {
	jobs []jobs.Job
	err  error
	took time.Duration
}

// jobsSavedMsg reports the outcome of publishing a collection to the store.
type jobsSavedMsg struct {
	label string
	err   error
}

// snapshotMsg wraps a watcher reload.
type snapshotMsg jobs.Snapshot

// pendingSave is a collection waiting to be written.
type pendingSave struct {
	jobs  []jobs.Job
	label string
}

// drag tracks a card that has been picked up but not dropped yet.
type drag struct {
	payload kanban.DragPayload
	from    string
	label   string
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithClock overrides the clock used for deadlines and timestamps.
func WithClock(clock func() time.Time) AppOption {
	return func(a *App) {
		if clock != nil {
			a.now = clock
		}
	}
}

// WithLogbook attaches the journey log.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) { a.logbook = lb }
}

// WithMonitor attaches a timing monitor.
func WithMonitor(m *diag.Monitor) AppOption {
	return func(a *App) {
		if m != nil {
			a.monitor = m
		}
	}
}

// WithErrorTracker attaches the error journal.
func WithErrorTracker(t *diag.ErrorTracker) AppOption {
	return func(a *App) { a.tracker = t }
}

// WithWatcher feeds external store changes into the board. The watcher must
// already be started.
func WithWatcher(w *jobs.Watcher) AppOption {
	return func(a *App) { a.watcher = w }
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	config  *config.Config
	store   jobs.Store
	board   *kanban.Board
	policy  kanban.DeadlinePolicy
	logbook *logbook.Logbook
	monitor *diag.Monitor
	tracker *diag.ErrorTracker
	watcher *jobs.Watcher
	now     func() time.Time

	keys   KeyMap
	help   help.Model
	search textinput.Model

	// cursor
	column int
	row    int

	holding   *drag
	searching bool
	loaded    bool
	published []kanban.Job

	// One save runs at a time. queued holds the newest collection dropped
	// while it runs; older queued collections are overwritten.
	saving       bool
	queued       *pendingSave
	reloadQueued bool

	statusMsg string
	err       error

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp creates the board over store. Jobs are loaded by Init.
func NewApp(cfg *config.Config, store jobs.Store, opts ...AppOption) *App {
	search := textinput.New()
	search.Placeholder = "company or title"
	search.Prompt = "/ "
	search.CharLimit = 64
	search.Cursor.SetMode(cursor.CursorStatic)

	app := &App{
		config:  cfg,
		store:   store,
		policy:  cfg.DeadlinePolicy(),
		monitor: diag.NewMonitor(),
		now:     time.Now,
		keys:    DefaultKeyMap,
		help:    help.New(),
		search:  search,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.board = kanban.NewBoard(cfg.StatusSet(), nil, app.replaceCollection)
	app.board.SetExpanded(cfg.Project.Board.Expanded)
	return app
}

// replaceCollection is the board's publish callback. The store write
// happens in the command returned from Update.
func (a *App) replaceCollection(updated []kanban.Job) {
	a.published = updated
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadJobs(), a.waitForSnapshot())
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case jobsLoadedMsg:
		if a.saving {
			// The file may predate the write in flight.
			a.reloadQueued = true
			return a, nil
		}
		if msg.err != nil {
			a.reportError(msg.err, "load jobs")
			return a, nil
		}
		a.board.SetJobs(jobs.ToKanban(msg.jobs))
		a.loaded = true
		a.clampCursor()
		a.statusMsg = fmt.Sprintf("Loaded %d job(s) in %s", len(msg.jobs), msg.took.Round(time.Millisecond))
		return a, nil

	case jobsSavedMsg:
		a.saving = false
		if msg.err != nil {
			a.reportError(msg.err, "save after drop")
		}
		if next := a.queued; next != nil {
			a.queued = nil
			return a, a.startSave(next)
		}
		if msg.err != nil || a.reloadQueued {
			a.reloadQueued = false
			return a, a.loadJobs()
		}
		return a, nil

	case snapshotMsg:
		a.applySnapshot(jobs.Snapshot(msg))
		return a, a.waitForSnapshot()

	case tea.KeyMsg:
		if a.searching {
			return a.updateSearch(msg)
		}
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Toggle):
		return a, a.toggleBoard()

	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil

	case key.Matches(msg, a.keys.Reload):
		a.statusMsg = "Reloading jobs..."
		return a, a.loadJobs()
	}

	if !a.board.Expanded() {
		return a, nil
	}

	switch {
	case key.Matches(msg, a.keys.Cancel):
		if a.holding != nil {
			a.logInfo("Drag cancelled · %s", a.holding.label)
			a.statusMsg = fmt.Sprintf("Put %s back", a.holding.label)
			a.holding = nil
			return a, nil
		}
		if a.search.Value() != "" {
			a.search.SetValue("")
			a.clampCursor()
			a.statusMsg = "Search cleared"
		}
		return a, nil

	case key.Matches(msg, a.keys.Search):
		a.searching = true
		return a, a.search.Focus()

	case key.Matches(msg, a.keys.Left):
		a.moveColumn(-1)
	case key.Matches(msg, a.keys.Right):
		a.moveColumn(1)
	case key.Matches(msg, a.keys.Up):
		a.moveRow(-1)
	case key.Matches(msg, a.keys.Down):
		a.moveRow(1)

	case key.Matches(msg, a.keys.Grab):
		if a.holding != nil {
			return a, a.dropHeld()
		}
		a.pickUp()
	}
	return a, nil
}

func (a *App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return a, tea.Quit
	case tea.KeyEnter:
		a.searching = false
		a.search.Blur()
		a.clampCursor()
		return a, nil
	case tea.KeyEsc:
		a.searching = false
		a.search.Blur()
		a.search.SetValue("")
		a.clampCursor()
		return a, nil
	}
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	a.row = 0
	a.clampCursor()
	return a, cmd
}

// pickUp starts dragging the focused card.
func (a *App) pickUp() {
	col, ok := a.focusedColumn()
	if !ok || len(col.Jobs) == 0 {
		a.statusMsg = "Nothing to pick up here"
		return
	}
	card := kanban.Card{Job: col.Jobs[a.row]}
	a.holding = &drag{
		payload: card.DragStart(),
		from:    col.Name,
		label:   cardLabel(card.Job),
	}
	a.statusMsg = fmt.Sprintf("Holding %s · move to a column and press space", a.holding.label)
}

// dropHeld drops the held card on the focused column and returns the
// command that persists the result.
func (a *App) dropHeld() tea.Cmd {
	held := a.holding
	a.holding = nil
	col, ok := a.focusedColumn()
	if !ok {
		return nil
	}
	a.published = nil
	a.monitor.Time(spanDrop, func() {
		col.OnDrop(a.board, held.payload)
	})
	if a.published == nil {
		return nil
	}
	id, _ := held.payload.JobID()
	job, found := a.board.Find(id)
	switch {
	case !found:
		a.statusMsg = fmt.Sprintf("%s is no longer on the board", held.label)
		a.logWarn("Drop ignored · %s no longer exists", held.label)
	case col.Name == kanban.Backlog:
		a.statusMsg = fmt.Sprintf("%s stays %s · Backlog is not a status", held.label, job.Status)
		a.logInfo("Dropped %s on Backlog · status kept (%s)", held.label, job.Status)
	case held.from == col.Name:
		a.statusMsg = fmt.Sprintf("%s stays in %s", held.label, col.Name)
	default:
		a.statusMsg = fmt.Sprintf("Moved %s → %s", held.label, col.Name)
		a.logInfo("Moved %s · %s → %s", held.label, held.from, col.Name)
	}
	a.focusJob(id)
	return a.saveCmd(a.published, held.label)
}

// saveCmd persists collection. The board takes the rebuilt records so later
// saves start from what was written. While a save is in flight the
// collection is queued and nil is returned.
func (a *App) saveCmd(collection []kanban.Job, label string) tea.Cmd {
	if a.store == nil {
		return nil
	}
	pending := &pendingSave{jobs: jobs.FromKanban(collection, a.now()), label: label}
	a.board.SetJobs(jobs.ToKanban(pending.jobs))
	if a.saving {
		a.queued = pending
		return nil
	}
	return a.startSave(pending)
}

func (a *App) startSave(p *pendingSave) tea.Cmd {
	a.saving = true
	store := a.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		return jobsSavedMsg{label: p.label, err: store.Replace(ctx, p.jobs)}
	}
}

func (a *App) loadJobs() tea.Cmd {
	if a.store == nil {
		return nil
	}
	store := a.store
	monitor := a.monitor
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		var (
			list []jobs.Job
			err  error
		)
		took := monitor.Time(spanLoad, func() {
			list, err = store.Load(ctx)
		})
		return jobsLoadedMsg{jobs: list, err: err, took: took}
	}
}

func (a *App) waitForSnapshot() tea.Cmd {
	if a.watcher == nil {
		return nil
	}
	updates := a.watcher.Updates()
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func (a *App) applySnapshot(snap jobs.Snapshot) {
	if snap.Err != nil {
		a.reportError(snap.Err, "watch store")
		return
	}
	if a.saving {
		// Our own write is landing; the reload it triggers comes later.
		return
	}
	incoming := jobs.ToKanban(snap.Jobs)
	unchanged := sameBoard(a.board.Jobs(), incoming)
	// Always take the records: fields the board does not show still
	// travel through Ref into the next save.
	a.board.SetJobs(incoming)
	a.loaded = true
	if unchanged {
		return
	}
	a.clampCursor()
	a.statusMsg = fmt.Sprintf("Store changed · %d job(s)", len(snap.Jobs))
	a.logInfo("Store reloaded · %d job(s)", len(snap.Jobs))
	if a.holding != nil {
		if id, ok := a.holding.payload.JobID(); ok {
			if _, found := a.board.Find(id); !found {
				a.statusMsg = fmt.Sprintf("%s was removed while held", a.holding.label)
			}
		}
	}
}

func (a *App) toggleBoard() tea.Cmd {
	expanded := a.board.Toggle()
	if !expanded {
		a.holding = nil
		a.searching = false
		a.search.Blur()
	}
	if a.config != nil {
		if err := a.config.SetExpanded(expanded); err != nil {
			a.reportError(err, "save board toggle")
		}
	}
	return nil
}

func (a *App) reportError(err error, where string) {
	if err == nil {
		return
	}
	a.err = err
	a.statusMsg = fmt.Sprintf("⚠ %s: %v", where, err)
	a.logError("%s: %v", where, err)
	if a.tracker != nil {
		_ = a.tracker.Track(err, where)
	}
}

// visibleColumns returns the board columns with the search filter applied.
func (a *App) visibleColumns() []kanban.Column {
	columns := a.board.Columns()
	query := strings.TrimSpace(a.search.Value())
	if query == "" {
		return columns
	}
	for i := range columns {
		columns[i].Jobs = filterJobs(columns[i].Jobs, query)
	}
	return columns
}

func (a *App) focusedColumn() (kanban.Column, bool) {
	columns := a.visibleColumns()
	if a.column < 0 || a.column >= len(columns) {
		return kanban.Column{}, false
	}
	return columns[a.column], true
}

func (a *App) moveColumn(delta int) {
	names := a.board.Statuses().Names()
	current := names[min(max(a.column, 0), len(names)-1)]
	next := a.board.Neighbor(current, delta)
	a.column = a.board.Statuses().Index(next)
	a.clampCursor()
}

func (a *App) moveRow(delta int) {
	a.row += delta
	a.clampCursor()
}

func (a *App) clampCursor() {
	columns := a.visibleColumns()
	if len(columns) == 0 {
		a.column, a.row = 0, 0
		return
	}
	a.column = min(max(a.column, 0), len(columns)-1)
	count := columns[a.column].Count()
	if count == 0 {
		a.row = 0
		return
	}
	a.row = min(max(a.row, 0), count-1)
}

// focusJob moves the cursor onto the card for id, if visible.
func (a *App) focusJob(id kanban.JobID) {
	for ci, col := range a.visibleColumns() {
		for ri, job := range col.Jobs {
			if job.ID == id {
				a.column, a.row = ci, ri
				return
			}
		}
	}
	a.clampCursor()
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// filterJobs keeps the jobs whose company and title fuzzy-match query, in
// their original order.
func filterJobs(list []kanban.Job, query string) []kanban.Job {
	if len(list) == 0 {
		return nil
	}
	haystack := make([]string, len(list))
	for i, job := range list {
		haystack[i] = job.Company + " " + job.Title
	}
	matches := fuzzy.Find(query, haystack)
	keep := make([]bool, len(list))
	for _, m := range matches {
		keep[m.Index] = true
	}
	var out []kanban.Job
	for i, job := range list {
		if keep[i] {
			out = append(out, job)
		}
	}
	return out
}

// sameBoard reports whether two collections render identically.
func sameBoard(a, b []kanban.Job) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Status != b[i].Status ||
			a[i].Company != b[i].Company || a[i].Title != b[i].Title ||
			a[i].Deadline != b[i].Deadline {
			return false
		}
	}
	return true
}

func cardLabel(job kanban.Job) string {
	if rec, ok := job.Ref.(jobs.Job); ok {
		return rec.Label()
	}
	switch {
	case job.Company != "" && job.Title != "":
		return job.Company + " · " + job.Title
	case job.Company != "":
		return job.Company
	case job.Title != "":
		return job.Title
	}
	return string(job.ID)
}
