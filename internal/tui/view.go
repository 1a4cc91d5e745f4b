package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/careerflow/internal/kanban"
)

const (
	minColumnWidth = 22
	maxColumnWidth = 34
	logPanelLines  = 6
)

var (
	colorAccent  = lipgloss.Color("#5B8DEF")
	colorBrand   = lipgloss.Color("#FF6B6B")
	colorBorder  = lipgloss.Color("#444444")
	colorMuted   = lipgloss.Color("#888888")
	colorSubtle  = lipgloss.Color("#AAAAAA")
	colorHeld    = lipgloss.Color("#F5A623")
	colorOverdue = lipgloss.Color("#E5534B")
	colorSoon    = lipgloss.Color("#D29922")
	colorNormal  = lipgloss.Color("#57AB5A")
)

// deadlineStyles colours the deadline line of a card by classification.
var deadlineStyles = map[kanban.Classification]lipgloss.Style{
	kanban.Overdue: lipgloss.NewStyle().Foreground(colorOverdue).Bold(true),
	kanban.DueSoon: lipgloss.NewStyle().Foreground(colorSoon).Bold(true),
	kanban.Normal:  lipgloss.NewStyle().Foreground(colorNormal),
	kanban.Unknown: lipgloss.NewStyle().Foreground(colorMuted),
}

// View renders the current state to a string.
func (a *App) View() string {
	var out string
	a.monitor.Time(spanRender, func() {
		out = a.render()
	})
	return out
}

func (a *App) render() string {
	width := a.width
	if width <= 0 {
		width = 120
	}
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorBrand).
		MarginBottom(1).
		Render("⬡ CAREERFLOW")

	sections := []string{header, a.renderBoardPanel(width)}
	if logPanel := a.renderLogPanel(width); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, a.renderFooter())
	return strings.Join(sections, "\n")
}

func (a *App) renderBoardPanel(width int) string {
	chevron := "▸"
	if a.board.Expanded() {
		chevron = "▾"
	}
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorAccent).
		Render(fmt.Sprintf("%s Kanban View", chevron))

	var body string
	switch {
	case !a.loaded:
		body = lipgloss.NewStyle().Foreground(colorMuted).Render("Loading jobs...")
	case !a.board.Expanded():
		body = a.renderSummary()
	default:
		body = a.renderColumns(width - 4)
	}
	lines := []string{title}
	if a.searching || a.search.Value() != "" {
		lines = append(lines, a.search.View())
	}
	lines = append(lines, body)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(max(20, width-2)).
		Render(strings.Join(lines, "\n"))
}

// renderSummary is the collapsed board: one count per column.
func (a *App) renderSummary() string {
	var parts []string
	for _, col := range a.board.Columns() {
		parts = append(parts, fmt.Sprintf("%s %d", col.Name, col.Count()))
	}
	return lipgloss.NewStyle().Foreground(colorSubtle).Render(strings.Join(parts, " · "))
}

func (a *App) renderColumns(width int) string {
	columns := a.visibleColumns()
	if len(columns) == 0 {
		return ""
	}
	colWidth := width/len(columns) - 2
	colWidth = min(max(colWidth, minColumnWidth), maxColumnWidth)
	total := a.board.Columns()

	rendered := make([]string, len(columns))
	for i, col := range columns {
		rendered[i] = a.renderColumn(col, total[i].Count(), i, colWidth)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (a *App) renderColumn(col kanban.Column, total, index, width int) string {
	focused := index == a.column
	count := fmt.Sprintf("(%d)", col.Count())
	if col.Count() != total {
		count = fmt.Sprintf("(%d/%d)", col.Count(), total)
	}
	titleStyle := lipgloss.NewStyle().Bold(true)
	if focused {
		titleStyle = titleStyle.Foreground(colorAccent)
	}
	lines := []string{titleStyle.Render(fmt.Sprintf("%s %s", col.Name, count))}

	if focused && a.holding != nil {
		hint := fmt.Sprintf("↓ drop %s here", a.holding.label)
		lines = append(lines, lipgloss.NewStyle().Foreground(colorHeld).Width(width-2).Render(hint))
	}
	if col.Count() == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(colorMuted).Render("empty"))
	}
	for row, card := range col.Cards() {
		selected := focused && row == a.row && a.holding == nil
		lines = append(lines, a.renderCard(card, selected, width-2))
	}

	border := colorBorder
	if focused {
		border = colorAccent
		if a.holding != nil {
			border = colorHeld
		}
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

func (a *App) renderCard(card kanban.Card, selected bool, width int) string {
	job := card.Job
	class := kanban.Classify(job.Deadline, a.now(), a.policy)
	deadline := job.Deadline
	if deadline == "" {
		deadline = "N/A"
	}
	company := job.Company
	if company == "" {
		company = string(job.ID)
	}
	held := false
	if a.holding != nil {
		if id, ok := a.holding.payload.JobID(); ok && id == job.ID {
			held = true
		}
	}
	name := lipgloss.NewStyle().Bold(true).Render(company)
	if held {
		name = lipgloss.NewStyle().Bold(true).Foreground(colorHeld).Render("✋ " + company)
	}
	content := strings.Join([]string{
		name,
		lipgloss.NewStyle().Foreground(colorSubtle).Render(job.Title),
		deadlineStyles[class].Render(fmt.Sprintf("Deadline: %s%s", deadline, deadlineSuffix(class))),
	}, "\n")

	style := lipgloss.NewStyle().Width(max(10, width)).Padding(0, 0, 1, 0)
	if selected {
		style = style.Border(lipgloss.NormalBorder()).BorderForeground(colorAccent).Padding(0, 1).Width(max(10, width-2))
	}
	return style.Render(content)
}

func deadlineSuffix(c kanban.Classification) string {
	switch c {
	case kanban.Overdue:
		return " · overdue"
	case kanban.DueSoon:
		return " · soon"
	}
	return ""
}

func (a *App) renderLogPanel(width int) string {
	if a.logbook == nil {
		return ""
	}
	entries := a.logbook.Recent(logPanelLines)
	if len(entries) == 0 {
		return ""
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		stamp := "--:--"
		if !entry.Time.IsZero() {
			stamp = entry.Time.In(a.now().Location()).Format("15:04")
		}
		lines = append(lines, fmt.Sprintf("%s %-5s %s", stamp, entry.Level, entry.Message))
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorAccent).
		Render("LOG · journey")
	body := lipgloss.NewStyle().
		Foreground(colorSubtle).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(max(20, width-2)).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) renderFooter() string {
	status := a.statusMsg
	if d, ok := a.monitor.Last(spanDrop); ok {
		status = strings.TrimSpace(fmt.Sprintf("%s    last drop %s", status, humanizeDuration(d)))
	}
	footer := lipgloss.NewStyle().
		Foreground(colorMuted).
		MarginTop(1).
		Render(status)
	return lipgloss.JoinVertical(lipgloss.Left, footer, a.help.View(a.keys))
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}
