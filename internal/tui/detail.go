package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/avety/scandash/internal/domain"
	"github.com/avety/scandash/internal/selection"
	"github.com/avety/scandash/internal/stats"
)

const (
	barWidth       = 30
	minDetailWidth = 30
)

// DetailModel renders the selected entity's detail payload: summary
// counters, the severity distribution bar, top categories, and processing
// statuses. Content scrolls in a viewport when it overflows.
type DetailModel struct {
	viewport viewport.Model
	width    int
	height   int
}

// NewDetailModel creates the detail panel.
func NewDetailModel() DetailModel {
	vp := viewport.New(40, 10)
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3
	return DetailModel{viewport: vp}
}

// SetSize resizes the panel.
func (m *DetailModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// Update forwards scroll events to the viewport.
func (m DetailModel) Update(msg tea.Msg) (DetailModel, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// SetContent rebuilds the panel from the current selection state and its
// aggregation. agg may be nil while nothing has resolved yet.
func (m *DetailModel) SetContent(state selection.State, agg *stats.Result) {
	m.viewport.SetContent(m.render(state, agg))
}

// View renders the panel.
func (m DetailModel) View() string {
	return m.viewport.View()
}

func (m DetailModel) render(state selection.State, agg *stats.Result) string {
	width := m.width
	if width < minDetailWidth {
		width = minDetailWidth
	}

	if state.Selected == nil {
		return DimStyle.Render("Select a group, folder, or file to see its scan results.")
	}
	if state.Loading {
		return DimStyle.Render("Loading " + state.Selected.Name + "…")
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(state.Selected.Name))
	b.WriteString(DimStyle.Render("  " + kindLabel(state.Selected.Kind)))
	if state.Refreshing {
		b.WriteString("  " + RefreshStyle.Render("(refreshing…)"))
	}
	b.WriteString("\n\n")

	switch d := state.Detail.(type) {
	case *domain.GroupDetail:
		if d.Description != "" {
			b.WriteString(wordwrap.String(d.Description, width))
			b.WriteString("\n\n")
		}
		b.WriteString(fmt.Sprintf("Files: %d    Issues: %d    Fixed: %d\n\n", d.FileCount, d.TotalIssues, d.IssuesFixed))
	case *domain.BatchDetail:
		b.WriteString(fmt.Sprintf("Issues: %d    Fixed: %d    Remaining: %d\n", d.TotalIssues, d.FixedIssues, d.RemainingIssues))
		if d.UnprocessedFiles > 0 {
			b.WriteString(fmt.Sprintf("Unprocessed files: %d\n", d.UnprocessedFiles))
		}
		b.WriteString("\n")
	case *domain.ScanDetail:
		if d.Status != "" {
			b.WriteString("Status: " + d.Status + "\n\n")
		}
	}

	if agg == nil || agg.Empty {
		b.WriteString(DimStyle.Render("Nothing to show."))
		return b.String()
	}

	b.WriteString(TitleStyle.Render("Severity"))
	b.WriteString("\n")
	b.WriteString(renderSeverityBar(agg.Severity, barWidth))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %d   %s %d   %s %d\n\n",
		HighSevStyle.Render("high"), agg.Severity.High,
		MediumSevStyle.Render("medium"), agg.Severity.Medium,
		LowSevStyle.Render("low"), agg.Severity.Low,
	))

	if top := agg.TopCategories(); len(top) > 0 {
		b.WriteString(TitleStyle.Render("Top categories"))
		b.WriteString("\n")
		for _, cat := range top {
			b.WriteString(renderCategoryRow(cat))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(agg.Status) > 0 {
		b.WriteString(TitleStyle.Render("Status"))
		b.WriteString("\n")
		for _, line := range statusLines(agg.Status) {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// renderSeverityBar draws a proportional three-segment bar. Segment widths
// use the same largest-remainder policy as the aggregation itself: leading
// segments round, the last absorbs, so the bar is always exactly width wide.
func renderSeverityBar(sev stats.SeverityTotals, width int) string {
	total := sev.Sum()
	if total <= 0 || width <= 0 {
		return DimStyle.Render(strings.Repeat("░", width))
	}

	highW := int(float64(sev.High)/float64(total)*float64(width) + 0.5)
	if highW > width {
		highW = width
	}
	medW := int(float64(sev.Medium)/float64(total)*float64(width) + 0.5)
	if medW > width-highW {
		medW = width - highW
	}
	lowW := width - highW - medW

	return HighSevStyle.Render(strings.Repeat("█", highW)) +
		MediumSevStyle.Render(strings.Repeat("█", medW)) +
		LowSevStyle.Render(strings.Repeat("█", lowW))
}

// renderCategoryRow draws one category with its count, percentage, and a
// small percentage bar.
func renderCategoryRow(cat stats.CategoryCount) string {
	label := cat.Label
	if len(label) > 18 {
		label = label[:17] + "…"
	}

	miniWidth := 10
	filled := cat.Percent * miniWidth / 100
	if filled > miniWidth {
		filled = miniWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", miniWidth-filled)

	return fmt.Sprintf("  %-18s %s %3d%%  (%d)", label, DimStyle.Render(bar), cat.Percent, cat.Count)
}

// statusLines renders status counts in a stable order, largest first.
func statusLines(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("  %-14s %d", k, counts[k]))
	}
	return lines
}

func kindLabel(kind domain.Kind) string {
	switch kind {
	case domain.KindGroup:
		return "Group"
	case domain.KindFolder:
		return "Folder"
	case domain.KindFile:
		return "File"
	}
	return string(kind)
}
