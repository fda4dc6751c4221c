package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"

	"github.com/avety/scandash/internal/api"
	"github.com/avety/scandash/internal/config"
	"github.com/avety/scandash/internal/domain"
	"github.com/avety/scandash/internal/selection"
	"github.com/avety/scandash/internal/stats"
)

// Layout constants
const (
	minTreeWidth = 26
	maxTreeWidth = 44
	treeRatio    = 0.38
	chromeLines  = 2 // header + status line
)

// AppModel is the root Bubble Tea model. It owns the sidebar tree and the
// detail panel and routes selection outcomes between them.
type AppModel struct {
	// Dependencies
	client     *api.Client
	controller *selection.Controller
	cfg        config.Config
	ctx        context.Context

	// UI components
	keymap      KeyMap
	help        HelpModel
	spinner     spinner.Model
	filterInput textinput.Model

	tree   TreeModel
	detail DetailModel
	agg    *stats.Result

	// View state
	width      int
	height     int
	loading    bool // initial tree load
	err        error
	errorToast string
	showHelp   bool
	filterMode bool
	filterText string
}

// NewAppModel creates the root model.
func NewAppModel(client *api.Client, controller *selection.Controller, cfg config.Config, ctx context.Context) AppModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.Prompt = "/ "

	return AppModel{
		client:      client,
		controller:  controller,
		cfg:         cfg,
		ctx:         ctx,
		keymap:      DefaultKeyMap(),
		help:        NewHelpModel(DefaultKeyMap()),
		spinner:     sp,
		filterInput: ti,
		tree:        NewTreeModel(),
		detail:      NewDetailModel(),
		loading:     true,
	}
}

// Init starts the spinner and the initial group listing fetch.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize(), m.fetchGroups())
}

// Update handles messages.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refreshDetail()
		return m, nil

	case groupsLoadedMsg:
		m.loading = false
		m.tree.SetGroups(msg.groups)
		if m.cfg.Group != "" {
			return m, m.selectGroupByID(m.cfg.Group)
		}
		return m, nil

	case childrenLoadedMsg:
		if msg.err != nil {
			m.tree.MarkLoading(domain.KindGroup, msg.groupID, false)
			m.errorToast = fmt.Sprintf("Load failed: %v", msg.err)
			return m, nil
		}
		m.tree.SetGroupChildren(msg.groupID, msg.children)
		return m, nil

	case selectionResolvedMsg:
		return m.handleSelectionResolved(msg.result)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleSelectionResolved applies a completed selection to the UI.
func (m AppModel) handleSelectionResolved(result selection.Result) (tea.Model, tea.Cmd) {
	switch result.Outcome {
	case selection.OutcomeApplied:
		m.errorToast = ""
		m.agg = computeAggregation(result.Detail)
		if batch, ok := result.Detail.(*domain.BatchDetail); ok && result.Node != nil {
			m.tree.SetFolderScans(result.Node.ID, batch)
			m.tree.MarkLoading(domain.KindFolder, result.Node.ID, false)
		}
		m.refreshDetail()

	case selection.OutcomeRemoved:
		if result.Node != nil {
			m.tree.Remove(result.Node.Kind, result.Node.ID)
			m.errorToast = fmt.Sprintf("%s no longer exists; removed", result.Node.Seed.Name)
		}
		m.agg = nil
		m.refreshDetail()

	case selection.OutcomeFailed:
		m.errorToast = fmt.Sprintf("Fetch failed: %v", result.Err)
		if result.Node != nil && result.Node.Kind == domain.KindFolder {
			m.tree.MarkLoading(domain.KindFolder, result.Node.ID, false)
		}
		if m.controller.State().Detail == nil {
			m.agg = nil
		}
		m.refreshDetail()

	case selection.OutcomeStale:
		// A newer selection is authoritative. Only release the folder's
		// loading glyph so a later expand can refetch its scans.
		if result.Node != nil && result.Node.Kind == domain.KindFolder {
			m.tree.MarkLoading(domain.KindFolder, result.Node.ID, false)
		}

	case selection.OutcomeCleared:
	}
	return m, nil
}

// handleKeyPress processes keyboard input.
func (m AppModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.showHelp {
		if msg.String() == "?" || msg.String() == "q" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	if m.filterMode {
		switch msg.String() {
		case "enter":
			m.filterMode = false
			m.filterText = m.filterInput.Value()
			m.tree.SetFilter(m.filterText)
			return m, nil
		case "esc":
			m.filterMode = false
			m.filterInput.SetValue(m.filterText)
			return m, nil
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			return m, cmd
		}
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
	case "/":
		m.filterMode = true
		m.filterInput.Focus()
	case "j", "down":
		m.tree.MoveCursor(1)
	case "k", "up":
		m.tree.MoveCursor(-1)
	case "h", "left":
		m.tree.Collapse()
	case "l", "right":
		return m, m.expandCurrent()
	case "enter":
		return m, m.activateCurrent()
	case "r":
		cmd := m.controller.Refresh(m.ctx)
		if cmd != nil {
			m.refreshDetail()
			return m, wrapSelection(cmd)
		}
	case "o":
		if view := m.tree.Current(); view != nil {
			_ = browser.OpenURL(reportURL(m.cfg.ServerURL, *view))
		}
	case "ctrl+d":
		m.tree.MoveCursor(10)
	case "ctrl+u":
		m.tree.MoveCursor(-10)
	}

	return m, nil
}

// activateCurrent is the enter action: expand the row (with its lazy child
// fetch when needed) and select it. A folder's children come from the same
// batch fetch the selection performs, so activation stays a single request.
func (m *AppModel) activateCurrent() tea.Cmd {
	view := m.tree.Current()
	if view == nil {
		return nil
	}

	var cmds []tea.Cmd
	if view.Kind != domain.KindFile {
		if m.tree.Expand() && view.Kind == domain.KindGroup {
			cmds = append(cmds, m.fetchChildren(view.ID))
		}
	}
	cmds = append(cmds, m.selectCurrent())
	return tea.Batch(cmds...)
}

// expandCurrent expands the row under the cursor, kicking off the lazy child
// fetch the first time a group or folder opens. Folder children come from
// the folder's own batch detail, so expanding an unloaded folder selects it.
func (m *AppModel) expandCurrent() tea.Cmd {
	view := m.tree.Current()
	if view == nil {
		return nil
	}
	if !m.tree.Expand() {
		return nil
	}

	switch view.Kind {
	case domain.KindGroup:
		return m.fetchChildren(view.ID)
	case domain.KindFolder:
		return m.selectCurrent()
	}
	return nil
}

// selectCurrent starts a selection of the row under the cursor.
func (m *AppModel) selectCurrent() tea.Cmd {
	view := m.tree.Current()
	if view == nil {
		return nil
	}
	node := &domain.Node{Kind: view.Kind, ID: view.ID, Seed: *view}
	cmd := m.controller.Select(m.ctx, node)
	m.refreshDetail()
	return wrapSelection(cmd)
}

// selectGroupByID preselects a group at startup (the --group flag).
func (m *AppModel) selectGroupByID(id string) tea.Cmd {
	node := &domain.Node{Kind: domain.KindGroup, ID: id, Seed: domain.EntityView{Kind: domain.KindGroup, ID: id}}
	cmd := m.controller.Select(m.ctx, node)
	m.refreshDetail()
	return tea.Batch(wrapSelection(cmd), m.fetchChildren(id))
}

// View renders the dashboard.
func (m AppModel) View() string {
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v\n\nPress Ctrl+C to quit", m.err))
	}

	width, height := m.width, m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	if m.loading {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Connecting to scan server...")
	}

	var sections []string
	sections = append(sections, m.renderHeader(width))
	sections = append(sections, m.renderStatusLine(width))
	if m.filterMode {
		sections = append(sections, m.filterInput.View())
	}

	bodyHeight := height - chromeLines
	if m.filterMode {
		bodyHeight--
	}
	if bodyHeight < 5 {
		bodyHeight = 5
	}

	if m.showHelp {
		sections = append(sections, m.help.View(width))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	treeWidth := m.treeWidth(width)
	treePanel := PanelStyle.
		Width(treeWidth - 2).
		Height(bodyHeight - 2).
		Render(m.tree.View(m.selectedKey()))
	detailPanel := PanelStyle.
		Width(width - treeWidth - 2).
		Height(bodyHeight - 2).
		Render(m.detail.View())

	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, treePanel, detailPanel))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the title line with server info on the left and
// activity state on the right.
func (m AppModel) renderHeader(width int) string {
	title := "scandash - " + m.cfg.ServerURL

	var statusParts []string
	state := m.controller.State()
	if state.Loading {
		statusParts = append(statusParts, m.spinner.View()+"loading")
	}
	if state.Refreshing {
		statusParts = append(statusParts, m.spinner.View()+"refreshing")
	}
	statusParts = append(statusParts, "[?]help")
	status := strings.Join(statusParts, " | ")

	padding := width - len(title) - lipgloss.Width(status) - 2
	if padding < 1 {
		padding = 1
	}
	return TitleStyle.Render(title) + strings.Repeat(" ", padding) + DimStyle.Render(status)
}

// renderStatusLine renders navigation hints and the error toast.
func (m AppModel) renderStatusLine(width int) string {
	left := "j/k:row h/l:fold enter:select r:refresh o:open /:filter"

	right := ""
	if m.errorToast != "" {
		right = ErrorStyle.Render(m.errorToast)
	} else if m.filterText != "" {
		right = DimStyle.Render("/" + m.filterText)
	}

	padding := width - len(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return DimStyle.Render(left) + strings.Repeat(" ", padding) + right
}

func (m *AppModel) resize() {
	treeWidth := m.treeWidth(m.width)
	bodyHeight := m.height - chromeLines
	if bodyHeight < 5 {
		bodyHeight = 5
	}
	m.tree.SetSize(treeWidth-4, bodyHeight-2)
	m.detail.SetSize(m.width-treeWidth-4, bodyHeight-2)
}

func (m AppModel) treeWidth(total int) int {
	w := int(float64(total) * treeRatio)
	if w < minTreeWidth {
		w = minTreeWidth
	}
	if w > maxTreeWidth {
		w = maxTreeWidth
	}
	return w
}

func (m *AppModel) refreshDetail() {
	m.detail.SetContent(m.controller.State(), m.agg)
}

func (m AppModel) selectedKey() string {
	state := m.controller.State()
	if state.Selected == nil {
		return ""
	}
	return entityKey(*state.Selected)
}

// fetchGroups creates a command to fetch the top-level group listing.
func (m AppModel) fetchGroups() tea.Cmd {
	return func() tea.Msg {
		groups, err := m.client.ListGroups(m.ctx)
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to list groups: %w", err)}
		}
		return groupsLoadedMsg{groups: groups}
	}
}

// fetchChildren creates a command to fetch one group's child listing.
func (m AppModel) fetchChildren(groupID string) tea.Cmd {
	return func() tea.Msg {
		children, err := m.client.GroupChildren(m.ctx, groupID)
		return childrenLoadedMsg{groupID: groupID, children: children, err: err}
	}
}

// wrapSelection adapts a selection.Command into a tea.Cmd.
func wrapSelection(cmd selection.Command) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		return selectionResolvedMsg{result: cmd()}
	}
}

// computeAggregation reduces a committed detail payload for the panels.
func computeAggregation(detail domain.Detail) *stats.Result {
	var result stats.Result
	switch d := detail.(type) {
	case *domain.GroupDetail:
		result = stats.Group(d)
	case *domain.BatchDetail:
		result = stats.Batch(d)
	case *domain.ScanDetail:
		result = stats.One(d)
	default:
		return nil
	}
	return &result
}

// reportURL builds the server-side report address for an entity.
func reportURL(base string, view domain.EntityView) string {
	base = strings.TrimRight(base, "/")
	switch view.Kind {
	case domain.KindGroup:
		return base + "/groups/" + view.ID + "/report"
	case domain.KindFolder:
		return base + "/batches/" + view.ID + "/report"
	default:
		return base + "/scans/" + view.ID + "/report"
	}
}
