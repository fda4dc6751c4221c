package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/truncate"

	"github.com/avety/scandash/internal/domain"
)

// treeNode is one entity in the sidebar tree. Expansion state is purely
// local UI state; it carries no caching concerns.
type treeNode struct {
	view     domain.EntityView
	children []*treeNode
	expanded bool
	loaded   bool // children have been attached
	loading  bool // child fetch in flight
}

// expandable reports whether the node can have children at all.
func (n *treeNode) expandable() bool {
	return n.view.Kind != domain.KindFile
}

// TreeModel maintains the Group > Folder > File sidebar: expand/collapse
// state, cursor position, and lazy child loading. Activation and child
// fetches are decided by the app model; the tree only reports what the user
// is pointing at.
type TreeModel struct {
	roots  []*treeNode
	flat   []*treeNode // current display order
	cursor int
	scroll int

	filterText string
	width      int
	height     int
}

// NewTreeModel creates an empty tree.
func NewTreeModel() TreeModel {
	return TreeModel{}
}

// SetSize updates the tree viewport dimensions.
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.adjustScroll()
}

// SetGroups replaces the top level of the tree with the given group listing,
// preserving expansion state and children of groups that are still present.
func (t *TreeModel) SetGroups(groups []domain.GroupRow) {
	previous := make(map[string]*treeNode, len(t.roots))
	for _, n := range t.roots {
		previous[n.view.ID] = n
	}

	t.roots = make([]*treeNode, 0, len(groups))
	for _, g := range groups {
		node := &treeNode{view: domain.EntityView{
			Kind:        domain.KindGroup,
			ID:          g.ID,
			Name:        g.Name,
			FileCount:   g.FileCount,
			FolderCount: g.FolderCount,
		}}
		if old, ok := previous[g.ID]; ok {
			node.children = old.children
			node.expanded = old.expanded
			node.loaded = old.loaded
		}
		t.roots = append(t.roots, node)
	}
	t.rebuild()
}

// SetGroupChildren attaches a group's lazily loaded folder and file rows.
func (t *TreeModel) SetGroupChildren(groupID string, children *domain.GroupChildren) {
	node := t.find(domain.KindGroup, groupID)
	if node == nil {
		return
	}

	node.children = node.children[:0]
	for _, f := range children.Folders {
		node.children = append(node.children, &treeNode{view: domain.EntityView{
			Kind:      domain.KindFolder,
			ID:        f.ID,
			Name:      f.Name,
			GroupID:   f.GroupID,
			FileCount: f.FileCount,
		}})
	}
	for _, f := range children.Files {
		node.children = append(node.children, &treeNode{view: domain.EntityView{
			Kind:     domain.KindFile,
			ID:       f.ID,
			Name:     f.Name,
			GroupID:  f.GroupID,
			FolderID: f.FolderID,
			Status:   f.Status,
		}})
	}
	node.loaded = true
	node.loading = false
	t.rebuild()
}

// SetFolderScans attaches file rows to a folder from its batch detail. The
// batch payload is the only source of a folder's file listing, so a folder's
// subtree populates when its selection resolves.
func (t *TreeModel) SetFolderScans(folderID string, batch *domain.BatchDetail) {
	node := t.find(domain.KindFolder, folderID)
	if node == nil {
		return
	}

	node.children = node.children[:0]
	for i := range batch.Scans {
		scan := &batch.Scans[i]
		id := scan.ID
		if id == "" {
			// Older batch records omit scan ids; such rows render but
			// cannot be selected individually.
			id = fmt.Sprintf("%s#%d", folderID, i)
		}
		node.children = append(node.children, &treeNode{view: domain.EntityView{
			Kind:     domain.KindFile,
			ID:       id,
			Name:     scan.FileName,
			GroupID:  node.view.GroupID,
			FolderID: folderID,
			Status:   scan.Status,
		}})
	}
	node.loaded = true
	node.loading = false
	t.rebuild()
}

// MarkLoading flags a node whose child fetch is in flight.
func (t *TreeModel) MarkLoading(kind domain.Kind, id string, loading bool) {
	if node := t.find(kind, id); node != nil {
		node.loading = loading
	}
}

// Current returns the view under the cursor, or nil for an empty tree.
func (t *TreeModel) Current() *domain.EntityView {
	if t.cursor < 0 || t.cursor >= len(t.flat) {
		return nil
	}
	view := t.flat[t.cursor].view
	return &view
}

// MoveCursor moves the selection up or down by delta, clamped to the rows.
func (t *TreeModel) MoveCursor(delta int) {
	if len(t.flat) == 0 {
		return
	}
	t.cursor += delta
	if t.cursor < 0 {
		t.cursor = 0
	}
	if t.cursor >= len(t.flat) {
		t.cursor = len(t.flat) - 1
	}
	t.adjustScroll()
}

// Expand opens the current node. It reports whether a child fetch is needed
// (first expansion of a not-yet-loaded group or folder).
func (t *TreeModel) Expand() (needsChildren bool) {
	if t.cursor >= len(t.flat) {
		return false
	}
	node := t.flat[t.cursor]
	if !node.expandable() {
		return false
	}
	node.expanded = true
	t.rebuild()
	if !node.loaded && !node.loading {
		node.loading = true
		return true
	}
	return false
}

// Collapse closes the current node, or moves to the parent when the current
// node is a leaf or already collapsed.
func (t *TreeModel) Collapse() {
	if t.cursor >= len(t.flat) {
		return
	}
	node := t.flat[t.cursor]
	if node.expandable() && node.expanded {
		node.expanded = false
		t.rebuild()
		return
	}
	if parent := t.parentOf(node); parent != nil {
		for i, n := range t.flat {
			if n == parent {
				t.cursor = i
				break
			}
		}
		t.adjustScroll()
	}
}

// Remove prunes the entity's row (and subtree) from the tree. If the cursor
// was inside the pruned subtree it moves to the nearest remaining row.
func (t *TreeModel) Remove(kind domain.Kind, id string) {
	removeFrom := func(nodes []*treeNode) []*treeNode {
		for i, n := range nodes {
			if n.view.Kind == kind && n.view.ID == id {
				return append(nodes[:i], nodes[i+1:]...)
			}
		}
		return nodes
	}

	t.roots = removeFrom(t.roots)
	t.walk(func(n *treeNode) {
		n.children = removeFrom(n.children)
	})
	t.rebuild()
}

// SetFilter applies a case-insensitive substring filter over row names.
func (t *TreeModel) SetFilter(text string) {
	t.filterText = text
	t.cursor = 0
	t.scroll = 0
	t.rebuild()
}

// Len returns the number of visible rows.
func (t *TreeModel) Len() int {
	return len(t.flat)
}

// rebuild recomputes the flattened display order from expansion state and
// the active filter, keeping the cursor on a valid row.
func (t *TreeModel) rebuild() {
	t.flat = t.flat[:0]

	var add func(n *treeNode)
	add = func(n *treeNode) {
		if t.matches(n) {
			t.flat = append(t.flat, n)
		}
		if n.expanded || t.filterText != "" {
			for _, child := range n.children {
				add(child)
			}
		}
	}
	for _, root := range t.roots {
		add(root)
	}

	if t.cursor >= len(t.flat) {
		t.cursor = len(t.flat) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.adjustScroll()
}

func (t *TreeModel) matches(n *treeNode) bool {
	if t.filterText == "" {
		return true
	}
	return strings.Contains(strings.ToLower(n.view.Name), strings.ToLower(t.filterText))
}

func (t *TreeModel) find(kind domain.Kind, id string) *treeNode {
	var found *treeNode
	t.walk(func(n *treeNode) {
		if found == nil && n.view.Kind == kind && n.view.ID == id {
			found = n
		}
	})
	return found
}

func (t *TreeModel) parentOf(target *treeNode) *treeNode {
	var parent *treeNode
	t.walk(func(n *treeNode) {
		for _, child := range n.children {
			if child == target {
				parent = n
			}
		}
	})
	return parent
}

func (t *TreeModel) walk(fn func(*treeNode)) {
	var visit func(n *treeNode)
	visit = func(n *treeNode) {
		fn(n)
		for _, child := range n.children {
			visit(child)
		}
	}
	for _, root := range t.roots {
		visit(root)
	}
}

func (t *TreeModel) adjustScroll() {
	if t.height <= 0 {
		return
	}
	if t.cursor < t.scroll {
		t.scroll = t.cursor
	}
	if t.cursor >= t.scroll+t.height {
		t.scroll = t.cursor - t.height + 1
	}
	if t.scroll < 0 {
		t.scroll = 0
	}
}

// View renders the visible window of tree rows. selectedID marks the row
// whose entity is currently selected in the detail panel.
func (t *TreeModel) View(selectedKey string) string {
	if len(t.flat) == 0 {
		if t.filterText != "" {
			return DimStyle.Render("(no matches)")
		}
		return DimStyle.Render("(no groups)")
	}

	end := len(t.flat)
	if t.height > 0 && t.scroll+t.height < end {
		end = t.scroll + t.height
	}

	var lines []string
	for i := t.scroll; i < end; i++ {
		node := t.flat[i]
		lines = append(lines, t.renderRow(node, i == t.cursor, selectedKey))
	}
	return strings.Join(lines, "\n")
}

func (t *TreeModel) renderRow(node *treeNode, underCursor bool, selectedKey string) string {
	depth := 0
	switch node.view.Kind {
	case domain.KindFolder:
		depth = 1
	case domain.KindFile:
		depth = 1
		if node.view.FolderID != "" {
			depth = 2
		}
	}

	glyph := "  "
	switch {
	case node.loading:
		glyph = "… "
	case node.expandable() && node.expanded:
		glyph = "▾ "
	case node.expandable():
		glyph = "▸ "
	}

	text := strings.Repeat("  ", depth) + glyph + t.formatRowText(node)
	if t.width > 0 {
		text = truncate.StringWithTail(text, uint(t.width), "…")
	}

	switch {
	case underCursor:
		return SelectedRowStyle.Render("> " + text)
	case entityKey(node.view) == selectedKey:
		return RefreshStyle.Render("  " + text)
	default:
		return NormalRowStyle.Render("  " + text)
	}
}

func (t *TreeModel) formatRowText(node *treeNode) string {
	suffix := ""
	switch node.view.Kind {
	case domain.KindGroup:
		suffix = fmt.Sprintf("(%d folders, %d files)", node.view.FolderCount, node.view.FileCount)
	case domain.KindFolder:
		suffix = fmt.Sprintf("(%d files)", node.view.FileCount)
	case domain.KindFile:
		if node.view.Status != "" {
			suffix = "[" + node.view.Status + "]"
		}
	}
	if suffix == "" {
		return node.view.Name
	}
	return node.view.Name + " " + DimStyle.Render(suffix)
}

// entityKey identifies a view for selected-row highlighting.
func entityKey(view domain.EntityView) string {
	return string(view.Kind) + ":" + view.ID
}
