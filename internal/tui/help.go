package tui

import "github.com/charmbracelet/bubbles/help"

// HelpModel shows the full key reference in place of the tree and detail
// panels while ? is toggled on.
type HelpModel struct {
	inner  help.Model
	keymap KeyMap
}

// NewHelpModel creates the key reference view for the given bindings.
func NewHelpModel(keymap KeyMap) HelpModel {
	h := help.New()
	h.ShowAll = true

	return HelpModel{
		inner:  h,
		keymap: keymap,
	}
}

// View renders the key reference framed like the dashboard panels.
func (m HelpModel) View(width int) string {
	m.inner.Width = width - HelpStyle.GetHorizontalFrameSize()
	return HelpStyle.Render(m.inner.View(m.keymap))
}
