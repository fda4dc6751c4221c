// Package tui provides Bubble Tea models for the interactive dashboard.
package tui

import (
	"github.com/avety/scandash/internal/domain"
	"github.com/avety/scandash/internal/selection"
)

// groupsLoadedMsg is emitted when the top-level group listing arrives.
type groupsLoadedMsg struct {
	groups []domain.GroupRow
}

// childrenLoadedMsg is emitted when a group's lazy child listing arrives.
type childrenLoadedMsg struct {
	groupID  string
	children *domain.GroupChildren
	err      error
}

// selectionResolvedMsg is emitted when a selection's fetch completes.
type selectionResolvedMsg struct {
	result selection.Result
}

// ErrorMsg is emitted when an unrecoverable error occurs.
type ErrorMsg struct {
	Err error
}
