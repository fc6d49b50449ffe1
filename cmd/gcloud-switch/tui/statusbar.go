package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/tjirsch/gcloud-switch/internal/profile"
)

// StatusBar renders the bottom row: the last status message on the left,
// the column and sync mode on the right.
type StatusBar struct {
	message string
	isError bool
	column  profile.Scope
	sync    profile.SyncMode
	width   int
}

// NewStatusBar creates a status bar with default values.
func NewStatusBar() StatusBar {
	return StatusBar{}
}

// SetWidth sets the available width for rendering.
func (s *StatusBar) SetWidth(w int) {
	s.width = w
}

// Update refreshes the status bar from the machine's state.
func (s *StatusBar) Update(message string, isError bool, st profile.State) {
	s.message = message
	s.isError = isError
	s.column = st.Column
	s.sync = st.SyncMode
}

// View renders the status bar.
func (s StatusBar) View() string {
	left := s.message
	if s.isError {
		left = StatusErrorStyle.Render(left)
	}

	right := strings.Join([]string{
		StatusBarKeyStyle.Render("column") + ": " + s.column.String(),
		StatusBarKeyStyle.Render("sync") + ": " + s.sync.String(),
	}, " · ")

	// StatusBarStyle pads one cell each side.
	available := s.width - 2
	rightWidth := ansi.StringWidth(right)
	if maxLeft := available - rightWidth - 1; maxLeft > 0 && ansi.StringWidth(left) > maxLeft {
		left = ansi.Truncate(left, maxLeft, "…")
	}
	gap := available - ansi.StringWidth(left) - rightWidth
	if gap < 1 {
		gap = 1
	}

	content := fmt.Sprintf("%s%s%s", left, strings.Repeat(" ", gap), right)
	return StatusBarStyle.Width(s.width).Render(content)
}
