package tui

import (
	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
)

// Catppuccin Mocha palette.
var flavor = catppuccin.Mocha

var (
	colorBase     = lipgloss.Color(flavor.Base().Hex)
	colorMantle   = lipgloss.Color(flavor.Mantle().Hex)
	colorSurface0 = lipgloss.Color(flavor.Surface0().Hex)
	colorSurface1 = lipgloss.Color(flavor.Surface1().Hex)
	colorText     = lipgloss.Color(flavor.Text().Hex)
	colorSubtext0 = lipgloss.Color(flavor.Subtext0().Hex)
	colorBlue     = lipgloss.Color(flavor.Blue().Hex)
	colorGreen    = lipgloss.Color(flavor.Green().Hex)
	colorRed      = lipgloss.Color(flavor.Red().Hex)
	colorYellow   = lipgloss.Color(flavor.Yellow().Hex)
	colorMauve    = lipgloss.Color(flavor.Mauve().Hex)
	colorOverlay0 = lipgloss.Color(flavor.Overlay0().Hex)
)

// Table styles.
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(colorMauve).
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(colorSubtext0).
			Bold(true)

	// SelectedRowStyle marks the row under the cursor.
	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(colorText).
				Background(colorSurface1)

	RowStyle = lipgloss.NewStyle().
			Foreground(colorText)

	// DimStyle is used for the half of a row outside the selected column.
	DimStyle = lipgloss.NewStyle().
			Foreground(colorOverlay0)

	ActiveMarkerStyle = lipgloss.NewStyle().
				Foreground(colorGreen).
				Bold(true)

	// EditFieldStyle highlights the field being edited.
	EditFieldStyle = lipgloss.NewStyle().
			Foreground(colorBase).
			Background(colorBlue)

	EditCursorStyle = lipgloss.NewStyle().
			Foreground(colorBase).
			Background(colorYellow)
)

// Auth badge styles.
var (
	ValidStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	ExpiredStyle = lipgloss.NewStyle().Foreground(colorRed)
	UnknownStyle = lipgloss.NewStyle().Foreground(colorOverlay0)
)

// Dropdown styles.
var (
	DropdownStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorSurface1).
			Foreground(colorText)

	DropdownHighlightStyle = lipgloss.NewStyle().
				Foreground(colorBase).
				Background(colorBlue)
)

// Status bar styles.
var (
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(colorSubtext0).
			Background(colorSurface0).
			Padding(0, 1)

	// StatusBarKeyStyle highlights the mode labels in the status bar.
	StatusBarKeyStyle = lipgloss.NewStyle().
				Foreground(colorYellow).
				Background(colorSurface0).
				Bold(true)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Background(colorSurface0).
				Bold(true)
)

// Overlay styles.
var (
	OverlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBlue).
			Background(colorMantle).
			Foreground(colorText).
			Padding(1, 2)

	OverlayTitleStyle = lipgloss.NewStyle().
				Foreground(colorBlue).
				Bold(true)

	OverlayHintStyle = lipgloss.NewStyle().
				Foreground(colorOverlay0)
)
