package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/tjirsch/gcloud-switch/internal/app"
)

// addOverlay renders the add-profile prompt.
func addOverlay(a *app.AddProfile) string {
	var b strings.Builder
	b.WriteString(OverlayTitleStyle.Render("New profile"))
	b.WriteString("\n\n")
	if a.Name != "" {
		b.WriteString(DimStyle.Render("name: " + a.Name))
		b.WriteString("\n")
	}
	b.WriteString(a.Prompt())
	b.WriteString("\n")
	b.WriteString("> " + string(a.Buffer) + EditCursorStyle.Render(" "))
	b.WriteString("\n\n")
	b.WriteString(OverlayHintStyle.Render("Enter: next  Esc: cancel"))
	return OverlayStyle.Render(b.String())
}

// deleteOverlay renders the delete confirmation.
func deleteOverlay(d *app.ConfirmDelete) string {
	var b strings.Builder
	b.WriteString(OverlayTitleStyle.Render("Delete profile"))
	b.WriteString("\n\n")
	b.WriteString("Delete '" + d.Target + "'?")
	b.WriteString("\n\n")
	b.WriteString(OverlayHintStyle.Render("y: delete  any other key: cancel"))
	return OverlayStyle.Render(b.String())
}

// Composite places the overlay box centered on top of the background string.
// The background is expected to be a fully rendered terminal frame.
func Composite(background, overlay string, totalWidth, totalHeight int) string {
	if overlay == "" {
		return background
	}

	bgLines := strings.Split(background, "\n")
	for len(bgLines) < totalHeight {
		bgLines = append(bgLines, "")
	}

	overlayLines := strings.Split(overlay, "\n")
	overlayWidth := 0
	for _, line := range overlayLines {
		if w := ansi.StringWidth(line); w > overlayWidth {
			overlayWidth = w
		}
	}

	startRow := max((totalHeight-len(overlayLines))/2, 0)
	startCol := max((totalWidth-overlayWidth)/2, 0)

	for i, overlayLine := range overlayLines {
		row := startRow + i
		if row >= len(bgLines) {
			break
		}
		bgLine := bgLines[row]
		bgWidth := ansi.StringWidth(bgLine)

		left := ansi.Truncate(bgLine, startCol, "")
		if bgWidth < startCol {
			left += strings.Repeat(" ", startCol-bgWidth)
		}
		right := ""
		if end := startCol + ansi.StringWidth(overlayLine); end < bgWidth {
			right = ansi.TruncateLeft(bgLine, end, "")
		}
		bgLines[row] = left + overlayLine + right
	}

	if totalHeight > 0 && totalHeight < len(bgLines) {
		bgLines = bgLines[:totalHeight]
	}
	return strings.Join(bgLines, "\n")
}
