package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/tjirsch/gcloud-switch/internal/app"
	"github.com/tjirsch/gcloud-switch/internal/profile"
	"github.com/tjirsch/gcloud-switch/internal/validate"
)

var tableHeaders = []string{"", "PROFILE", "USER ACCOUNT", "PROJECT", "ADC ACCOUNT", "QUOTA PROJECT"}

// cell column indexes; 0 is the active marker and 1 the name.
var fieldColumn = map[profile.Field]int{
	profile.FieldUserAccount:     2,
	profile.FieldUserProject:     3,
	profile.FieldADCAccount:      4,
	profile.FieldADCQuotaProject: 5,
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("gcloud-switch"))
	b.WriteString("\n\n")
	if m.machine.Profiles().Len() == 0 {
		b.WriteString(DimStyle.Render("No profiles yet. Press a to add one."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderTable())
	}

	sb := m.statusBar
	msg, isErr := m.machine.Status()
	sb.Update(msg, isErr, m.machine.State())
	footer := sb.View() + "\n" + m.help.View(keys)

	body := b.String()
	if m.height > 0 {
		used := lipgloss.Height(body) + lipgloss.Height(footer)
		if pad := m.height - used; pad > 0 {
			body += strings.Repeat("\n", pad)
		}
	}
	frame := body + "\n" + footer

	switch md := m.machine.Mode().(type) {
	case *app.AddProfile:
		frame = Composite(frame, addOverlay(md), m.width, m.height)
	case *app.ConfirmDelete:
		frame = Composite(frame, deleteOverlay(md), m.width, m.height)
	}
	return frame
}

// renderTable lays out the profile rows with one auth badge per account.
func (m Model) renderTable() string {
	set := m.machine.Profiles()
	st := m.machine.State()
	edit, editing := m.machine.Mode().(*app.Edit)

	rows := make([][]string, 0, set.Len())
	for i := range set.Len() {
		name, p, _ := set.At(i)
		marker := "  "
		if name == st.ActiveProfile {
			marker = ActiveMarkerStyle.Render("● ")
		}
		row := []string{marker, name, "", "", "", ""}
		for f, col := range fieldColumn {
			value := p.Field(f)
			switch {
			case editing && edit.Target == name && edit.Field == f:
				value = editValue(edit)
			case editing && edit.Target == name:
				if v, ok := edit.Staged[f]; ok {
					value = v
				}
			}
			if f.IsAccount() {
				value = m.badge(p.Field(f)) + " " + value
			}
			if !inColumn(st.Column, f) {
				value = DimStyle.Render(value)
			}
			row[col] = value
		}
		rows = append(rows, row)
	}

	widths := make([]int, len(tableHeaders))
	for i, h := range tableHeaders {
		widths[i] = ansi.StringWidth(h)
	}
	for _, row := range rows {
		for i, c := range row {
			widths[i] = max(widths[i], ansi.StringWidth(c))
		}
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(joinCells(tableHeaders, widths)))
	b.WriteString("\n")
	for i, row := range rows {
		line := joinCells(row, widths)
		if i == m.machine.Selected() {
			line = SelectedRowStyle.Render(line)
		} else {
			line = RowStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")

		if editing && edit.DropdownOpen {
			if name, _, _ := set.At(i); name == edit.Target {
				indent := 0
				for _, w := range widths[:fieldColumn[edit.Field]] {
					indent += w + 2
				}
				b.WriteString(lipgloss.NewStyle().MarginLeft(indent).Render(dropdown(edit)))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func joinCells(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = c + strings.Repeat(" ", widths[i]-ansi.StringWidth(c))
	}
	return strings.Join(padded, "  ")
}

func inColumn(c profile.Scope, f profile.Field) bool {
	switch c {
	case profile.ScopeUser:
		return f == profile.FieldUserAccount || f == profile.FieldUserProject
	case profile.ScopeADC:
		return f == profile.FieldADCAccount || f == profile.FieldADCQuotaProject
	}
	return true
}

// badge summarizes the last check of account.
func (m Model) badge(account string) string {
	st, ok := m.machine.Auth(account)
	if !ok {
		return UnknownStyle.Render("…")
	}
	switch st.State {
	case validate.Valid:
		return ValidStyle.Render("✓")
	case validate.Expired:
		return ExpiredStyle.Render("✗")
	}
	return UnknownStyle.Render("?")
}

// editValue renders the edit buffer with a block cursor.
func editValue(e *app.Edit) string {
	before := string(e.Buffer[:e.Cursor])
	at, after := " ", ""
	if e.Cursor < len(e.Buffer) {
		at = string(e.Buffer[e.Cursor])
		after = string(e.Buffer[e.Cursor+1:])
	}
	return EditFieldStyle.Render(before) + EditCursorStyle.Render(at) + EditFieldStyle.Render(after)
}

func dropdown(e *app.Edit) string {
	lines := make([]string, len(e.Suggestions))
	for i, s := range e.Suggestions {
		if i == e.Highlight {
			lines[i] = DropdownHighlightStyle.Render(s)
		} else {
			lines[i] = s
		}
	}
	return DropdownStyle.Render(strings.Join(lines, "\n"))
}
