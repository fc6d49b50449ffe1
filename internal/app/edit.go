package app

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tjirsch/gcloud-switch/internal/profile"
)

// Edit changes one half of a profile in place. Field is the field under the
// cursor; values typed into the other field of the same half are kept in
// Staged until the edit is committed.
type Edit struct {
	Target string
	Field  profile.Field
	Buffer []rune
	Cursor int

	Suggestions  []string
	Highlight    int
	DropdownOpen bool

	Staged map[profile.Field]string
}

func (*Edit) mode() {}

// Value returns the buffer as a string.
func (e *Edit) Value() string { return string(e.Buffer) }

func (e *Edit) load(s string) {
	e.Buffer = []rune(s)
	e.Cursor = len(e.Buffer)
}

func (e *Edit) closeDropdown() {
	e.DropdownOpen = false
	e.Suggestions = nil
	e.Highlight = 0
}

func (m *Machine) startEdit() {
	name, p, ok := m.profiles.At(m.selected)
	if !ok {
		return
	}
	field := profile.FieldUserAccount
	if m.state.Column == profile.ScopeADC {
		field = profile.FieldADCAccount
	}
	e := &Edit{Target: name, Field: field, Staged: make(map[profile.Field]string)}
	e.load(p.Field(field))
	m.mode = e
	m.requestProjects(p.Field(field))
	m.info("Edit: Tab other field  ↓ suggestions  Enter save  Esc cancel")
}

func (m *Machine) requestProjects(account string) {
	if account == "" {
		return
	}
	if _, ok := m.projects[account]; ok {
		return
	}
	m.emit(ListProjects{Account: account})
}

func (m *Machine) handleEdit(e *Edit, key string) {
	if e.DropdownOpen {
		switch key {
		case "up":
			if e.Highlight > 0 {
				e.Highlight--
			}
			return
		case "down":
			if e.Highlight < len(e.Suggestions)-1 {
				e.Highlight++
			}
			return
		case "enter":
			if e.Highlight < len(e.Suggestions) {
				e.load(e.Suggestions[e.Highlight])
			}
			e.closeDropdown()
			return
		case "esc":
			e.closeDropdown()
			return
		}
		e.closeDropdown()
	}

	switch key {
	case "esc":
		m.mode = Normal{}
		m.info("Edit cancelled.")
	case "enter":
		m.commitEdit(e)
	case "tab":
		m.switchEditField(e)
	case "down":
		m.openDropdown(e)
	case "left":
		if e.Cursor > 0 {
			e.Cursor--
		}
	case "right":
		if e.Cursor < len(e.Buffer) {
			e.Cursor++
		}
	case "home", "ctrl+a":
		e.Cursor = 0
	case "end", "ctrl+e":
		e.Cursor = len(e.Buffer)
	case "backspace":
		if e.Cursor > 0 {
			e.Buffer = slices.Delete(e.Buffer, e.Cursor-1, e.Cursor)
			e.Cursor--
		}
	case "delete":
		if e.Cursor < len(e.Buffer) {
			e.Buffer = slices.Delete(e.Buffer, e.Cursor, e.Cursor+1)
		}
	default:
		if r, ok := printable(key); ok {
			e.Buffer = slices.Insert(e.Buffer, e.Cursor, r)
			e.Cursor++
		}
	}
}

// fieldValue returns the staged value of f, or the profile's own.
func (m *Machine) fieldValue(e *Edit, f profile.Field) string {
	if v, ok := e.Staged[f]; ok {
		return v
	}
	p, _ := m.profiles.Get(e.Target)
	return p.Field(f)
}

func (m *Machine) switchEditField(e *Edit) {
	e.Staged[e.Field] = strings.TrimSpace(e.Value())
	e.Field = e.Field.Companion()
	e.load(m.fieldValue(e, e.Field))
	if !e.Field.IsAccount() {
		m.requestProjects(m.fieldValue(e, e.Field.Companion()))
	}
}

func (m *Machine) openDropdown(e *Edit) {
	candidates := m.candidates(e)
	if len(candidates) == 0 {
		m.info("No suggestions.")
		return
	}
	e.Suggestions = candidates
	e.Highlight = 0
	e.DropdownOpen = true
}

// candidates returns suggestion values for the field being edited, filtered
// by a case-insensitive prefix of the buffer, sorted and without duplicates.
func (m *Machine) candidates(e *Edit) []string {
	var pool []string
	if e.Field.IsAccount() {
		pool = append(m.profiles.Accounts(), m.known...)
	} else {
		pool = append(m.profiles.Projects(), m.projects[m.fieldValue(e, e.Field.Companion())]...)
	}
	prefix := strings.ToLower(strings.TrimSpace(e.Value()))
	var out []string
	for _, c := range pool {
		if c != "" && strings.HasPrefix(strings.ToLower(c), prefix) {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (m *Machine) commitEdit(e *Edit) {
	values := make(map[profile.Field]string, len(e.Staged)+1)
	for f, v := range e.Staged {
		values[f] = v
	}
	values[e.Field] = strings.TrimSpace(e.Value())
	for f, v := range values {
		if v == "" {
			m.fail(fmt.Sprintf("%s cannot be empty.", f))
			return
		}
	}

	old, ok := m.profiles.Get(e.Target)
	if !ok {
		m.mode = Normal{}
		m.fail(fmt.Sprintf("profile '%s' no longer exists", e.Target))
		return
	}
	updated := old.Clone()
	for f, v := range values {
		updated.SetField(f, v)
	}
	m.mode = Normal{}
	if updated.SameContent(old) {
		m.info("No changes.")
		return
	}
	updated.Touch(m.now())
	m.profiles.Put(e.Target, updated)
	if !m.saveProfiles() {
		return
	}
	m.info(fmt.Sprintf("Profile '%s' updated.", e.Target))

	m.emit(ScheduleChecks{Accounts: []string{updated.UserAccount, updated.ADCAccount}})
	userChanged := updated.UserAccount != old.UserAccount || updated.UserProject != old.UserProject
	if userChanged && m.state.SyncMode != profile.SyncOff {
		m.emit(CreateConfiguration{Name: e.Target, Profile: updated})
	}
}
