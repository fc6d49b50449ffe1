// Package app holds the interactive state machine behind the profile
// switcher UI. It has no knowledge of rendering or of how effects are
// carried out: keys and results go in, state and effects come out.
package app

import (
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/tjirsch/gcloud-switch/internal/deferred"
	"github.com/tjirsch/gcloud-switch/internal/profile"
	"github.com/tjirsch/gcloud-switch/internal/validate"
)

// Saver persists the profile collection and the session state.
type Saver interface {
	SaveProfiles(*profile.Set) error
	SaveState(profile.State) error
}

// Queue accepts actions that need the terminal.
type Queue interface {
	Push(deferred.Action) error
}

// BlobRemover deletes a profile's stored ADC credentials.
type BlobRemover interface {
	Delete(name string) error
}

// Mode is one of Normal, *Edit, *AddProfile or *ConfirmDelete.
type Mode interface {
	mode()
}

// Normal is the browsing mode.
type Normal struct{}

// ConfirmDelete waits for the user to confirm removal of Target.
type ConfirmDelete struct {
	Target string
}

func (Normal) mode()         {}
func (*ConfirmDelete) mode() {}

// Options configures a Machine.
type Options struct {
	Profiles *profile.Set
	State    profile.State
	Saver    Saver
	Queue    Queue
	// ADC is optional; without it deleting a profile leaves its blob alone.
	ADC BlobRemover
	// Now defaults to time.Now.
	Now func() time.Time
}

// Machine is the interaction state machine. It is not safe for concurrent
// use; the UI event loop owns it.
type Machine struct {
	profiles *profile.Set
	state    profile.State
	saver    Saver
	queue    Queue
	adc      BlobRemover
	now      func() time.Time

	auth     map[string]validate.Status
	known    []string
	projects map[string][]string

	selected  int
	mode      Mode
	status    string
	statusErr bool
	awaiting  bool
	effects   []Effect
}

// New returns a machine in Normal mode with the active profile selected and
// checks requested for every referenced account.
func New(opts Options) *Machine {
	set := opts.Profiles
	if set == nil {
		set = profile.NewSet()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	m := &Machine{
		profiles: set,
		state:    opts.State,
		saver:    opts.Saver,
		queue:    opts.Queue,
		adc:      opts.ADC,
		now:      now,
		auth:     make(map[string]validate.Status),
		projects: make(map[string][]string),
		mode:     Normal{},
	}
	if i := set.Index(opts.State.ActiveProfile); i >= 0 {
		m.selected = i
	}
	if accounts := set.Accounts(); len(accounts) > 0 {
		m.emit(ScheduleChecks{Accounts: accounts})
	}
	return m
}

// Profiles returns the profile collection. Callers must not modify it.
func (m *Machine) Profiles() *profile.Set { return m.profiles }

// State returns the session state.
func (m *Machine) State() profile.State { return m.state }

// Selected returns the index of the selected row.
func (m *Machine) Selected() int { return m.selected }

// SelectedName returns the name of the selected profile, or "".
func (m *Machine) SelectedName() string {
	name, _, _ := m.profiles.At(m.selected)
	return name
}

// Mode returns the current mode.
func (m *Machine) Mode() Mode { return m.mode }

// Status returns the status line and whether it reports an error.
func (m *Machine) Status() (string, bool) { return m.status, m.statusErr }

// Awaiting reports whether a deferred action has been pushed and not yet
// reported back. Keys are ignored meanwhile.
func (m *Machine) Awaiting() bool { return m.awaiting }

// Auth returns the last known status of account.
func (m *Machine) Auth(account string) (validate.Status, bool) {
	st, ok := m.auth[account]
	return st, ok
}

// Effects returns and clears the pending effects.
func (m *Machine) Effects() []Effect {
	out := m.effects
	m.effects = nil
	return out
}

// ApplyAuth records a current check result.
func (m *Machine) ApplyAuth(account string, st validate.Status) {
	m.auth[account] = st
}

// SetKnownAccounts records accounts gcloud holds credentials for.
func (m *Machine) SetKnownAccounts(accounts []string) {
	m.known = accounts
}

// SetProjects records the projects visible to account.
func (m *Machine) SetProjects(account string, projects []string) {
	m.projects[account] = projects
}

// ReportError shows a failure of work done outside the machine.
func (m *Machine) ReportError(what string, err error) {
	m.fail(fmt.Sprintf("%s: %v", what, err))
}

// ApplyOutcome feeds a finished deferred action back into the machine.
func (m *Machine) ApplyOutcome(out deferred.Outcome) {
	m.awaiting = false
	name := out.Action.Name

	if len(out.Reauthenticated) > 0 {
		m.emit(RecheckAccounts{Accounts: out.Reauthenticated})
	}
	if out.Activated {
		m.state.ActiveProfile = name
		m.saveState()
	}

	switch {
	case out.Err != nil:
		m.fail(out.Err.Error())
	case out.Activated:
		m.info(activatedMessage(name, out.ActivatedScope))
	default:
		m.info(fmt.Sprintf("Re-authenticated '%s'.", name))
	}

	if out.Quit() {
		m.emit(Quit{})
	}
}

func activatedMessage(name string, scope profile.Scope) string {
	switch scope {
	case profile.ScopeUser:
		return fmt.Sprintf("Activated user config for '%s'.", name)
	case profile.ScopeADC:
		return fmt.Sprintf("Activated ADC for '%s'.", name)
	}
	return fmt.Sprintf("Activated profile '%s'.", name)
}

// HandleKey applies one key. Keys are bubbletea key names such as "enter",
// "alt+enter" or "esc", or a single printable character.
func (m *Machine) HandleKey(key string) {
	if m.awaiting {
		return
	}
	switch md := m.mode.(type) {
	case Normal:
		m.handleNormal(key)
	case *Edit:
		m.handleEdit(md, key)
	case *AddProfile:
		m.handleAdd(md, key)
	case *ConfirmDelete:
		m.handleConfirmDelete(md, key)
	}
}

func (m *Machine) handleNormal(key string) {
	switch key {
	case "q", "esc", "ctrl+c":
		m.emit(Quit{})
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < m.profiles.Len()-1 {
			m.selected++
		}
	case "left", "h":
		m.setColumn(m.state.Column.Left())
	case "right", "l":
		m.setColumn(m.state.Column.Right())
	case "s":
		m.state.SyncMode = m.state.SyncMode.Next()
		if m.saveState() {
			m.info(fmt.Sprintf("Sync mode: %s.", m.state.SyncMode))
		}
	case "a", "n":
		m.startAdd()
	case "e":
		m.startEdit()
	case "d":
		if name := m.SelectedName(); name != "" {
			m.mode = &ConfirmDelete{Target: name}
			m.info(fmt.Sprintf("Delete profile '%s'? (y/n)", name))
		}
	case "enter":
		m.requestActivation(true)
	case "alt+enter":
		m.requestActivation(false)
	case "r":
		m.requestReauth()
	}
}

func (m *Machine) setColumn(c profile.Scope) {
	if c == m.state.Column {
		return
	}
	m.state.Column = c
	m.saveState()
}

// invalidKinds returns the legs of the selected column whose account is not
// known to be valid.
func (m *Machine) invalidKinds(p profile.Profile) []profile.Kind {
	var out []profile.Kind
	for _, k := range m.state.Column.Kinds() {
		if st, ok := m.auth[p.Account(k)]; !ok || st.State != validate.Valid {
			out = append(out, k)
		}
	}
	return out
}

func (m *Machine) requestActivation(quitAfter bool) {
	name, p, ok := m.profiles.At(m.selected)
	if !ok {
		return
	}
	activate := deferred.Action{
		Kind:      deferred.Activate,
		Name:      name,
		Profile:   p,
		Scope:     m.state.Column,
		QuitAfter: quitAfter,
	}
	invalid := m.invalidKinds(p)
	if len(invalid) == 0 {
		m.push(activate, fmt.Sprintf("Activating '%s'...", name))
		return
	}
	m.push(deferred.Action{
		Kind:    deferred.ReAuthenticate,
		Name:    name,
		Profile: p,
		Scope:   profile.ScopeOf(invalid),
		Then:    &activate,
	}, fmt.Sprintf("Re-authenticating '%s' before activation...", name))
}

func (m *Machine) requestReauth() {
	name, p, ok := m.profiles.At(m.selected)
	if !ok {
		return
	}
	m.push(deferred.Action{
		Kind:    deferred.ReAuthenticate,
		Name:    name,
		Profile: p,
		Scope:   m.state.Column,
	}, fmt.Sprintf("Re-authenticating '%s'...", name))
}

func (m *Machine) push(a deferred.Action, msg string) {
	if err := m.queue.Push(a); err != nil {
		m.fail(err.Error())
		return
	}
	m.awaiting = true
	m.info(msg)
}

func (m *Machine) handleConfirmDelete(md *ConfirmDelete, key string) {
	m.mode = Normal{}
	if key != "y" && key != "Y" {
		m.info("")
		return
	}
	name := md.Target
	if !m.profiles.Delete(name) {
		return
	}
	if m.selected >= m.profiles.Len() && m.selected > 0 {
		m.selected = m.profiles.Len() - 1
	}
	if !m.saveProfiles() {
		return
	}
	if m.adc != nil {
		if err := m.adc.Delete(name); err != nil {
			log.Warn("removing stored ADC credentials failed", "profile", name, "err", err)
		}
	}
	if m.state.ActiveProfile == name {
		m.state.ActiveProfile = ""
		m.saveState()
	}
	if m.state.SyncMode == profile.SyncStrict {
		m.emit(RemoveConfiguration{Name: name})
	}
	m.info(fmt.Sprintf("Deleted profile '%s'.", name))
}

func (m *Machine) saveProfiles() bool {
	if err := m.saver.SaveProfiles(m.profiles); err != nil {
		log.Error("saving profiles failed", "err", err)
		m.fail("SAVE FAILED: " + err.Error())
		return false
	}
	return true
}

func (m *Machine) saveState() bool {
	if err := m.saver.SaveState(m.state); err != nil {
		log.Error("saving state failed", "err", err)
		m.fail("saving state: " + err.Error())
		return false
	}
	return true
}

func (m *Machine) emit(e Effect) {
	m.effects = append(m.effects, e)
}

func (m *Machine) info(msg string) {
	m.status, m.statusErr = msg, false
}

func (m *Machine) fail(msg string) {
	m.status, m.statusErr = msg, true
}

// printable returns the rune of a single-character key.
func printable(key string) (rune, bool) {
	if utf8.RuneCountInString(key) != 1 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(key)
	return r, unicode.IsPrint(r)
}
