package app

import (
	"fmt"
	"strings"

	"github.com/tjirsch/gcloud-switch/internal/profile"
)

// AddStep is one prompt of the add-profile wizard.
type AddStep int

const (
	StepName AddStep = iota
	StepUserAccount
	StepUserProject
	StepADCAccount
	StepADCQuotaProject
)

// AddProfile collects a new profile one field at a time.
type AddProfile struct {
	Step      AddStep
	Name      string
	Collected profile.Profile
	Buffer    []rune
}

func (*AddProfile) mode() {}

// Default returns the value an empty answer accepts at the current step.
func (a *AddProfile) Default() string {
	switch a.Step {
	case StepADCAccount:
		return a.Collected.UserAccount
	case StepADCQuotaProject:
		return a.Collected.UserProject
	}
	return ""
}

// Prompt describes the current step.
func (a *AddProfile) Prompt() string {
	switch a.Step {
	case StepName:
		return "Enter profile name:"
	case StepUserAccount:
		return "Enter user account (email):"
	case StepUserProject:
		return "Enter user project:"
	case StepADCAccount:
		return fmt.Sprintf("Enter ADC account [%s]:", a.Default())
	default:
		return fmt.Sprintf("Enter ADC quota project [%s]:", a.Default())
	}
}

func (m *Machine) startAdd() {
	a := &AddProfile{Step: StepName}
	m.mode = a
	m.info(a.Prompt())
}

func (m *Machine) handleAdd(a *AddProfile, key string) {
	switch key {
	case "esc":
		m.mode = Normal{}
		m.info("")
	case "backspace":
		if n := len(a.Buffer); n > 0 {
			a.Buffer = a.Buffer[:n-1]
		}
	case "enter":
		m.advanceAdd(a)
	default:
		if r, ok := printable(key); ok {
			a.Buffer = append(a.Buffer, r)
		}
	}
}

func (m *Machine) advanceAdd(a *AddProfile) {
	value := strings.TrimSpace(string(a.Buffer))
	if value == "" {
		value = a.Default()
	}
	if value == "" {
		m.fail("A value is required. " + a.Prompt())
		return
	}

	switch a.Step {
	case StepName:
		if strings.ContainsAny(value, `/\`) {
			m.fail(fmt.Sprintf("Profile name '%s' may not contain slashes.", value))
			return
		}
		if m.profiles.Has(value) {
			m.fail(fmt.Sprintf("Profile '%s' already exists.", value))
			return
		}
		a.Name = value
	case StepUserAccount:
		a.Collected.UserAccount = value
	case StepUserProject:
		a.Collected.UserProject = value
	case StepADCAccount:
		a.Collected.ADCAccount = value
	case StepADCQuotaProject:
		a.Collected.ADCQuotaProject = value
		m.finishAdd(a)
		return
	}
	a.Step++
	a.Buffer = nil
	m.info(a.Prompt())
}

func (m *Machine) finishAdd(a *AddProfile) {
	p := a.Collected
	p.Touch(m.now())
	m.mode = Normal{}
	if err := m.profiles.Add(a.Name, p); err != nil {
		m.fail(err.Error())
		return
	}
	m.selected = m.profiles.Index(a.Name)
	if !m.saveProfiles() {
		return
	}
	m.info(fmt.Sprintf("Profile '%s' added.", a.Name))
	m.emit(ScheduleChecks{Accounts: []string{p.UserAccount, p.ADCAccount}})
	if m.state.SyncMode != profile.SyncOff {
		m.emit(CreateConfiguration{Name: a.Name, Profile: p})
	}
}
