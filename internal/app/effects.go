package app

import "github.com/tjirsch/gcloud-switch/internal/profile"

// Effect is a request from the machine to the world outside it. The
// presentation layer drains effects after every event and carries them out.
type Effect interface {
	effect()
}

// ScheduleChecks asks for validity checks of accounts not yet checked.
type ScheduleChecks struct{ Accounts []string }

// RecheckAccounts asks for fresh checks, superseding earlier ones.
type RecheckAccounts struct{ Accounts []string }

// CreateConfiguration asks for a gcloud configuration mirroring the
// profile's user half. Failures are reported back but never undo the profile.
type CreateConfiguration struct {
	Name    string
	Profile profile.Profile
}

// RemoveConfiguration asks for the gcloud configuration of a deleted profile
// to be removed.
type RemoveConfiguration struct{ Name string }

// ListProjects asks for the projects visible to an account, for suggestions.
type ListProjects struct{ Account string }

// Quit asks the presentation layer to exit.
type Quit struct{}

func (ScheduleChecks) effect()      {}
func (RecheckAccounts) effect()     {}
func (CreateConfiguration) effect() {}
func (RemoveConfiguration) effect() {}
func (ListProjects) effect()        {}
func (Quit) effect()                {}
