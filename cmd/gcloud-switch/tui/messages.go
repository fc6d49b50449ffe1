package tui

import (
	"github.com/tjirsch/gcloud-switch/internal/deferred"
	"github.com/tjirsch/gcloud-switch/internal/validate"
)

// AuthResultMsg carries one finished credential check.
type AuthResultMsg struct{ Result validate.Result }

// ActionDoneMsg reports a drained deferred action.
type ActionDoneMsg struct{ Outcome deferred.Outcome }

// ProjectsMsg carries the projects listed for an account.
type ProjectsMsg struct {
	Account  string
	Projects []string
	Err      error
}

// KnownAccountsMsg carries the accounts gcloud holds credentials for.
type KnownAccountsMsg struct{ Accounts []string }

// EffectErrMsg reports a failed background gcloud call.
type EffectErrMsg struct {
	What string
	Err  error
}
