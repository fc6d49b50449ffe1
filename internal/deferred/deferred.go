// Package deferred runs actions that need exclusive use of the terminal.
//
// The UI pushes an Action and keeps drawing. A driver goroutine waiting on
// Ready calls Drain, which takes the terminal away from the UI, runs the
// action, and gives the terminal back before reporting the Outcome.
package deferred

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tjirsch/gcloud-switch/internal/profile"
)

// ErrBusy is returned by Push while another action is pending.
var ErrBusy = errors.New("another action is already pending")

// Kind is what an action does.
type Kind int

const (
	Activate Kind = iota
	ReAuthenticate
)

func (k Kind) String() string {
	if k == ReAuthenticate {
		return "re-authenticate"
	}
	return "activate"
}

// Action is a unit of work that needs the terminal.
type Action struct {
	Kind    Kind
	Name    string
	Profile profile.Profile
	Scope   profile.Scope
	// Then runs only if this action succeeded.
	Then *Action
	// QuitAfter asks the UI to exit once the whole chain succeeded.
	QuitAfter bool
}

// Outcome reports what happened to a drained action.
type Outcome struct {
	Action Action
	Err    error
	// Reauthenticated lists accounts whose login completed.
	Reauthenticated []string
	// Activated is set when an Activate step in the chain succeeded.
	Activated bool
	// ActivatedScope is the scope of the successful activation.
	ActivatedScope profile.Scope
}

// Quit reports whether the UI should exit after this outcome.
func (o Outcome) Quit() bool {
	if o.Err != nil {
		return false
	}
	for a := &o.Action; a != nil; a = a.Then {
		if a.QuitAfter {
			return true
		}
	}
	return false
}

// Terminal is what the UI gives up while an action runs. *tea.Program
// satisfies it.
type Terminal interface {
	ReleaseTerminal() error
	RestoreTerminal() error
}

// Runner executes the steps of an action.
type Runner interface {
	Activate(ctx context.Context, name string, p profile.Profile, scope profile.Scope) error
	Reauthenticate(ctx context.Context, name string, p profile.Profile, kind profile.Kind) error
}

// Queue holds at most one pending action.
type Queue struct {
	mu      sync.Mutex
	pending *Action
	ready   chan struct{}
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Push stores a as the pending action.
func (q *Queue) Push(a Action) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending != nil {
		return ErrBusy
	}
	q.pending = &a
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return nil
}

// Pending reports whether an action is queued or running.
func (q *Queue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending != nil
}

// Ready receives a value after each Push.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Drain runs the pending action, if any, with the terminal released. The
// slot is cleared whatever the result. Once started an action is not
// cancelled.
func (q *Queue) Drain(ctx context.Context, term Terminal, r Runner) (Outcome, bool) {
	q.mu.Lock()
	pending := q.pending
	q.mu.Unlock()
	if pending == nil {
		return Outcome{}, false
	}
	defer func() {
		q.mu.Lock()
		q.pending = nil
		q.mu.Unlock()
	}()

	out := Outcome{Action: *pending}
	if err := term.ReleaseTerminal(); err != nil {
		out.Err = fmt.Errorf("releasing terminal: %w", err)
		return out, true
	}

	out.Err = run(context.WithoutCancel(ctx), r, pending, &out)

	if err := term.RestoreTerminal(); err != nil {
		out.Err = errors.Join(out.Err, fmt.Errorf("restoring terminal: %w", err))
	}
	return out, true
}

func run(ctx context.Context, r Runner, a *Action, out *Outcome) error {
	for ; a != nil; a = a.Then {
		switch a.Kind {
		case Activate:
			if err := r.Activate(ctx, a.Name, a.Profile, a.Scope); err != nil {
				return fmt.Errorf("activating %q: %w", a.Name, err)
			}
			out.Activated = true
			out.ActivatedScope = a.Scope
		case ReAuthenticate:
			for _, kind := range a.Scope.Kinds() {
				if err := r.Reauthenticate(ctx, a.Name, a.Profile, kind); err != nil {
					return fmt.Errorf("re-authenticating %s credentials of %q: %w", kind, a.Name, err)
				}
				out.Reauthenticated = append(out.Reauthenticated, a.Profile.Account(kind))
			}
		}
	}
	return nil
}
