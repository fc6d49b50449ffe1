package deferred

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjirsch/gcloud-switch/internal/profile"
)

// journal records terminal hand-offs and runner calls in order.
type journal struct {
	events []string
	fail   map[string]error
}

func (j *journal) ReleaseTerminal() error {
	j.events = append(j.events, "release")
	return j.fail["release"]
}

func (j *journal) RestoreTerminal() error {
	j.events = append(j.events, "restore")
	return nil
}

func (j *journal) Activate(_ context.Context, name string, _ profile.Profile, scope profile.Scope) error {
	ev := fmt.Sprintf("activate %s %s", name, scope)
	j.events = append(j.events, ev)
	return j.fail[ev]
}

func (j *journal) Reauthenticate(_ context.Context, name string, _ profile.Profile, kind profile.Kind) error {
	ev := fmt.Sprintf("reauth %s %s", name, kind)
	j.events = append(j.events, ev)
	return j.fail[ev]
}

var work = profile.New("me@corp.com", "corp-dev", "sa@corp.com", "billing")

func TestPush_SingleSlot(t *testing.T) {
	q := New()
	assert.False(t, q.Pending())
	require.NoError(t, q.Push(Action{Kind: Activate, Name: "work"}))
	assert.True(t, q.Pending())
	assert.ErrorIs(t, q.Push(Action{Kind: Activate, Name: "home"}), ErrBusy)

	select {
	case <-q.Ready():
	default:
		t.Fatal("push did not signal ready")
	}
}

func TestDrain_Empty(t *testing.T) {
	q := New()
	j := &journal{}
	_, ok := q.Drain(context.Background(), j, j)
	assert.False(t, ok)
	assert.Empty(t, j.events, "terminal untouched when nothing is pending")
}

func TestDrain_ReleasesAroundExecution(t *testing.T) {
	q := New()
	j := &journal{}
	require.NoError(t, q.Push(Action{Kind: Activate, Name: "work", Profile: work, Scope: profile.ScopeUser}))

	out, ok := q.Drain(context.Background(), j, j)
	require.True(t, ok)
	require.NoError(t, out.Err)
	assert.True(t, out.Activated)
	assert.Equal(t, profile.ScopeUser, out.ActivatedScope)
	assert.Equal(t, []string{"release", "activate work user", "restore"}, j.events)
	assert.False(t, q.Pending(), "slot cleared after execution")
	assert.False(t, out.Quit())
}

func TestDrain_ReauthThenActivate(t *testing.T) {
	q := New()
	j := &journal{}
	require.NoError(t, q.Push(Action{
		Kind: ReAuthenticate, Name: "work", Profile: work, Scope: profile.ScopeBoth,
		Then: &Action{Kind: Activate, Name: "work", Profile: work, Scope: profile.ScopeBoth, QuitAfter: true},
	}))

	out, _ := q.Drain(context.Background(), j, j)
	require.NoError(t, out.Err)
	assert.Equal(t, []string{
		"release",
		"reauth work user",
		"reauth work adc",
		"activate work both",
		"restore",
	}, j.events)
	assert.Equal(t, []string{"me@corp.com", "sa@corp.com"}, out.Reauthenticated)
	assert.True(t, out.Activated)
	assert.True(t, out.Quit())
}

func TestDrain_FailureSkipsFollowUpAndStillRestores(t *testing.T) {
	q := New()
	boom := errors.New("login cancelled")
	j := &journal{fail: map[string]error{"reauth work adc": boom}}
	require.NoError(t, q.Push(Action{
		Kind: ReAuthenticate, Name: "work", Profile: work, Scope: profile.ScopeADC,
		Then: &Action{Kind: Activate, Name: "work", Profile: work, Scope: profile.ScopeADC, QuitAfter: true},
	}))

	out, _ := q.Drain(context.Background(), j, j)
	assert.ErrorIs(t, out.Err, boom)
	assert.False(t, out.Activated)
	assert.False(t, out.Quit())
	assert.Empty(t, out.Reauthenticated)
	assert.Equal(t, []string{"release", "reauth work adc", "restore"}, j.events)
	assert.False(t, q.Pending())
	require.NoError(t, q.Push(Action{Kind: Activate, Name: "work"}), "slot reusable after a failure")
}

func TestDrain_ReleaseFailureRunsNothing(t *testing.T) {
	q := New()
	j := &journal{fail: map[string]error{"release": errors.New("no tty")}}
	require.NoError(t, q.Push(Action{Kind: Activate, Name: "work", Profile: work}))

	out, ok := q.Drain(context.Background(), j, j)
	require.True(t, ok)
	assert.Error(t, out.Err)
	assert.Equal(t, []string{"release"}, j.events)
	assert.False(t, q.Pending())
}
