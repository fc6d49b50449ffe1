package validate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjirsch/gcloud-switch/internal/gcloud"
	"github.com/tjirsch/gcloud-switch/internal/profile"
)

// fakeOracle answers from a table. Accounts listed in gate block until a
// value is sent on their channel.
type fakeOracle struct {
	mu      sync.Mutex
	live    map[string]error
	gate    map[string]chan struct{}
	lookups map[string]int
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{
		live:    map[string]error{},
		gate:    map[string]chan struct{}{},
		lookups: map[string]int{},
	}
}

func (f *fakeOracle) Lookup(_ context.Context, account string) (*gcloud.Credential, error) {
	f.mu.Lock()
	f.lookups[account]++
	gate := f.gate[account]
	err, known := f.live[account]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if !known {
		return nil, fmt.Errorf("%s: %w", account, profile.ErrNotFound)
	}
	if errors.Is(err, errLookup) {
		return nil, err
	}
	return &gcloud.Credential{Account: account, RefreshToken: "rt"}, nil
}

func (f *fakeOracle) CheckLiveness(_ context.Context, c *gcloud.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live[c.Account]
}

func (f *fakeOracle) count(account string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups[account]
}

var errLookup = errors.New("database locked")

func receive(t *testing.T, s *Scheduler) Result {
	t.Helper()
	select {
	case r := <-s.Results():
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a result")
	}
	return Result{}
}

func TestCheck(t *testing.T) {
	o := newFakeOracle()
	o.live["ok@x.com"] = nil
	o.live["revoked@x.com"] = errors.New("invalid_grant")
	o.live["locked@x.com"] = errLookup

	ctx := context.Background()
	assert.Equal(t, Valid, Check(ctx, o, "ok@x.com"))
	assert.Equal(t, Expired, Check(ctx, o, "revoked@x.com"))
	assert.Equal(t, Expired, Check(ctx, o, "locked@x.com"))
	assert.Equal(t, Unknown, Check(ctx, o, "absent@x.com"))
}

func TestSchedule_Deduplicates(t *testing.T) {
	o := newFakeOracle()
	o.live["a@x.com"] = nil
	o.live["b@x.com"] = nil
	gate := make(chan struct{})
	o.gate["a@x.com"] = gate

	s := New(o, time.Second)
	defer s.Stop()

	started := s.Schedule("a@x.com", "", "a@x.com", "b@x.com")
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, started)
	assert.True(t, s.InFlight("a@x.com"))
	assert.Empty(t, s.Schedule("a@x.com"), "already in flight")

	r := receive(t, s)
	assert.Equal(t, "b@x.com", r.Account)
	assert.True(t, s.Complete(r))
	assert.Equal(t, Valid, r.Status.State)

	close(gate)
	r = receive(t, s)
	assert.Equal(t, "a@x.com", r.Account)
	assert.True(t, s.Complete(r))
	assert.False(t, s.InFlight("a@x.com"))

	assert.Empty(t, s.Schedule("a@x.com", "b@x.com"), "already checked this session")
	assert.Equal(t, 1, o.count("a@x.com"))
	assert.Equal(t, 1, o.count("b@x.com"))
}

func TestRecheck_SupersedesStaleResult(t *testing.T) {
	o := newFakeOracle()
	o.live["a@x.com"] = errors.New("invalid_grant")
	first := make(chan struct{})
	o.gate["a@x.com"] = first

	s := New(o, time.Second)
	defer s.Stop()

	require.Equal(t, []string{"a@x.com"}, s.Schedule("a@x.com"))
	require.Eventually(t, func() bool { return o.count("a@x.com") == 1 }, time.Second, time.Millisecond)

	// The second check does not block and sees a now-valid credential.
	o.mu.Lock()
	o.gate["a@x.com"] = nil
	o.live["a@x.com"] = nil
	o.mu.Unlock()
	require.Equal(t, []string{"a@x.com"}, s.Recheck("a@x.com"))

	fresh := receive(t, s)
	assert.Equal(t, uint64(2), fresh.Gen)
	assert.True(t, s.Complete(fresh))
	assert.Equal(t, Valid, fresh.Status.State)

	close(first)
	stale := receive(t, s)
	assert.Equal(t, uint64(1), stale.Gen)
	assert.False(t, s.Complete(stale), "an older check must not overwrite a newer one")
}

func TestSchedule_TimeoutFallsBackToExpired(t *testing.T) {
	o := newFakeOracle()
	o.live["slow@x.com"] = nil
	gate := make(chan struct{})
	o.gate["slow@x.com"] = gate
	defer close(gate)

	s := New(o, 20*time.Millisecond)
	defer s.Stop()

	s.Schedule("slow@x.com")
	r := receive(t, s)
	assert.Equal(t, Expired, r.Status.State)
	assert.True(t, s.Complete(r))
	assert.False(t, r.Status.CheckedAt.IsZero())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "valid", Valid.String())
	assert.Equal(t, "expired", Expired.String())
	assert.Equal(t, "unknown", Unknown.String())
}
