// Package validate checks gcloud credentials in the background.
//
// Each account is checked on its own goroutine. Results travel back over a
// channel to the single owner of the auth map, which calls Complete to learn
// whether a result is still current. A recheck supersedes any earlier check
// for the same account, so a late answer from an old check is dropped.
package validate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tjirsch/gcloud-switch/internal/gcloud"
	"github.com/tjirsch/gcloud-switch/internal/profile"
)

// DefaultTimeout bounds a single check.
const DefaultTimeout = 20 * time.Second

// State is the outcome of a credential check.
type State int

const (
	Unknown State = iota
	Valid
	Expired
)

func (s State) String() string {
	switch s {
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Status is the last known auth state of an account.
type Status struct {
	State     State
	CheckedAt time.Time
}

// Oracle is the credential source a check consults.
type Oracle interface {
	Lookup(ctx context.Context, account string) (*gcloud.Credential, error)
	CheckLiveness(ctx context.Context, c *gcloud.Credential) error
}

// Result is delivered once per started check.
type Result struct {
	Account string
	Status  Status
	Gen     uint64
}

// Check runs one synchronous check. A missing credential is Unknown; any
// other failure is Expired.
func Check(ctx context.Context, o Oracle, account string) State {
	cred, err := o.Lookup(ctx, account)
	if errors.Is(err, profile.ErrNotFound) {
		return Unknown
	}
	if err != nil {
		return Expired
	}
	if err := o.CheckLiveness(ctx, cred); err != nil {
		return Expired
	}
	return Valid
}

// Scheduler starts and deduplicates background checks.
type Scheduler struct {
	oracle  Oracle
	timeout time.Duration
	now     func() time.Time
	results chan Result

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	gen      map[string]uint64
	inFlight map[string]bool
	checked  map[string]bool
}

// New returns a scheduler. A non-positive timeout means DefaultTimeout.
func New(o Oracle, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		oracle:   o,
		timeout:  timeout,
		now:      time.Now,
		results:  make(chan Result, 16),
		ctx:      ctx,
		cancel:   cancel,
		gen:      make(map[string]uint64),
		inFlight: make(map[string]bool),
		checked:  make(map[string]bool),
	}
}

// Results delivers finished checks.
func (s *Scheduler) Results() <-chan Result {
	return s.results
}

// Schedule starts a check for every non-empty account that is neither in
// flight nor already checked this session, and returns those started.
func (s *Scheduler) Schedule(accounts ...string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var started []string
	for _, a := range accounts {
		if a == "" || s.inFlight[a] || s.checked[a] {
			continue
		}
		s.startLocked(a)
		started = append(started, a)
	}
	return started
}

// Recheck starts a fresh check for each account, superseding any check in
// flight.
func (s *Scheduler) Recheck(accounts ...string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var started []string
	for _, a := range accounts {
		if a == "" {
			continue
		}
		s.startLocked(a)
		started = append(started, a)
	}
	return started
}

// InFlight reports whether a check for account has not yet been completed.
func (s *Scheduler) InFlight(account string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[account]
}

// Complete reports whether r is the latest check for its account. Only then
// should the owner apply it.
func (s *Scheduler) Complete(r Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[r.Account] != r.Gen {
		return false
	}
	delete(s.inFlight, r.Account)
	s.checked[r.Account] = true
	return true
}

// Stop abandons every outstanding check. Results not yet delivered are
// dropped.
func (s *Scheduler) Stop() {
	s.cancel()
}

func (s *Scheduler) startLocked(account string) {
	s.gen[account]++
	s.inFlight[account] = true
	go s.run(account, s.gen[account])
}

func (s *Scheduler) run(account string, gen uint64) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	done := make(chan State, 1)
	go func() { done <- Check(ctx, s.oracle, account) }()

	var st State
	select {
	case st = <-done:
	case <-ctx.Done():
		st = Expired
	}

	r := Result{Account: account, Status: Status{State: st, CheckedAt: s.now()}, Gen: gen}
	select {
	case s.results <- r:
	case <-s.ctx.Done():
	}
}
