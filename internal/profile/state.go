package profile

import "fmt"

// Scope selects which half of a profile an operation targets.
type Scope int

const (
	ScopeBoth Scope = iota
	ScopeUser
	ScopeADC
)

func (s Scope) String() string {
	switch s {
	case ScopeUser:
		return "user"
	case ScopeADC:
		return "adc"
	default:
		return "both"
	}
}

// Left moves one column towards Both, clamped.
func (s Scope) Left() Scope {
	if s == ScopeBoth {
		return ScopeBoth
	}
	return s - 1
}

// Right moves one column towards ADC, clamped.
func (s Scope) Right() Scope {
	if s == ScopeADC {
		return ScopeADC
	}
	return s + 1
}

// Kinds returns the credential legs covered by the scope.
func (s Scope) Kinds() []Kind {
	switch s {
	case ScopeUser:
		return []Kind{KindUser}
	case ScopeADC:
		return []Kind{KindADC}
	default:
		return []Kind{KindUser, KindADC}
	}
}

// ParseScope parses "both", "user" or "adc".
func ParseScope(s string) (Scope, error) {
	switch s {
	case "", "both":
		return ScopeBoth, nil
	case "user":
		return ScopeUser, nil
	case "adc":
		return ScopeADC, nil
	}
	return ScopeBoth, fmt.Errorf("%w: scope %q (want both, user or adc)", ErrInvalid, s)
}

// ScopeOf returns the narrowest scope covering kinds.
func ScopeOf(kinds []Kind) Scope {
	var user, adc bool
	for _, k := range kinds {
		if k == KindADC {
			adc = true
		} else {
			user = true
		}
	}
	switch {
	case user && !adc:
		return ScopeUser
	case adc && !user:
		return ScopeADC
	}
	return ScopeBoth
}

// SyncMode controls how profiles track gcloud configurations.
type SyncMode int

const (
	// SyncStrict adds and removes profiles to mirror gcloud configurations.
	SyncStrict SyncMode = iota
	// SyncAddOnly imports new configurations but never removes profiles.
	SyncAddOnly
	// SyncOff leaves profiles and configurations independent.
	SyncOff
)

func (m SyncMode) String() string {
	switch m {
	case SyncAddOnly:
		return "add"
	case SyncOff:
		return "off"
	default:
		return "strict"
	}
}

// Next cycles Strict -> AddOnly -> Off -> Strict.
func (m SyncMode) Next() SyncMode {
	switch m {
	case SyncStrict:
		return SyncAddOnly
	case SyncAddOnly:
		return SyncOff
	default:
		return SyncStrict
	}
}

// ParseSyncMode parses "strict", "add" or "off".
func ParseSyncMode(s string) (SyncMode, error) {
	switch s {
	case "", "strict":
		return SyncStrict, nil
	case "add", "addonly", "add-only":
		return SyncAddOnly, nil
	case "off":
		return SyncOff, nil
	}
	return SyncStrict, fmt.Errorf("%w: sync mode %q", ErrInvalid, s)
}

// State is the per-device session state persisted next to the profiles.
type State struct {
	ActiveProfile string
	Column        Scope
	SyncMode      SyncMode
	// SyncRevision is the remote revision last merged or published.
	SyncRevision string
}
