// Package merge reconciles two copies of a profile collection.
package merge

import (
	"fmt"

	"github.com/tjirsch/gcloud-switch/internal/profile"
)

// Conflict is a profile changed on both sides with no determinable newer
// version.
type Conflict struct {
	Name   string
	Local  profile.Profile
	Remote profile.Profile
}

// Choice selects the side that wins a conflict.
type Choice int

const (
	KeepLocal Choice = iota
	KeepRemote
)

func (c Choice) String() string {
	if c == KeepRemote {
		return "remote"
	}
	return "local"
}

// ParseChoice parses "local" or "remote".
func ParseChoice(s string) (Choice, error) {
	switch s {
	case "local":
		return KeepLocal, nil
	case "remote":
		return KeepRemote, nil
	}
	return KeepLocal, fmt.Errorf("%w: choice %q (want local or remote)", profile.ErrInvalid, s)
}

// Result is the outcome of merging two sets. Conflicting names are absent
// from Merged.
type Result struct {
	Merged    *profile.Set
	Conflicts []Conflict
}

// Profiles merges remote into local. Neither input is modified.
//
// A name on one side only is taken as is. When both sides hold the same
// identity fields the local copy is kept. Otherwise the strictly newer
// UpdatedAt wins, a missing timestamp counting as oldest; equal or
// missing-on-both timestamps yield a Conflict. Merged keeps local order and
// appends remote-only names in remote order.
func Profiles(local, remote *profile.Set) Result {
	res := Result{Merged: profile.NewSet()}
	if local != nil {
		kept := local.Clone()
		res.Merged.Extra = kept.Extra
		res.Merged.Invalid = kept.Invalid
	}

	for _, name := range local.Names() {
		l, _ := local.Get(name)
		r, inRemote := remote.Get(name)
		switch {
		case !inRemote, l.SameContent(r):
			res.Merged.Put(name, l.Clone())
		default:
			switch compare(l, r) {
			case 1:
				res.Merged.Put(name, l.Clone())
			case -1:
				res.Merged.Put(name, r.Clone())
			default:
				res.Conflicts = append(res.Conflicts, Conflict{Name: name, Local: l.Clone(), Remote: r.Clone()})
			}
		}
	}

	for _, name := range remote.Names() {
		if local.Has(name) {
			continue
		}
		r, _ := remote.Get(name)
		res.Merged.Put(name, r.Clone())
	}
	return res
}

// compare orders two versions by UpdatedAt: 1 if a is newer, -1 if b is
// newer, 0 if no order can be determined.
func compare(a, b profile.Profile) int {
	switch {
	case a.UpdatedAt == nil && b.UpdatedAt == nil:
		return 0
	case b.UpdatedAt == nil:
		return 1
	case a.UpdatedAt == nil:
		return -1
	case a.UpdatedAt.After(*b.UpdatedAt):
		return 1
	case b.UpdatedAt.After(*a.UpdatedAt):
		return -1
	}
	return 0
}

// Resolve applies choices to the conflicts and returns the resulting set
// together with the conflicts that had no choice. Resolved profiles are
// placed where the local set had them; unresolved ones are left out.
func (r Result) Resolve(local *profile.Set, choices map[string]Choice) (*profile.Set, []Conflict) {
	chosen := make(map[string]profile.Profile)
	var unresolved []Conflict
	for _, c := range r.Conflicts {
		choice, ok := choices[c.Name]
		if !ok {
			unresolved = append(unresolved, c)
			continue
		}
		if choice == KeepRemote {
			chosen[c.Name] = c.Remote.Clone()
		} else {
			chosen[c.Name] = c.Local.Clone()
		}
	}
	return r.ordered(local, chosen), unresolved
}

// KeepLocalFor returns the merged set with every listed conflict held at its
// local version, in local order.
func (r Result) KeepLocalFor(local *profile.Set, conflicts []Conflict) *profile.Set {
	held := make(map[string]profile.Profile, len(conflicts))
	for _, c := range conflicts {
		held[c.Name] = c.Local.Clone()
	}
	return r.ordered(local, held)
}

// ordered rebuilds Merged with extra entries slotted into local order.
func (r Result) ordered(local *profile.Set, extra map[string]profile.Profile) *profile.Set {
	out := profile.NewSet()
	kept := r.Merged.Clone()
	out.Extra = kept.Extra
	out.Invalid = kept.Invalid
	for _, name := range local.Names() {
		if p, ok := extra[name]; ok {
			out.Put(name, p)
			continue
		}
		if p, ok := r.Merged.Get(name); ok {
			out.Put(name, p.Clone())
		}
	}
	for _, name := range r.Merged.Names() {
		if !out.Has(name) {
			p, _ := r.Merged.Get(name)
			out.Put(name, p.Clone())
		}
	}
	return out
}
