package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/tjirsch/gcloud-switch/internal/gcloud"
	"github.com/tjirsch/gcloud-switch/internal/profile"
)

// Reconciliation lists what aligning profiles with gcloud changed.
type Reconciliation struct {
	Imported []string
	Removed  []string
	// Skipped names configurations that lack an account or project.
	Skipped []string
	// Active is the new active profile when it changed.
	Active string
}

// Changed reports whether the profiles or the state were modified.
func (r Reconciliation) Changed() bool {
	return len(r.Imported) > 0 || len(r.Removed) > 0 || r.Active != ""
}

// Import adds every gcloud configuration without a profile of the same name.
// When anything was imported and gcloud's active configuration names a
// profile, that profile becomes active.
func Import(set *profile.Set, st *profile.State, configs []gcloud.Configuration, active string, now time.Time) Reconciliation {
	var r Reconciliation
	importNew(set, configs, now, &r)
	if len(r.Imported) > 0 {
		followActive(set, st, active, &r)
	}
	return r
}

// Reconcile aligns profiles with gcloud configurations at startup. With no
// profiles at all it imports everything. Otherwise AddOnly imports new
// configurations and Strict also removes profiles whose configuration is
// gone. In every mode the active profile follows gcloud's active
// configuration.
func Reconcile(set *profile.Set, st *profile.State, configs []gcloud.Configuration, active string, now time.Time) Reconciliation {
	if set.Len() == 0 {
		return Import(set, st, configs, active, now)
	}

	var r Reconciliation
	if st.SyncMode != profile.SyncOff {
		importNew(set, configs, now, &r)
	}
	if st.SyncMode == profile.SyncStrict {
		present := make(map[string]bool, len(configs))
		for _, c := range configs {
			present[c.Name] = true
		}
		for _, name := range set.Names() {
			if present[name] {
				continue
			}
			set.Delete(name)
			r.Removed = append(r.Removed, name)
			if st.ActiveProfile == name {
				st.ActiveProfile = ""
			}
		}
	}
	followActive(set, st, active, &r)
	return r
}

// DropCredentials deletes the stored ADC credentials of removed profiles.
// Every name is tried; failures are joined.
func (r Reconciliation) DropCredentials(b BlobRemover) error {
	var errs []error
	for _, name := range r.Removed {
		if err := b.Delete(name); err != nil {
			errs = append(errs, fmt.Errorf("removing ADC credentials of %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func importNew(set *profile.Set, configs []gcloud.Configuration, now time.Time, r *Reconciliation) {
	for _, c := range configs {
		if set.Has(c.Name) {
			continue
		}
		p := profile.New(c.Account, c.Project, "", "")
		if p.Validate() != nil {
			r.Skipped = append(r.Skipped, c.Name)
			continue
		}
		p.Touch(now)
		set.Put(c.Name, p)
		r.Imported = append(r.Imported, c.Name)
	}
}

func followActive(set *profile.Set, st *profile.State, active string, r *Reconciliation) {
	if active == "" || !set.Has(active) || st.ActiveProfile == active {
		return
	}
	st.ActiveProfile = active
	r.Active = active
}
