package store

import (
	"fmt"
	"maps"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/tjirsch/gcloud-switch/internal/profile"
)

// FormatVersion is written as the top-level "version" key of profiles.toml.
const FormatVersion = 1

const (
	keyVersion         = "version"
	keyProfiles        = "profiles"
	keyName            = "name"
	keyUserAccount     = "user_account"
	keyUserProject     = "user_project"
	keyADCAccount      = "adc_account"
	keyADCQuotaProject = "adc_quota_project"
	keyUpdatedAt       = "updated_at"
)

var knownProfileKeys = []string{
	keyName, keyUserAccount, keyUserProject, keyADCAccount, keyADCQuotaProject, keyUpdatedAt,
}

// Skipped describes a profile entry that could not be loaded.
type Skipped struct {
	Name   string
	Reason string
}

// ParseProfiles decodes profiles.toml. Entries that are malformed are skipped
// and reported instead of failing the whole load; the tables of skipped
// entries are kept in Set.Invalid so a save does not lose them. Entries that
// are not tables at all cannot be written back and are dropped. Both the current
// [[profiles]] array form and the older [profiles.<name>] table form are read.
func ParseProfiles(data []byte) (*profile.Set, []Skipped, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("parsing profiles: %w: %w", profile.ErrInvalid, err)
	}

	set := profile.NewSet()
	var skipped []Skipped

	switch entries := raw[keyProfiles].(type) {
	case nil:
	case []any:
		for i, e := range entries {
			table, ok := e.(map[string]any)
			if !ok {
				skipped = append(skipped, Skipped{Name: fmt.Sprintf("#%d", i), Reason: "not a table"})
				continue
			}
			name, _ := table[keyName].(string)
			name = strings.TrimSpace(name)
			if name == "" {
				skipped = append(skipped, Skipped{Name: fmt.Sprintf("#%d", i), Reason: "missing name"})
				set.Invalid = append(set.Invalid, table)
				continue
			}
			addDecoded(set, name, table, &skipped)
		}
	case map[string]any:
		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			table, ok := entries[name].(map[string]any)
			if !ok {
				skipped = append(skipped, Skipped{Name: name, Reason: "not a table"})
				continue
			}
			if _, ok := table[keyName]; !ok {
				table[keyName] = name
			}
			addDecoded(set, name, table, &skipped)
		}
	default:
		return nil, nil, fmt.Errorf("parsing profiles: %w: unexpected %q value", profile.ErrInvalid, keyProfiles)
	}

	for k, v := range raw {
		if k == keyProfiles || k == keyVersion {
			continue
		}
		if set.Extra == nil {
			set.Extra = make(map[string]any)
		}
		set.Extra[k] = v
	}
	return set, skipped, nil
}

func addDecoded(set *profile.Set, name string, table map[string]any, skipped *[]Skipped) {
	if set.Has(name) {
		*skipped = append(*skipped, Skipped{Name: name, Reason: "duplicate name"})
		set.Invalid = append(set.Invalid, table)
		return
	}
	p, err := decodeProfile(table)
	if err != nil {
		*skipped = append(*skipped, Skipped{Name: name, Reason: err.Error()})
		set.Invalid = append(set.Invalid, table)
		return
	}
	set.Put(name, p)
}

func decodeProfile(table map[string]any) (profile.Profile, error) {
	var p profile.Profile
	fields := []struct {
		key string
		dst *string
	}{
		{keyUserAccount, &p.UserAccount},
		{keyUserProject, &p.UserProject},
		{keyADCAccount, &p.ADCAccount},
		{keyADCQuotaProject, &p.ADCQuotaProject},
	}
	for _, f := range fields {
		v, ok := table[f.key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return p, fmt.Errorf("%s is not a string", f.key)
		}
		*f.dst = strings.TrimSpace(s)
	}
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return p, err
	}

	if v, ok := table[keyUpdatedAt]; ok {
		ts, err := decodeTime(v)
		if err != nil {
			return p, err
		}
		p.UpdatedAt = &ts
	}

	for k, v := range table {
		if isKnownKey(k) {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[k] = v
	}
	return p, nil
}

func decodeTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case toml.LocalDateTime:
		return t.AsTime(time.UTC), nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case string:
		ts, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("updated_at: %w", err)
		}
		return ts.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("updated_at has unsupported type %T", v)
}

func isKnownKey(k string) bool {
	for _, known := range knownProfileKeys {
		if k == known {
			return true
		}
	}
	return false
}

// MarshalProfiles encodes a set as profiles.toml, keeping display order and
// any unknown keys that were loaded. Entries that failed to load follow the
// valid ones unchanged.
func MarshalProfiles(set *profile.Set) ([]byte, error) {
	doc := make(map[string]any)
	if set != nil && set.Extra != nil {
		maps.Copy(doc, set.Extra)
	}
	doc[keyVersion] = FormatVersion

	entries := make([]map[string]any, 0, set.Len())
	for _, name := range set.Names() {
		p, _ := set.Get(name)
		entry := make(map[string]any, len(knownProfileKeys)+len(p.Extra))
		maps.Copy(entry, p.Extra)
		entry[keyName] = name
		entry[keyUserAccount] = p.UserAccount
		entry[keyUserProject] = p.UserProject
		entry[keyADCAccount] = p.ADCAccount
		entry[keyADCQuotaProject] = p.ADCQuotaProject
		if p.UpdatedAt != nil {
			entry[keyUpdatedAt] = p.UpdatedAt.UTC()
		}
		entries = append(entries, entry)
	}
	for _, raw := range set.Invalid {
		entries = append(entries, maps.Clone(raw))
	}
	doc[keyProfiles] = entries

	data, err := toml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling profiles: %w", err)
	}
	return data, nil
}
