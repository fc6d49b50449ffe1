package profile

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a named profile or file does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid marks malformed stored data or incomplete input.
	ErrInvalid = errors.New("invalid")
	// ErrDuplicate is returned when adding a profile whose name is taken.
	ErrDuplicate = errors.New("already exists")
)

// Profile pairs a gcloud user identity with an Application Default Credential identity.
type Profile struct {
	UserAccount     string
	UserProject     string
	ADCAccount      string
	ADCQuotaProject string
	// UpdatedAt is nil for profiles without sync history.
	UpdatedAt *time.Time
	// Extra holds keys from the profiles file this version does not know about.
	Extra map[string]any
}

// New returns a profile with ADC fields defaulted to the user fields.
func New(userAccount, userProject, adcAccount, adcQuotaProject string) Profile {
	p := Profile{
		UserAccount:     strings.TrimSpace(userAccount),
		UserProject:     strings.TrimSpace(userProject),
		ADCAccount:      strings.TrimSpace(adcAccount),
		ADCQuotaProject: strings.TrimSpace(adcQuotaProject),
	}
	p.ApplyDefaults()
	return p
}

// ApplyDefaults fills unset ADC fields from the user fields.
func (p *Profile) ApplyDefaults() {
	if p.ADCAccount == "" {
		p.ADCAccount = p.UserAccount
	}
	if p.ADCQuotaProject == "" {
		p.ADCQuotaProject = p.UserProject
	}
}

// Validate checks that all four identity fields are set.
func (p Profile) Validate() error {
	var missing []string
	if p.UserAccount == "" {
		missing = append(missing, "user_account")
	}
	if p.UserProject == "" {
		missing = append(missing, "user_project")
	}
	if p.ADCAccount == "" {
		missing = append(missing, "adc_account")
	}
	if p.ADCQuotaProject == "" {
		missing = append(missing, "adc_quota_project")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalid, strings.Join(missing, ", "))
	}
	return nil
}

// SameContent reports whether both profiles carry the same identity fields.
// UpdatedAt and Extra are not compared.
func (p Profile) SameContent(o Profile) bool {
	return p.UserAccount == o.UserAccount &&
		p.UserProject == o.UserProject &&
		p.ADCAccount == o.ADCAccount &&
		p.ADCQuotaProject == o.ADCQuotaProject
}

// Touch stamps UpdatedAt with now, truncated to whole seconds in UTC.
func (p *Profile) Touch(now time.Time) {
	t := now.UTC().Truncate(time.Second)
	p.UpdatedAt = &t
}

// Clone returns a deep copy.
func (p Profile) Clone() Profile {
	c := p
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		c.UpdatedAt = &t
	}
	if p.Extra != nil {
		c.Extra = maps.Clone(p.Extra)
	}
	return c
}

// Field returns the value of a single identity field.
func (p Profile) Field(f Field) string {
	switch f {
	case FieldUserAccount:
		return p.UserAccount
	case FieldUserProject:
		return p.UserProject
	case FieldADCAccount:
		return p.ADCAccount
	case FieldADCQuotaProject:
		return p.ADCQuotaProject
	}
	return ""
}

// SetField assigns a single identity field.
func (p *Profile) SetField(f Field, v string) {
	switch f {
	case FieldUserAccount:
		p.UserAccount = v
	case FieldUserProject:
		p.UserProject = v
	case FieldADCAccount:
		p.ADCAccount = v
	case FieldADCQuotaProject:
		p.ADCQuotaProject = v
	}
}

// Account returns the account used by the given credential kind.
func (p Profile) Account(k Kind) string {
	if k == KindADC {
		return p.ADCAccount
	}
	return p.UserAccount
}

// Field names one of the four identity fields.
type Field int

const (
	FieldUserAccount Field = iota
	FieldUserProject
	FieldADCAccount
	FieldADCQuotaProject
)

func (f Field) String() string {
	switch f {
	case FieldUserAccount:
		return "user_account"
	case FieldUserProject:
		return "user_project"
	case FieldADCAccount:
		return "adc_account"
	case FieldADCQuotaProject:
		return "adc_quota_project"
	}
	return "unknown"
}

// IsAccount reports whether the field holds an account identifier.
func (f Field) IsAccount() bool {
	return f == FieldUserAccount || f == FieldADCAccount
}

// Companion returns the other field of the same half (account <-> project).
func (f Field) Companion() Field {
	switch f {
	case FieldUserAccount:
		return FieldUserProject
	case FieldUserProject:
		return FieldUserAccount
	case FieldADCAccount:
		return FieldADCQuotaProject
	default:
		return FieldADCAccount
	}
}

// Kind distinguishes the two credential legs of a profile.
type Kind int

const (
	KindUser Kind = iota
	KindADC
)

func (k Kind) String() string {
	if k == KindADC {
		return "adc"
	}
	return "user"
}

// Set is an ordered collection of profiles keyed by name.
// Insertion order is display order.
type Set struct {
	order    []string
	profiles map[string]Profile

	// Extra holds unknown top-level keys of the profiles file.
	Extra map[string]any
	// Invalid holds raw entries of the profiles file that could not be
	// loaded. They are written back unchanged until Add replaces one.
	Invalid []map[string]any
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{profiles: make(map[string]Profile)}
}

// Len returns the number of profiles.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Names returns profile names in display order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.order)
}

// Has reports whether name exists.
func (s *Set) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.profiles[name]
	return ok
}

// Get returns the named profile.
func (s *Set) Get(name string) (Profile, bool) {
	if s == nil {
		return Profile{}, false
	}
	p, ok := s.profiles[name]
	return p, ok
}

// At returns the name and profile at display index i.
func (s *Set) At(i int) (string, Profile, bool) {
	if s == nil || i < 0 || i >= len(s.order) {
		return "", Profile{}, false
	}
	name := s.order[i]
	return name, s.profiles[name], true
}

// Index returns the display index of name, or -1.
func (s *Set) Index(name string) int {
	if s == nil {
		return -1
	}
	return slices.Index(s.order, name)
}

// Put replaces an existing profile in place or appends a new one.
func (s *Set) Put(name string, p Profile) {
	if s.profiles == nil {
		s.profiles = make(map[string]Profile)
	}
	if _, ok := s.profiles[name]; !ok {
		s.order = append(s.order, name)
	}
	s.profiles[name] = p
}

// Add appends a new profile and fails if the name exists. An unloadable
// entry of the same name in Invalid is replaced.
func (s *Set) Add(name string, p Profile) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty profile name", ErrInvalid)
	}
	if s.Has(name) {
		return fmt.Errorf("profile %q %w", name, ErrDuplicate)
	}
	s.Invalid = slices.DeleteFunc(s.Invalid, func(raw map[string]any) bool {
		n, _ := raw["name"].(string)
		return strings.TrimSpace(n) == name
	})
	s.Put(name, p)
	return nil
}

// Delete removes name and reports whether it existed.
func (s *Set) Delete(name string) bool {
	if !s.Has(name) {
		return false
	}
	delete(s.profiles, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
	return true
}

// Clone returns a deep copy.
func (s *Set) Clone() *Set {
	c := NewSet()
	if s == nil {
		return c
	}
	for _, name := range s.order {
		c.Put(name, s.profiles[name].Clone())
	}
	if s.Extra != nil {
		c.Extra = maps.Clone(s.Extra)
	}
	for _, raw := range s.Invalid {
		c.Invalid = append(c.Invalid, maps.Clone(raw))
	}
	return c
}

// Accounts returns the distinct user and ADC accounts in display order.
func (s *Set) Accounts() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range s.Names() {
		p := s.profiles[name]
		for _, a := range []string{p.UserAccount, p.ADCAccount} {
			if a != "" && !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out
}

// Projects returns the distinct user and quota projects in display order.
func (s *Set) Projects() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range s.Names() {
		p := s.profiles[name]
		for _, v := range []string{p.UserProject, p.ADCQuotaProject} {
			if v != "" && !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}
