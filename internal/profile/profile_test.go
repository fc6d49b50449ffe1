package profile_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tjirsch/gcloud-switch/internal/profile"
)

func TestNew_DefaultsADCFields(t *testing.T) {
	p := profile.New("u@x.com", "proj", "", "")
	assert.Equal(t, "u@x.com", p.ADCAccount)
	assert.Equal(t, "proj", p.ADCQuotaProject)
	require.NoError(t, p.Validate())
}

func TestValidate_Missing(t *testing.T) {
	err := profile.Profile{UserAccount: "u@x.com"}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, profile.ErrInvalid))
	assert.Contains(t, err.Error(), "user_project")
}

func TestSameContent_IgnoresTimestamp(t *testing.T) {
	a := profile.New("u@x.com", "p", "", "")
	b := a.Clone()
	b.Touch(time.Now())
	assert.True(t, a.SameContent(b))
	b.UserProject = "other"
	assert.False(t, a.SameContent(b))
}

func TestTouch_TruncatesToSeconds(t *testing.T) {
	var p profile.Profile
	p.Touch(time.Date(2026, 1, 2, 3, 4, 5, 999, time.FixedZone("x", 3600)))
	require.NotNil(t, p.UpdatedAt)
	assert.Equal(t, time.Date(2026, 1, 2, 2, 4, 5, 0, time.UTC), *p.UpdatedAt)
}

func TestSet_OrderAndReplace(t *testing.T) {
	s := profile.NewSet()
	s.Put("b", profile.New("b@x", "pb", "", ""))
	s.Put("a", profile.New("a@x", "pa", "", ""))
	s.Put("b", profile.New("b2@x", "pb", "", ""))

	assert.Equal(t, []string{"b", "a"}, s.Names())
	p, ok := s.Get("b")
	require.True(t, ok)
	assert.Equal(t, "b2@x", p.UserAccount)

	assert.True(t, s.Delete("b"))
	assert.False(t, s.Delete("b"))
	assert.Equal(t, []string{"a"}, s.Names())
}

func TestSet_AddRejectsDuplicate(t *testing.T) {
	s := profile.NewSet()
	require.NoError(t, s.Add("work", profile.New("u@x", "p", "", "")))
	err := s.Add("work", profile.New("v@x", "p", "", ""))
	assert.True(t, errors.Is(err, profile.ErrDuplicate))
	assert.True(t, errors.Is(s.Add("  ", profile.Profile{}), profile.ErrInvalid))
}

func TestSet_AddReplacesInvalidEntry(t *testing.T) {
	s := profile.NewSet()
	s.Invalid = []map[string]any{
		{"name": "work", "user_account": "u@x"},
		{"name": "other"},
	}
	require.NoError(t, s.Add("work", profile.New("u@x", "p", "", "")))
	require.Len(t, s.Invalid, 1)
	assert.Equal(t, "other", s.Invalid[0]["name"])

	c := s.Clone()
	c.Invalid[0]["name"] = "changed"
	assert.Equal(t, "other", s.Invalid[0]["name"])
}

func TestSet_CloneIsDeep(t *testing.T) {
	s := profile.NewSet()
	p := profile.New("u@x", "p", "", "")
	p.Touch(time.Now())
	s.Put("work", p)

	c := s.Clone()
	cp, _ := c.Get("work")
	*cp.UpdatedAt = cp.UpdatedAt.Add(time.Hour)
	cp.UserProject = "changed"
	c.Put("work", cp)

	orig, _ := s.Get("work")
	assert.Equal(t, "p", orig.UserProject)
	assert.True(t, orig.UpdatedAt.Before(*cp.UpdatedAt))
}

func TestSet_AccountsDistinct(t *testing.T) {
	s := profile.NewSet()
	s.Put("a", profile.New("shared@x", "p1", "", ""))
	s.Put("b", profile.New("shared@x", "p2", "sa@x", ""))
	assert.Equal(t, []string{"shared@x", "sa@x"}, s.Accounts())
	assert.Equal(t, []string{"p1", "p2"}, s.Projects())
}

func TestScope_ClampedMovement(t *testing.T) {
	assert.Equal(t, profile.ScopeBoth, profile.ScopeBoth.Left())
	assert.Equal(t, profile.ScopeUser, profile.ScopeBoth.Right())
	assert.Equal(t, profile.ScopeADC, profile.ScopeUser.Right())
	assert.Equal(t, profile.ScopeADC, profile.ScopeADC.Right())
	assert.Equal(t, profile.ScopeUser, profile.ScopeADC.Left())
}

func TestSyncMode_Cycle(t *testing.T) {
	m := profile.SyncStrict
	m = m.Next()
	assert.Equal(t, profile.SyncAddOnly, m)
	m = m.Next()
	assert.Equal(t, profile.SyncOff, m)
	assert.Equal(t, profile.SyncStrict, m.Next())
}

func TestParse(t *testing.T) {
	s, err := profile.ParseScope("adc")
	require.NoError(t, err)
	assert.Equal(t, profile.ScopeADC, s)
	_, err = profile.ParseScope("nope")
	assert.Error(t, err)

	m, err := profile.ParseSyncMode("add")
	require.NoError(t, err)
	assert.Equal(t, profile.SyncAddOnly, m)
	_, err = profile.ParseSyncMode("sometimes")
	assert.Error(t, err)
}

func TestScopeOf(t *testing.T) {
	assert.Equal(t, profile.ScopeUser, profile.ScopeOf([]profile.Kind{profile.KindUser}))
	assert.Equal(t, profile.ScopeADC, profile.ScopeOf([]profile.Kind{profile.KindADC}))
	assert.Equal(t, profile.ScopeBoth, profile.ScopeOf([]profile.Kind{profile.KindADC, profile.KindUser}))
}
