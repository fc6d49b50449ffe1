package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tjirsch/gcloud-switch/internal/profile"
	"github.com/tjirsch/gcloud-switch/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	return store.New(filepath.Join(dir, "profiles.toml"), filepath.Join(dir, "state.toml"))
}

func TestLoadProfiles_MissingFileIsEmpty(t *testing.T) {
	s := newStore(t)
	set, report, err := s.LoadProfiles()
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.Empty(t, report.Skipped)
}

func TestProfiles_RoundTrip(t *testing.T) {
	s := newStore(t)
	set := profile.NewSet()
	work := profile.New("me@corp.com", "corp-dev", "sa@corp.iam.gserviceaccount.com", "corp-billing")
	work.Touch(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	set.Put("work", work)
	set.Put("home", profile.New("me@gmail.com", "hobby", "", ""))

	require.NoError(t, s.SaveProfiles(set))
	loaded, report, err := s.LoadProfiles()
	require.NoError(t, err)
	assert.Empty(t, report.Skipped)

	assert.Equal(t, []string{"work", "home"}, loaded.Names())
	for _, name := range set.Names() {
		want, _ := set.Get(name)
		got, ok := loaded.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, want.UserAccount, got.UserAccount)
		assert.Equal(t, want.UserProject, got.UserProject)
		assert.Equal(t, want.ADCAccount, got.ADCAccount)
		assert.Equal(t, want.ADCQuotaProject, got.ADCQuotaProject)
		if want.UpdatedAt == nil {
			assert.Nil(t, got.UpdatedAt)
		} else {
			require.NotNil(t, got.UpdatedAt)
			assert.True(t, want.UpdatedAt.Equal(*got.UpdatedAt))
		}
	}
}

func TestProfiles_PreservesUnknownKeys(t *testing.T) {
	s := newStore(t)
	input := `version = 1
future_setting = "keep me"

[[profiles]]
name = "work"
user_account = "me@corp.com"
user_project = "corp-dev"
updated_at = 2026-03-01T12:00:00Z
color = "blue"
`
	require.NoError(t, os.WriteFile(s.ProfilesPath, []byte(input), 0o600))

	set, _, err := s.LoadProfiles()
	require.NoError(t, err)
	require.NoError(t, s.SaveProfiles(set))

	again, _, err := s.LoadProfiles()
	require.NoError(t, err)
	assert.Equal(t, "keep me", again.Extra["future_setting"])
	p, ok := again.Get("work")
	require.True(t, ok)
	assert.Equal(t, "blue", p.Extra["color"])
	require.NotNil(t, p.UpdatedAt)
	assert.True(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Equal(*p.UpdatedAt))
	assert.Equal(t, "me@corp.com", p.ADCAccount, "ADC defaults to user account")
}

func TestParseProfiles_LegacyTableForm(t *testing.T) {
	input := `active_profile = "b"

[profiles.b]
user_account = "b@x.com"
user_project = "pb"
adc_account = "b@x.com"
adc_quota_project = "pb"
updated_at = 1700000000

[profiles.a]
user_account = "a@x.com"
user_project = "pa"
adc_account = "a@x.com"
adc_quota_project = "pa"
`
	set, skipped, err := store.ParseProfiles([]byte(input))
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, []string{"a", "b"}, set.Names())
	b, _ := set.Get("b")
	require.NotNil(t, b.UpdatedAt)
	assert.Equal(t, int64(1700000000), b.UpdatedAt.Unix())
	assert.Equal(t, "b", set.Extra["active_profile"])
}

func TestParseProfiles_SkipsInvalidEntries(t *testing.T) {
	input := `[[profiles]]
name = "ok"
user_account = "u@x.com"
user_project = "p"

[[profiles]]
name = "no-account"
user_project = "p"

[[profiles]]
user_account = "nameless@x.com"
user_project = "p"

[[profiles]]
name = "ok"
user_account = "dupe@x.com"
user_project = "p"

[[profiles]]
name = "bad-type"
user_account = 42
user_project = "p"
`
	set, skipped, err := store.ParseProfiles([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, set.Names())
	assert.Len(t, skipped, 4)
	assert.Len(t, set.Invalid, 4)
}

func TestProfiles_SaveKeepsEntriesThatFailedToLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.toml")
	s := store.New(path, filepath.Join(dir, "state.toml"))
	input := `[[profiles]]
name = "good"
user_account = "a@x.com"
user_project = "pa"

[[profiles]]
name = "handedited"
user_account = "b@x.com"
future_field = "kept"
`
	require.NoError(t, os.WriteFile(path, []byte(input), 0o600))

	set, report, err := s.LoadProfiles()
	require.NoError(t, err)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "handedited", report.Skipped[0].Name)

	set.Put("other", profile.New("c@x.com", "pc", "", ""))
	require.NoError(t, s.SaveProfiles(set))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "handedited")
	assert.Contains(t, string(data), "future_field")

	reloaded, report, err := s.LoadProfiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"good", "other"}, reloaded.Names())
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "handedited", report.Skipped[0].Name)
	require.Len(t, reloaded.Invalid, 1)
	assert.Equal(t, "b@x.com", reloaded.Invalid[0]["user_account"])
}

func TestProfiles_LegacyInvalidEntryKeepsName(t *testing.T) {
	set, skipped, err := store.ParseProfiles([]byte(`[profiles.broken]
user_project = "p"
`))
	require.NoError(t, err)
	require.Len(t, skipped, 1)

	data, err := store.MarshalProfiles(set)
	require.NoError(t, err)
	_, skipped, err = store.ParseProfiles(data)
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	assert.Equal(t, "broken", skipped[0].Name)
}

func TestParseProfiles_Malformed(t *testing.T) {
	_, _, err := store.ParseProfiles([]byte(`[[[`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, profile.ErrInvalid))
}

func TestState_RoundTrip(t *testing.T) {
	s := newStore(t)
	st, err := s.LoadState()
	require.NoError(t, err)
	assert.Equal(t, profile.State{}, st)

	want := profile.State{
		ActiveProfile: "work",
		Column:        profile.ScopeADC,
		SyncMode:      profile.SyncOff,
		SyncRevision:  "abc123",
	}
	require.NoError(t, s.SaveState(want))
	got, err := s.LoadState()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadState_InvalidEnumFallsBack(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.WriteFile(s.StatePath, []byte("active_profile = \"x\"\nsync_mode = \"sometimes\"\n"), 0o600))
	st, err := s.LoadState()
	require.Error(t, err)
	assert.True(t, errors.Is(err, profile.ErrInvalid))
	assert.Equal(t, "x", st.ActiveProfile)
	assert.Equal(t, profile.SyncStrict, st.SyncMode)
}

func TestWriteFileAtomic_ReplacesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "file.toml")
	require.NoError(t, store.WriteFileAtomic(path, []byte("one"), 0o600))
	require.NoError(t, store.WriteFileAtomic(path, []byte("two"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
