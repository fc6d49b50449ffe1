package selfupdate_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjirsch/gcloud-switch/internal/selfupdate"
)

func releaseServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/tjirsch/gcloud-switch/releases/latest", r.URL.Path)
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheck(t *testing.T) {
	srv := releaseServer(t, http.StatusOK, `{"tag_name":"v1.4.0","html_url":"https://github.com/tjirsch/gcloud-switch/releases/tag/v1.4.0"}`)
	c := selfupdate.New(selfupdate.WithBaseURL(srv.URL), selfupdate.WithHTTPClient(srv.Client()))

	tests := []struct {
		current   string
		available bool
	}{
		{"1.3.2", true},
		{"v1.4.0", false},
		{"1.5.0-rc.1", false},
		{"v1.4.0-rc.1", true},
	}
	for _, tt := range tests {
		t.Run(tt.current, func(t *testing.T) {
			res, err := c.Check(t.Context(), tt.current)
			require.NoError(t, err)
			assert.Equal(t, tt.available, res.Available)
			assert.Equal(t, "v1.4.0", res.Latest)
			assert.Contains(t, res.URL, "v1.4.0")
		})
	}
}

func TestCheck_InvalidCurrent(t *testing.T) {
	c := selfupdate.New(selfupdate.WithBaseURL("http://127.0.0.1:0"))
	_, err := c.Check(t.Context(), "dev")
	assert.ErrorIs(t, err, selfupdate.ErrInvalidVersion)
}

func TestLatest_BadStatus(t *testing.T) {
	srv := releaseServer(t, http.StatusNotFound, `{"message":"Not Found"}`)
	c := selfupdate.New(selfupdate.WithBaseURL(srv.URL), selfupdate.WithHTTPClient(srv.Client()))
	_, err := c.Latest(t.Context())
	assert.ErrorContains(t, err, "unexpected status 404")
}

func TestDue(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-time.Hour).Format(time.RFC3339)
	old := now.Add(-25 * time.Hour).Format(time.RFC3339)

	assert.False(t, selfupdate.Due("never", "", now))
	assert.True(t, selfupdate.Due("always", recent, now))
	assert.False(t, selfupdate.Due("daily", recent, now))
	assert.True(t, selfupdate.Due("daily", old, now))
	assert.True(t, selfupdate.Due("daily", "", now))
	assert.True(t, selfupdate.Due("daily", "garbage", now))
}
