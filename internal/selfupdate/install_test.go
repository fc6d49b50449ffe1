package selfupdate_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjirsch/gcloud-switch/internal/selfupdate"
)

func fileServer(t *testing.T, path, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInstall_RunsInstallerAndRemovesIt(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell installer is not used on windows")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed")
	}
	marker := filepath.Join(t.TempDir(), "installed")
	t.Setenv("GCLOUD_SWITCH_INSTALL_MARKER", marker)

	srv := fileServer(t, "/tjirsch/gcloud-switch/releases/latest/download/"+selfupdate.InstallerAsset,
		"#!/bin/sh\necho done > \"$GCLOUD_SWITCH_INSTALL_MARKER\"\n")
	c := selfupdate.New(selfupdate.WithDownloadBaseURL(srv.URL), selfupdate.WithHTTPClient(srv.Client()))

	dir := t.TempDir()
	require.NoError(t, c.Install(t.Context(), dir))

	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "done\n", string(data))

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, left, "installer is removed after running")
}

func TestInstall_FailingInstaller(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell installer is not used on windows")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed")
	}
	srv := fileServer(t, "/tjirsch/gcloud-switch/releases/latest/download/"+selfupdate.InstallerAsset, "exit 3\n")
	c := selfupdate.New(selfupdate.WithDownloadBaseURL(srv.URL), selfupdate.WithHTTPClient(srv.Client()))
	assert.ErrorContains(t, c.Install(t.Context(), t.TempDir()), "running installer")
}

func TestInstall_MissingAsset(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell installer is not used on windows")
	}
	srv := fileServer(t, "/elsewhere", "")
	c := selfupdate.New(selfupdate.WithDownloadBaseURL(srv.URL), selfupdate.WithHTTPClient(srv.Client()))
	assert.ErrorContains(t, c.Install(t.Context(), t.TempDir()), "unexpected status 404")
}

func TestDownloadReadme(t *testing.T) {
	srv := fileServer(t, "/tjirsch/gcloud-switch/main/README.md", "# gcloud-switch\n")
	c := selfupdate.New(selfupdate.WithRawBaseURL(srv.URL), selfupdate.WithHTTPClient(srv.Client()))

	dir := t.TempDir()
	path, err := c.DownloadReadme(t.Context(), dir, "v1.4.0")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gcloud-switch-1.4.0-README.md"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# gcloud-switch\n", string(data))
}
