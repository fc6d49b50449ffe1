package git_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjirsch/gcloud-switch/internal/git"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func initTestRepo(t *testing.T) string {
	t.Helper()
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, git.Init(dir, "main"))
	return dir
}

func initBareRemote(t *testing.T) string {
	t.Helper()
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, exec.Command("git", "init", "--bare", "-b", "main", dir).Run())
	return dir
}

func commitFile(t *testing.T, dir, name, content, msg string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	require.NoError(t, git.Add(dir, name))
	require.NoError(t, git.Commit(dir, msg))
}

func TestRun(t *testing.T) {
	dir := initTestRepo(t)
	out, err := git.Run(dir, "status", "--porcelain")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestIsRepo(t *testing.T) {
	t.Run("valid repo", func(t *testing.T) {
		dir := initTestRepo(t)
		assert.True(t, git.IsRepo(dir))
	})
	t.Run("not a repo", func(t *testing.T) {
		requireGit(t)
		assert.False(t, git.IsRepo(t.TempDir()))
	})
}

func TestIsClean(t *testing.T) {
	dir := initTestRepo(t)
	clean, err := git.IsClean(dir)
	require.NoError(t, err)
	assert.True(t, clean)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.txt"), []byte("hello"), 0o644))
	clean, err = git.IsClean(dir)
	require.NoError(t, err)
	assert.False(t, clean)
}

func TestRevParse(t *testing.T) {
	dir := initTestRepo(t)
	_, err := git.RevParse(dir, "HEAD")
	assert.Error(t, err, "unborn branch")

	commitFile(t, dir, "test.txt", "hello", "initial")
	sha, err := git.RevParse(dir, "HEAD")
	require.NoError(t, err)
	assert.Len(t, sha, 40)
}

func TestFetchPushShow(t *testing.T) {
	ctx := context.Background()
	remote := initBareRemote(t)

	a := initTestRepo(t)
	require.NoError(t, git.RemoteAdd(a, "origin", remote))
	assert.True(t, git.HasRemote(a, "origin"))

	found, err := git.Fetch(ctx, a, "origin", "main")
	require.NoError(t, err)
	assert.False(t, found, "empty remote has no branch")

	commitFile(t, a, "profiles.toml", "version = 1\n", "first")
	require.NoError(t, git.Push(ctx, a, "origin", "main"))

	b := initTestRepo(t)
	require.NoError(t, git.RemoteAdd(b, "origin", remote))
	found, err = git.Fetch(ctx, b, "origin", "main")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, git.HasPath(b, "origin/main", "profiles.toml"))
	assert.False(t, git.HasPath(b, "origin/main", "missing.toml"))
	data, err := git.Show(b, "origin/main", "profiles.toml")
	require.NoError(t, err)
	assert.Equal(t, "version = 1\n", string(data))

	// b diverges from the remote and is rejected.
	commitFile(t, b, "profiles.toml", "version = 2\n", "unrelated")
	err = git.Push(ctx, b, "origin", "main")
	var nff *git.NonFastForwardError
	assert.ErrorAs(t, err, &nff)

	// After checking out the remote branch b can push again.
	require.NoError(t, git.Checkout(b, "main", "origin/main"))
	commitFile(t, b, "profiles.toml", "version = 3\n", "second")
	require.NoError(t, git.Push(ctx, b, "origin", "main"))
}

func TestRemoteSetURL(t *testing.T) {
	dir := initTestRepo(t)
	require.NoError(t, git.RemoteAdd(dir, "origin", "https://example.com/a.git"))
	require.NoError(t, git.RemoteSetURL(dir, "origin", "https://example.com/b.git"))
	url, err := git.RemoteURL(dir, "origin")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/b.git", url)
}
