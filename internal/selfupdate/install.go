package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// InstallerAsset is the release asset that installs gcloud-switch.
const InstallerAsset = "gcloud-switch-installer.sh"

const maxReadmeBytes = 4 << 20

// ErrUnsupportedPlatform is returned by Install where the shell installer
// cannot run.
var ErrUnsupportedPlatform = errors.New("automatic installation is not supported on this platform; download the installer from the release page")

// Install downloads the latest release's installer into dir, runs it with the
// user's terminal attached and removes it afterwards.
func (c *Checker) Install(ctx context.Context, dir string) error {
	if runtime.GOOS == "windows" {
		return ErrUnsupportedPlatform
	}
	url := fmt.Sprintf("%s/%s/%s/releases/latest/download/%s", c.downloadBase, c.owner, c.repo, InstallerAsset)
	path, err := c.downloadToTempFile(ctx, url, dir, "gcloud-switch-installer-*.sh")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(path) }()

	if err := os.Chmod(path, 0o755); err != nil {
		return fmt.Errorf("making installer executable: %w", err)
	}
	cmd := exec.CommandContext(ctx, c.shell, path)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running installer: %w", err)
	}
	return nil
}

// DownloadReadme saves the repository README for version into dir and
// returns its path.
func (c *Checker) DownloadReadme(ctx context.Context, dir, version string) (string, error) {
	url := fmt.Sprintf("%s/%s/%s/main/README.md", c.rawBase, c.owner, c.repo)
	body, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(io.LimitReader(body, maxReadmeBytes))
	if err != nil {
		return "", fmt.Errorf("reading README: %w", err)
	}
	name := fmt.Sprintf("gcloud-switch-%s-README.md", strings.TrimPrefix(version, "v"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing README: %w", err)
	}
	return path, nil
}

func (c *Checker) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("downloading %s: unexpected status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}

// downloadToTempFile stores the body at url in a new file in dir. The caller
// removes the file.
func (c *Checker) downloadToTempFile(ctx context.Context, url, dir, pattern string) (_ string, err error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := io.Copy(tmp, body); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	return tmp.Name(), nil
}
