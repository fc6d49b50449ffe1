package gcloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/tjirsch/gcloud-switch/internal/adcstore"
	"github.com/tjirsch/gcloud-switch/internal/profile"
	"github.com/tjirsch/gcloud-switch/internal/store"
)

// Runner invokes the gcloud CLI.
type Runner interface {
	// Interactive runs gcloud attached to the current terminal.
	Interactive(ctx context.Context, args ...string) error
	// Output runs gcloud and returns its stdout.
	Output(ctx context.Context, args ...string) ([]byte, error)
}

// CLI runs the real gcloud binary.
type CLI struct {
	// Binary defaults to "gcloud".
	Binary string
}

func (c CLI) binary() string {
	if c.Binary == "" {
		return "gcloud"
	}
	return c.Binary
}

// Interactive implements Runner.
func (c CLI) Interactive(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, c.binary(), args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return &ExternalError{Op: strings.Join(args, " "), Err: err}
	}
	return nil
}

// Output implements Runner.
func (c CLI) Output(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.binary(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return out, &ExternalError{Op: strings.Join(args, " "), Err: err}
	}
	return out, nil
}

// Executor applies profiles to gcloud.
type Executor struct {
	Runner Runner
	ADC    adcstore.Store
	// Dir is gcloud's config directory.
	Dir string
}

// NewExecutor returns an executor for the gcloud directory dir.
func NewExecutor(r Runner, adc adcstore.Store, dir string) *Executor {
	return &Executor{Runner: r, ADC: adc, Dir: dir}
}

// Activate makes the profile current for the given scope. For ScopeBoth the
// ADC half is applied only when a blob has been stored for the profile.
func (e *Executor) Activate(ctx context.Context, name string, p profile.Profile, scope profile.Scope) error {
	switch scope {
	case profile.ScopeUser:
		return e.activateUser(ctx, name, p)
	case profile.ScopeADC:
		return e.activateADC(name)
	}
	if err := e.activateUser(ctx, name, p); err != nil {
		return err
	}
	if !e.ADC.Has(name) {
		log.Debug("no stored ADC credentials, skipping ADC activation", "profile", name)
		return nil
	}
	return e.activateADC(name)
}

func (e *Executor) activateUser(ctx context.Context, name string, p profile.Profile) error {
	if !e.configurationExists(name) {
		if _, err := e.Runner.Output(ctx, "config", "configurations", "create", name, "--no-activate"); err != nil {
			return err
		}
	}
	steps := [][]string{
		{"config", "configurations", "activate", name},
		{"config", "set", "account", p.UserAccount},
		{"config", "set", "project", p.UserProject},
	}
	for _, args := range steps {
		if _, err := e.Runner.Output(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) activateADC(name string) error {
	blob, err := e.ADC.Load(name)
	if errors.Is(err, adcstore.ErrNotFound) {
		return fmt.Errorf("no ADC credentials stored for profile %q; re-authenticate first: %w", name, profile.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if err := store.WriteFileAtomic(adcFile(e.Dir), blob, 0o600); err != nil {
		return fmt.Errorf("installing ADC credentials for %q: %w", name, err)
	}
	return nil
}

// Reauthenticate runs the interactive gcloud login for one credential leg.
// The terminal must be free when this is called. A successful ADC login is
// captured into the ADC store under name.
func (e *Executor) Reauthenticate(ctx context.Context, name string, p profile.Profile, kind profile.Kind) error {
	if kind == profile.KindUser {
		return e.Runner.Interactive(ctx, "auth", "login", "--account="+p.UserAccount)
	}

	if err := e.Runner.Interactive(ctx, "auth", "application-default", "login", "--quiet"); err != nil {
		return err
	}
	if p.ADCQuotaProject != "" {
		if err := e.Runner.Interactive(ctx, "auth", "application-default", "set-quota-project", p.ADCQuotaProject); err != nil {
			log.Warn("setting ADC quota project failed", "project", p.ADCQuotaProject, "err", err)
		}
	}
	blob, err := os.ReadFile(adcFile(e.Dir))
	if err != nil {
		return fmt.Errorf("reading new ADC credentials: %w", err)
	}
	return e.ADC.Save(name, blob)
}

// CreateConfiguration creates a gcloud configuration mirroring the profile's
// user half without activating it.
func (e *Executor) CreateConfiguration(ctx context.Context, name string, p profile.Profile) error {
	if !e.configurationExists(name) {
		if _, err := e.Runner.Output(ctx, "config", "configurations", "create", name, "--no-activate"); err != nil {
			return err
		}
	}
	if _, err := e.Runner.Output(ctx, "config", "set", "account", p.UserAccount, "--configuration="+name); err != nil {
		return err
	}
	_, err := e.Runner.Output(ctx, "config", "set", "project", p.UserProject, "--configuration="+name)
	return err
}

// DeleteConfiguration removes a gcloud configuration. gcloud refuses to
// delete the active one.
func (e *Executor) DeleteConfiguration(ctx context.Context, name string) error {
	_, err := e.Runner.Output(ctx, "config", "configurations", "delete", name, "--quiet")
	return err
}

// ListProjects returns the project IDs visible to account.
func (e *Executor) ListProjects(ctx context.Context, account string) ([]string, error) {
	out, err := e.Runner.Output(ctx, "projects", "list",
		"--account="+account, "--format=value(projectId)", "--sort-by=projectId")
	if err != nil {
		return nil, err
	}
	var projects []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			projects = append(projects, line)
		}
	}
	return projects, nil
}

func (e *Executor) configurationExists(name string) bool {
	_, err := os.Stat(configFile(e.Dir, name))
	return err == nil
}
