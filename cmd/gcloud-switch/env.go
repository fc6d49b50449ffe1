package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tjirsch/gcloud-switch/internal/adcstore"
	"github.com/tjirsch/gcloud-switch/internal/config"
	"github.com/tjirsch/gcloud-switch/internal/gcloud"
	"github.com/tjirsch/gcloud-switch/internal/logging"
	"github.com/tjirsch/gcloud-switch/internal/paths"
	"github.com/tjirsch/gcloud-switch/internal/profile"
	"github.com/tjirsch/gcloud-switch/internal/store"
	"github.com/tjirsch/gcloud-switch/internal/sync"
)

// Shared state built by setup before any command runs.
var (
	cfg      *config.Config
	profiles *store.Store
	adc      adcstore.Store
	oracle   *gcloud.Oracle
	executor *gcloud.Executor
)

func setup() error {
	var err error
	cfg, err = config.Load(paths.SettingsFile())
	if err != nil {
		logging.Setup("info", verboseFlag)
		return err
	}
	logging.Setup(cfg.Log.Level, verboseFlag)

	profiles = store.New(paths.ProfilesFile(), paths.StateFile())
	adc, err = adcstore.Open(cfg.Credentials.Backend, paths.ADCDir())
	if err != nil {
		return err
	}
	oracle = gcloud.NewOracle(paths.CredentialsDB())
	executor = gcloud.NewExecutor(gcloud.CLI{}, adc, paths.GcloudDir())
	return nil
}

// loadProfiles reads the profile collection, warning about skipped entries.
func loadProfiles() (*profile.Set, error) {
	set, report, err := profiles.LoadProfiles()
	if err != nil {
		return nil, err
	}
	for _, s := range report.Skipped {
		log.Warn("skipping profile", "name", s.Name, "reason", s.Reason)
	}
	return set, nil
}

// loadState reads the session state. Invalid values fall back to defaults.
func loadState() (profile.State, error) {
	st, err := profiles.LoadState()
	if errors.Is(err, profile.ErrInvalid) {
		log.Warn("state file has invalid values, using defaults", "err", err)
		return st, nil
	}
	return st, err
}

func lookupProfile(set *profile.Set, name string) (profile.Profile, error) {
	p, ok := set.Get(name)
	if !ok {
		return p, fmt.Errorf("profile %q: %w", name, profile.ErrNotFound)
	}
	return p, nil
}

// syncEngine wires the git transport configured in config.toml.
func syncEngine() (*sync.Engine, error) {
	tr, err := sync.NewGitTransport(paths.SyncRepoDir(), cfg.Sync.RemoteURL, cfg.Sync.Branch)
	if err != nil {
		return nil, err
	}
	return &sync.Engine{
		Transport:    tr,
		Store:        profiles,
		ConflictsDir: paths.ConflictsDir(),
		Now:          time.Now,
	}, nil
}

func stderr(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}
