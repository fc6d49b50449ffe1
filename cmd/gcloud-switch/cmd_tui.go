package main

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/tjirsch/gcloud-switch/cmd/gcloud-switch/tui"
	"github.com/tjirsch/gcloud-switch/internal/app"
	"github.com/tjirsch/gcloud-switch/internal/deferred"
	"github.com/tjirsch/gcloud-switch/internal/gcloud"
	"github.com/tjirsch/gcloud-switch/internal/logging"
	"github.com/tjirsch/gcloud-switch/internal/paths"
	"github.com/tjirsch/gcloud-switch/internal/profile"
	"github.com/tjirsch/gcloud-switch/internal/validate"
)

func runTUI(cmd *cobra.Command, args []string) error {
	// TTY guard: fall back to list when not attached to a terminal
	// (piping, CI, scripts, etc.)
	if !isTerminal() {
		return listCmd.RunE(cmd, args)
	}

	set, err := loadProfiles()
	if err != nil {
		return err
	}
	st, err := loadState()
	if err != nil {
		return err
	}
	if err := reconcile(set, &st); err != nil {
		return err
	}

	// The terminal belongs to the UI from here on.
	restore, err := logging.ToFile(paths.LogFile(), logLevel())
	if err != nil {
		return err
	}
	defer func() { _ = restore() }()

	sched := validate.New(oracle, cfg.Check.Timeout)
	defer sched.Stop()

	queue := deferred.New()
	machine := app.New(app.Options{
		Profiles: set,
		State:    st,
		Saver:    profiles,
		Queue:    queue,
		ADC:      adc,
	})
	model := tui.NewModel(machine, sched, executor, oracle)
	return tui.Run(cmd.Context(), model, queue, executor)
}

// reconcile aligns the profiles with gcloud's configurations according to
// the sync mode and saves what changed.
func reconcile(set *profile.Set, st *profile.State) error {
	dir := paths.GcloudDir()
	configs, err := gcloud.Configurations(dir)
	if err != nil {
		log.Warn("reading gcloud configurations failed", "err", err)
		return nil
	}
	active, err := gcloud.ActiveConfiguration(dir)
	if err != nil {
		log.Debug("reading active gcloud configuration failed", "err", err)
	}

	r := app.Reconcile(set, st, configs, active, time.Now())
	for _, name := range r.Skipped {
		log.Debug("skipping gcloud configuration without account or project", "name", name)
	}
	if !r.Changed() {
		return nil
	}
	if len(r.Imported) > 0 {
		log.Info("imported gcloud configurations", "names", r.Imported)
	}
	if len(r.Removed) > 0 {
		log.Info("removed profiles without a gcloud configuration", "names", r.Removed)
	}
	if len(r.Imported) > 0 || len(r.Removed) > 0 {
		if err := profiles.SaveProfiles(set); err != nil {
			return err
		}
	}
	if err := r.DropCredentials(adc); err != nil {
		log.Warn("removing stored ADC credentials failed", "err", err)
	}
	return profiles.SaveState(*st)
}

func logLevel() string {
	if verboseFlag {
		return "debug"
	}
	return cfg.Log.Level
}

// isTerminal reports whether stdin and stdout are both a terminal.
var isTerminal = func() bool {
	return term.IsTerminal(os.Stdin.Fd()) && term.IsTerminal(os.Stdout.Fd())
}
