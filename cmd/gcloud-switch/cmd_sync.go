package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tjirsch/gcloud-switch/internal/config"
	"github.com/tjirsch/gcloud-switch/internal/merge"
	"github.com/tjirsch/gcloud-switch/internal/paths"
	"github.com/tjirsch/gcloud-switch/internal/profile"
	"github.com/tjirsch/gcloud-switch/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Share profiles between machines through a git remote",
}

var syncBranch string

var syncInitCmd = &cobra.Command{
	Use:   "init <remote_url>",
	Short: "Configure the sync remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := strings.TrimSpace(args[0])
		if url == "" {
			return fmt.Errorf("%w: remote url is empty", profile.ErrInvalid)
		}
		if err := cfg.Set(config.KeySyncRemoteURL, url); err != nil {
			return err
		}
		if cmd.Flags().Changed("branch") {
			if err := cfg.Set(config.KeySyncBranch, syncBranch); err != nil {
				return err
			}
		}
		if err := cfg.Save(); err != nil {
			return err
		}

		tr, err := sync.NewGitTransport(paths.SyncRepoDir(), cfg.Sync.RemoteURL, cfg.Sync.Branch)
		if err != nil {
			return err
		}
		if err := tr.Ensure(); err != nil {
			return err
		}
		fmt.Printf("✓ Sync remote set to %s (branch %s).\n", cfg.Sync.RemoteURL, cfg.Sync.Branch)
		fmt.Println("Run 'gcloud-switch sync pull' to fetch profiles, or 'gcloud-switch sync push' to publish yours.")
		return nil
	},
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Publish local profiles to the remote",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := syncEngine()
		if err != nil {
			return err
		}
		fmt.Println("Pushing profiles...")
		rev, err := engine.Push(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("✓ Pushed (%s).\n", shortRev(rev))
		return nil
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Merge remote profiles into the local ones",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := syncEngine()
		if err != nil {
			return err
		}
		fmt.Println("Pulling profiles...")
		res, err := engine.Pull(cmd.Context(), promptResolver)
		if err != nil {
			return err
		}

		if len(res.Inserted) > 0 {
			fmt.Printf("✓ Added: %s\n", strings.Join(res.Inserted, ", "))
		}
		if len(res.Updated) > 0 {
			fmt.Printf("✓ Updated: %s\n", strings.Join(res.Updated, ", "))
		}
		if len(res.Unresolved) > 0 {
			stderr("\n⚠️  %d conflict(s) left unresolved; local values kept for now.\n", len(res.Unresolved))
			stderr("Run 'gcloud-switch sync conflicts resolve' before pushing.\n")
			return nil
		}
		if len(res.Inserted) == 0 && len(res.Updated) == 0 {
			fmt.Println("Everything up to date.")
		}
		return nil
	},
}

var syncConflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Manage conflicts left over from a pull",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := sync.LoadConflicts(paths.ConflictsDir())
		if err != nil {
			return err
		}
		if len(file.Conflicts) == 0 {
			fmt.Println("No pending conflicts.")
			return nil
		}
		fmt.Printf("%d pending conflict(s):\n\n", len(file.Conflicts))
		for _, c := range file.MergeConflicts() {
			printConflict(c)
		}
		return nil
	},
}

var syncConflictsResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Choose local or remote for each pending conflict",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := paths.ConflictsDir()
		if !sync.HasPendingConflicts(dir) {
			fmt.Println("No pending conflicts.")
			return nil
		}
		file, err := sync.LoadConflicts(dir)
		if err != nil {
			return err
		}
		choices, err := promptResolver(file.MergeConflicts())
		if err != nil {
			return err
		}
		engine := &sync.Engine{Store: profiles, ConflictsDir: dir}
		left, err := engine.ResolvePending(choices)
		if err != nil {
			return err
		}
		if left > 0 {
			fmt.Printf("%d conflict(s) still pending.\n", left)
			return nil
		}
		fmt.Println("✓ All conflicts resolved.")
		return nil
	},
}

var syncConflictsDiscardCmd = &cobra.Command{
	Use:   "discard",
	Short: "Keep local values for all pending conflicts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := paths.ConflictsDir()
		if !sync.HasPendingConflicts(dir) {
			fmt.Println("No pending conflicts.")
			return nil
		}
		if _, err := discardConflicts(profiles, dir); err != nil {
			return err
		}
		fmt.Println("All pending conflicts discarded.")
		return nil
	},
}

// discardConflicts keeps the local side of every pending conflict and returns
// how many there were.
func discardConflicts(st sync.Store, dir string) (int, error) {
	file, err := sync.LoadConflicts(dir)
	if err != nil {
		return 0, err
	}
	choices := make(map[string]merge.Choice, len(file.Conflicts))
	for _, c := range file.MergeConflicts() {
		choices[c.Name] = merge.KeepLocal
	}
	engine := &sync.Engine{Store: st, ConflictsDir: dir}
	if _, err := engine.ResolvePending(choices); err != nil {
		return 0, err
	}
	return len(choices), nil
}

// promptResolver asks about each conflict in turn. Skipped conflicts stay
// pending.
func promptResolver(conflicts []merge.Conflict) (map[string]merge.Choice, error) {
	choices := make(map[string]merge.Choice, len(conflicts))
	if !isTerminal() {
		return choices, nil
	}
	for _, c := range conflicts {
		printConflict(c)
		answer := "skip"
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(fmt.Sprintf("Profile '%s' changed on both sides", c.Name)).
					Options(
						huh.NewOption("Keep local", merge.KeepLocal.String()),
						huh.NewOption("Take remote", merge.KeepRemote.String()),
						huh.NewOption("Decide later", "skip"),
					).
					Value(&answer),
			),
		).Run()
		if err != nil {
			return nil, err
		}
		if answer == "skip" {
			continue
		}
		choice, err := merge.ParseChoice(answer)
		if err != nil {
			return nil, err
		}
		choices[c.Name] = choice
	}
	return choices, nil
}

func printConflict(c merge.Conflict) {
	fmt.Printf("  %s\n", c.Name)
	fmt.Printf("      Local:  %s\n", describeProfile(c.Local))
	fmt.Printf("      Remote: %s\n", describeProfile(c.Remote))
	fmt.Println()
}

func describeProfile(p profile.Profile) string {
	s := fmt.Sprintf("%s / %s, adc %s / %s", p.UserAccount, p.UserProject, p.ADCAccount, p.ADCQuotaProject)
	if p.UpdatedAt != nil {
		s += " (updated " + p.UpdatedAt.Local().Format("2006-01-02 15:04") + ")"
	}
	return s
}

func shortRev(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

func init() {
	syncInitCmd.Flags().StringVarP(&syncBranch, "branch", "b", "main", "Branch to sync on")

	syncConflictsCmd.AddCommand(syncConflictsResolveCmd, syncConflictsDiscardCmd)
	syncCmd.AddCommand(syncInitCmd, syncPushCmd, syncPullCmd, syncConflictsCmd)
}
