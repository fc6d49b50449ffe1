package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tjirsch/gcloud-switch/internal/config"
	"github.com/tjirsch/gcloud-switch/internal/selfupdate"
)

const updateCheckTimeout = 3 * time.Second

var (
	versionCheck bool

	selfUpdateCheckOnly        bool
	selfUpdateNoDownloadReadme bool
	selfUpdateNoOpenReadme     bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("gcloud-switch %s\n", version)
		if !versionCheck {
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		res, err := selfupdate.New().Check(ctx, version)
		if err != nil {
			return err
		}
		recordUpdateCheck()
		if res.Available {
			fmt.Printf("A newer release is available: %s\n%s\n", res.Latest, res.URL)
			fmt.Println("Run 'gcloud-switch self-update' to install it.")
		} else {
			fmt.Println("You are on the latest release.")
		}
		return nil
	},
}

// maybeCheckForUpdate prints a notice when a newer release exists. It runs
// at most as often as update.frequency allows and never fails the command.
func maybeCheckForUpdate(cmd *cobra.Command) {
	if cfg == nil || versionCheck || cmd == selfUpdateCmd || !isTerminal() {
		return
	}
	if !selfupdate.Due(cfg.Update.Frequency, cfg.Update.LastCheck, time.Now()) {
		return
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), updateCheckTimeout)
	defer cancel()
	res, err := selfupdate.New().Check(ctx, version)
	if err != nil {
		log.Debug("update check failed", "err", err)
		return
	}
	recordUpdateCheck()
	if res.Available {
		stderr("\nA newer gcloud-switch is available: %s → %s\n%s\n", version, res.Latest, res.URL)
		stderr("Run 'gcloud-switch self-update' to install it.\n")
	}
}

var selfUpdateCmd = &cobra.Command{
	Use:   "self-update",
	Short: "Install the latest release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		checker := selfupdate.New()

		fmt.Printf("Current version: %s\n", version)
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		res, err := checker.Check(checkCtx, version)
		cancel()
		if err != nil {
			return err
		}
		recordUpdateCheck()
		fmt.Printf("Latest version:  %s\n", res.Latest)

		if !res.Available {
			fmt.Println("✓ You are running the latest version.")
			return nil
		}
		fmt.Printf("\nA new version is available: %s\n", res.URL)
		if selfUpdateCheckOnly {
			fmt.Println("Run 'gcloud-switch self-update' to install it.")
			return nil
		}

		fmt.Println("\nInstalling update...")
		if err := checker.Install(ctx, os.TempDir()); err != nil {
			return err
		}
		fmt.Println("✓ Update installed. Restart your shell to pick it up.")

		if selfUpdateNoDownloadReadme {
			return nil
		}
		path, err := checker.DownloadReadme(ctx, downloadDir(), res.Latest)
		if err != nil {
			stderr("⚠️  Could not download README: %v\n", err)
			return nil
		}
		fmt.Printf("README: %s\n", path)
		if !selfUpdateNoOpenReadme {
			if err := openFile(path); err != nil {
				log.Debug("opening README failed", "path", path, "err", err)
			}
		}
		return nil
	},
}

// downloadDir is ~/Downloads when it exists, else the temp dir.
func downloadDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		dir := filepath.Join(home, "Downloads")
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return os.TempDir()
}

// openFile hands path to the desktop's default application.
func openFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}

func recordUpdateCheck() {
	if err := cfg.Set(config.KeyUpdateLastCheck, time.Now().UTC().Format(time.RFC3339)); err != nil {
		log.Debug("recording update check failed", "err", err)
		return
	}
	if err := cfg.Save(); err != nil {
		log.Debug("saving config failed", "err", err)
	}
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "Check GitHub for a newer release")

	selfUpdateCmd.Flags().BoolVar(&selfUpdateCheckOnly, "check-only", false, "Only report whether an update is available")
	selfUpdateCmd.Flags().BoolVar(&selfUpdateNoDownloadReadme, "no-download-readme", false, "Do not download the README after installing")
	selfUpdateCmd.Flags().BoolVar(&selfUpdateNoOpenReadme, "no-open-readme", false, "Do not open the downloaded README")
}
