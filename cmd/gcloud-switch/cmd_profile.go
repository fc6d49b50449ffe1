package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tjirsch/gcloud-switch/internal/app"
	"github.com/tjirsch/gcloud-switch/internal/gcloud"
	"github.com/tjirsch/gcloud-switch/internal/paths"
	"github.com/tjirsch/gcloud-switch/internal/profile"
	"github.com/tjirsch/gcloud-switch/internal/validate"
)

var addFlags struct {
	account         string
	project         string
	adcAccount      string
	adcQuotaProject string
}

var addCmd = &cobra.Command{
	Use:   "add <name> --account <email> --project <id>",
	Short: "Add a profile",
	Long:  "Add a profile. The ADC account and quota project default to the user account and project.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		p, err := newProfile(name, addFlags.account, addFlags.project, addFlags.adcAccount, addFlags.adcQuotaProject, time.Now())
		if err != nil {
			return err
		}

		set, err := loadProfiles()
		if err != nil {
			return err
		}
		if err := set.Add(name, p); err != nil {
			return err
		}
		if err := profiles.SaveProfiles(set); err != nil {
			return err
		}
		fmt.Printf("✓ Profile '%s' added.\n", name)

		st, err := loadState()
		if err != nil {
			return err
		}
		if st.SyncMode != profile.SyncOff {
			if err := executor.CreateConfiguration(cmd.Context(), name, p); err != nil {
				log.Warn("creating gcloud configuration failed", "name", name, "err", err)
			}
		}
		return nil
	},
}

// newProfile builds a stamped profile from the add flags.
func newProfile(name, account, project, adcAccount, adcQuotaProject string, now time.Time) (profile.Profile, error) {
	if strings.ContainsAny(name, `/\`) {
		return profile.Profile{}, fmt.Errorf("%w: profile name %q must not contain slashes", profile.ErrInvalid, name)
	}
	p := profile.New(account, project, adcAccount, adcQuotaProject)
	if err := p.Validate(); err != nil {
		return p, err
	}
	p.Touch(now)
	return p, nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadProfiles()
		if err != nil {
			return err
		}
		if set.Len() == 0 {
			fmt.Println("No profiles. Add one with 'gcloud-switch add' or 'gcloud-switch import'.")
			return nil
		}
		st, err := loadState()
		if err != nil {
			return err
		}

		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"", "Profile", "User account", "Project", "ADC account", "Quota project"})
		for _, name := range set.Names() {
			p, _ := set.Get(name)
			marker := ""
			if name == st.ActiveProfile {
				marker = "*"
			}
			tw.AppendRow(table.Row{marker, name, p.UserAccount, p.UserProject, p.ADCAccount, p.ADCQuotaProject})
		}
		tw.Render()
		return nil
	},
}

var switchScope string

var switchCmd = &cobra.Command{
	Use:   "switch <name>",
	Short: "Activate a profile",
	Long: "Activate a profile for the user config, ADC or both. Legs whose credentials are " +
		"not known to be valid are re-authenticated first.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := profile.ParseScope(switchScope)
		if err != nil {
			return err
		}
		set, err := loadProfiles()
		if err != nil {
			return err
		}
		name := args[0]
		p, err := lookupProfile(set, name)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		for _, kind := range scope.Kinds() {
			account := p.Account(kind)
			checkCtx, cancel := context.WithTimeout(ctx, cfg.Check.Timeout)
			state := validate.Check(checkCtx, oracle, account)
			cancel()
			if state == validate.Valid {
				continue
			}
			fmt.Printf("Credentials for %s (%s) are %s, re-authenticating...\n", account, kind, state)
			if err := executor.Reauthenticate(ctx, name, p, kind); err != nil {
				return err
			}
		}
		if err := executor.Activate(ctx, name, p, scope); err != nil {
			return err
		}

		st, err := loadState()
		if err != nil {
			return err
		}
		st.ActiveProfile = name
		if err := profiles.SaveState(st); err != nil {
			return err
		}
		fmt.Printf("✓ Activated '%s' (%s).\n", name, scope)
		return nil
	},
}

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		set, err := loadProfiles()
		if err != nil {
			return err
		}
		if _, err := lookupProfile(set, name); err != nil {
			return err
		}

		if !deleteYes {
			confirmed := false
			err := huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Delete profile '%s'?", name)).
						Affirmative("Delete").
						Negative("Cancel").
						Value(&confirmed),
				),
			).Run()
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		set.Delete(name)
		if err := profiles.SaveProfiles(set); err != nil {
			return err
		}
		if err := adc.Delete(name); err != nil {
			log.Warn("removing stored ADC credentials failed", "profile", name, "err", err)
		}

		st, err := loadState()
		if err != nil {
			return err
		}
		if st.ActiveProfile == name {
			st.ActiveProfile = ""
			if err := profiles.SaveState(st); err != nil {
				return err
			}
		}
		if st.SyncMode == profile.SyncStrict {
			if err := executor.DeleteConfiguration(cmd.Context(), name); err != nil {
				log.Warn("removing gcloud configuration failed", "name", name, "err", err)
			}
		}
		fmt.Printf("✓ Profile '%s' deleted.\n", name)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import gcloud configurations as profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := paths.GcloudDir()
		configs, err := gcloud.Configurations(dir)
		if err != nil {
			return err
		}
		active, err := gcloud.ActiveConfiguration(dir)
		if err != nil {
			log.Debug("reading active gcloud configuration failed", "err", err)
		}
		set, err := loadProfiles()
		if err != nil {
			return err
		}
		st, err := loadState()
		if err != nil {
			return err
		}

		r := app.Import(set, &st, configs, active, time.Now())
		for _, name := range r.Skipped {
			fmt.Printf("  skipped %s (no account or project)\n", name)
		}
		if len(r.Imported) == 0 {
			fmt.Println("Nothing to import.")
			return nil
		}
		if err := profiles.SaveProfiles(set); err != nil {
			return err
		}
		if r.Active != "" {
			if err := profiles.SaveState(st); err != nil {
				return err
			}
		}
		fmt.Printf("✓ Imported %d profile(s): %s\n", len(r.Imported), strings.Join(r.Imported, ", "))
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addFlags.account, "account", "", "User account email")
	addCmd.Flags().StringVar(&addFlags.project, "project", "", "User project")
	addCmd.Flags().StringVar(&addFlags.adcAccount, "adc-account", "", "ADC account email (defaults to --account)")
	addCmd.Flags().StringVar(&addFlags.adcQuotaProject, "adc-quota-project", "", "ADC quota project (defaults to --project)")
	_ = addCmd.MarkFlagRequired("account")
	_ = addCmd.MarkFlagRequired("project")

	switchCmd.Flags().StringVarP(&switchScope, "scope", "s", "both", "What to activate: both, user or adc")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete without asking")
}
