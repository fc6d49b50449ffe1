package main

import (
	"context"
	"fmt"
	"os"
	gosync "sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tjirsch/gcloud-switch/internal/validate"
)

// statusConcurrency caps simultaneous credential checks.
const statusConcurrency = 4

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the credentials of every profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadProfiles()
		if err != nil {
			return err
		}
		if set.Len() == 0 {
			fmt.Println("No profiles.")
			return nil
		}
		st, err := loadState()
		if err != nil {
			return err
		}

		states := checkAll(cmd.Context(), oracle, cfg.Check.Timeout, set.Accounts())

		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"", "Profile", "User account", "", "ADC account", ""})
		for _, name := range set.Names() {
			p, _ := set.Get(name)
			marker := ""
			if name == st.ActiveProfile {
				marker = "*"
			}
			tw.AppendRow(table.Row{
				marker, name,
				p.UserAccount, states[p.UserAccount],
				p.ADCAccount, states[p.ADCAccount],
			})
		}
		tw.Render()
		fmt.Printf("Sync mode: %s\n", st.SyncMode)
		return nil
	},
}

// checkAll checks each account once, a few at a time.
func checkAll(ctx context.Context, o validate.Oracle, timeout time.Duration, accounts []string) map[string]validate.State {
	var mu gosync.Mutex
	states := make(map[string]validate.State, len(accounts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(statusConcurrency)
	for _, account := range accounts {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			state := validate.Check(checkCtx, o, account)
			mu.Lock()
			states[account] = state
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return states
}
