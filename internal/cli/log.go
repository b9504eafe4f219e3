package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidequest-app/sidequest/internal/app/profile"
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "Number of entries to show")
	rootCmd.AddCommand(logCmd, totalsCmd, badgesCmd)
}

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log USER",
	Short: "Show the reward log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfiles(func(svc *profile.Service) error {
			entries, err := svc.History(args[0], logLimit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), entries)
			}
			tw := newTable(cmd.OutOrStdout(), "Time", "Type", "Amount", "Rarity", "Source", "Confidence")
			for _, e := range entries {
				typ := string(e.Type)
				if e.ItemID != "" {
					typ += ":" + e.ItemID
				}
				tw.AppendRow([]any{e.Timestamp.Format("2006-01-02 15:04"), typ, e.Amount,
					e.Rarity, e.Source, fmt.Sprintf("%.2f", e.Confidence)})
			}
			tw.Render()
			return nil
		})
	},
}

var totalsCmd = &cobra.Command{
	Use:   "totals USER",
	Short: "Show lifetime earnings rebuilt from the reward log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfiles(func(svc *profile.Service) error {
			t, err := svc.Totals(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), t)
			}
			tw := newTable(cmd.OutOrStdout(), "XP", "Gold", "Gems", "Tickets")
			tw.AppendRow([]any{t.XP, t.Gold, t.Gems, t.Tickets})
			tw.Render()
			return nil
		})
	},
}

var badgesCmd = &cobra.Command{
	Use:   "badges USER",
	Short: "Show earned and locked badges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfiles(func(svc *profile.Service) error {
			badges, err := svc.Badges(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), badges)
			}
			tw := newTable(cmd.OutOrStdout(), "", "Badge", "Gems", "Unlocked")
			for _, b := range badges {
				when := "locked"
				if b.Unlocked {
					when = b.UnlockedAt.Format("2006-01-02")
				}
				tw.AppendRow([]any{b.Icon, b.Name, b.RewardGems, when})
			}
			tw.Render()
			return nil
		})
	},
}
