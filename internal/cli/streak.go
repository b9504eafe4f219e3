package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidequest-app/sidequest/internal/app/profile"
)

func init() {
	saversCmd.Flags().IntVar(&saverCount, "count", 1, "Number of savers to grant")
	decayCmd.Flags().BoolVar(&decayAll, "all", false, "Settle decay for every user")
	streakCmd.AddCommand(saversCmd)
	rootCmd.AddCommand(streakCmd, decayCmd)
}

var (
	saverCount int
	decayAll   bool
)

var streakCmd = &cobra.Command{
	Use:   "streak USER",
	Short: "Show streak status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfiles(func(svc *profile.Service) error {
			st, err := svc.StreakStatus(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), st)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Streak:  %d (best %d)\n", st.Streak, st.LongestStreak)
			fmt.Fprintf(w, "State:   %s\n", st.State)
			fmt.Fprintf(w, "Savers:  %d\n", st.SaversHeld)
			if st.CanUseSaver {
				fmt.Fprintln(w, "Your streak is broken. Complete a quest with --use-saver to keep it.")
			}
			return nil
		})
	},
}

var saversCmd = &cobra.Command{
	Use:   "savers USER",
	Short: "Grant streak savers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfiles(func(svc *profile.Service) error {
			u, err := svc.GrantStreakSavers(args[0], saverCount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now holds %d streak savers\n", u.Name, u.Snapshot.StreakSavers)
			return nil
		})
	},
}

var decayCmd = &cobra.Command{
	Use:   "decay [USER]",
	Short: "Settle weekly trust decay",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if decayAll == (len(args) == 1) {
			return fmt.Errorf("pass either a USER or --all")
		}
		return withProfiles(func(svc *profile.Service) error {
			var results []profile.DecayResult
			if decayAll {
				all, err := svc.ApplyWeeklyDecayAll()
				if err != nil {
					return err
				}
				results = all
			} else {
				res, err := svc.ApplyWeeklyDecay(args[0])
				if err != nil {
					return err
				}
				results = []profile.DecayResult{*res}
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), results)
			}
			tw := newTable(cmd.OutOrStdout(), "User", "Weeks", "Decays", "Trust Before", "Trust After")
			for _, r := range results {
				tw.AppendRow([]any{r.UserID, r.WeeksEvaluated, r.Decays,
					fmt.Sprintf("%.1f", r.TrustBefore), fmt.Sprintf("%.1f", r.TrustAfter)})
			}
			tw.Render()
			return nil
		})
	},
}
