package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidequest-app/sidequest/internal/app/profile"
	"github.com/sidequest-app/sidequest/internal/domain"
)

func init() {
	chestListCmd.Flags().BoolVar(&chestAll, "all", false, "Include opened chests")
	chestGrantCmd.Flags().StringVar(&chestKind, "kind", string(domain.ChestGeneric), "Chest kind: generic or daily")
	chestCmd.AddCommand(chestListCmd, chestOpenCmd, chestGrantCmd)
	rootCmd.AddCommand(chestCmd)
}

var (
	chestAll  bool
	chestKind string
)

var chestCmd = &cobra.Command{
	Use:   "chest",
	Short: "List, open and grant loot chests",
}

var chestListCmd = &cobra.Command{
	Use:     "list USER",
	Aliases: []string{"ls"},
	Short:   "List available chests",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfiles(func(svc *profile.Service) error {
			chests, err := svc.ListChests(args[0], !chestAll)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), chests)
			}
			if len(chests) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No chests waiting. Complete quests to unlock the daily chest.")
				return nil
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "Kind", "Tier", "Slots", "Opened", "Created")
			for _, c := range chests {
				tw.AppendRow([]any{c.ID, c.Kind, c.Tier, len(c.Rewards), c.Opened, c.CreatedAt.Format("2006-01-02 15:04")})
			}
			tw.Render()
			return nil
		})
	},
}

var chestOpenCmd = &cobra.Command{
	Use:   "open USER CHEST",
	Short: "Open a chest",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfiles(func(svc *profile.Service) error {
			out, err := svc.OpenChest(args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Opened %s chest: %s\n", out.Chest.Tier, formatRewards(out.Rewards))
			if len(out.BonusRewards) > 0 {
				fmt.Fprintf(w, "Bonus: %s\n", formatRewards(out.BonusRewards))
			}
			if out.LeveledUp {
				fmt.Fprintf(w, "Level up! Now level %d\n", out.NewLevel)
			}
			for _, b := range out.Badges {
				fmt.Fprintf(w, "Badge earned: %s %s\n", b.Icon, b.Name)
			}
			return nil
		})
	},
}

var chestGrantCmd = &cobra.Command{
	Use:   "grant USER",
	Short: "Grant a chest outside the daily cycle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfiles(func(svc *profile.Service) error {
			c, err := svc.GrantChest(args[0], domain.ChestKind(chestKind))
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), c)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Granted %s %s chest (%s)\n", c.Tier, c.Kind, c.ID)
			return nil
		})
	},
}
