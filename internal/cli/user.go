package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidequest-app/sidequest/internal/app/profile"
	"github.com/sidequest-app/sidequest/internal/domain"
)

func init() {
	userCmd.AddCommand(userCreateCmd, userShowCmd, userListCmd)
	rootCmd.AddCommand(userCmd)
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a user with starter quests",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfiles(func(svc *profile.Service) error {
			u, err := svc.CreateUser(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), u)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", u.Name, u.ID)
			return nil
		})
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show USER",
	Short: "Show a user's progression",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfiles(func(svc *profile.Service) error {
			u, err := svc.GetUser(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), u)
			}
			printUser(cmd, u)
			return nil
		})
	},
}

func printUser(cmd *cobra.Command, u *domain.User) {
	out := cmd.OutOrStdout()
	s := u.Snapshot
	fmt.Fprintf(out, "Name:     %s\n", u.Name)
	fmt.Fprintf(out, "ID:       %s\n", u.ID)
	fmt.Fprintf(out, "%s\n", levelLine(s))
	fmt.Fprintf(out, "%s\n", trustLine(s))
	fmt.Fprintf(out, "Gold:     %d\n", s.Currencies.Gold)
	fmt.Fprintf(out, "Gems:     %d\n", s.Currencies.Gems)
	fmt.Fprintf(out, "Tickets:  %d\n", s.Currencies.Tickets)
	fmt.Fprintf(out, "Streak:   %d (best %d, savers %d)\n", s.Streak, s.LongestStreak, s.StreakSavers)
	fmt.Fprintf(out, "Quests:   %d completed\n", s.TotalCompletions)
}

var userListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfiles(func(svc *profile.Service) error {
			users, err := svc.ListUsers()
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), users)
			}
			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users yet. Run 'sidequest user create NAME' to get started.")
				return nil
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "Name", "Level", "Trust", "Streak", "Created")
			for _, u := range users {
				tw.AppendRow([]any{u.ID, u.Name, u.Snapshot.Level,
					fmt.Sprintf("%.1f", u.Snapshot.TrustScore), u.Snapshot.Streak,
					u.CreatedAt.Format("2006-01-02 15:04")})
			}
			tw.Render()
			return nil
		})
	},
}
