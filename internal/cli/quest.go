package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sidequest-app/sidequest/internal/app/profile"
	"github.com/sidequest-app/sidequest/internal/domain"
)

func init() {
	questAddCmd.Flags().StringVar(&questIn.Difficulty, "difficulty", "standard", "easy, standard or hard")
	questAddCmd.Flags().StringVar(&questIn.Category, "category", "", "Quest category")
	questAddCmd.Flags().StringSliceVar(&questIn.Signals, "signal", nil, "Verification signal (repeatable)")
	questAddCmd.Flags().IntVar(&questIn.CooldownHours, "cooldown", 0, "Hours before the quest can be completed again (0 = one-shot)")
	questAddCmd.Flags().Int64Var(&questIn.BaseXP, "xp", 0, "Base XP (0 = default)")
	questAddCmd.Flags().Int64Var(&questIn.BaseGold, "gold", 0, "Base gold (0 = default)")

	questListCmd.Flags().StringVar(&questStatus, "status", "", "Filter by status: active, completed or archived")

	completeCmd.Flags().StringVar(&completeNote, "note", "", "Free-form evidence note")
	completeCmd.Flags().StringVar(&completePhoto, "photo", "", "Photo proof reference")
	completeCmd.Flags().StringVar(&completeLocation, "location", "", "Location dwell hash")
	completeCmd.Flags().Float64Var(&completeFocus, "focus-minutes", 0, "Focus timer duration in minutes")
	completeCmd.Flags().IntVar(&completeSwitches, "app-switches", 0, "App switches during the focus session")
	completeCmd.Flags().Float64Var(&completeWorkout, "workout-minutes", 0, "Workout minutes from health data")
	completeCmd.Flags().Int64Var(&completeSteps, "steps", 0, "Steps from health data")
	completeCmd.Flags().BoolVar(&completeSaver, "use-saver", false, "Spend a streak saver to bridge a missed day")

	questCmd.AddCommand(questAddCmd, questListCmd, questArchiveCmd)
	rootCmd.AddCommand(questCmd, completeCmd)
}

var (
	questIn struct {
		Difficulty    string
		Category      string
		Signals       []string
		CooldownHours int
		BaseXP        int64
		BaseGold      int64
	}
	questStatus string

	completeNote     string
	completePhoto    string
	completeLocation string
	completeFocus    float64
	completeSwitches int
	completeWorkout  float64
	completeSteps    int64
	completeSaver    bool
)

var questCmd = &cobra.Command{
	Use:   "quest",
	Short: "Manage quests",
}

var questAddCmd = &cobra.Command{
	Use:   "add USER TITLE",
	Short: "Add a quest",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := profile.QuestInput{
			Title:         args[1],
			Difficulty:    domain.Difficulty(questIn.Difficulty),
			Category:      questIn.Category,
			CooldownHours: questIn.CooldownHours,
			BaseXP:        questIn.BaseXP,
			BaseGold:      questIn.BaseGold,
		}
		for _, s := range questIn.Signals {
			in.Signals = append(in.Signals, domain.VerificationSignal(strings.TrimSpace(s)))
		}
		return withProfiles(func(svc *profile.Service) error {
			q, err := svc.CreateQuest(args[0], in)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), q)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added quest %q (%s)\n", q.Title, q.ID)
			return nil
		})
	},
}

var questListCmd = &cobra.Command{
	Use:     "list USER",
	Aliases: []string{"ls"},
	Short:   "List a user's quests",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfiles(func(svc *profile.Service) error {
			quests, err := svc.ListQuests(args[0], domain.QuestStatus(questStatus))
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), quests)
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "Title", "Difficulty", "Category", "Signals", "Status", "Ready")
			for _, q := range quests {
				ready := "now"
				if q.Status != domain.QuestActive {
					ready = "-"
				} else if end := q.CooldownEndsAt(); q.Recurring() && !end.IsZero() {
					ready = end.Format("01-02 15:04")
				}
				sigs := make([]string, len(q.Signals))
				for i, s := range q.Signals {
					sigs[i] = string(s)
				}
				tw.AppendRow([]any{q.ID, q.Title, q.Difficulty, q.Category, strings.Join(sigs, ","), q.Status, ready})
			}
			tw.Render()
			return nil
		})
	},
}

var questArchiveCmd = &cobra.Command{
	Use:   "archive USER QUEST",
	Short: "Archive a quest",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfiles(func(svc *profile.Service) error {
			if err := svc.ArchiveQuest(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived quest %s\n", args[1])
			return nil
		})
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete USER QUEST",
	Short: "Complete a quest and collect its rewards",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := profile.CompleteRequest{
			Payload:        payloadFromFlags(),
			UseStreakSaver: completeSaver,
		}
		return withProfiles(func(svc *profile.Service) error {
			out, err := svc.CompleteQuest(args[0], args[1], req)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), out)
			}
			printCompletion(cmd, out)
			return nil
		})
	},
}

// payloadFromFlags builds evidence from whichever flags were set.
func payloadFromFlags() domain.VerificationPayload {
	p := domain.VerificationPayload{
		Note:         completeNote,
		PhotoRef:     completePhoto,
		LocationHash: completeLocation,
	}
	if completeFocus > 0 {
		p.Focus = &domain.FocusSession{DurationMinutes: completeFocus, AppSwitches: completeSwitches}
	}
	if completeWorkout > 0 || completeSteps > 0 {
		p.Health = &domain.HealthSummary{WorkoutMinutes: completeWorkout, Steps: completeSteps}
	}
	return p
}

func printCompletion(cmd *cobra.Command, out *profile.CompletionOutcome) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Quest complete! confidence %.2f, trust %+.1f\n",
		out.Verification.Confidence, out.Verification.TrustDelta)
	if out.ProofID != "" {
		fmt.Fprintf(w, "Spot check: rewards held until proof is submitted (proof %s)\n", out.ProofID)
	} else {
		fmt.Fprintf(w, "Rewards: %s\n", formatRewards(out.Rewards))
	}
	if len(out.BonusRewards) > 0 {
		fmt.Fprintf(w, "Bonus:   %s\n", formatRewards(out.BonusRewards))
	}
	if out.LeveledUp {
		fmt.Fprintf(w, "Level up! Now level %d\n", out.NewLevel)
	}
	fmt.Fprintf(w, "Streak:  %d\n", out.Streak.Streak)
	if out.Chest != nil {
		fmt.Fprintf(w, "Daily chest unlocked: %s (%s)\n", out.Chest.Tier, out.Chest.ID)
	}
	if out.ChestUpgraded != nil {
		fmt.Fprintf(w, "Daily chest upgraded: %s (%s)\n", out.ChestUpgraded.Tier, out.ChestUpgraded.ID)
	}
	for _, b := range out.Badges {
		fmt.Fprintf(w, "Badge earned: %s %s\n", b.Icon, b.Name)
	}
	fmt.Fprintln(w, levelLine(out.Snapshot))
}
