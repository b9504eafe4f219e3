package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidequest-app/sidequest/internal/app/profile"
	"github.com/sidequest-app/sidequest/internal/domain"
)

func init() {
	proofSubmitCmd.Flags().StringVar(&proofPhoto, "photo", "", "Photo proof reference")
	proofSubmitCmd.Flags().StringVar(&proofNote, "note", "", "Evidence note")
	proofCmd.AddCommand(proofListCmd, proofSubmitCmd, proofRejectCmd)
	rootCmd.AddCommand(proofCmd)
}

var (
	proofPhoto string
	proofNote  string
)

var proofCmd = &cobra.Command{
	Use:   "proof",
	Short: "Resolve spot checks",
}

var proofListCmd = &cobra.Command{
	Use:     "list USER",
	Aliases: []string{"ls"},
	Short:   "List completions waiting for proof",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfiles(func(svc *profile.Service) error {
			proofs, err := svc.PendingProofs(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), proofs)
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "Quest", "Confidence", "Held Rewards", "Requested")
			for _, p := range proofs {
				tw.AppendRow([]any{p.ID, p.QuestID, fmt.Sprintf("%.2f", p.Confidence),
					formatRewards(p.Rewards), p.CreatedAt.Format("2006-01-02 15:04")})
			}
			tw.Render()
			return nil
		})
	},
}

var proofSubmitCmd = &cobra.Command{
	Use:   "submit USER PROOF",
	Short: "Submit evidence and release held rewards",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		evidence := domain.VerificationPayload{PhotoRef: proofPhoto, Note: proofNote}
		return withProfiles(func(svc *profile.Service) error {
			out, err := svc.SubmitProof(args[0], args[1], evidence)
			if err != nil {
				return err
			}
			return printProof(cmd, out)
		})
	},
}

var proofRejectCmd = &cobra.Command{
	Use:   "reject USER PROOF",
	Short: "Decline a spot check and forfeit its rewards",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfiles(func(svc *profile.Service) error {
			out, err := svc.RejectProof(args[0], args[1])
			if err != nil {
				return err
			}
			return printProof(cmd, out)
		})
	},
}

func printProof(cmd *cobra.Command, out *profile.ProofOutcome) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), out)
	}
	w := cmd.OutOrStdout()
	if out.Accepted {
		fmt.Fprintf(w, "Proof accepted: %s\n", formatRewards(out.Rewards))
		if len(out.Bonus) > 0 {
			fmt.Fprintf(w, "Bonus: %s\n", formatRewards(out.Bonus))
		}
	} else {
		fmt.Fprintln(w, "Spot check declined, rewards forfeited")
	}
	fmt.Fprintln(w, trustLine(out.Snapshot))
	return nil
}
