// Package cli implements the SideQuest command-line interface using Cobra.
// Commands other than serve open the local store directly.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sidequest",
	Short: "SideQuest: habits as quests",
	Long: `SideQuest turns real-life habits into quests.
Complete quests for XP, gold and loot chests, keep your streak alive
and build trust by backing completions with evidence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var jsonOutput bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
