package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sidequest-app/sidequest/internal/app/profile"
	"github.com/sidequest-app/sidequest/internal/daemon"
	"github.com/sidequest-app/sidequest/internal/domain"
)

// withProfiles opens the local store for the duration of fn.
func withProfiles(fn func(*profile.Service) error) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(d.Profiles)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row(header))
	return tw
}

// formatReward renders a reward as "+46 xp" or "+1 item:spare_tire (rare)".
func formatReward(r domain.Reward) string {
	name := string(r.Type)
	if r.Type == domain.RewardItem && r.ItemID != "" {
		name += ":" + r.ItemID
	}
	s := fmt.Sprintf("+%d %s", r.Amount, name)
	if r.Rarity != "" && r.Rarity != domain.RarityCommon {
		s += fmt.Sprintf(" (%s)", r.Rarity)
	}
	return s
}

func formatRewards(rs []domain.Reward) string {
	if len(rs) == 0 {
		return "none"
	}
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = formatReward(r)
	}
	return strings.Join(parts, ", ")
}
