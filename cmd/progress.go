package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/lingoquest/lingoquest/internal/engine"
	"github.com/lingoquest/lingoquest/internal/rewards"
	"github.com/lingoquest/lingoquest/internal/ui/theme"
)

var progressCmd = &cobra.Command{
	Use:   "progress <user-id>",
	Short: "Show a learner's progress card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		eng, err := buildEngine(cmd.Context(), e)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if rebuild, _ := cmd.Flags().GetBool("rebuild"); rebuild {
			rb, err := eng.RebuildLevel(ctx, id)
			if err != nil {
				return err
			}
			switch {
			case rb.Repaired:
				fmt.Printf("Level repaired: %d -> %d\n", rb.StoredLevel, rb.DerivedLevel)
			case rb.Drift:
				fmt.Println(theme.Warn.Render(fmt.Sprintf("Total %d disagrees with point log sum %d; not repaired", rb.TotalPoints, rb.LogSum)))
			}
		}

		p, err := eng.GetProgress(ctx, id)
		if err != nil {
			return err
		}
		coll, err := eng.Collection(ctx, id)
		if err != nil {
			return err
		}
		rarities := make([]string, len(coll))
		for i, c := range coll {
			rarities[i] = c.Vocab.Rarity
		}
		fmt.Println(renderCard(p, rewards.Breakdown(rarities)))

		if n, _ := cmd.Flags().GetInt("history"); n > 0 {
			logs, err := eng.History(ctx, id, n)
			if err != nil {
				return err
			}
			fmt.Println()
			for _, l := range logs {
				fmt.Printf("%s  %+5d  %-12s %s\n", l.CreatedAt.Local().Format("2006-01-02 15:04"), l.Points, l.Source, l.Description)
			}
		}
		return nil
	},
}

func renderCard(p engine.Progress, words []rewards.RarityCount) string {
	row := func(label, value string) string {
		return theme.Label.Render(fmt.Sprintf("%-11s", label)) + theme.Value.Render(value)
	}

	name := p.DisplayName
	if name == "" {
		name = fmt.Sprintf("user %d", p.UserID)
	}
	lines := []string{
		theme.Title.Render(name),
		"",
		row("Level", strconv.Itoa(p.Level)),
		theme.Bar(24, p.Percent/100) + theme.Label.Render(fmt.Sprintf(" %d/%d XP", p.CurrentXP, p.XPToNext)),
		row("Total XP", strconv.Itoa(p.TotalPoints)),
		row("Streak", fmt.Sprintf("%d days", p.Streak)),
		row("Words", strconv.Itoa(p.CollectionSize)),
	}
	if p.CollectionSize > 0 {
		var parts []string
		for _, c := range words {
			if c.Words > 0 {
				parts = append(parts, theme.RarityStyle(string(c.Rarity)).Render(fmt.Sprintf("%d %s", c.Words, c.Rarity.DisplayName())))
			}
		}
		lines = append(lines, row("", strings.Join(parts, "  ")))
	}
	if len(p.Badges) > 0 {
		lines = append(lines, row("Badges", strings.Join(p.Badges, ", ")))
	}
	for kind, n := range p.PendingGrants {
		lines = append(lines, row("Unopened", fmt.Sprintf("%d %s", n, kind)))
	}
	return theme.Card.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func init() {
	progressCmd.Flags().Bool("rebuild", false, "Recompute the level from the point log first")
	progressCmd.Flags().Int("history", 0, "Also list the latest N point log entries")
}
