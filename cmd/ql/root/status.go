package root

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"questlog/internal/engine"
	"questlog/internal/ui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show level, wallet, streak, achievements and boosters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()
			out := cmd.OutOrStdout()
			now := time.Now()

			p, err := a.svc.Player(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Heading(ui.IconSparkle, "Player Status"))
			fmt.Fprintln(out, ui.LabelValue("Level", p.Level))
			fmt.Fprintln(out, ui.LabelValue("Total XP", fmt.Sprintf("%d (next at %d, %d to go)", p.XPTotal, p.LevelCeil, p.XPToNext)))
			fmt.Fprintf(out, "%s %s\n", ui.ProgressBar(p.XPTotal-p.LevelFloor, p.LevelCeil-p.LevelFloor, 24), ui.Muted.Render(fmt.Sprintf("level %d → %d", p.Level, p.Level+1)))
			fmt.Fprintln(out, ui.LabelValue("Wallet", fmt.Sprintf("%s %d  %s %d", ui.IconCoin, p.Coins, ui.IconGem, p.Gems)))

			st, err := a.svc.Streak(ctx, now)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.LabelValue("Streak", fmt.Sprintf("%s %d days (best %d)", ui.IconFire, st.Current, st.Longest)))
			fmt.Fprintln(out, "")

			checker, err := a.svc.Achievements(ctx)
			if err != nil {
				return err
			}
			achievements := checker.GetAchievements()
			fmt.Fprintln(out, ui.H2.Render(fmt.Sprintf("%s Achievements (%d/%d)", ui.IconTrophy, checker.CountEarned(), len(achievements))))
			for _, ach := range achievements {
				if ach.Earned {
					fmt.Fprintf(out, "- %s %s %s\n", ach.Icon, ui.Good.Render(ach.Name), ui.Muted.Render(ach.Description))
				} else {
					fmt.Fprintf(out, "- %s %s\n", ui.Dim.Render("🔒 "+ach.Name), ui.Muted.Render(ach.Description))
				}
			}
			fmt.Fprintln(out, "")

			boosters, err := a.svc.ActiveBoosters(ctx, now)
			if err != nil {
				return err
			}
			if len(boosters) == 0 {
				return nil
			}
			fmt.Fprintln(out, ui.H2.Render(ui.IconBolt+" Active boosters"))
			for _, b := range boosters {
				fmt.Fprintf(out, "- %s\n", boosterText(b))
			}
			return nil
		},
	}

	return cmd
}

func boosterText(b engine.BoosterEffect) string {
	s := fmt.Sprintf("%s x%.2f", b.Type, b.Multiplier)
	if b.FlatBonus != 0 {
		s += fmt.Sprintf(" %+d", b.FlatBonus)
	}
	if b.SourceName != "" {
		s += " " + ui.Muted.Render("("+b.SourceName+")")
	}
	if b.ExpiresAt != nil {
		s += " " + ui.Muted.Render("until "+b.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	return s
}
