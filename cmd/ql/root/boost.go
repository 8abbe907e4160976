package root

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"questlog/internal/engine"
	"questlog/internal/ui"
)

func newBoostCmd() *cobra.Command {
	var mult float64
	var flat int
	var duration time.Duration
	var name string
	var source string

	cmd := &cobra.Command{
		Use:   "boost <xp|coins|both>",
		Short: "Add a reward booster",
		Long: `Add a reward booster.

Active boosters apply when a quest is finished: multipliers compound, flat
bonuses are added after. A booster without --for never expires.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("booster type is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			typ, err := engine.ParseBoosterType(args[0])
			if err != nil {
				return err
			}
			b := engine.BoosterEffect{
				Type:       typ,
				Multiplier: mult,
				FlatBonus:  flat,
				Source:     engine.BoosterSource(source),
				SourceName: name,
			}
			if duration > 0 {
				exp := time.Now().Add(duration)
				b.ExpiresAt = &exp
			}
			if b.Source != engine.SourceItem && b.Source != engine.SourceBuilding {
				return fmt.Errorf("invalid booster source: %q", source)
			}
			id, err := a.svc.AddBooster(ctx, b)
			if err != nil {
				return err
			}
			if b.Multiplier <= 0 {
				b.Multiplier = 1
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s #%d %s\n", ui.Good.Render(ui.IconBolt+" Booster added"), id, boosterText(b))
			return nil
		},
	}

	cmd.Flags().Float64VarP(&mult, "mult", "x", 1, "Multiplier")
	cmd.Flags().IntVar(&flat, "flat", 0, "Flat bonus added after multipliers")
	cmd.Flags().DurationVar(&duration, "for", 0, "Lifetime, e.g. 24h (default forever)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&source, "source", string(engine.SourceItem), "Source (item|building)")

	return cmd
}
