package root

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"questlog/internal/engine"
	"questlog/internal/session"
	"questlog/internal/ui"
)

func newDoCmd() *cobra.Command {
	var date string
	var finish bool

	cmd := &cobra.Command{
		Use:   "do <id>",
		Short: "Mark a quest done for a day",
		Long: `Mark a quest done for a day (today by default).

Weekly quests are marked for the whole week and one-time quests for good.
When this covers the quest's last occurrence you are asked to finish it;
pass --finish to claim the reward right away.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("id is required")
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

			d, err := a.day(date)
			if err != nil {
				return err
			}
			q, err := questRef(a, args)
			if err != nil {
				return err
			}
			if err := a.sess.SetCompleted(ctx, q.ID, d, true); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s %s %s\n", ui.Good.Render(ui.IconDone+" Done"), ui.Muted.Render(shortID(q.ID)), q.Title, ui.Muted.Render(a.cal.DayKey(d)))

			if !a.sess.State().ShowFinishConfirmation {
				return nil
			}
			if !finish {
				fmt.Fprintf(out, "%s That was the last one. Claim the reward: %s\n",
					ui.Muted.Render(ui.IconTrophy),
					ui.Key.Render("ql finish "+shortID(q.ID)))
				a.sess.DeclineFinish()
				return nil
			}
			err = a.sess.ConfirmFinish(ctx)
			if c, ok := a.sess.ConsumeCompletion(); ok {
				printCompletion(out, c)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day, YYYY-MM-DD (default today)")
	cmd.Flags().BoolVarP(&finish, "finish", "f", false, "Finish the quest if this was its last occurrence")

	return cmd
}

func printCompletion(out io.Writer, c session.Completion) {
	fmt.Fprintf(out, "%s %s %s\n", ui.Gold.Render(ui.IconTrophy+" Finished"), c.Quest.Title, ui.RewardLine(c.Reward.Experience, c.Reward.Coins, c.Reward.Gems))
	if c.Reward.Experience != c.Reward.BaseExperience || c.Reward.Coins != c.Reward.BaseCoins {
		fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("%s boosted from %d XP / %d coins", ui.IconBolt, c.Reward.BaseExperience, c.Reward.BaseCoins)))
	}
	if c.LeveledUp {
		fmt.Fprintf(out, "%s %s\n", ui.BadgeLevelUp, ui.LabelValue("Level", c.NewLevel))
	}
	for _, ach := range c.Achievements {
		fmt.Fprintf(out, "%s %s %s\n", ach.Icon, ui.Good.Render(ach.Name), ui.Muted.Render(ach.Description))
	}
}

// questRef resolves the single quest argument of a command.
func questRef(a *app, args []string) (engine.Quest, error) {
	if len(args) == 0 {
		return engine.Quest{}, errors.New("id is required")
	}
	return a.sess.FindQuest(args[0])
}
