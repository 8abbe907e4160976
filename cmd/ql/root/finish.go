package root

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

func newFinishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finish <id>",
		Short: "Finish a quest and claim its reward",
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

			q, err := questRef(a, args)
			if err != nil {
				return err
			}
			err = a.sess.Finish(ctx, q.ID)
			if c, ok := a.sess.ConsumeCompletion(); ok {
				printCompletion(cmd.OutOrStdout(), c)
			}
			return err
		},
	}

	return cmd
}
