package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"questlog/internal/storage"
	"questlog/internal/ui"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Show the database location and schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			v, dirty, err := storage.SchemaVersion(a.dbPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.LabelValue("Path", a.dbPath))
			schema := fmt.Sprintf("%d", v)
			if dirty {
				schema += " " + ui.Bad.Render("(dirty)")
			}
			fmt.Fprintln(out, ui.LabelValue("Schema", schema))
			fmt.Fprintln(out, ui.LabelValue("Quests", len(a.sess.State().AllQuests)))
			return nil
		},
	}

	return cmd
}
