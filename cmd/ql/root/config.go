package root

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"questlog/internal/config"
	"questlog/internal/ui"
)

func newConfigCmd() *cobra.Command {
	var initFile bool
	var force bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration or write the defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}
			out := cmd.OutOrStdout()

			if initFile {
				if _, err := os.Stat(path); err == nil && !force {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				} else if err != nil && !errors.Is(err, os.ErrNotExist) {
					return err
				}
				if err := config.DefaultConfig().Save(path); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s\n", ui.Good.Render(ui.IconDone+" Wrote"), path)
				return nil
			}

			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.LabelValue("File", path))
			fmt.Fprintln(out, ui.LabelValue("Database", valueOr(cfg.Database.Path, "(default)")))
			fmt.Fprintln(out, ui.LabelValue("Base XP", cfg.RewardCalculator().BaseExperience))
			fmt.Fprintln(out, ui.LabelValue("Timezone", valueOr(cfg.Calendar.Timezone, "(local)")))
			fmt.Fprintln(out, ui.LabelValue("Week start", cfg.Calendar.WeekStart))
			fmt.Fprintln(out, ui.LabelValue("Request timeout", cfg.Session.RequestTimeout))
			fmt.Fprintln(out, ui.LabelValue("Rollover", cfg.Scheduler.RolloverSpec))
			return nil
		},
	}

	cmd.Flags().BoolVar(&initFile, "init", false, "Write the default configuration file")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file with --init")

	return cmd
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
