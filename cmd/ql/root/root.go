package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"questlog/internal/ui"
)

const Version = "0.2.0"

var configPath string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ql",
		Short:         "Questlog - quests, streaks and levels for your habits",
		Long:          "Questlog is a local-first CLI/TUI habit tracker. Quests repeat daily, weekly or on chosen weekdays and pay out XP, coins and gems when finished.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.questlog/config.toml)")

	rootCmd.AddCommand(
		newAddCmd(),
		newListCmd(),
		newDoCmd(),
		newUndoCmd(),
		newFinishCmd(),
		newTaskCmd(),
		newProgressCmd(),
		newDeleteCmd(),
		newStatusCmd(),
		newBoostCmd(),
		newBoardCmd(),
		newWatchCmd(),
		newDBCmd(),
		newShowCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
