package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"customsagent/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config
	var logger *log.Logger

	root := &cobra.Command{
		Use:           "agent",
		Short:         "Natural-language queries over customs declarations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			level, err := log.ParseLevel(cfg.LogLevel)
			if err != nil {
				level = log.InfoLevel
			}
			logger = log.NewWithOptions(os.Stderr, log.Options{
				Level:           level,
				ReportTimestamp: true,
			})
			return nil
		},
	}

	root.AddCommand(
		newQueryCmd(&cfg, &logger),
		newAskCmd(&cfg, &logger),
		newServeCmd(&cfg, &logger),
		newIngestCmd(&cfg, &logger),
		newSchemaCmd(&cfg, &logger),
		newHistoryCmd(&cfg, &logger),
		newCheckDepsCmd(&cfg),
	)
	return root
}
