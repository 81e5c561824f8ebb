package main

import (
	"os"

	"finplan/internal/cli"
	"finplan/internal/config"
	"finplan/internal/log"

	"github.com/spf13/cobra"
)

// env is filled by the root command before any subcommand runs.
type env struct {
	cfg    *config.Config
	logger *log.Logger
}

func newRootCommand() *cobra.Command {
	e := &env{}

	cmd := &cobra.Command{
		Use:   "finplan",
		Short: "Personal finance planner: debt snapshots, retirement checks and recurring expenses",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.logger = cli.SetupLogger(cfg, log.ComponentApp)
			return nil
		},
	}

	cmd.AddCommand(newServeCommand(e))
	cmd.AddCommand(newIngestCommand(e))
	cmd.AddCommand(newReloadCommand(e))
	cmd.AddCommand(newBackfillCommand(e))
	cmd.AddCommand(newProcessRecurringCommand(e))
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
