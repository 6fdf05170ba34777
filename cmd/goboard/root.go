package main

import (
	goBoard "github.com/MrEthical07/goBoard"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "goboard",
		Short: "Job board web tier",
		Long: `goboard serves the job board pages, keeps one session per browser context
and talks to the job board REST API on the visitor's behalf.

Configuration comes from GOBOARD_* environment variables, optionally loaded
from an env file.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "env file loaded before reading GOBOARD_* variables")

	cmd.AddCommand(
		newServeCmd(opts),
		newRoutesCmd(opts),
		newLoadtestCmd(),
	)
	return cmd
}

func (o *rootOptions) config() (goBoard.Config, error) {
	if o.envFile == "" {
		return goBoard.LoadConfigFromEnv()
	}
	return goBoard.LoadConfigFromEnv(o.envFile)
}
