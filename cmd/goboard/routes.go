package main

import (
	"github.com/MrEthical07/goBoard/guard"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newRoutesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the effective route table as YAML",
		Long: `Print the route table the server would enforce. The output can be edited
and pointed at with GOBOARD_ROUTES_FILE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}
			table := guard.DefaultRouteTable()
			if cfg.Routes.File != "" {
				if table, err = guard.LoadRouteTable(cfg.Routes.File); err != nil {
					return err
				}
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(table); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
