package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wilhg/designgate/pkg/agent"
	"github.com/wilhg/designgate/pkg/mcpclient"
)

func newToolsCmd(c *cli) *cobra.Command {
	var filtered bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools advertised by the upstream provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Upstream.Validate(); err != nil {
				return err
			}
			opts := append([]mcpclient.Option{mcpclient.WithLogger(c.logger(cfg))}, c.clientOpts...)
			out := cmd.OutOrStdout()
			return mcpclient.WithTools(cmd.Context(), mcpclient.BuildDescriptors(cfg.Upstream), func(_ context.Context, tools agent.ToolSet) error {
				if filtered {
					tools = agent.FilterDesignTools(tools)
				}
				fmt.Fprintf(out, "=== %s MCP tools loaded ===\n", cfg.Upstream.Label())
				for _, t := range tools {
					d := t.Describe()
					fmt.Fprintf(out, "- %s: %s\n", d.Name, d.Description)
				}
				fmt.Fprintln(out, "================================")
				return nil
			}, opts...)
		},
	}
	cmd.Flags().BoolVar(&filtered, "filtered", false, "show only the tools offered to the reasoning engine")
	return cmd
}
