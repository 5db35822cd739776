package arcana

import (
	"github.com/spf13/cobra"

	"github.com/louisbranch/arcana/internal/services/arcana/app"
	arcanamcp "github.com/louisbranch/arcana/internal/services/arcana/mcp"
)

func (c *cli) mcpCommand() *cobra.Command {
	transport := string(c.cfg.MCP.Transport)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the arcana tools over MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := c.cfg.MCP
			cfg.Transport = arcanamcp.TransportKind(transport)
			cfg.Locale = c.cfg.Locale
			return c.withService(func(svc *app.Service) error {
				return arcanamcp.Run(cmd.Context(), svc, cfg, c.logger)
			})
		},
	}
	cmd.Flags().StringVar(&transport, "transport", transport, "transport: stdio or http")
	cmd.Flags().StringVar(&c.cfg.MCP.HTTPAddr, "http-addr", c.cfg.MCP.HTTPAddr, "HTTP transport address")
	return cmd
}
