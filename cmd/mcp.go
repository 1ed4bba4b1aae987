package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dcdpr/bookworm/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP server over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine()
		if err != nil {
			return err
		}

		return mcp.NewServer(eng).Serve()
	},
}
