package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gitrisk/hotspot/internal/iocache"
	"github.com/gitrisk/hotspot/internal/mcp"
)

// mcpCmd serves hotspot analysis to MCP clients over stdio.
var mcpCmd = &cobra.Command{
	Use:   "mcp [repo-path]",
	Short: "Start the Hotspot MCP server",
	Long: `Launch an MCP server on stdin/stdout exposing the get_hotspots tool.

Flags and config set the defaults for every tool call; a call may override
repo_path, since, until, include, exclude and top. The analysis header is not
printed, so stdout carries only the protocol.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(cmd.Context(), cfg, iocache.Manager)
	},
}
