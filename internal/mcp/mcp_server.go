// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gitrisk/hotspot/core"
	"github.com/gitrisk/hotspot/internal/contract"
)

const (
	serverName    = "Hotspot Analysis Server"
	serverVersion = "1.0.0"

	toolGetHotspots = "get_hotspots"
)

// NewMCPServer initializes and configures the Hotspot MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		client:  core.NewGitClient(baseCfg.GitBackend),
		analyze: core.GetHotspotFilesResults,
	}
	return newServer(h)
}

func newServer(h *toolHandler) *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion, server.WithLogging())

	s.AddTool(mcp.NewTool(toolGetHotspots,
		mcp.WithDescription("Rank the files of a git repository by hotspot score: churn scaled by code size, discounted when many authors share the file."),
		mcp.WithString("repo_path", mcp.Description("Path inside the Git repository (defaults to the server's repository).")),
		mcp.WithString("since", mcp.Description("Only count commits authored on or after this date (YYYY-MM-DD).")),
		mcp.WithString("until", mcp.Description("Only count commits authored on or before this date (YYYY-MM-DD).")),
		mcp.WithString("include", mcp.Description("Comma-separated substrings; keep only paths containing one of them.")),
		mcp.WithString("exclude", mcp.Description("Comma-separated substrings; drop paths containing any of them.")),
		mcp.WithNumber("top", mcp.Description("Number of files to return. 0 returns every file.")),
	), h.handleGetHotspots)

	return s
}

// StartMCPServer serves the Hotspot MCP server over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	return server.ServeStdio(NewMCPServer(baseCfg, mgr))
}
