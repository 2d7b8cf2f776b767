package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gitrisk/hotspot/core"
	"github.com/gitrisk/hotspot/internal/contract"
	"github.com/gitrisk/hotspot/schema"
)

// analyzeFunc runs one analysis; core.GetHotspotFilesResults in production.
type analyzeFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]schema.FileMetrics, time.Duration, error)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
	client  contract.GitClient
	analyze analyzeFunc
}

// requestConfig overlays the tool arguments on a copy of the server config.
func (h *toolHandler) requestConfig(ctx context.Context, request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()

	if p := request.GetString("repo_path", ""); p != "" {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("invalid repo_path %q: %w", p, err)
		}
		root, err := h.client.GetRepoRoot(ctx, abs)
		if err != nil {
			return nil, fmt.Errorf("%s is not inside a Git repository: %w", p, err)
		}
		cfg.RepoPath = root
	}

	since := request.GetString("since", cfg.Since)
	until := request.GetString("until", cfg.Until)
	if err := contract.ProcessTimeWindow(cfg, since, until); err != nil {
		return nil, err
	}

	if s := request.GetString("include", ""); s != "" {
		cfg.Includes = contract.ParseFilterList(s)
	}
	if s := request.GetString("exclude", ""); s != "" {
		cfg.Excludes = contract.ParseFilterList(s)
	}

	top := request.GetInt("top", cfg.Top)
	if top < 0 || top > contract.MaxTop {
		return nil, fmt.Errorf("top must be between 0 and %d (received %d)", contract.MaxTop, top)
	}
	cfg.Top = top

	return cfg, nil
}

func (h *toolHandler) handleGetHotspots(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	ranked, _, err := h.analyze(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	if ranked == nil {
		ranked = []schema.FileMetrics{}
	}

	jsonData, err := json.MarshalIndent(ranked, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
