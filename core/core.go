// Package core has core logic for analysis, scoring and ranking.
package core

import (
	"context"
	"time"

	"github.com/gitrisk/hotspot/internal/contract"
	"github.com/gitrisk/hotspot/internal/gitlib"
	"github.com/gitrisk/hotspot/internal/outwriter"
	"github.com/gitrisk/hotspot/schema"
)

// NewGitClient returns the history backend for the given name. Anything other
// than the CLI backend gets libgit2.
func NewGitClient(backend schema.GitBackend) contract.GitClient {
	if backend == schema.CLIBackend {
		return contract.NewLocalGitClient()
	}
	return gitlib.NewClient()
}

// GetHotspotFilesResults runs the file-level analysis and returns the ranked
// files along with the time it took.
func GetHotspotFilesResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]schema.FileMetrics, time.Duration, error) {
	start := time.Now()
	ranked, err := runSingleAnalysisCore(ctx, cfg, NewGitClient(cfg.GitBackend), mgr)
	if err != nil {
		return nil, 0, err
	}
	return ranked, time.Since(start), nil
}

// ExecuteHotspotFiles runs the file-level analysis and writes the results.
// It serves as the main entry point for the 'files' command.
func ExecuteHotspotFiles(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	ranked, duration, err := GetHotspotFilesResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteFileResults(ranked, cfg, duration)
}
