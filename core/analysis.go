package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gitrisk/hotspot/core/agg"
	"github.com/gitrisk/hotspot/core/algo"
	"github.com/gitrisk/hotspot/core/size"
	"github.com/gitrisk/hotspot/internal/contract"
	"github.com/gitrisk/hotspot/schema"
)

// runSingleAnalysisCore performs the aggregation, filtering, sizing and
// scoring steps and returns the ranked files.
func runSingleAnalysisCore(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) ([]schema.FileMetrics, error) {
	if !shouldSuppressHeader(ctx) {
		logAnalysisHeader(os.Stderr, cfg)
	}

	// --- 0. Begin Analysis Tracking (if configured) ---
	var analysisStore contract.AnalysisStore
	if mgr != nil {
		analysisStore = mgr.GetAnalysisStore()
	}
	var analysisID int64
	if analysisStore != nil {
		var err error
		analysisID, err = analysisStore.BeginAnalysis(time.Now(), cfg.Params())
		if err != nil {
			contract.LogWarn("Analysis tracking initialization failed", err)
			analysisID = 0
		}
	}

	// --- 1. Aggregation Phase (with caching) ---
	aggregate, err := agg.CachedAggregateActivity(ctx, cfg, client, mgr)
	if err != nil {
		return nil, err
	}
	contract.Logger().Debug("Aggregated history", "files", aggregate.Len())

	// --- 2. Path filtering ---
	filtered := aggregate.Retain(func(path string) bool {
		return contract.MatchesFilters(path, cfg.Includes, cfg.Excludes)
	})

	// --- 3. Size estimation ---
	sizes, err := size.Estimate(ctx, cfg.RepoPath, filtered.Paths(), size.LineCounter{}, cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("size estimation failed: %w", err)
	}

	// --- 4. Scoring and ranking ---
	ranked := algo.Top(algo.ComposeScores(filtered, sizes), cfg.Top)

	// --- 5. End Analysis Tracking ---
	if analysisStore != nil && analysisID > 0 {
		recordAnalysis(analysisStore, analysisID, ranked)
	}

	return ranked, nil
}

// recordAnalysis stores the ranked files of a run and closes it out.
// Failures are reported but never abort the analysis.
func recordAnalysis(store contract.AnalysisStore, analysisID int64, ranked []schema.FileMetrics) {
	analysisTime := time.Now()
	for _, m := range ranked {
		if err := store.RecordFileMetrics(analysisID, analysisTime, m); err != nil {
			contract.LogWarn(fmt.Sprintf("Failed to record metrics for %s", m.Path), err)
		}
	}
	if err := store.EndAnalysis(analysisID, time.Now(), len(ranked)); err != nil {
		contract.LogWarn("Failed to finalize analysis tracking", err)
	}
}

// logAnalysisHeader prints a concise, 2-line header for the analysis.
func logAnalysisHeader(w io.Writer, cfg *contract.Config) {
	repoName := filepath.Base(cfg.RepoPath)
	if repoName == "" || repoName == "." {
		repoName = "current"
	}

	_, _ = fmt.Fprintf(w, "🔎 Repo: %s (Backend: %s)\n", repoName, cfg.GitBackend)
	_, _ = fmt.Fprintf(w, "📅 Range: %s\n", cfg.Window)
}
