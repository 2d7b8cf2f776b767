// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/gitrisk/hotspot/schema"
)

// GitClient opens repositories and resolves basic facts about them.
// This allows the core analysis logic to be tested without a real repository.
type GitClient interface {
	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// GetRepoHash returns the current HEAD commit hash of the repository.
	// An empty hash with a nil error means the repository has no commits yet.
	GetRepoHash(ctx context.Context, repoPath string) (string, error)

	// OpenHistory opens the repository for a history walk. Failures are
	// reported as *RepositoryOpenError.
	OpenHistory(ctx context.Context, repoPath string) (History, error)
}

// History is an opened repository that can be walked and diffed.
// Implementations are not safe for concurrent use.
type History interface {
	// Walk calls fn once for every commit reachable from HEAD, in no
	// particular order, and stops at the first error returned by fn.
	Walk(ctx context.Context, fn func(schema.Commit) error) error

	// Diff returns the per-file line deltas between the parent at the given
	// index and the commit itself. Entries without line statistics, such as
	// binary files, are omitted.
	Diff(ctx context.Context, c schema.Commit, parent int) ([]schema.ChangeRecord, error)

	// Close releases the repository handle.
	Close() error
}

// SizeOracle computes the size signal of a single file on disk.
// Any deterministic, non-negative function of the file satisfies it.
type SizeOracle interface {
	// Size returns the size signal for the file at absPath. Missing or
	// non-regular files return an error wrapping fs.ErrNotExist.
	Size(absPath string) (float64, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetActivityStore() CacheStore
	GetAnalysisStore() AnalysisStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// AnalysisStore defines the interface for tracking analysis runs and storing metrics.
type AnalysisStore interface {
	// BeginAnalysis creates a new analysis run and returns its unique ID
	BeginAnalysis(startTime time.Time, configParams map[string]any) (int64, error)

	// EndAnalysis updates the analysis run with completion data
	EndAnalysis(analysisID int64, endTime time.Time, totalFiles int) error

	// RecordFileMetrics stores the ranked metrics of a file
	RecordFileMetrics(analysisID int64, analysisTime time.Time, metrics schema.FileMetrics) error

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllAnalysisRuns returns every recorded run ordered by ID
	GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error)

	// GetAllFileMetrics returns every recorded file row ordered by run and path
	GetAllFileMetrics() ([]schema.FileMetricsRecord, error)

	// Close closes the underlying connection
	Close() error
}
