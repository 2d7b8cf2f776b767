package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string

	// GitBackend represents the implementation used to read history.
	GitBackend string

	// ScoreLabel buckets a hotspot score for display.
	ScoreLabel string
)

// All output modes supported.
const (
	TableOut    OutputMode = "table" // default
	JSONOut     OutputMode = "json"
	CSVOut      OutputMode = "csv"
	MarkdownOut OutputMode = "markdown"
	ParquetOut  OutputMode = "parquet"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All git backends supported.
const (
	LibGit2Backend GitBackend = "libgit2" // default
	CLIBackend     GitBackend = "cli"
)

// Score labels from hottest to coolest.
const (
	CriticalLabel ScoreLabel = "Critical"
	HighLabel     ScoreLabel = "High"
	ModerateLabel ScoreLabel = "Moderate"
	LowLabel      ScoreLabel = "Low"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TableOut:    {},
	JSONOut:     {},
	CSVOut:      {},
	MarkdownOut: {},
	ParquetOut:  {},
}

// ValidCacheBackends lists all valid cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidGitBackends lists all valid git backends.
var ValidGitBackends = map[GitBackend]struct{}{
	LibGit2Backend: {},
	CLIBackend:     {},
}
