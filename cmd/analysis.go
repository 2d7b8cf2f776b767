package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gitrisk/hotspot/internal/contract"
	"github.com/gitrisk/hotspot/internal/iocache"
	"github.com/gitrisk/hotspot/schema"
)

// analysisSetup loads the analysis tracking settings. Tracking is off unless
// a backend is named.
func analysisSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := loadBackend("analysis-backend", "analysis-db-connect", schema.NoneBackend)
	if err != nil {
		return err
	}
	cfg.AnalysisBackend = backend
	cfg.AnalysisDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// openAnalysisStore initializes the global manager with only the analysis store.
func openAnalysisStore() {
	if err := iocache.InitStores("", "", cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		contract.LogFatal("Failed to open analysis store", err)
	}
}

// analysisCmd focused on analysis data management.
//
// Like the cache commands these skip sharedSetup.
var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Manage tracked analysis runs and exports",
	Long: `Manage the history of analysis runs.

With --analysis-backend set, every 'hotspot files' run records its start and
end time, its parameters and the ranked files with churn, size, authors,
score and label. The data can be exported to Parquet for notebooks and BI
tools.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, default)

Examples:
  hotspot analysis status --analysis-backend sqlite
  hotspot analysis export --analysis-backend sqlite --output-file runs`,
}

// analysisClearCmd clears the analysis data.
var analysisClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all tracked analysis runs",
	Long: `Delete all stored analysis runs and file rows, including the schema
version table. The schema is recreated on next use.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  hotspot analysis export --analysis-backend sqlite --output-file backup
  hotspot analysis clear --analysis-backend sqlite`,
	PreRunE: analysisSetup,
	Run: func(_ *cobra.Command, _ []string) {
		dbFile := sqliteFile(cfg.AnalysisDBConnect, iocache.GetAnalysisDBFilePath())
		if err := iocache.ClearAnalysis(cfg.AnalysisBackend, dbFile, cfg.AnalysisDBConnect); err != nil {
			contract.LogFatal("Failed to clear analysis data", err)
		}
		fmt.Println("Analysis data cleared successfully.")
	},
}

// analysisStatusCmd shows analysis status.
var analysisStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display analysis tracking statistics and connection details",
	Long: `Show the backend, the number of runs and file rows, the newest and
oldest run and the row count of each table.

Examples:
  hotspot analysis status --analysis-backend sqlite`,
	PreRunE: analysisSetup,
	Run: func(_ *cobra.Command, _ []string) {
		openAnalysisStore()
		status, err := iocache.Manager.GetAnalysisStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get analysis status", err)
		}
		iocache.PrintAnalysisStatus(os.Stdout, status)
	},
}

// analysisExportCmd exports analysis data to Parquet files.
var analysisExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export tracked runs to Parquet",
	Long: `Export all stored analysis data to two Parquet files:

  <output-file>.analysis_runs.parquet  one row per run
  <output-file>.file_metrics.parquet   one row per ranked file per run

Requires: --output-file

Examples:
  hotspot analysis export --analysis-backend sqlite --output-file hotspot
  duckdb -c "SELECT * FROM read_parquet('hotspot.file_metrics.parquet') LIMIT 10"`,
	PreRunE: analysisSetup,
	Run: func(_ *cobra.Command, _ []string) {
		openAnalysisStore()
		if err := iocache.ExecuteAnalysisExport(iocache.Manager.GetAnalysisStore(), cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export analysis data", err)
		}
	},
}

// analysisMigrateCmd runs database migrations for the analysis store.
//
// It does not open the store first, so a fresh or rolled back database can be
// migrated to any version.
var analysisMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Move the analysis store schema to a given version.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  hotspot analysis migrate --analysis-backend sqlite

  # Rollback everything
  hotspot analysis migrate --analysis-backend sqlite --target-version 0`,
	PreRunE: analysisSetup,
	Run: func(_ *cobra.Command, _ []string) {
		msg, err := iocache.MigrateAnalysis(cfg.AnalysisBackend, cfg.AnalysisDBConnect, viper.GetInt("target-version"))
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Println(msg)
	},
}
