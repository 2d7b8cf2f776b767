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

// loadBackend reads a backend name and its connection string from Viper and
// validates the pair. An unset backend resolves to fallback.
func loadBackend(backendKey, connKey string, fallback schema.DatabaseBackend) (schema.DatabaseBackend, string, error) {
	backend := schema.DatabaseBackend(viper.GetString(backendKey))
	if backend == "" {
		backend = fallback
	}
	if _, ok := schema.ValidCacheBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid --%s '%s'. must be sqlite, mysql, postgresql, none", backendKey, backend)
	}
	connStr := viper.GetString(connKey)
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// sqliteFile returns the database file a SQLite backend uses.
func sqliteFile(connStr, defaultPath string) string {
	if connStr != "" {
		return connStr
	}
	return defaultPath
}

// cacheSetup loads the cache settings without touching the repository.
func cacheSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := loadBackend("cache-backend", "cache-db-connect", schema.SQLiteBackend)
	if err != nil {
		return err
	}
	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheCmd focused on cache management.
//
// Cache subcommands skip sharedSetup, so they work outside a Git repository.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the history aggregate cache",
	Long: `Manage the cache of walked history.

Each run stores the per-file churn and author sets it accumulated, keyed by
repository, HEAD commit, time window and history backend. A later run with
the same key skips the walk. Entries expire after seven days.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Examples:
  hotspot cache status
  hotspot cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached aggregates",
	Long: `Delete every cached aggregate from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  hotspot cache clear
  HOTSPOT_CACHE_BACKEND=mysql HOTSPOT_CACHE_DB_CONNECT="..." hotspot cache clear`,
	PreRunE: cacheSetup,
	Run: func(_ *cobra.Command, _ []string) {
		dbFile := sqliteFile(cfg.CacheDBConnect, iocache.GetDBFilePath())
		if err := iocache.ClearCache(cfg.CacheBackend, dbFile, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show the backend, number of entries, newest and oldest entry and the
size of the cache table.

Examples:
  hotspot cache status`,
	PreRunE: cacheSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, "", ""); err != nil {
			contract.LogFatal("Failed to open cache", err)
		}
		status, err := iocache.Manager.GetActivityStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
