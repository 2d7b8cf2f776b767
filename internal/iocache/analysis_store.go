package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gitrisk/hotspot/internal/contract"
	"github.com/gitrisk/hotspot/schema"
)

// Table names for analysis tracking.
const (
	analysisRunsTable = "hotspot_analysis_runs"
	fileMetricsTable  = "hotspot_file_metrics"
)

// AnalysisStoreImpl implements the AnalysisStore interface.
type AnalysisStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// NewAnalysisStore opens the analysis database and brings its schema to the
// latest migration.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	if backend == schema.NoneBackend {
		return &AnalysisStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetAnalysisDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize analysis store: %w", err)
	}
	if _, err := migrateDB(db, backend, -1); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create analysis tables: %w", err)
	}

	return &AnalysisStoreImpl{db: db, backend: backend}, nil
}

func (as *AnalysisStoreImpl) table(name string) string {
	return quoteTableName(name, as.backend)
}

// BeginAnalysis creates a new analysis run and returns its unique ID.
func (as *AnalysisStoreImpl) BeginAnalysis(startTime time.Time, configParams map[string]any) (int64, error) {
	if as.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES (%s)`,
		as.table(analysisRunsTable), placeholders(as.backend, 2))
	args := []any{formatTime(startTime, as.backend), string(configJSON)}

	var analysisID int64
	if as.backend == schema.PostgreSQLBackend {
		err = as.db.QueryRow(query+" RETURNING analysis_id", args...).Scan(&analysisID)
	} else {
		var result sql.Result
		if result, err = as.db.Exec(query, args...); err == nil {
			analysisID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis run: %w", err)
	}
	return analysisID, nil
}

// EndAnalysis stores the end time, duration and ranked file count of a run.
func (as *AnalysisStoreImpl) EndAnalysis(analysisID int64, endTime time.Time, totalFiles int) error {
	if as.db == nil {
		return nil
	}

	start := timeColumn{backend: as.backend}
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE analysis_id = %s`,
		as.table(analysisRunsTable), placeholders(as.backend, 1))
	if err := as.db.QueryRow(query, analysisID).Scan(&start); err != nil {
		return fmt.Errorf("failed to get start_time for analysis %d: %w", analysisID, err)
	}
	durationMs := endTime.Sub(start.Time).Milliseconds()

	var update string
	if as.backend == schema.PostgreSQLBackend {
		update = `UPDATE %s SET end_time = $1, run_duration_ms = $2, total_files_analyzed = $3 WHERE analysis_id = $4`
	} else {
		update = `UPDATE %s SET end_time = ?, run_duration_ms = ?, total_files_analyzed = ? WHERE analysis_id = ?`
	}
	if _, err := as.db.Exec(fmt.Sprintf(update, as.table(analysisRunsTable)),
		formatTime(endTime, as.backend), durationMs, totalFiles, analysisID); err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}
	return nil
}

// RecordFileMetrics stores one ranked file of a run together with its label.
func (as *AnalysisStoreImpl) RecordFileMetrics(analysisID int64, analysisTime time.Time, metrics schema.FileMetrics) error {
	if as.db == nil {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (analysis_id, file_path, analysis_time, churn, complexity, authors, score, score_label)
		VALUES (%s)`, as.table(fileMetricsTable), placeholders(as.backend, 8))
	_, err := as.db.Exec(query,
		analysisID, metrics.Path, formatTime(analysisTime, as.backend),
		metrics.Churn, metrics.Complexity, metrics.Authors, metrics.Score,
		string(contract.GetPlainLabel(metrics.Score)),
	)
	if err != nil {
		return fmt.Errorf("failed to insert file metrics for %s: %w", metrics.Path, err)
	}
	return nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the analysis store.
func (as *AnalysisStoreImpl) GetStatus() (schema.AnalysisStatus, error) {
	status := schema.AnalysisStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}
	if as.db == nil {
		return status, nil
	}

	runs := as.table(analysisRunsTable)
	query := fmt.Sprintf("SELECT COUNT(*), COALESCE(SUM(total_files_analyzed), 0) FROM %s", runs)
	if err := as.db.QueryRow(query).Scan(&status.TotalRuns, &status.TotalFilesAnalyzed); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		last := timeColumn{backend: as.backend}
		query = fmt.Sprintf("SELECT analysis_id, start_time FROM %s ORDER BY analysis_id DESC LIMIT 1", runs)
		if err := as.db.QueryRow(query).Scan(&status.LastRunID, &last); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		status.LastRunTime = last.Time

		oldest := timeColumn{backend: as.backend}
		query = fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id ASC LIMIT 1", runs)
		if err := as.db.QueryRow(query).Scan(&oldest); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldest.Time
	}

	for _, table := range []string{analysisRunsTable, fileMetricsTable} {
		var count int64
		if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", as.table(table))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllAnalysisRuns retrieves all analysis runs from the store.
func (as *AnalysisStoreImpl) GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error) {
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, start_time, end_time, run_duration_ms, total_files_analyzed, config_params
		FROM %s ORDER BY analysis_id`, as.table(analysisRunsTable))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AnalysisRunRecord
	for rows.Next() {
		var record schema.AnalysisRunRecord
		var duration sql.NullInt32
		var params sql.NullString
		start := timeColumn{backend: as.backend}
		end := timeColumn{backend: as.backend}

		if err := rows.Scan(&record.AnalysisID, &start, &end, &duration, &record.TotalFilesAnalyzed, &params); err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		record.StartTime = start.Time
		record.EndTime = end.ptr()
		if duration.Valid {
			record.RunDurationMs = &duration.Int32
		}
		if params.Valid {
			record.ConfigParams = &params.String
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}
	return results, nil
}

// GetAllFileMetrics retrieves every recorded file row ordered by run and path.
func (as *AnalysisStoreImpl) GetAllFileMetrics() ([]schema.FileMetricsRecord, error) {
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, file_path, analysis_time, churn, complexity, authors, score, score_label
		FROM %s ORDER BY analysis_id, file_path`, as.table(fileMetricsTable))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query file metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FileMetricsRecord
	for rows.Next() {
		var record schema.FileMetricsRecord
		at := timeColumn{backend: as.backend}
		if err := rows.Scan(&record.AnalysisID, &record.FilePath, &at, &record.Churn,
			&record.Complexity, &record.Authors, &record.Score, &record.ScoreLabel); err != nil {
			return nil, fmt.Errorf("failed to scan file metrics: %w", err)
		}
		record.AnalysisTime = at.Time
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file metrics: %w", err)
	}
	return results, nil
}
