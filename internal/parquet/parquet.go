// Package parquet provides data structures and functions for exporting hotspot
// analysis data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/gitrisk/hotspot/internal/contract"
	"github.com/gitrisk/hotspot/schema"
)

// Hotspot is one ranked file of an analysis, as written by the parquet output mode.
type Hotspot struct {
	Rank       int32   `parquet:"rank,snappy"`
	FilePath   string  `parquet:"file_path,snappy"`
	Churn      int64   `parquet:"churn,snappy"`
	Complexity float64 `parquet:"complexity,snappy"`
	Authors    int32   `parquet:"authors,snappy"`
	Score      float64 `parquet:"score,snappy"`
	Label      string  `parquet:"label,snappy"`
}

// AnalysisRun represents a single hotspot analysis run with metadata.
// This struct maps to the hotspot_analysis_runs database table.
type AnalysisRun struct {
	// AnalysisID is the unique identifier for this analysis run
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// StartTime is when the analysis began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the analysis completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the analysis run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalFilesAnalyzed is the number of files ranked in this run
	TotalFilesAnalyzed int32 `parquet:"total_files_analyzed,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// FileMetrics is a recorded file row of an analysis run.
// This struct maps to the hotspot_file_metrics database table.
type FileMetrics struct {
	AnalysisID   int64     `parquet:"analysis_id,snappy"`
	FilePath     string    `parquet:"file_path,snappy"`
	AnalysisTime time.Time `parquet:"analysis_time,snappy"`
	Churn        int32     `parquet:"churn,snappy"`
	Complexity   float64   `parquet:"complexity,snappy"`
	Authors      int32     `parquet:"authors,snappy"`
	Score        float64   `parquet:"score,snappy"`
	ScoreLabel   string    `parquet:"score_label,snappy"`
}

// writeRows writes rows to w using the schema inferred from T's struct tags.
func writeRows[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// writeRowsToFile creates outputPath and writes rows into it.
func writeRowsToFile[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return writeRows(file, rows)
}

// WriteHotspots writes ranked files to w in Parquet format.
func WriteHotspots(w io.Writer, metrics []schema.FileMetrics) error {
	return writeRows(w, ConvertFileMetrics(metrics))
}

// WriteAnalysisRunsParquet writes a slice of AnalysisRun structs to a Parquet file.
func WriteAnalysisRunsParquet(data []AnalysisRun, outputPath string) error {
	return writeRowsToFile(data, outputPath)
}

// WriteFileMetricsParquet writes a slice of FileMetrics structs to a Parquet file.
func WriteFileMetricsParquet(data []FileMetrics, outputPath string) error {
	return writeRowsToFile(data, outputPath)
}

// ConvertFileMetrics converts ranked results to Hotspot rows, keeping their order.
func ConvertFileMetrics(metrics []schema.FileMetrics) []Hotspot {
	result := make([]Hotspot, len(metrics))
	for i, m := range metrics {
		result[i] = Hotspot{
			Rank:       int32(i + 1),
			FilePath:   m.Path,
			Churn:      int64(m.Churn),
			Complexity: m.Complexity,
			Authors:    int32(m.Authors),
			Score:      m.Score,
			Label:      string(contract.GetPlainLabel(m.Score)),
		}
	}
	return result
}

// ConvertAnalysisRunRecords converts schema.AnalysisRunRecord to AnalysisRun for Parquet export.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	result := make([]AnalysisRun, len(records))
	for i, record := range records {
		result[i] = AnalysisRun{
			AnalysisID:         record.AnalysisID,
			StartTime:          record.StartTime,
			EndTime:            record.EndTime,
			RunDurationMs:      record.RunDurationMs,
			TotalFilesAnalyzed: record.TotalFilesAnalyzed,
			ConfigParams:       record.ConfigParams,
		}
	}
	return result
}

// ConvertFileMetricsRecords converts schema.FileMetricsRecord to FileMetrics for Parquet export.
func ConvertFileMetricsRecords(records []schema.FileMetricsRecord) []FileMetrics {
	result := make([]FileMetrics, len(records))
	for i, record := range records {
		result[i] = FileMetrics(record)
	}
	return result
}
