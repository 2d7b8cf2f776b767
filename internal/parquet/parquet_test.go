package parquet

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrisk/hotspot/schema"
)

func readAll[T any](t *testing.T, r io.ReaderAt, size int64) []T {
	t.Helper()
	reader := parquet.NewGenericReader[T](io.NewSectionReader(r, 0, size))
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func readFile[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	require.NoError(t, err)
	return readAll[T](t, file, info.Size())
}

func TestSchemaColumns(t *testing.T) {
	tests := []struct {
		name    string
		schema  *parquet.Schema
		columns []string
	}{
		{"hotspot", parquet.SchemaOf(new(Hotspot)), []string{"rank", "file_path", "churn", "complexity", "authors", "score", "label"}},
		{"analysis run", parquet.SchemaOf(new(AnalysisRun)), []string{"analysis_id", "start_time", "end_time", "run_duration_ms", "total_files_analyzed", "config_params"}},
		{"file metrics", parquet.SchemaOf(new(FileMetrics)), []string{"analysis_id", "file_path", "analysis_time", "churn", "complexity", "authors", "score", "score_label"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, col := range tt.columns {
				_, ok := tt.schema.Lookup(col)
				assert.True(t, ok, "column %s should exist", col)
			}
		})
	}
}

func TestWriteHotspots(t *testing.T) {
	metrics := []schema.FileMetrics{
		{Path: "core/agg/agg.go", Churn: 120, Complexity: 300, Authors: 2, Score: 85.5},
		{Path: "README.md", Churn: 4, Complexity: 20, Authors: 1, Score: 12.25},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHotspots(&buf, metrics))

	rows := readAll[Hotspot](t, bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.Len(t, rows, 2)
	assert.Equal(t, Hotspot{Rank: 1, FilePath: "core/agg/agg.go", Churn: 120, Complexity: 300, Authors: 2, Score: 85.5, Label: "Critical"}, rows[0])
	assert.Equal(t, int32(2), rows[1].Rank)
	assert.Equal(t, "Low", rows[1].Label)
}

func TestWriteHotspotsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHotspots(&buf, nil))
	assert.Positive(t, buf.Len(), "an empty file still carries its schema")
}

func TestWriteAnalysisRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "analysis_runs.parquet")

	start := time.Date(2024, 6, 1, 10, 0, 0, 123456789, time.UTC)
	end := start.Add(1500 * time.Millisecond)
	duration := int32(1500)
	params := `{"top":10}`
	data := ConvertAnalysisRunRecords([]schema.AnalysisRunRecord{
		{AnalysisID: 1, StartTime: start, EndTime: &end, RunDurationMs: &duration, TotalFilesAnalyzed: 10, ConfigParams: &params},
		{AnalysisID: 2, StartTime: start},
	})

	require.NoError(t, WriteAnalysisRunsParquet(data, outputPath))

	rows := readFile[AnalysisRun](t, outputPath)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(1), rows[0].AnalysisID)
	assert.WithinDuration(t, start, rows[0].StartTime, time.Nanosecond)
	require.NotNil(t, rows[0].EndTime)
	assert.WithinDuration(t, end, *rows[0].EndTime, time.Nanosecond)
	require.NotNil(t, rows[0].RunDurationMs)
	assert.Equal(t, duration, *rows[0].RunDurationMs)
	require.NotNil(t, rows[0].ConfigParams)
	assert.Equal(t, params, *rows[0].ConfigParams)
	assert.Equal(t, int32(10), rows[0].TotalFilesAnalyzed)

	assert.Nil(t, rows[1].EndTime)
	assert.Nil(t, rows[1].RunDurationMs)
	assert.Nil(t, rows[1].ConfigParams)
}

func TestWriteFileMetricsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "file_metrics.parquet")

	at := time.Date(2024, 6, 1, 10, 0, 1, 0, time.UTC)
	data := ConvertFileMetricsRecords([]schema.FileMetricsRecord{
		{AnalysisID: 3, FilePath: "main.go", AnalysisTime: at, Churn: 42, Complexity: 17, Authors: 3, Score: 61.2, ScoreLabel: "High"},
	})

	require.NoError(t, WriteFileMetricsParquet(data, outputPath))

	rows := readFile[FileMetrics](t, outputPath)
	require.Len(t, rows, 1)
	assert.Equal(t, "main.go", rows[0].FilePath)
	assert.Equal(t, int32(42), rows[0].Churn)
	assert.InDelta(t, 17.0, rows[0].Complexity, 1e-9)
	assert.Equal(t, int32(3), rows[0].Authors)
	assert.InDelta(t, 61.2, rows[0].Score, 1e-9)
	assert.Equal(t, "High", rows[0].ScoreLabel)
	assert.WithinDuration(t, at, rows[0].AnalysisTime, time.Nanosecond)
}

func TestWriteParquetInvalidPath(t *testing.T) {
	err := WriteAnalysisRunsParquet(nil, "/nonexistent/directory/output.parquet")
	assert.Error(t, err)

	err = WriteFileMetricsParquet(nil, "/nonexistent/directory/output.parquet")
	assert.Error(t, err)
}
