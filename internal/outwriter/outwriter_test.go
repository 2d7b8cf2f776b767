package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrisk/hotspot/internal/contract"
	"github.com/gitrisk/hotspot/schema"
)

var sampleMetrics = []schema.FileMetrics{
	{Path: "core/agg/agg.go", Churn: 120, Complexity: 300, Authors: 2, Score: 85.456},
	{Path: "README.md", Churn: 4, Complexity: 20, Authors: 1, Score: 12.25},
}

func newConfig(output schema.OutputMode) *contract.Config {
	return &contract.Config{
		Output:       output,
		Precision:    2,
		Width:        120,
		Workers:      4,
		CacheBackend: schema.SQLiteBackend,
	}
}

func render(t *testing.T, cfg *contract.Config, metrics []schema.FileMetrics) string {
	t.Helper()
	w, err := NewWriter(cfg, 1500*time.Millisecond)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf, metrics))
	return buf.String()
}

func TestTableWriter(t *testing.T) {
	out := render(t, newConfig(schema.TableOut), sampleMetrics)

	assert.Contains(t, out, "core/agg/agg.go")
	assert.Contains(t, out, "85.46")
	assert.Contains(t, out, "300.00")
	assert.Contains(t, out, "Critical")
	assert.Contains(t, out, "Low")
	assert.Contains(t, out, "Showing top 2 files (total churn: 124)\n")
	assert.Contains(t, out, "Analysis completed in 1.5s with 4 workers. Cache backend: sqlite\n")
	assert.Less(t, strings.Index(out, "core/agg/agg.go"), strings.Index(out, "README.md"))
}

func TestTableWriterTruncatesPaths(t *testing.T) {
	cfg := newConfig(schema.TableOut)
	cfg.Width = 40 // forces the minimum path width
	long := strings.Repeat("d/", 20) + "file.go"

	out := render(t, cfg, []schema.FileMetrics{{Path: long, Churn: 1, Complexity: 1, Authors: 1, Score: 50}})

	assert.NotContains(t, out, long)
	assert.Contains(t, out, "...")
}

func TestJSONWriter(t *testing.T) {
	out := render(t, newConfig(schema.JSONOut), sampleMetrics)

	var result []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result, 2)

	assert.Equal(t, float64(1), result[0]["rank"])
	assert.Equal(t, "core/agg/agg.go", result[0]["path"])
	assert.Equal(t, float64(120), result[0]["churn"])
	assert.Equal(t, float64(300), result[0]["complexity"])
	assert.Equal(t, float64(2), result[0]["authors"])
	assert.InDelta(t, 85.456, result[0]["score"], 1e-9)
	assert.Equal(t, "Critical", result[0]["label"])
	assert.Equal(t, "Low", result[1]["label"])
	assert.Contains(t, out, "\n  {", "output is indented")
}

func TestJSONWriterEmpty(t *testing.T) {
	out := render(t, newConfig(schema.JSONOut), nil)
	assert.JSONEq(t, "[]", out)
}

func TestCSVWriter(t *testing.T) {
	out := render(t, newConfig(schema.CSVOut), sampleMetrics)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"file", "churn", "complexity", "authors", "score"},
		{"core/agg/agg.go", "120", "300.00", "2", "85.46"},
		{"README.md", "4", "20.00", "1", "12.25"},
	}, records)
}

func TestCSVWriterPrecision(t *testing.T) {
	cfg := newConfig(schema.CSVOut)
	cfg.Precision = 0

	out := render(t, cfg, sampleMetrics[:1])

	assert.Equal(t, "file,churn,complexity,authors,score\ncore/agg/agg.go,120,300,2,85\n", out)
}

func TestMarkdownWriter(t *testing.T) {
	out := render(t, newConfig(schema.MarkdownOut), sampleMetrics)

	assert.True(t, strings.HasPrefix(out, "# Hotspot Analysis\n\n"))
	assert.Contains(t, out, "| core/agg/agg.go |")
	assert.Contains(t, out, "| 85.46 |")
	assert.Contains(t, out, "| Critical |")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	// title, blank, header, separator, two rows
	assert.Len(t, lines, 6)
}

func TestNewWriterErrors(t *testing.T) {
	_, err := NewWriter(newConfig(schema.ParquetOut), 0)
	assert.ErrorContains(t, err, "--output-file")

	_, err = NewWriter(newConfig("xml"), 0)
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestNewWriterDefaultsToTable(t *testing.T) {
	w, err := NewWriter(newConfig(""), 0)
	require.NoError(t, err)
	assert.IsType(t, tableWriter{}, w)
}

func TestWriteFileResultsToFile(t *testing.T) {
	tests := []struct {
		name   string
		output schema.OutputMode
		check  func(t *testing.T, content []byte)
	}{
		{"json", schema.JSONOut, func(t *testing.T, content []byte) {
			assert.True(t, json.Valid(content))
		}},
		{"csv", schema.CSVOut, func(t *testing.T, content []byte) {
			assert.True(t, bytes.HasPrefix(content, []byte("file,churn,complexity,authors,score\n")))
		}},
		{"parquet", schema.ParquetOut, func(t *testing.T, content []byte) {
			assert.True(t, bytes.HasPrefix(content, []byte("PAR1")))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(tt.output)
			cfg.OutputFile = filepath.Join(t.TempDir(), "out."+string(tt.output))

			require.NoError(t, WriteFileResults(sampleMetrics, cfg, time.Second))

			content, err := os.ReadFile(cfg.OutputFile)
			require.NoError(t, err)
			tt.check(t, content)
		})
	}
}

func TestWriteFileResultsBadPath(t *testing.T) {
	cfg := newConfig(schema.JSONOut)
	cfg.OutputFile = filepath.Join(t.TempDir(), "missing", "out.json")

	err := WriteFileResults(sampleMetrics, cfg, 0)
	assert.ErrorContains(t, err, "failed to open output file")
}

func TestGetMaxTablePathWidth(t *testing.T) {
	tests := []struct {
		width    int
		expected int
	}{
		{40, minPathWidth},
		{100, 35},
		{300, maxPathWidth},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, GetMaxTablePathWidth(&contract.Config{Width: tt.width}), "width %d", tt.width)
	}
}

func TestCreateFormatter(t *testing.T) {
	assert.Equal(t, "3.14", createFormatter(2)(3.14159))
	assert.Equal(t, "3", createFormatter(0)(3.14159))
	assert.Equal(t, "-42.57", createFormatter(2)(-42.567))
}
