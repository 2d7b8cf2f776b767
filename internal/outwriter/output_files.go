package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/gitrisk/hotspot/internal/contract"
	"github.com/gitrisk/hotspot/internal/parquet"
	"github.com/gitrisk/hotspot/schema"
)

// tableWriter renders the human-readable terminal table.
type tableWriter struct {
	fmtFloat     func(float64) string
	useColors    bool
	pathWidth    int
	duration     time.Duration
	workers      int
	cacheBackend schema.DatabaseBackend
}

func (t tableWriter) Write(w io.Writer, metrics []schema.FileMetrics) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"File", "Churn", "Complexity", "Authors", "Score", "Label"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(metrics))
	totalChurn := 0
	for _, m := range metrics {
		label := string(contract.GetPlainLabel(m.Score))
		if t.useColors {
			label = contract.GetColorLabel(m.Score)
		}
		data = append(data, []string{
			contract.TruncatePath(m.Path, t.pathWidth),
			strconv.Itoa(m.Churn),
			t.fmtFloat(m.Complexity),
			strconv.Itoa(m.Authors),
			t.fmtFloat(m.Score),
			label,
		})
		totalChurn += m.Churn
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Showing top %d files (total churn: %d)\n", len(metrics), totalChurn); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Analysis completed in %v with %d workers. Cache backend: %s\n", t.duration, t.workers, t.cacheBackend)
	return err
}

// jsonFileResult adds the rank and plain label to a ranked file.
type jsonFileResult struct {
	Rank  int    `json:"rank"`
	Label string `json:"label"`
	schema.FileMetrics
}

type jsonWriter struct{}

func (jsonWriter) Write(w io.Writer, metrics []schema.FileMetrics) error {
	output := make([]jsonFileResult, len(metrics))
	for i, m := range metrics {
		output[i] = jsonFileResult{
			Rank:        i + 1,
			Label:       string(contract.GetPlainLabel(m.Score)),
			FileMetrics: m,
		}
	}
	return writeJSON(w, output)
}

type csvWriter struct {
	fmtFloat func(float64) string
}

func (c csvWriter) Write(w io.Writer, metrics []schema.FileMetrics) error {
	header := []string{"file", "churn", "complexity", "authors", "score"}
	return writeCSVWithHeader(w, header, func(rows rowWriter) error {
		for _, m := range metrics {
			rec := []string{
				m.Path,
				strconv.Itoa(m.Churn),
				c.fmtFloat(m.Complexity),
				strconv.Itoa(m.Authors),
				c.fmtFloat(m.Score),
			}
			if err := rows.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// markdownWriter renders a GitHub-flavored table suitable for pull request comments.
type markdownWriter struct {
	fmtFloat func(float64) string
}

func (m markdownWriter) Write(w io.Writer, metrics []schema.FileMetrics) error {
	tbl := table.NewWriter()
	tbl.AppendHeader(table.Row{"Rank", "File", "Churn", "Complexity", "Authors", "Score", "Label"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	for i, f := range metrics {
		tbl.AppendRow(table.Row{
			i + 1,
			f.Path,
			f.Churn,
			m.fmtFloat(f.Complexity),
			f.Authors,
			m.fmtFloat(f.Score),
			string(contract.GetPlainLabel(f.Score)),
		})
	}

	_, err := fmt.Fprintf(w, "# Hotspot Analysis\n\n%s\n", tbl.RenderMarkdown())
	return err
}

type parquetWriter struct{}

func (parquetWriter) Write(w io.Writer, metrics []schema.FileMetrics) error {
	return parquet.WriteHotspots(w, metrics)
}
