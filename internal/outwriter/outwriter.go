// Package outwriter renders ranked hotspot files in every supported output format.
package outwriter

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gitrisk/hotspot/internal/contract"
	"github.com/gitrisk/hotspot/schema"
)

// Writer renders ranked files to w.
type Writer interface {
	Write(w io.Writer, metrics []schema.FileMetrics) error
}

// NewWriter returns the renderer for cfg.Output. The duration is only shown
// by the table footer.
func NewWriter(cfg *contract.Config, duration time.Duration) (Writer, error) {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return jsonWriter{}, nil
	case schema.CSVOut:
		return csvWriter{fmtFloat: fmtFloat}, nil
	case schema.MarkdownOut:
		return markdownWriter{fmtFloat: fmtFloat}, nil
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return nil, errors.New("parquet output requires --output-file")
		}
		return parquetWriter{}, nil
	case schema.TableOut, "":
		return tableWriter{
			fmtFloat:     fmtFloat,
			useColors:    cfg.UseColors,
			pathWidth:    GetMaxTablePathWidth(cfg),
			duration:     duration,
			workers:      cfg.Workers,
			cacheBackend: cfg.CacheBackend,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", cfg.Output)
	}
}

// WriteFileResults renders the ranked files to cfg.OutputFile, or stdout when
// no file is configured.
func WriteFileResults(files []schema.FileMetrics, cfg *contract.Config, duration time.Duration) error {
	writer, err := NewWriter(cfg, duration)
	if err != nil {
		return err
	}
	format := cfg.Output
	if format == "" {
		format = schema.TableOut
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		if err := writer.Write(w, files); err != nil {
			return fmt.Errorf("error writing %s output: %w", format, err)
		}
		return nil
	}, "Wrote "+string(format))
}
