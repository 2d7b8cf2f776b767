package iocache

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/gitrisk/hotspot/schema"
)

// statusTime renders an absolute timestamp together with its age.
func statusTime(t time.Time) string {
	return fmt.Sprintf("%s (%s)", t.Local().Format("2006-01-02 15:04:05"), humanize.Time(t))
}

// PrintCacheStatus writes cache status information to w.
func PrintCacheStatus(w io.Writer, status schema.CacheStatus) {
	fmt.Fprintf(w, "Cache Backend: %s\n", status.Backend)
	fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Fprintf(w, "Total Entries: %s\n", humanize.Comma(int64(status.TotalEntries)))
	if status.TotalEntries > 0 {
		fmt.Fprintf(w, "Last Entry: %s\n", statusTime(status.LastEntryTime))
		fmt.Fprintf(w, "Oldest Entry: %s\n", statusTime(status.OldestEntryTime))
	}
	fmt.Fprintf(w, "Table Size: %s\n", humanize.Bytes(uint64(max(status.TableSizeBytes, 0))))
}

// PrintAnalysisStatus writes analysis status information to w.
func PrintAnalysisStatus(w io.Writer, status schema.AnalysisStatus) {
	fmt.Fprintf(w, "Analysis Backend: %s\n", status.Backend)
	fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Fprintf(w, "Total Runs: %s\n", humanize.Comma(int64(status.TotalRuns)))
	if status.TotalRuns > 0 {
		fmt.Fprintf(w, "Last Run ID: %d\n", status.LastRunID)
		fmt.Fprintf(w, "Last Run: %s\n", statusTime(status.LastRunTime))
		fmt.Fprintf(w, "Oldest Run: %s\n", statusTime(status.OldestRunTime))
		fmt.Fprintf(w, "Total Files Analyzed: %s\n", humanize.Comma(int64(status.TotalFilesAnalyzed)))
	}
	fmt.Fprintln(w, "Table Sizes:")
	for _, table := range slices.Sorted(maps.Keys(status.TableSizes)) {
		fmt.Fprintf(w, "  %s: %s rows\n", table, humanize.Comma(status.TableSizes[table]))
	}
}
