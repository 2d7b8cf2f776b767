// Package schema has the models shared by every part of hotspot.
package schema

import "time"

// DateFormat is the calendar date layout accepted for --since and --until.
const DateFormat = "2006-01-02"

// Commit is a single revision produced by the history walk.
// It is not retained after its diffs have been accumulated.
type Commit struct {
	Hash    string
	When    time.Time // author time, UTC
	Author  string
	Parents []string
}

// IsRoot reports whether the commit has no parents.
func (c Commit) IsRoot() bool {
	return len(c.Parents) == 0
}

// ChangeRecord is the line delta of one file in one commit-vs-parent diff.
type ChangeRecord struct {
	Path    string // path in the child tree
	Added   int
	Removed int
}

// Lines returns the total number of changed lines.
func (r ChangeRecord) Lines() int {
	return r.Added + r.Removed
}

// SizeMap maps a repository-relative path to its size signal.
// A missing key means the file contributes a size of 0.
type SizeMap map[string]float64

// FileMetrics is the ranked output unit of a hotspot analysis.
type FileMetrics struct {
	Path       string  `json:"path"`
	Churn      int     `json:"churn"`
	Complexity float64 `json:"complexity"`
	Authors    int     `json:"authors"`
	Score      float64 `json:"score"`
}

// AggregateSnapshot is the serializable form of the per-file churn and authors.
type AggregateSnapshot struct {
	Churn   map[string]int      `json:"churn"`
	Authors map[string][]string `json:"authors"`
}

// TimeWindow is an optional inclusive [Since, Until] bound on commit time.
type TimeWindow struct {
	Since *time.Time
	Until *time.Time
}

// Contains reports whether t falls inside the window. Only whole seconds are
// compared, so the stored timezone offset of t has no effect.
func (w TimeWindow) Contains(t time.Time) bool {
	sec := t.Unix()
	if w.Since != nil && sec < w.Since.Unix() {
		return false
	}
	if w.Until != nil && sec > w.Until.Unix() {
		return false
	}
	return true
}

// String renders the window for cache keys and headers.
func (w TimeWindow) String() string {
	since, until := "beginning", "now"
	if w.Since != nil {
		since = w.Since.UTC().Format(DateFormat)
	}
	if w.Until != nil {
		until = w.Until.UTC().Format(DateFormat)
	}
	return since + ".." + until
}
