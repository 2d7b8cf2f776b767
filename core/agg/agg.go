// Package agg has aggregation logic for Git activity data.
package agg

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/gitrisk/hotspot/internal/contract"
	"github.com/gitrisk/hotspot/schema"
)

// Aggregate holds per-file churn and the set of authors who touched each file.
// The churn and author key sets are always identical since AddChange is the
// only mutator. An Aggregate is built once per run and is not safe for
// concurrent mutation.
type Aggregate struct {
	churn   map[string]int
	authors map[string]map[string]struct{}
}

// NewAggregate returns an empty aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{
		churn:   make(map[string]int),
		authors: make(map[string]map[string]struct{}),
	}
}

// AddChange records delta changed lines on path by author.
func (a *Aggregate) AddChange(path string, delta int, author string) {
	a.churn[path] += delta
	set, ok := a.authors[path]
	if !ok {
		set = make(map[string]struct{})
		a.authors[path] = set
	}
	set[author] = struct{}{}
}

// Churn returns the accumulated changed lines of path.
func (a *Aggregate) Churn(path string) int {
	return a.churn[path]
}

// AuthorCount returns the number of distinct authors of path.
func (a *Aggregate) AuthorCount(path string) int {
	return len(a.authors[path])
}

// Authors returns the sorted distinct authors of path.
func (a *Aggregate) Authors(path string) []string {
	return slices.Sorted(maps.Keys(a.authors[path]))
}

// Paths returns every tracked path in sorted order.
func (a *Aggregate) Paths() []string {
	return slices.Sorted(maps.Keys(a.churn))
}

// Len returns the number of tracked paths.
func (a *Aggregate) Len() int {
	return len(a.churn)
}

// Retain returns a new aggregate holding only the paths accepted by keep.
func (a *Aggregate) Retain(keep func(path string) bool) *Aggregate {
	out := NewAggregate()
	for path, churn := range a.churn {
		if !keep(path) {
			continue
		}
		out.churn[path] = churn
		out.authors[path] = maps.Clone(a.authors[path])
	}
	return out
}

// Snapshot converts the aggregate into its serializable form.
func (a *Aggregate) Snapshot() schema.AggregateSnapshot {
	snap := schema.AggregateSnapshot{
		Churn:   maps.Clone(a.churn),
		Authors: make(map[string][]string, len(a.authors)),
	}
	for path := range a.authors {
		snap.Authors[path] = a.Authors(path)
	}
	return snap
}

// FromSnapshot rebuilds an aggregate from its serializable form. Paths that
// appear in only one of the two snapshot maps are dropped.
func FromSnapshot(snap schema.AggregateSnapshot) *Aggregate {
	a := NewAggregate()
	for path, churn := range snap.Churn {
		names, ok := snap.Authors[path]
		if !ok {
			continue
		}
		set := make(map[string]struct{}, len(names))
		for _, n := range names {
			set[n] = struct{}{}
		}
		a.churn[path] = churn
		a.authors[path] = set
	}
	return a
}

// Accumulate walks the qualifying commits of hist and folds every diff
// against every parent into a fresh aggregate. Merge commits are counted
// once per parent.
func Accumulate(ctx context.Context, hist contract.History, window schema.TimeWindow) (*Aggregate, error) {
	a := NewAggregate()
	err := WalkQualifying(ctx, hist, window, func(c schema.Commit) error {
		for i := range c.Parents {
			records, err := hist.Diff(ctx, c, i)
			if err != nil {
				return &contract.CommitReadError{Commit: c.Hash, Err: fmt.Errorf("diff against parent %d: %w", i, err)}
			}
			for _, r := range records {
				if lines := r.Lines(); lines > 0 {
					a.AddChange(r.Path, lines, c.Author)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// AggregateActivity opens the repository history and accumulates it.
func AggregateActivity(ctx context.Context, cfg *contract.Config, client contract.GitClient) (*Aggregate, error) {
	hist, err := client.OpenHistory(ctx, cfg.RepoPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = hist.Close() }()

	return Accumulate(ctx, hist, cfg.Window)
}
