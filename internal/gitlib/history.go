package gitlib

import (
	"context"
	"fmt"

	git2go "github.com/libgit2/git2go/v34"

	"github.com/gitrisk/hotspot/internal/contract"
	"github.com/gitrisk/hotspot/schema"
)

// History walks and diffs a repository opened with libgit2.
// A History owns its repository handle and must not be shared across goroutines.
type History struct {
	repo *git2go.Repository
}

var _ contract.History = &History{} // Compile-time check

// Walk implements the contract.History interface. Commits are visited
// newest first by commit time.
func (h *History) Walk(_ context.Context, fn func(schema.Commit) error) error {
	head, err := headHash(h.repo)
	if err != nil {
		return &contract.CommitReadError{Err: err}
	}
	if head == "" {
		return nil
	}

	walk, err := h.repo.Walk()
	if err != nil {
		return &contract.CommitReadError{Err: fmt.Errorf("create revwalk: %w", err)}
	}
	defer walk.Free()

	if err := walk.PushHead(); err != nil {
		return &contract.CommitReadError{Commit: head, Err: fmt.Errorf("push HEAD to revwalk: %w", err)}
	}
	walk.Sorting(git2go.SortTime)

	oid := new(git2go.Oid)
	for {
		err := walk.Next(oid)
		if git2go.IsErrorCode(err, git2go.ErrorCodeIterOver) {
			return nil
		}
		if err != nil {
			return &contract.CommitReadError{Err: fmt.Errorf("revwalk next: %w", err)}
		}

		c, err := h.readCommit(oid)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
	}
}

// readCommit converts a libgit2 commit into the walk's commit model.
func (h *History) readCommit(oid *git2go.Oid) (schema.Commit, error) {
	commit, err := h.repo.LookupCommit(oid)
	if err != nil {
		return schema.Commit{}, &contract.CommitReadError{Commit: oid.String(), Err: fmt.Errorf("lookup commit: %w", err)}
	}
	defer commit.Free()

	n := commit.ParentCount()
	parents := make([]string, 0, n)
	for i := range n {
		parents = append(parents, commit.ParentId(i).String())
	}

	author := commit.Author()
	return schema.Commit{
		Hash:    oid.String(),
		When:    author.When.UTC(),
		Author:  contract.AuthorName(author.Name),
		Parents: parents,
	}, nil
}

// Diff implements the contract.History interface. Rename detection is left
// off, so a renamed file is reported under its new path.
func (h *History) Diff(_ context.Context, c schema.Commit, parent int) ([]schema.ChangeRecord, error) {
	oid, err := git2go.NewOid(c.Hash)
	if err != nil {
		return nil, fmt.Errorf("parse commit id: %w", err)
	}
	commit, err := h.repo.LookupCommit(oid)
	if err != nil {
		return nil, fmt.Errorf("lookup commit: %w", err)
	}
	defer commit.Free()

	if parent < 0 || uint(parent) >= commit.ParentCount() {
		return nil, fmt.Errorf("commit has no parent %d", parent)
	}
	parentCommit := commit.Parent(uint(parent))
	if parentCommit == nil {
		return nil, fmt.Errorf("parent %d not found", parent)
	}
	defer parentCommit.Free()

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get commit tree: %w", err)
	}
	defer tree.Free()

	parentTree, err := parentCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get parent tree: %w", err)
	}
	defer parentTree.Free()

	opts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("get diff options: %w", err)
	}
	diff, err := h.repo.DiffTreeToTree(parentTree, tree, &opts)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}
	defer func() { _ = diff.Free() }()

	return countLines(diff)
}

// countLines tallies added and removed lines per delta. Binary deltas get no
// line callbacks, and deltas that end up with no changed lines are dropped
// whether or not libgit2 flagged them as binary.
func countLines(diff *git2go.Diff) ([]schema.ChangeRecord, error) {
	var records []schema.ChangeRecord
	binary := make(map[int]bool)

	err := diff.ForEach(func(delta git2go.DiffDelta, _ float64) (git2go.DiffForEachHunkCallback, error) {
		idx := len(records)
		records = append(records, schema.ChangeRecord{Path: delta.NewFile.Path})
		if delta.Flags&git2go.DiffFlagBinary != 0 {
			binary[idx] = true
			return nil, nil
		}
		return func(git2go.DiffHunk) (git2go.DiffForEachLineCallback, error) {
			return func(line git2go.DiffLine) error {
				switch line.Origin {
				case git2go.DiffLineAddition:
					records[idx].Added++
				case git2go.DiffLineDeletion:
					records[idx].Removed++
				}
				return nil
			}, nil
		}, nil
	}, git2go.DiffDetailLines)
	if err != nil {
		return nil, fmt.Errorf("diff foreach: %w", err)
	}

	out := records[:0]
	for i, rec := range records {
		if binary[i] || rec.Added+rec.Removed == 0 {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close implements the contract.History interface.
func (h *History) Close() error {
	if h.repo != nil {
		h.repo.Free()
		h.repo = nil
	}
	return nil
}
