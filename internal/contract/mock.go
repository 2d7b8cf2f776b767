package contract

import (
	"context"

	"github.com/gitrisk/hotspot/schema"
	"github.com/stretchr/testify/mock"
)

// MockGitClient is a testify mock of GitClient.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{} // Compile-time check

// GetRepoRoot implements the GitClient interface.
func (m *MockGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	ret := m.Called(ctx, contextPath)
	return ret.String(0), ret.Error(1)
}

// GetRepoHash implements the GitClient interface.
func (m *MockGitClient) GetRepoHash(ctx context.Context, repoPath string) (string, error) {
	ret := m.Called(ctx, repoPath)
	return ret.String(0), ret.Error(1)
}

// OpenHistory implements the GitClient interface.
func (m *MockGitClient) OpenHistory(ctx context.Context, repoPath string) (History, error) {
	ret := m.Called(ctx, repoPath)
	h, _ := ret.Get(0).(History)
	return h, ret.Error(1)
}

// MockHistory is an in-memory History for tests. Commits are walked in the
// order given and Diffs is keyed by commit hash, then parent index.
type MockHistory struct {
	Commits []schema.Commit
	Diffs   map[string][][]schema.ChangeRecord
	WalkErr error
	DiffErr map[string]error
	Closed  bool
}

var _ History = &MockHistory{} // Compile-time check

// Walk implements the History interface.
func (m *MockHistory) Walk(_ context.Context, fn func(schema.Commit) error) error {
	for _, c := range m.Commits {
		if err := fn(c); err != nil {
			return err
		}
	}
	return m.WalkErr
}

// Diff implements the History interface.
func (m *MockHistory) Diff(_ context.Context, c schema.Commit, parent int) ([]schema.ChangeRecord, error) {
	if err := m.DiffErr[c.Hash]; err != nil {
		return nil, err
	}
	perParent := m.Diffs[c.Hash]
	if parent >= len(perParent) {
		return nil, nil
	}
	return perParent[parent], nil
}

// Close implements the History interface.
func (m *MockHistory) Close() error {
	m.Closed = true
	return nil
}
