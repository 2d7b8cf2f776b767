package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gitrisk/hotspot/internal/contract"
	"github.com/gitrisk/hotspot/internal/iocache"
	"github.com/gitrisk/hotspot/schema"
)

// stubAnalysis records the config it was called with.
type stubAnalysis struct {
	cfg    *contract.Config
	result []schema.FileMetrics
	err    error
}

func (s *stubAnalysis) run(_ context.Context, cfg *contract.Config, _ contract.CacheManager) ([]schema.FileMetrics, time.Duration, error) {
	s.cfg = cfg
	return s.result, time.Millisecond, s.err
}

func newHandler(client contract.GitClient, stub *stubAnalysis) *toolHandler {
	return &toolHandler{
		baseCfg: &contract.Config{RepoPath: "/repo", Top: contract.DefaultTop, Workers: 2, Includes: []string{"src"}},
		mgr:     &iocache.MockCacheManager{},
		client:  client,
		analyze: stub.run,
	}
}

func call(t *testing.T, h *toolHandler, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := h.handleGetHotspots(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: toolGetHotspots, Arguments: args},
	})
	require.NoError(t, err, "tool failures are reported in the result, not as errors")
	require.NotNil(t, res)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	content, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return content.Text
}

func TestNewMCPServerRegistersTool(t *testing.T) {
	s := NewMCPServer(&contract.Config{RepoPath: "."}, &iocache.MockCacheManager{})

	tool := s.GetTool(toolGetHotspots)
	require.NotNil(t, tool)
	for _, arg := range []string{"repo_path", "since", "until", "include", "exclude", "top"} {
		assert.Contains(t, tool.Tool.InputSchema.Properties, arg)
	}
}

func TestGetHotspotsSuccess(t *testing.T) {
	abs, err := filepath.Abs("some/dir")
	require.NoError(t, err)
	client := &contract.MockGitClient{}
	client.On("GetRepoRoot", mock.Anything, abs).Return("/work/project", nil)
	stub := &stubAnalysis{result: []schema.FileMetrics{{Path: "a.go", Churn: 10, Complexity: 50, Authors: 1, Score: 59.06}}}
	h := newHandler(client, stub)

	res := call(t, h, map[string]any{
		"repo_path": "some/dir",
		"since":     "2024-01-01",
		"until":     "2024-06-30",
		"include":   "core, internal",
		"exclude":   "_test.go",
		"top":       3.0,
	})

	assert.False(t, res.IsError)
	var got []schema.FileMetrics
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, stub.result, got)

	require.NotNil(t, stub.cfg)
	assert.Equal(t, "/work/project", stub.cfg.RepoPath)
	assert.Equal(t, []string{"core", "internal"}, stub.cfg.Includes)
	assert.Equal(t, []string{"_test.go"}, stub.cfg.Excludes)
	assert.Equal(t, 3, stub.cfg.Top)
	assert.Equal(t, "2024-01-01..2024-06-30", stub.cfg.Window.String())
	assert.Equal(t, []string{"src"}, h.baseCfg.Includes, "the server config is not modified")
	client.AssertExpectations(t)
}

func TestGetHotspotsDefaults(t *testing.T) {
	stub := &stubAnalysis{}
	h := newHandler(&contract.MockGitClient{}, stub)

	res := call(t, h, nil)

	assert.False(t, res.IsError)
	assert.Equal(t, "[]", text(t, res))
	assert.Equal(t, "/repo", stub.cfg.RepoPath)
	assert.Equal(t, contract.DefaultTop, stub.cfg.Top)
	assert.Equal(t, []string{"src"}, stub.cfg.Includes)
	assert.Nil(t, stub.cfg.Window.Since)
}

func TestGetHotspotsValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"bad since", map[string]any{"since": "last week"}, "since"},
		{"since after until", map[string]any{"since": "2024-05-01", "until": "2024-04-01"}, "after until"},
		{"negative top", map[string]any{"top": -1.0}, "top must be between"},
		{"huge top", map[string]any{"top": float64(contract.MaxTop + 1)}, "top must be between"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAnalysis{}
			res := call(t, newHandler(&contract.MockGitClient{}, stub), tt.args)

			assert.True(t, res.IsError)
			assert.Contains(t, text(t, res), "invalid parameters")
			assert.Contains(t, text(t, res), tt.want)
			assert.Nil(t, stub.cfg, "analysis must not run")
		})
	}
}

func TestGetHotspotsNotARepository(t *testing.T) {
	client := &contract.MockGitClient{}
	client.On("GetRepoRoot", mock.Anything, mock.Anything).Return("", errors.New("not a git repository"))
	stub := &stubAnalysis{}

	res := call(t, newHandler(client, stub), map[string]any{"repo_path": "/tmp"})

	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "not inside a Git repository")
	assert.Nil(t, stub.cfg)
}

func TestGetHotspotsAnalysisError(t *testing.T) {
	stub := &stubAnalysis{err: &contract.CommitReadError{Commit: "abc", Err: errors.New("corrupt object")}}

	res := call(t, newHandler(&contract.MockGitClient{}, stub), nil)

	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "analysis failed")
	assert.Contains(t, text(t, res), "corrupt object")
}
