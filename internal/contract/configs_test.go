package contract

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gitrisk/hotspot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns a raw input that passes validation; tests mutate it.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		RepoPathStr:  ".",
		Top:          DefaultTop,
		Workers:      4,
		Precision:    DefaultPrecision,
		Output:       string(schema.TableOut),
		Color:        "yes",
		GitBackend:   string(schema.LibGit2Backend),
		CacheBackend: string(schema.SQLiteBackend),
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
		needsRoot   bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}, needsRoot: true},
		{name: "top zero means unlimited", mutate: func(in *ConfigRawInput) { in.Top = 0 }, needsRoot: true},
		{name: "negative top", mutate: func(in *ConfigRawInput) { in.Top = -1 }, expectError: true},
		{name: "top too large", mutate: func(in *ConfigRawInput) { in.Top = MaxTop + 1 }, expectError: true},
		{name: "zero workers", mutate: func(in *ConfigRawInput) { in.Workers = 0 }, expectError: true},
		{name: "precision too large", mutate: func(in *ConfigRawInput) { in.Precision = MaxPrecision + 1 }, expectError: true},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "markdown output", mutate: func(in *ConfigRawInput) { in.Output = "Markdown" }, needsRoot: true},
		{name: "parquet without file", mutate: func(in *ConfigRawInput) { in.Output = "parquet" }, expectError: true},
		{
			name: "parquet with file",
			mutate: func(in *ConfigRawInput) {
				in.Output = "parquet"
				in.OutputFile = "out.parquet"
			},
			needsRoot: true,
		},
		{name: "invalid color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: true},
		{name: "cli git backend", mutate: func(in *ConfigRawInput) { in.GitBackend = "CLI" }, needsRoot: true},
		{name: "invalid git backend", mutate: func(in *ConfigRawInput) { in.GitBackend = "hg" }, expectError: true},
		{name: "invalid cache backend", mutate: func(in *ConfigRawInput) { in.CacheBackend = "redis" }, expectError: true},
		{name: "mysql without connection", mutate: func(in *ConfigRawInput) { in.CacheBackend = "mysql" }, expectError: true},
		{
			name: "mysql with connection",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "mysql"
				in.CacheDBConnect = "user:pass@tcp(localhost:3306)/hotspot"
			},
			needsRoot: true,
		},
		{
			name: "postgres missing dbname",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "postgresql"
				in.CacheDBConnect = "host=localhost user=postgres"
			},
			expectError: true,
		},
		{
			name: "sqlite cache and analysis share default file",
			mutate: func(in *ConfigRawInput) {
				in.AnalysisBackend = "sqlite"
				in.CacheDBConnect = GetAnalysisDBFilePath()
			},
			expectError: true,
		},
		{name: "sqlite analysis tracking", mutate: func(in *ConfigRawInput) { in.AnalysisBackend = "sqlite" }, needsRoot: true},
		{name: "valid window", mutate: func(in *ConfigRawInput) { in.Since, in.Until = "2024-01-01", "2024-12-31" }, needsRoot: true},
		{name: "malformed since", mutate: func(in *ConfigRawInput) { in.Since = "01/02/2024" }, expectError: true},
		{name: "since after until", mutate: func(in *ConfigRawInput) { in.Since, in.Until = "2024-02-01", "2024-01-01" }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := new(MockGitClient)
			workDir, err := filepath.Abs(".")
			require.NoError(t, err)
			ctx := context.Background()
			if tt.needsRoot {
				mockClient.On("GetRepoRoot", ctx, workDir).Return("/mock/repo/root", nil)
			}

			input := validInput()
			tt.mutate(input)

			cfg := &Config{}
			err = ProcessAndValidate(ctx, cfg, mockClient, input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "/mock/repo/root", cfg.RepoPath)
			assert.Equal(t, input.Top, cfg.Top)
			mockClient.AssertExpectations(t)
		})
	}
}

func TestProcessAndValidateRepositoryOpenError(t *testing.T) {
	mockClient := new(MockGitClient)
	workDir, err := filepath.Abs(".")
	require.NoError(t, err)
	ctx := context.Background()
	mockClient.On("GetRepoRoot", ctx, workDir).Return("", errors.New("not a git repository"))

	err = ProcessAndValidate(ctx, &Config{}, mockClient, validInput())

	var openErr *RepositoryOpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, workDir, openErr.Path)
}

func TestProcessAndValidateFilters(t *testing.T) {
	mockClient := new(MockGitClient)
	workDir, err := filepath.Abs(".")
	require.NoError(t, err)
	ctx := context.Background()
	mockClient.On("GetRepoRoot", ctx, workDir).Return("/repo", nil)

	input := validInput()
	input.Include = " src/ , ,lib"
	input.Exclude = "vendor,"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(ctx, cfg, mockClient, input))
	assert.Equal(t, []string{"src/", "lib"}, cfg.Includes)
	assert.Equal(t, []string{"vendor"}, cfg.Excludes)
}

func TestProcessTimeWindow(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessTimeWindow(cfg, "2024-01-01", "2024-01-31"))

	require.NotNil(t, cfg.Window.Since)
	require.NotNil(t, cfg.Window.Until)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *cfg.Window.Since)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), *cfg.Window.Until)
	assert.Equal(t, "2024-01-01", cfg.Since)

	cfg = &Config{}
	require.NoError(t, ProcessTimeWindow(cfg, "", ""))
	assert.Nil(t, cfg.Window.Since)
	assert.Nil(t, cfg.Window.Until)

	err := ProcessTimeWindow(&Config{}, "", "2024-13-01")
	var dateErr *InvalidDateError
	require.ErrorAs(t, err, &dateErr)
	assert.Equal(t, "until", dateErr.Field)
	assert.Equal(t, "2024-13-01", dateErr.Value)
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{Includes: []string{"a"}, Excludes: []string{"b"}, Top: 3}
	clone := cfg.Clone()
	clone.Includes[0] = "changed"
	clone.Excludes = append(clone.Excludes, "c")

	assert.Equal(t, []string{"a"}, cfg.Includes)
	assert.Equal(t, []string{"b"}, cfg.Excludes)
	assert.Equal(t, 3, clone.Top)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	assert.NoError(t, ValidateDatabaseConnectionString(schema.SQLiteBackend, ""))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.NoneBackend, ""))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.MySQLBackend, "u:p@tcp(h:3306)/db"))
	assert.Error(t, ValidateDatabaseConnectionString(schema.MySQLBackend, "u:p@h/db"))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.PostgreSQLBackend, "host=h dbname=db"))
	assert.Error(t, ValidateDatabaseConnectionString(schema.PostgreSQLBackend, ""))
}

func TestProcessProfilingConfig(t *testing.T) {
	profile := &ProfileConfig{}
	ProcessProfilingConfig(profile, "")
	assert.False(t, profile.Enabled)

	ProcessProfilingConfig(profile, "run")
	assert.True(t, profile.Enabled)
	assert.Equal(t, "run", profile.Prefix)
}
