package size

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrisk/hotspot/schema"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLineCounterGo(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.go", `// Package x is a test.
package x

/* a block
   that spans lines */
func f() {} // trailing comment

/* inline */ var y = 1
`)

	v, err := LineCounter{}.Size(path)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)
}

func TestLineCounterPython(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tool.py", `#!/usr/bin/env python
"""Module docstring."""

# comment
def main():
    """
    Multi-line docstring.
    """
    return 1  # trailing
`)

	v, err := LineCounter{}.Size(path)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
}

func TestLineCounterSkips(t *testing.T) {
	dir := t.TempDir()

	_, err := LineCounter{}.Size(filepath.Join(dir, "missing.go"))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = LineCounter{}.Size(dir)
	assert.ErrorIs(t, err, ErrSkip)

	bin := writeFile(t, dir, "image.dat", "\x89PNG\x00\x00\x00\rIHDR\x00\x01")
	_, err = LineCounter{}.Size(bin)
	assert.ErrorIs(t, err, ErrSkip)
}

func TestCountCodeLines(t *testing.T) {
	tests := []struct {
		name     string
		syntax   commentSyntax
		content  string
		expected int
	}{
		{"empty", cStyle, "", 0},
		{"blank lines only", cStyle, "\n  \n\t\n", 0},
		{"unknown language counts non-blank", commentSyntax{}, "a\n\n// b\n# c\n", 3},
		{"code after block close", cStyle, "/* x\n*/ int a;\n", 1},
		{"block inside code", cStyle, "a /* b */ c\n", 1},
		{"comment marker after block", cStyle, "/* a */ // b\n", 0},
		{"hash comments", hashStyle, "# a\nkey: 1\n  # b\n", 1},
		{"lua block", commentSyntax{line: []string{"--"}, blockStart: "--[[", blockEnd: "]]"}, "--[[ a\nb ]]\nprint(1)\n-- c\n", 1},
		{"xml comments", xmlStyle, "<!-- a -->\n<a/>\n<!--\nb\n-->\n", 1},
		{"block opener in string", cStyle, "s := \"/* not a comment\"\nx := 1\ny := 2\n", 3},
		{"glob in string", cStyle, "p := \"**/*.go\" // files\nq := 1\n", 2},
		{"line marker in string", cStyle, "url := \"http://x\"\n", 1},
		{"escaped quote", cStyle, "s := \"a\\\" /*\"\nx := 1\n", 2},
		{"char literal", cStyle, "c := '\"'\n// gone\n", 1},
		{"unterminated string closes at end of line", cStyle, "s := \"abc\n// c\n", 1},
		{"comment after string", cStyle, "s := \"a\" /* b\nc */\n", 1},
		{"go raw string spans lines", syntaxByLanguage["Go"], "s := `\n// kept\n/* kept */\n`\n// c\n", 4},
		{"raw string ignores backslash", syntaxByLanguage["Go"], "s := `\\`\n// c\n", 1},
		{"js template spans lines", jsStyle, "t = `a\n/* b\n`;\nx = 1\n", 4},
		{"hash inside quotes", hashStyle, "echo \"#1\"\n# c\n", 1},
		{"no trailing newline", cStyle, "a\nb", 2},
		{"crlf line endings", cStyle, "a\r\n\r\n// b\r\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, countCodeLines([]byte(tt.content), tt.syntax))
		})
	}
}

func TestCountCodeLinesLongLine(t *testing.T) {
	long := "var data = \"" + strings.Repeat("a", 17<<20) + "\";\n"
	content := "var a = 1;\n" + long + "// note\nvar b = 2;\nvar c = 3;\n"

	assert.Equal(t, 4, countCodeLines([]byte(content), jsStyle))

	dir := t.TempDir()
	path := writeFile(t, dir, "bundle.js", content)
	v, err := LineCounter{}.Size(path)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)
}

// mapOracle serves sizes from a map keyed by absolute path.
type mapOracle struct {
	sizes    map[string]float64
	errs     map[string]error
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	seen     []string
}

func (o *mapOracle) Size(absPath string) (float64, error) {
	n := o.inFlight.Add(1)
	defer o.inFlight.Add(-1)
	for {
		p := o.peak.Load()
		if n <= p || o.peak.CompareAndSwap(p, n) {
			break
		}
	}

	o.mu.Lock()
	o.seen = append(o.seen, absPath)
	o.mu.Unlock()

	if err, ok := o.errs[absPath]; ok {
		return 0, err
	}
	v, ok := o.sizes[absPath]
	if !ok {
		return 0, fmt.Errorf("%s: %w", absPath, fs.ErrNotExist)
	}
	return v, nil
}

func TestEstimate(t *testing.T) {
	root := filepath.FromSlash("/repo")
	oracle := &mapOracle{
		sizes: map[string]float64{
			filepath.Join(root, "a.go"):     50,
			filepath.Join(root, "pkg/b.go"): 0,
			filepath.Join(root, "c.md"):     7,
		},
		errs: map[string]error{
			filepath.Join(root, "dir"): fmt.Errorf("dir: %w", ErrSkip),
		},
	}

	sizes, err := Estimate(context.Background(), root, []string{"a.go", "pkg/b.go", "c.md", "gone.go", "dir"}, oracle, 2)
	require.NoError(t, err)
	assert.Equal(t, schema.SizeMap{"a.go": 50, "pkg/b.go": 0, "c.md": 7}, sizes)
	assert.Len(t, oracle.seen, 5)
	assert.LessOrEqual(t, oracle.peak.Load(), int32(2))
}

func TestEstimateEmpty(t *testing.T) {
	sizes, err := Estimate(context.Background(), "/repo", nil, &mapOracle{}, 4)
	require.NoError(t, err)
	assert.Empty(t, sizes)
}

func TestEstimateOracleError(t *testing.T) {
	root := filepath.FromSlash("/repo")
	boom := errors.New("permission denied")
	oracle := &mapOracle{errs: map[string]error{filepath.Join(root, "secret.go"): boom}}

	_, err := Estimate(context.Background(), root, []string{"secret.go"}, oracle, 1)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "secret.go")
}

func TestEstimateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	oracle := &mapOracle{}
	_, err := Estimate(ctx, "/repo", []string{"a.go", "b.go"}, oracle, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, oracle.seen)
}

func TestEstimateWithLineCounter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/a.go", "package a\n\n// hi\nfunc A() {}\n")

	sizes, err := Estimate(context.Background(), dir, []string{"src/a.go", "deleted.go"}, LineCounter{}, 2)
	require.NoError(t, err)
	assert.Equal(t, schema.SizeMap{"src/a.go": 2}, sizes)
}
