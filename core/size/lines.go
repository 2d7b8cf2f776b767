package size

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/gitrisk/hotspot/internal/contract"
)

// quote is a string literal delimiter. Comment markers between an opening
// and closing delimiter are part of the string.
type quote struct {
	delim     string
	raw       bool // backslash does not escape
	multiline bool // may stay open past the end of a line
}

var (
	dq       = quote{delim: `"`}
	sq       = quote{delim: `'`}
	goRaw    = quote{delim: "`", raw: true, multiline: true}
	template = quote{delim: "`", multiline: true}
	rustStr  = quote{delim: `"`, multiline: true}
)

// commentSyntax describes how a language spells its comments and strings.
type commentSyntax struct {
	line       []string
	blockStart string
	blockEnd   string
	quotes     []quote
}

var (
	cStyle    = commentSyntax{line: []string{"//"}, blockStart: "/*", blockEnd: "*/", quotes: []quote{dq, sq}}
	jsStyle   = commentSyntax{line: []string{"//"}, blockStart: "/*", blockEnd: "*/", quotes: []quote{dq, sq, template}}
	hashStyle = commentSyntax{line: []string{"#"}, quotes: []quote{dq, sq}}
	dashStyle = commentSyntax{line: []string{"--"}, quotes: []quote{sq}}
	xmlStyle  = commentSyntax{blockStart: "<!--", blockEnd: "-->"}
)

// syntaxByLanguage is keyed by enry language name.
var syntaxByLanguage = map[string]commentSyntax{
	"C":               cStyle,
	"C#":              cStyle,
	"C++":             cStyle,
	"CSS":             {blockStart: "/*", blockEnd: "*/", quotes: []quote{dq, sq}},
	"Dart":            cStyle,
	"Go":              {line: []string{"//"}, blockStart: "/*", blockEnd: "*/", quotes: []quote{dq, sq, goRaw}},
	"Groovy":          cStyle,
	"Java":            cStyle,
	"JavaScript":      jsStyle,
	"Kotlin":          cStyle,
	"Objective-C":     cStyle,
	"PHP":             {line: []string{"//", "#"}, blockStart: "/*", blockEnd: "*/", quotes: []quote{dq, sq}},
	"Protocol Buffer": cStyle,
	"Rust":            {line: []string{"//"}, blockStart: "/*", blockEnd: "*/", quotes: []quote{rustStr}},
	"SCSS":            cStyle,
	"Scala":           cStyle,
	"Swift":           cStyle,
	"TSX":             jsStyle,
	"TypeScript":      jsStyle,
	"Zig":             {line: []string{"//"}, quotes: []quote{dq, sq}},

	"CMake":      hashStyle,
	"Dockerfile": hashStyle,
	"Makefile":   hashStyle,
	"Perl":       hashStyle,
	"PowerShell": {line: []string{"#"}, blockStart: "<#", blockEnd: "#>", quotes: []quote{dq, sq}},
	"Python":     {line: []string{"#"}, blockStart: `"""`, blockEnd: `"""`, quotes: []quote{dq, sq}},
	"R":          hashStyle,
	"Ruby":       {line: []string{"#"}, blockStart: "=begin", blockEnd: "=end", quotes: []quote{dq, sq}},
	"Shell":      hashStyle,
	"TOML":       hashStyle,
	"YAML":       hashStyle,

	"Haskell": {line: []string{"--"}, blockStart: "{-", blockEnd: "-}", quotes: []quote{dq}},
	"Lua":     {line: []string{"--"}, blockStart: "--[[", blockEnd: "]]", quotes: []quote{dq, sq}},
	"SQL":     {line: []string{"--"}, blockStart: "/*", blockEnd: "*/", quotes: []quote{sq}},
	"PLSQL":   dashStyle,

	"HTML": xmlStyle,
	"Vue":  {line: []string{"//"}, blockStart: "<!--", blockEnd: "-->", quotes: []quote{dq, sq, template}},
	"XML":  xmlStyle,
}

// LineCounter is the default size oracle. It counts the lines of a file that
// hold code, leaving out blank lines and lines that only carry comments.
// Languages it has no comment syntax for count every non-blank line.
type LineCounter struct{}

var _ contract.SizeOracle = LineCounter{} // Compile-time check

// Size implements the contract.SizeOracle interface.
func (LineCounter) Size(absPath string) (float64, error) {
	if err := statRegular(absPath); err != nil {
		return 0, err
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return 0, err
	}
	if enry.IsBinary(content) {
		return 0, fmt.Errorf("%s: %w", absPath, ErrSkip)
	}

	lang := enry.GetLanguage(filepath.Base(absPath), content)
	syntax := syntaxByLanguage[lang]
	return float64(countCodeLines(content, syntax)), nil
}

// scanState carries comment and string state from one line to the next.
type scanState struct {
	inBlock bool
	open    *quote
}

// countCodeLines counts the lines of content that carry code under syntax.
// Lines of any length are handled since content is already in memory.
func countCodeLines(content []byte, syntax commentSyntax) int {
	count := 0
	var st scanState
	for line := range bytes.Lines(content) {
		if syntax.isCode(string(line), &st) {
			count++
		}
	}
	return count
}

// isCode reports whether line has anything outside comments. Text inside a
// string literal is code even when it looks like a comment marker.
func (s commentSyntax) isCode(line string, st *scanState) bool {
	rest := strings.TrimSpace(line)
	code := false
	for i := 0; i < len(rest); {
		switch {
		case st.open != nil:
			code = true
			if !st.open.raw && rest[i] == '\\' {
				i += 2
				continue
			}
			if strings.HasPrefix(rest[i:], st.open.delim) {
				i += len(st.open.delim)
				st.open = nil
				continue
			}
			i++
		case st.inBlock:
			if strings.HasPrefix(rest[i:], s.blockEnd) {
				i += len(s.blockEnd)
				st.inBlock = false
				continue
			}
			i++
		default:
			// Block openers win over line markers so that Lua's "--[[" opens a block.
			if s.blockStart != "" && strings.HasPrefix(rest[i:], s.blockStart) {
				i += len(s.blockStart)
				st.inBlock = true
				continue
			}
			if s.lineCommentAt(rest[i:]) {
				return code
			}
			code = true
			if q := s.quoteAt(rest[i:]); q != nil {
				i += len(q.delim)
				st.open = q
				continue
			}
			i++
		}
	}
	if st.open != nil && !st.open.multiline {
		st.open = nil
	}
	return code
}

func (s commentSyntax) lineCommentAt(text string) bool {
	for _, marker := range s.line {
		if strings.HasPrefix(text, marker) {
			return true
		}
	}
	return false
}

func (s commentSyntax) quoteAt(text string) *quote {
	for i := range s.quotes {
		if strings.HasPrefix(text, s.quotes[i].delim) {
			return &s.quotes[i]
		}
	}
	return nil
}
