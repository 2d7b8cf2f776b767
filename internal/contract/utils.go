package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/gitrisk/hotspot/schema"
)

// Color variables for console output.
var (
	CriticalColor = color.New(color.FgRed, color.Bold)     // criticalColor represents standard danger.
	HighColor     = color.New(color.FgMagenta, color.Bold) // highColor represents strong, distinct warning.
	ModerateColor = color.New(color.FgYellow)              // moderateColor represents standard caution, not bold.
	LowColor      = color.New(color.FgCyan)                // lowColor represents informational / low-priority signal.
)

// GetPlainLabel returns a plain text label indicating the criticality level
// based on the file's hotspot score. This is the core logic used for
// every output format and for persisted rows.
func GetPlainLabel(score float64) schema.ScoreLabel {
	switch {
	case score >= 80:
		return schema.CriticalLabel
	case score >= 60:
		return schema.HighLabel
	case score >= 40:
		return schema.ModerateLabel
	default:
		return schema.LowLabel
	}
}

// UnknownAuthor stands in for an author name that is empty or not valid UTF-8.
const UnknownAuthor = "Unknown"

// AuthorName normalizes a commit author name so both history backends count
// nameless authors as the same person.
func AuthorName(name string) string {
	if strings.TrimSpace(name) == "" || !utf8.ValidString(name) {
		return UnknownAuthor
	}
	return name
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(score float64) string {
	label := GetPlainLabel(score)
	text := string(label)

	switch label {
	case schema.CriticalLabel:
		return CriticalColor.Sprint(text)
	case schema.HighLabel:
		return HighColor.Sprint(text)
	case schema.ModerateLabel:
		return ModerateColor.Sprint(text)
	default:
		return LowColor.Sprint(text)
	}
}

// SelectOutputFile returns the file handle for output. An empty path means stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// MatchesFilters reports whether a repository-relative path survives the
// include and exclude filters. Filters are plain substrings. A path matching
// any exclude is dropped even when it also matches an include; an empty
// include list keeps everything else.
func MatchesFilters(path string, includes, excludes []string) bool {
	for _, ex := range excludes {
		if ex != "" && strings.Contains(path, ex) {
			return false
		}
	}
	if len(includes) == 0 {
		return true
	}
	for _, in := range includes {
		if in != "" && strings.Contains(path, in) {
			return true
		}
	}
	return false
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".hotspot_cache.db"
	}
	return filepath.Join(homeDir, ".hotspot_cache.db")
}

// GetAnalysisDBFilePath returns the path to the SQLite DB file for analysis storage.
func GetAnalysisDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".hotspot_analysis.db"
	}
	return filepath.Join(homeDir, ".hotspot_analysis.db")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 so there is room for "..." and at least one character.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
