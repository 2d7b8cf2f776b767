package outwriter

import (
	"os"

	"golang.org/x/term"

	"github.com/gitrisk/hotspot/internal/contract"
)

const (
	defaultTermWidth = 80 // narrow terminals and CI
	minPathWidth     = 15
	maxPathWidth     = 70

	// Churn, Complexity, Authors, Score and Label plus borders and padding.
	fixedColumnsWidth = 65
)

// GetMaxTablePathWidth calculates the maximum width for file paths in table output
// based on terminal width and table configuration.
func GetMaxTablePathWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detected, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detected <= 0 {
			detected = defaultTermWidth
		}
		termWidth = detected
	}

	return min(max(termWidth-fixedColumnsWidth, minPathWidth), maxPathWidth)
}
