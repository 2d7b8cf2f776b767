package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gitrisk/hotspot/core"
	"github.com/gitrisk/hotspot/internal/contract"
	"github.com/gitrisk/hotspot/internal/iocache"
)

// filesCmd performs file-level hotspot analysis.
var filesCmd = &cobra.Command{
	Use:   "files [repo-path]",
	Short: "Show the top files ranked by hotspot score.",
	Long: `Walk every commit reachable from HEAD and rank files by hotspot score.

A file's score grows with the lines changed in it and with its current code
size, and shrinks as more people author changes to it. Root commits are
skipped and merge commits count once per parent.

Examples:
  # Top 10 files of the current repository
  hotspot files

  # Everything under src/ changed during 2024, excluding generated code
  hotspot files --since 2024-01-01 --until 2024-12-31 --include src/ --exclude .pb.go

  # Top 50 as CSV
  hotspot files -t 50 --output csv --output-file hotspots.csv

  # Use the git CLI instead of libgit2
  hotspot files --git-backend cli`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := core.ExecuteHotspotFiles(cmd.Context(), cfg, iocache.Manager); err != nil {
			contract.LogFatal("Cannot run files analysis", err)
		}
	},
}
