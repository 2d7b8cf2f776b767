package algo

import "github.com/gitrisk/hotspot/schema"

// Top returns the first limit files of an already ranked list.
// A limit of zero or less keeps every file.
func Top(files []schema.FileMetrics, limit int) []schema.FileMetrics {
	if limit > 0 && len(files) > limit {
		return files[:limit]
	}
	return files
}
