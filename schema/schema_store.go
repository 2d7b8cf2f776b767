package schema

import "time"

// AnalysisRunRecord represents a row from the hotspot_analysis_runs table.
type AnalysisRunRecord struct {
	AnalysisID         int64
	StartTime          time.Time
	EndTime            *time.Time
	RunDurationMs      *int32
	TotalFilesAnalyzed int32
	ConfigParams       *string
}

// FileMetricsRecord represents a row from the hotspot_file_metrics table.
type FileMetricsRecord struct {
	AnalysisID   int64
	FilePath     string
	AnalysisTime time.Time
	Churn        int32
	Complexity   float64
	Authors      int32
	Score        float64
	ScoreLabel   string
}
