package model

import "time"

// RunStats accumulates counters for a single pipeline run. It is created at
// run start and owned by that run only.
type RunStats struct {
	Fetched              int `json:"fetched"`
	SkippedInvalid       int `json:"skipped_invalid"`
	SkippedDuplicates    int `json:"skipped_duplicates"`
	DedupeFailures       int `json:"dedupe_failures"`
	SkippedLowSignal     int `json:"skipped_low_signal"`
	Unparseable          int `json:"unparseable"`
	EnrichmentFailures   int `json:"enrichment_failures"`
	RateLimitErrors      int `json:"rate_limit_errors"`
	ServerErrors         int `json:"server_errors"`
	DBInsertFailures     int `json:"db_insert_failures"`
	EnrichedSuccessfully int `json:"enriched_successfully"`
	Inserted             int `json:"inserted"`

	InputTokens      int64   `json:"input_tokens"`
	OutputTokens     int64   `json:"output_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewRunStats returns zeroed stats stamped with the start time.
func NewRunStats(now time.Time) *RunStats {
	return &RunStats{StartedAt: now.UTC()}
}

// Duration is the wall-clock time of the run, or zero while it is running.
func (s *RunStats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
