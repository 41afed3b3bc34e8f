package pipeline

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/leadwatch/internal/model"
)

const rule = "-----------------------------------------"

// FormatSummary renders the end-of-run summary block.
func FormatSummary(s *model.RunStats) string {
	var b strings.Builder

	b.WriteString("Pipeline finished.\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Fetched: %d\n", s.Fetched)
	fmt.Fprintf(&b, "Skipped invalid: %d\n", s.SkippedInvalid)
	fmt.Fprintf(&b, "Skipped duplicates: %d\n", s.SkippedDuplicates)
	fmt.Fprintf(&b, "Dedupe failures: %d\n", s.DedupeFailures)
	fmt.Fprintf(&b, "Skipped low signal: %d\n", s.SkippedLowSignal)
	fmt.Fprintf(&b, "Inserted: %d\n", s.Inserted)
	fmt.Fprintf(&b, "Enrichment failures: %d\n", s.EnrichmentFailures)
	fmt.Fprintf(&b, "  - Rate Limits (429): %d\n", s.RateLimitErrors)
	fmt.Fprintf(&b, "  - Server Errors (5xx): %d\n", s.ServerErrors)
	fmt.Fprintf(&b, "Unparseable replies: %d\n", s.Unparseable)
	fmt.Fprintf(&b, "DB insert failures: %d\n", s.DBInsertFailures)
	fmt.Fprintf(&b, "Enriched successfully: %d\n", s.EnrichedSuccessfully)
	fmt.Fprintf(&b, "Tokens: %d input, %d output\n", s.InputTokens, s.OutputTokens)
	fmt.Fprintf(&b, "Estimated cost: $%.4f\n", s.EstimatedCostUSD)
	if d := s.Duration(); d > 0 {
		fmt.Fprintf(&b, "Duration: %s\n", d.Round(time.Millisecond))
	}
	b.WriteString(rule + "\n")

	return b.String()
}

// LogSummary writes the run counters as one structured log line.
func LogSummary(s *model.RunStats) {
	zap.L().Info("pipeline: finished",
		zap.Int("fetched", s.Fetched),
		zap.Int("skipped_invalid", s.SkippedInvalid),
		zap.Int("skipped_duplicates", s.SkippedDuplicates),
		zap.Int("dedupe_failures", s.DedupeFailures),
		zap.Int("skipped_low_signal", s.SkippedLowSignal),
		zap.Int("unparseable", s.Unparseable),
		zap.Int("enrichment_failures", s.EnrichmentFailures),
		zap.Int("rate_limit_errors", s.RateLimitErrors),
		zap.Int("server_errors", s.ServerErrors),
		zap.Int("db_insert_failures", s.DBInsertFailures),
		zap.Int("enriched_successfully", s.EnrichedSuccessfully),
		zap.Int("inserted", s.Inserted),
		zap.Int64("input_tokens", s.InputTokens),
		zap.Int64("output_tokens", s.OutputTokens),
		zap.Float64("estimated_cost_usd", s.EstimatedCostUSD),
		zap.Duration("duration", s.Duration()),
	)
}
