// Package pipeline runs the fetch, dedupe, enrich, filter and persist loop
// over one feed.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadwatch/internal/cost"
	"github.com/sells-group/leadwatch/internal/enrich"
	"github.com/sells-group/leadwatch/internal/feed"
	"github.com/sells-group/leadwatch/internal/model"
	"github.com/sells-group/leadwatch/internal/resilience"
	"github.com/sells-group/leadwatch/internal/store"
)

// Enricher extracts a lead from a headline.
type Enricher interface {
	Enrich(ctx context.Context, headline string) (*enrich.Result, error)
}

// Config tunes one pipeline run.
type Config struct {
	// RelevantEventTypes is the allow-list of event types worth persisting.
	RelevantEventTypes []string
	// PaceDelay follows every item that reached enrichment, whatever its
	// outcome. Items dropped before the chat call (invalid, duplicate or
	// failed dedupe lookup) cost no request and are not paced.
	PaceDelay time.Duration
	Retry     RetryPolicy
	// Now and Sleep are the clock; nil uses the wall clock.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultConfig returns the standard run settings.
func DefaultConfig() Config {
	return Config{
		RelevantEventTypes: model.RelevantEventTypes,
		PaceDelay:          2 * time.Second,
		Retry:              DefaultRetryPolicy(),
	}
}

// Pipeline orchestrates a single sequential run.
type Pipeline struct {
	cfg      Config
	source   feed.Source
	enricher Enricher
	store    store.LeadStore
	costCalc *cost.Calculator
	validate *validator.Validate
	// unpriced records models already reported as missing a rate.
	unpriced map[string]bool
}

// New creates a Pipeline. A nil calculator uses cost.DefaultRates.
func New(cfg Config, src feed.Source, enr Enricher, st store.LeadStore, calc *cost.Calculator) *Pipeline {
	if len(cfg.RelevantEventTypes) == 0 {
		cfg.RelevantEventTypes = model.RelevantEventTypes
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Sleep == nil {
		cfg.Sleep = resilience.Sleep
	}
	if cfg.Retry.Sleep == nil {
		cfg.Retry.Sleep = cfg.Sleep
	}
	if calc == nil {
		calc = cost.NewCalculator(cost.DefaultRates())
	}
	return &Pipeline{
		cfg:      cfg,
		source:   src,
		enricher: enr,
		store:    st,
		costCalc: calc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		unpriced: make(map[string]bool),
	}
}

// Run processes the feed once and returns the run's counters. It fails only
// when the store does not answer the admission check.
func (p *Pipeline) Run(ctx context.Context) (*model.RunStats, error) {
	stats := model.NewRunStats(p.cfg.Now())
	zap.L().Info("pipeline: starting")

	if err := p.store.Ping(ctx); err != nil {
		return nil, eris.Wrap(err, "pipeline: store unreachable")
	}

	items, err := p.source.Fetch(ctx)
	if err != nil {
		zap.L().Error("pipeline: feed fetch failed", zap.Error(err))
		items = nil
	}
	stats.Fetched = len(items)

	if len(items) == 0 {
		zap.L().Info("pipeline: no feed items, nothing to do")
	}

	for i, item := range items {
		if ctx.Err() != nil {
			zap.L().Warn("pipeline: run cancelled", zap.Int("remaining", len(items)-i))
			break
		}
		if p.processItem(ctx, i+1, len(items), item, stats) {
			if err := p.cfg.Sleep(ctx, p.cfg.PaceDelay); err != nil {
				zap.L().Warn("pipeline: pacing interrupted", zap.Error(err))
			}
		}
	}

	stats.FinishedAt = p.cfg.Now().UTC()
	LogSummary(stats)
	return stats, nil
}

// processItem handles one candidate and reports whether it reached the
// enrichment stage.
func (p *Pipeline) processItem(ctx context.Context, pos, total int, raw model.CandidateItem, stats *model.RunStats) bool {
	item := raw.Normalized()
	log := zap.L().With(
		zap.Int("pos", pos),
		zap.Int("total", total),
		zap.String("url", item.ShortURL()),
	)

	if err := p.validate.Struct(item); err != nil {
		log.Info("pipeline: skipping item, missing title or url")
		stats.SkippedInvalid++
		return false
	}

	log.Info("pipeline: checking", zap.String("title", item.Title))

	_, found, err := p.store.FindBySourceURL(ctx, item.URL)
	if err != nil {
		log.Error("pipeline: dedupe query failed", zap.Error(err))
		stats.DedupeFailures++
		return false
	}
	if found {
		log.Info("pipeline: duplicate, skipping enrichment")
		stats.SkippedDuplicates++
		return false
	}

	res, err := Retry(ctx, p.cfg.Retry, stats, func(ctx context.Context) (*enrich.Result, error) {
		return p.enricher.Enrich(ctx, item.Title)
	})
	if err != nil {
		log.Error("pipeline: enrichment failed", zap.Error(err))
		stats.EnrichmentFailures++
		return true
	}

	stats.InputTokens += res.Usage.InputTokens
	stats.OutputTokens += res.Usage.OutputTokens
	stats.EstimatedCostUSD += p.costCalc.Chat(res.Model, res.Usage.InputTokens, res.Usage.OutputTokens)
	if !p.costCalc.Known(res.Model) && !p.unpriced[res.Model] {
		p.unpriced[res.Model] = true
		zap.L().Warn("pipeline: no pricing for model, cost counted as 0", zap.String("model", res.Model))
	}

	if res.Lead == nil {
		log.Warn("pipeline: unparseable model reply, skipping")
		stats.Unparseable++
		return true
	}
	stats.EnrichedSuccessfully++
	lead := *res.Lead

	if !lead.IsRelevant(p.cfg.RelevantEventTypes) {
		log.Info("pipeline: low signal, skipping", zap.String("event_type", lead.EventType))
		stats.SkippedLowSignal++
		return true
	}

	rawAI, err := json.Marshal(lead)
	if err != nil {
		log.Error("pipeline: marshal lead", zap.Error(err))
		stats.DBInsertFailures++
		return true
	}

	id, err := p.store.InsertLead(ctx, model.NewLeadRow(item, lead, rawAI, p.cfg.Now()))
	switch {
	case errors.Is(err, store.ErrDuplicate):
		log.Info("pipeline: lead inserted concurrently, counted as duplicate")
		stats.SkippedDuplicates++
	case err != nil:
		log.Error("pipeline: insert failed", zap.Error(err))
		stats.DBInsertFailures++
	default:
		log.Info("pipeline: inserted lead",
			zap.String("id", id),
			zap.String("company", lead.CompanyName()),
			zap.String("event_type", lead.EventType),
		)
		stats.Inserted++
	}
	return true
}
