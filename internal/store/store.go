// Package store persists enriched leads and answers the dedupe query.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadwatch/internal/model"
)

// ErrDuplicate is returned by InsertLead when a lead with the same
// source_url already exists.
var ErrDuplicate = eris.New("store: lead already exists")

// LeadStore defines the persistence interface for the lead pipeline.
type LeadStore interface {
	// Ping runs the admission check against the leads table.
	Ping(ctx context.Context) error
	// FindBySourceURL reports whether a lead with url exists and its id.
	FindBySourceURL(ctx context.Context, url string) (id string, found bool, err error)
	// InsertLead stores row and returns its id, or ErrDuplicate.
	InsertLead(ctx context.Context, row model.LeadRow) (string, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and tunes the backing store.
type Config struct {
	Driver      string     `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// Open connects to the store named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (LeadStore, error) {
	switch cfg.Driver {
	case "sqlite", "":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "leadwatch.db"
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, &cfg.Pool)
	default:
		return nil, eris.Errorf("store: unsupported driver: %s", cfg.Driver)
	}
}

var leadColumns = []string{
	"id",
	"company",
	"funding_amount",
	"source_url",
	"headline",
	"source",
	"published_at",
	"sentiment",
	"event_type",
	"is_valid_amount",
	"raw_ai",
	"created_at",
}

func leadValues(id string, row model.LeadRow) []any {
	return []any{
		id,
		nullable(row.Company),
		nullable(row.FundingAmount),
		row.SourceURL,
		row.Headline,
		row.Source,
		row.PublishedAt,
		string(row.Sentiment),
		row.EventType,
		row.IsValidAmount,
		rawJSON(row.RawAI),
		row.CreatedAt,
	}
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func rawJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
