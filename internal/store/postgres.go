package store

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadwatch/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements LeadStore using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	if connString == "" {
		return nil, eris.New("postgres: database url is required")
	}
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company         TEXT,
	funding_amount  BIGINT,
	source_url      TEXT NOT NULL UNIQUE,
	headline        TEXT NOT NULL,
	source          TEXT NOT NULL DEFAULT 'RSS',
	published_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	sentiment       TEXT NOT NULL DEFAULT 'neutral',
	event_type      TEXT NOT NULL DEFAULT 'other',
	is_valid_amount BOOLEAN NOT NULL DEFAULT true,
	raw_ai          JSONB,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_published_at ON leads(published_at DESC);
CREATE INDEX IF NOT EXISTS idx_leads_event_type ON leads(event_type);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	query, args, err := psql.Select("id").From("leads").Limit(1).ToSql()
	if err != nil {
		return eris.Wrap(err, "postgres: build ping")
	}
	var id string
	err = s.pool.QueryRow(ctx, query, args...).Scan(&id)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return eris.Wrap(err, "postgres: ping leads")
	}
	return nil
}

func (s *PostgresStore) FindBySourceURL(ctx context.Context, url string) (string, bool, error) {
	query, args, err := psql.Select("id").From("leads").Where(sq.Eq{"source_url": url}).Limit(1).ToSql()
	if err != nil {
		return "", false, eris.Wrap(err, "postgres: build find lead")
	}
	var id string
	err = s.pool.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrapf(err, "postgres: find lead %s", url)
	}
	return id, true, nil
}

func (s *PostgresStore) InsertLead(ctx context.Context, row model.LeadRow) (string, error) {
	query, args, err := psql.Insert("leads").
		Columns(leadColumns...).
		Values(leadValues(uuid.New().String(), row)...).
		Suffix("ON CONFLICT (source_url) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return "", eris.Wrap(err, "postgres: build insert lead")
	}

	var id string
	err = s.pool.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrDuplicate
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrDuplicate
		}
		return "", eris.Wrapf(err, "postgres: insert lead %s", row.SourceURL)
	}
	return id, nil
}
