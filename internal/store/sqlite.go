package store

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadwatch/internal/model"
)

// SQLiteStore implements LeadStore using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id              TEXT PRIMARY KEY,
	company         TEXT,
	funding_amount  INTEGER,
	source_url      TEXT NOT NULL UNIQUE,
	headline        TEXT NOT NULL,
	source          TEXT NOT NULL DEFAULT 'RSS',
	published_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	sentiment       TEXT NOT NULL DEFAULT 'neutral',
	event_type      TEXT NOT NULL DEFAULT 'other',
	is_valid_amount BOOLEAN NOT NULL DEFAULT 1,
	raw_ai          TEXT,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_published_at ON leads(published_at);
CREATE INDEX IF NOT EXISTS idx_leads_event_type ON leads(event_type);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	query, args, err := sq.Select("id").From("leads").Limit(1).ToSql()
	if err != nil {
		return eris.Wrap(err, "sqlite: build ping")
	}
	var id string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return eris.Wrap(err, "sqlite: ping leads")
	}
	return nil
}

func (s *SQLiteStore) FindBySourceURL(ctx context.Context, url string) (string, bool, error) {
	query, args, err := sq.Select("id").From("leads").Where(sq.Eq{"source_url": url}).Limit(1).ToSql()
	if err != nil {
		return "", false, eris.Wrap(err, "sqlite: build find lead")
	}
	var id string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrapf(err, "sqlite: find lead %s", url)
	}
	return id, true, nil
}

func (s *SQLiteStore) InsertLead(ctx context.Context, row model.LeadRow) (string, error) {
	id := uuid.New().String()
	query, args, err := sq.Insert("leads").
		Columns(leadColumns...).
		Values(leadValues(id, row)...).
		Suffix("ON CONFLICT (source_url) DO NOTHING").
		ToSql()
	if err != nil {
		return "", eris.Wrap(err, "sqlite: build insert lead")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: insert lead %s", row.SourceURL)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return "", ErrDuplicate
	}
	return id, nil
}
