// Package postgres persists completed site runs and their results, so
// a dashboard or API can query past extractions without re-scraping.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

// Store persists SiteRuns to PostgreSQL via a pooled connection.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pooled connection to dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS site_runs (
	extraction_id    TEXT PRIMARY KEY,
	domain           TEXT NOT NULL,
	started_at       TIMESTAMPTZ NOT NULL,
	completed_at     TIMESTAMPTZ,
	timed_out        BOOLEAN NOT NULL DEFAULT FALSE,
	errors           TEXT[] NOT NULL DEFAULT '{}',
	warnings         TEXT[] NOT NULL DEFAULT '{}',
	metadata         JSONB NOT NULL DEFAULT '{}',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS leaderboard_results (
	id               TEXT PRIMARY KEY,
	extraction_id    TEXT NOT NULL REFERENCES site_runs(extraction_id) ON DELETE CASCADE,
	domain           TEXT NOT NULL,
	name             TEXT NOT NULL,
	url              TEXT NOT NULL,
	type             TEXT NOT NULL,
	source           TEXT NOT NULL,
	confidence       INT NOT NULL,
	total_wagered    DOUBLE PRECISION NOT NULL,
	total_prize_pool DOUBLE PRECISION NOT NULL,
	entries          JSONB NOT NULL,
	validation       JSONB NOT NULL,
	scraped_at       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leaderboard_results_domain ON leaderboard_results(domain);
CREATE INDEX IF NOT EXISTS idx_site_runs_domain ON site_runs(domain);
`

// InitSchema creates the storage tables if they do not already exist.
func (s *Store) InitSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("postgres: init schema: %w", err)
	}
	return nil
}

// SaveSiteRun persists run and every result it carries inside one
// transaction, upserting on extraction_id/id so a re-delivered run is
// idempotent.
func (s *Store) SaveSiteRun(ctx context.Context, run model.SiteRun) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	metadata, err := json.Marshal(run.Metadata)
	if err != nil {
		return fmt.Errorf("postgres: marshal metadata: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO site_runs (extraction_id, domain, started_at, completed_at, timed_out, errors, warnings, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (extraction_id) DO UPDATE SET
			completed_at = EXCLUDED.completed_at,
			timed_out    = EXCLUDED.timed_out,
			errors       = EXCLUDED.errors,
			warnings     = EXCLUDED.warnings,
			metadata     = EXCLUDED.metadata
	`, run.ExtractionID, run.Domain, run.StartedAt, run.CompletedAt, run.TimedOut, run.Errors, run.Warnings, metadata)
	if err != nil {
		return fmt.Errorf("postgres: insert site_run: %w", err)
	}

	for _, result := range run.Results {
		if err := saveResult(ctx, tx, run.Domain, run.ExtractionID, result); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func saveResult(ctx context.Context, tx pgx.Tx, domain, extractionID string, result model.Result) error {
	entries, err := json.Marshal(result.Entries)
	if err != nil {
		return fmt.Errorf("postgres: marshal entries: %w", err)
	}
	validation, err := json.Marshal(result.Validation)
	if err != nil {
		return fmt.Errorf("postgres: marshal validation: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO leaderboard_results
			(id, extraction_id, domain, name, url, type, source, confidence, total_wagered, total_prize_pool, entries, validation, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			confidence       = EXCLUDED.confidence,
			total_wagered    = EXCLUDED.total_wagered,
			total_prize_pool = EXCLUDED.total_prize_pool,
			entries          = EXCLUDED.entries,
			validation       = EXCLUDED.validation,
			scraped_at       = EXCLUDED.scraped_at
	`, result.ID, extractionID, domain, result.Name, result.URL, string(result.Type), string(result.Source),
		result.Confidence, result.TotalWagered, result.TotalPrizePool, entries, validation, result.ScrapedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert leaderboard_result: %w", err)
	}
	return nil
}

// LatestByDomain returns the most recently scraped result for domain
// and leaderboard name, or ok=false if none exists.
func (s *Store) LatestByDomain(ctx context.Context, domain, name string) (result model.Result, ok bool, err error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, url, type, source, confidence, total_wagered, total_prize_pool, entries, validation, scraped_at
		FROM leaderboard_results
		WHERE domain = $1 AND name = $2
		ORDER BY scraped_at DESC
		LIMIT 1
	`, domain, name)

	var (
		leaderboardType, source string
		entries, validation     []byte
	)
	err = row.Scan(&result.ID, &result.Name, &result.URL, &leaderboardType, &source, &result.Confidence,
		&result.TotalWagered, &result.TotalPrizePool, &entries, &validation, &result.ScrapedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Result{}, false, nil
	}
	if err != nil {
		return model.Result{}, false, fmt.Errorf("postgres: latest by domain: %w", err)
	}

	result.Type = model.LeaderboardType(leaderboardType)
	result.Source = model.Source(source)
	_ = json.Unmarshal(entries, &result.Entries)
	_ = json.Unmarshal(validation, &result.Validation)
	return result, true, nil
}
