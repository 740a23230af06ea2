package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-safe-scraper/internal/scraper"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DBPool abstracts pgxpool.Pool so tests can use pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS scraped_jobs (
		id          BIGSERIAL PRIMARY KEY,
		source      TEXT NOT NULL,
		url         TEXT NOT NULL,
		title       TEXT NOT NULL,
		company     TEXT NOT NULL DEFAULT '',
		location    TEXT NOT NULL DEFAULT '',
		salary      TEXT NOT NULL DEFAULT '',
		techstack   TEXT NOT NULL DEFAULT '',
		posted_date TEXT NOT NULL DEFAULT '',
		match_score INT  NOT NULL DEFAULT 0,
		scraped_at  TIMESTAMPTZ NOT NULL,
		UNIQUE (source, url)
	)`

const upsertJobSQL = `
	INSERT INTO scraped_jobs (source, url, title, company, location, salary, techstack, posted_date, match_score, scraped_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (source, url)
	DO UPDATE SET title = EXCLUDED.title, company = EXCLUDED.company, salary = EXCLUDED.salary,
		match_score = EXCLUDED.match_score, scraped_at = EXCLUDED.scraped_at`

// JobStore keeps a history of scraped jobs in PostgreSQL.
type JobStore struct {
	pool DBPool
	log  *zap.Logger
}

// Connect opens a pool for connString and verifies it.
func Connect(ctx context.Context, connString string, logger *zap.Logger) (*JobStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MinConns = 1
	cfg.MaxConnLifetime = time.Hour
	// PgBouncer in transaction mode cannot keep prepared statements.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	s, err := New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool and pings it.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*JobStore, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobStore{pool: pool, log: logger.Named("store")}, nil
}

// EnsureSchema creates the jobs table when it is missing.
func (s *JobStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveJobs upserts jobs in one transaction keyed by (source, url).
func (s *JobStore) SaveJobs(ctx context.Context, jobs []scraper.Job) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
	}()

	saved := 0
	for _, job := range jobs {
		scrapedAt := job.ScrapedAt
		if scrapedAt.IsZero() {
			scrapedAt = time.Now()
		}
		_, err := tx.Exec(ctx, upsertJobSQL,
			job.Source, job.URL, job.Title, job.Company, job.Location, job.Salary,
			job.Techstack, job.PostedDate, job.MatchScore, scrapedAt.UTC())
		if err != nil {
			return 0, fmt.Errorf("failed to save job %s: %w", job.URL, err)
		}
		saved++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Info("Saved jobs", zap.Int("count", saved))
	return saved, nil
}

// ServerVersion reports the PostgreSQL version string.
func (s *JobStore) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := s.pool.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("query server version: %w", err)
	}
	return version, nil
}

func (s *JobStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
