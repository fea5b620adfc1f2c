package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dmarkov/spot_sentiment/internal/domain"
)

// SQLiteCache implements domain.MetricsCache. It persists the CoinGecko
// symbol -> slug map and per-coin metric records so restarts and the
// free-tier rate limit don't force a refetch of everything.
type SQLiteCache struct {
	db *sql.DB
}

func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	cache := &SQLiteCache{db: db}
	if err := cache.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return cache, nil
}

func (s *SQLiteCache) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS coin_slugs (
			symbol TEXT PRIMARY KEY,
			slug TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS cache_meta (
			key TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS coin_metrics (
			slug TEXT PRIMARY KEY,
			sentiment_votes_up_pct REAL,
			community_score REAL,
			developer_score REAL,
			public_interest_score REAL,
			fetched_at INTEGER NOT NULL
		);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

func (s *SQLiteCache) Close() error {
	return s.db.Close()
}

func (s *SQLiteCache) SlugFor(ctx context.Context, symbol string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT slug FROM coin_slugs WHERE symbol = ?`, symbol)

	var slug string
	err := row.Scan(&slug)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return slug, true, nil
}

// ReplaceSlugs swaps the whole slug map in one transaction and stamps
// the refresh time.
func (s *SQLiteCache) ReplaceSlugs(ctx context.Context, slugs map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM coin_slugs`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO coin_slugs (symbol, slug) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for symbol, slug := range slugs {
		if _, err := stmt.ExecContext(ctx, symbol, slug); err != nil {
			return err
		}
	}

	query := `INSERT INTO cache_meta (key, value) VALUES ('slugs_updated_at', ?)
			  ON CONFLICT(key) DO UPDATE SET value=excluded.value`
	if _, err := tx.ExecContext(ctx, query, time.Now().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteCache) SlugsUpdatedAt(ctx context.Context) (int64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM cache_meta WHERE key = 'slugs_updated_at'`)

	var updatedAt int64
	err := row.Scan(&updatedAt)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return updatedAt, nil
}

func (s *SQLiteCache) CachedMetrics(ctx context.Context, slug string, maxAgeSec int64) (*domain.CoinMetrics, bool, error) {
	query := `SELECT sentiment_votes_up_pct, community_score, developer_score, public_interest_score, fetched_at
			  FROM coin_metrics WHERE slug = ?`
	row := s.db.QueryRowContext(ctx, query, slug)

	var (
		m         domain.CoinMetrics
		fetchedAt int64
	)
	err := row.Scan(&m.SentimentVotesUpPct, &m.CommunityScore, &m.DeveloperScore, &m.PublicInterestScore, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if time.Now().Unix()-fetchedAt > maxAgeSec {
		return nil, false, nil
	}
	return &m, true, nil
}

func (s *SQLiteCache) SaveMetrics(ctx context.Context, slug string, m *domain.CoinMetrics) error {
	query := `INSERT INTO coin_metrics (slug, sentiment_votes_up_pct, community_score, developer_score, public_interest_score, fetched_at)
			  VALUES (?, ?, ?, ?, ?, ?)
			  ON CONFLICT(slug) DO UPDATE SET
			  sentiment_votes_up_pct=excluded.sentiment_votes_up_pct,
			  community_score=excluded.community_score,
			  developer_score=excluded.developer_score,
			  public_interest_score=excluded.public_interest_score,
			  fetched_at=excluded.fetched_at`
	_, err := s.db.ExecContext(ctx, query,
		slug, m.SentimentVotesUpPct, m.CommunityScore, m.DeveloperScore, m.PublicInterestScore, time.Now().Unix())
	return err
}
