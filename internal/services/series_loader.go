package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/joseteiadirector/teia-geo/internal/database"
	"github.com/joseteiadirector/teia-geo/internal/models"
)

// SeriesLoader returns the historical series of one brand over a time window,
// ordered by ascending timestamp.
type SeriesLoader interface {
	LoadSeries(ctx context.Context, brandID string, from, to time.Time) (*models.SeriesBundle, error)
}

// AnalyticsQuerier defines the database operations needed for analytics.
type AnalyticsQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

const (
	geoScoresQuery = `
		SELECT score, computed_at
		FROM geo_scores
		WHERE brand_id = $1 AND computed_at >= $2 AND computed_at <= $3
		ORDER BY computed_at ASC
	`
	mentionsQuery = `
		SELECT provider, mentioned, confidence, collected_at
		FROM mentions_llm
		WHERE brand_id = $1 AND collected_at >= $2 AND collected_at <= $3
		ORDER BY collected_at ASC
	`
	seoMetricsQuery = `
		SELECT avg_position, ctr, conversion_rate, organic_traffic, collected_at
		FROM seo_metrics
		WHERE brand_id = $1 AND collected_at >= $2 AND collected_at <= $3
		ORDER BY collected_at ASC
	`
)

// PostgresSeriesLoader reads the three input series from PostgreSQL.
type PostgresSeriesLoader struct {
	db AnalyticsQuerier
}

// NewPostgresSeriesLoader creates a loader backed by the pool, with query tracing.
func NewPostgresSeriesLoader(db *database.PostgresDB) *PostgresSeriesLoader {
	var querier AnalyticsQuerier
	if db != nil && db.Pool != nil {
		querier = database.NewTracedDB(db.Pool)
	}
	return &PostgresSeriesLoader{db: querier}
}

// NewPostgresSeriesLoaderWithQuerier creates a loader with a custom querier (for tests).
func NewPostgresSeriesLoaderWithQuerier(db AnalyticsQuerier) *PostgresSeriesLoader {
	return &PostgresSeriesLoader{db: db}
}

// LoadSeries runs the three queries concurrently. Any failure aborts the load.
func (l *PostgresSeriesLoader) LoadSeries(ctx context.Context, brandID string, from, to time.Time) (*models.SeriesBundle, error) {
	if l.db == nil {
		return nil, fmt.Errorf("analytics database is not available")
	}

	bundle := &models.SeriesBundle{BrandID: brandID, From: from, To: to}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		primary, err := l.loadScores(gctx, brandID, from, to)
		if err != nil {
			return fmt.Errorf("load geo scores: %w", err)
		}
		bundle.Primary = primary
		return nil
	})
	g.Go(func() error {
		mentions, err := l.loadMentions(gctx, brandID, from, to)
		if err != nil {
			return fmt.Errorf("load mentions: %w", err)
		}
		bundle.Mentions = mentions
		return nil
	})
	g.Go(func() error {
		seo, err := l.loadSEOMetrics(gctx, brandID, from, to)
		if err != nil {
			return fmt.Errorf("load seo metrics: %w", err)
		}
		bundle.Secondary = seo
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bundle, nil
}

func (l *PostgresSeriesLoader) loadScores(ctx context.Context, brandID string, from, to time.Time) (models.Series, error) {
	rows, err := l.db.Query(ctx, geoScoresQuery, brandID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	series := models.Series{}
	for rows.Next() {
		var p models.TimePoint
		if err := rows.Scan(&p.Value, &p.Timestamp); err != nil {
			return nil, err
		}
		series = append(series, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return series, nil
}

func (l *PostgresSeriesLoader) loadMentions(ctx context.Context, brandID string, from, to time.Time) ([]models.MentionEvent, error) {
	rows, err := l.db.Query(ctx, mentionsQuery, brandID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.MentionEvent{}
	for rows.Next() {
		var ev models.MentionEvent
		if err := rows.Scan(&ev.Provider, &ev.Mentioned, &ev.Confidence, &ev.Timestamp); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}

func (l *PostgresSeriesLoader) loadSEOMetrics(ctx context.Context, brandID string, from, to time.Time) ([]models.SEOMetric, error) {
	rows, err := l.db.Query(ctx, seoMetricsQuery, brandID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metrics := []models.SEOMetric{}
	for rows.Next() {
		var m models.SEOMetric
		if err := rows.Scan(&m.AvgPosition, &m.CTR, &m.ConversionRate, &m.OrganicTraffic, &m.Timestamp); err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return metrics, nil
}
