package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sqlc-dev/pqtype"

	"geolens/internal/model"
)

// Store persists completed analyses in Postgres.
type Store struct {
	DB *sql.DB
}

// New creates a new Store that uses a shared *sql.DB with pooling.
func New(database *sql.DB) *Store {
	return &Store{DB: database}
}

// Open connects to dsn through the pgx stdlib driver.
func Open(dsn string) (*Store, error) {
	database, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	database.SetMaxOpenConns(10)
	database.SetConnMaxIdleTime(5 * time.Minute)
	return New(database), nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// AnalysisSummary is one row of the analysis history listing.
type AnalysisSummary struct {
	ID            uuid.UUID `json:"id"`
	OriginalURL   string    `json:"originalUrl"`
	NormalizedURL string    `json:"normalizedUrl"`
	Domain        string    `json:"domain"`
	IsInternal    bool      `json:"isInternal"`
	GeoScore      int       `json:"geoScore"`
	Grade         string    `json:"grade"`
	BusinessType  string    `json:"businessType"`
	Industry      string    `json:"industry"`
	Degraded      bool      `json:"degraded"`
	CreatedAt     time.Time `json:"createdAt"`
}

type analysisRow struct {
	AnalysisSummary
	CrawledData pqtype.NullRawMessage
	Payload     json.RawMessage
}

// newAnalysisRow flattens fa into the columns of the analyses table.
func newAnalysisRow(fa *model.FullAnalysis) (analysisRow, error) {
	id, err := uuid.Parse(fa.Metadata.ID)
	if err != nil {
		return analysisRow{}, fmt.Errorf("analysis id: %w", err)
	}
	payload, err := json.Marshal(fa)
	if err != nil {
		return analysisRow{}, err
	}

	var crawled pqtype.NullRawMessage
	if cd := fa.Analysis.CrawledData; cd != nil {
		raw, err := json.Marshal(cd)
		if err != nil {
			return analysisRow{}, err
		}
		crawled = pqtype.NullRawMessage{RawMessage: raw, Valid: true}
	}

	a := fa.Analysis
	return analysisRow{
		AnalysisSummary: AnalysisSummary{
			ID:            id,
			OriginalURL:   fa.Metadata.OriginalURL,
			NormalizedURL: fa.Metadata.NormalizedURL,
			Domain:        fa.Metadata.Domain,
			IsInternal:    fa.Metadata.IsInternal,
			GeoScore:      a.GeoScore,
			Grade:         a.Grade,
			BusinessType:  a.BusinessType,
			Industry:      a.Industry,
			Degraded:      len(fa.Metadata.DegradedStages) > 0,
			CreatedAt:     fa.Metadata.AnalyzedAt,
		},
		CrawledData: crawled,
		Payload:     payload,
	}, nil
}

// SaveAnalysis inserts fa. Saving the same id twice is a no-op.
func (s *Store) SaveAnalysis(ctx context.Context, fa *model.FullAnalysis) error {
	row, err := newAnalysisRow(fa)
	if err != nil {
		return err
	}
	createdAt := row.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO analyses (
			id, original_url, normalized_url, domain, is_internal,
			geo_score, grade, business_type, industry, degraded,
			crawled_data, payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING`,
		row.ID, row.OriginalURL, row.NormalizedURL, row.Domain, row.IsInternal,
		row.GeoScore, row.Grade, row.BusinessType, row.Industry, row.Degraded,
		row.CrawledData, row.Payload, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetAnalysis loads the full stored analysis. It returns sql.ErrNoRows
// when id is unknown.
func (s *Store) GetAnalysis(ctx context.Context, id uuid.UUID) (*model.FullAnalysis, error) {
	var payload []byte
	err := s.DB.QueryRowContext(ctx, `SELECT payload FROM analyses WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		return nil, err
	}
	var fa model.FullAnalysis
	if err := json.Unmarshal(payload, &fa); err != nil {
		return nil, fmt.Errorf("decode analysis %s: %w", id, err)
	}
	return &fa, nil
}

// ListRecentAnalyses returns the newest analyses first, optionally
// restricted to one domain.
func (s *Store) ListRecentAnalyses(ctx context.Context, domain string, limit int) ([]AnalysisSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, original_url, normalized_url, domain, is_internal,
		       geo_score, grade, business_type, industry, degraded, created_at
		FROM analyses
		WHERE ($1 = '' OR domain = $1)
		ORDER BY created_at DESC
		LIMIT $2`, domain, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AnalysisSummary{}
	for rows.Next() {
		var a AnalysisSummary
		if err := rows.Scan(
			&a.ID, &a.OriginalURL, &a.NormalizedURL, &a.Domain, &a.IsInternal,
			&a.GeoScore, &a.Grade, &a.BusinessType, &a.Industry, &a.Degraded, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteExpiredAnalyses removes analyses created before cutoff and
// returns how many were deleted.
func (s *Store) DeleteExpiredAnalyses(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM analyses WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}
