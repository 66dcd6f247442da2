// Package history persists completed site analyses to PostgreSQL. The
// table is append-only: one row per successful pipeline run, never
// updated. Besides serving the recent-analyses API, the rows are the
// training signal replayed through the regional calibrator at startup.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"
	"time"

	_ "github.com/lib/pq"
	"github.com/sethvargo/go-retry"

	"github.com/devskill-org/solar-site-analyzer/finance"
)

// Connection retry schedule for startup. Postgres usually comes up a
// few seconds after the analyzer in containerized deployments.
const (
	connectAttempts = 5
	connectBaseWait = 500 * time.Millisecond
)

// Record is one persisted analysis outcome.
type Record struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`

	SolarIrradiance float64 `json:"solar_irradiance"`
	WindSpeed       float64 `json:"wind_speed"`
	TemperatureC    float64 `json:"temperature_c"`
	HumidityPct     float64 `json:"humidity_pct"`
	CloudCoverPct   float64 `json:"cloud_cover_pct"`
	ElevationM      float64 `json:"elevation_m"`
	SlopeDegrees    float64 `json:"slope_degrees"`
	GridDistanceKm  float64 `json:"grid_distance_km"`
	DataSources     int     `json:"data_sources"`

	Score      int     `json:"score"`
	Grade      string  `json:"grade"`
	SolarScore float64 `json:"solar_score"`
	GridScore  float64 `json:"grid_score"`

	AnnualEnergyKWh float64         `json:"annual_energy_kwh"`
	AnnualSavings   float64         `json:"annual_savings"`
	PaybackYears    finance.Payback `json:"payback_years"`
	LifetimeProfit  float64         `json:"lifetime_profit"`

	AISummary  string `json:"ai_summary"`
	AIProvider string `json:"ai_provider"`
}

// Store is a PostgreSQL-backed analysis history.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// Open connects to PostgreSQL and verifies the connection with a
// Fibonacci backoff, so a database still starting up does not fail the
// analyzer boot.
func Open(ctx context.Context, connString string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}

	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	backoff := retry.WithMaxRetries(connectAttempts, retry.NewFibonacci(connectBaseWait))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := db.PingContext(ctx); pingErr != nil {
			logger.Printf("History database not reachable yet: %v", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// NewStoreWithDB wraps an existing connection (useful for testing).
func NewStoreWithDB(db *sql.DB, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{db: db, logger: logger}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the history table and its replay index.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_history (
			id                BIGSERIAL PRIMARY KEY,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			lat               DOUBLE PRECISION NOT NULL,
			lng               DOUBLE PRECISION NOT NULL,
			solar_irradiance  DOUBLE PRECISION NOT NULL,
			wind_speed        DOUBLE PRECISION NOT NULL,
			temperature_c     DOUBLE PRECISION NOT NULL,
			humidity_pct      DOUBLE PRECISION NOT NULL,
			cloud_cover_pct   DOUBLE PRECISION NOT NULL,
			elevation_m       DOUBLE PRECISION NOT NULL,
			slope_degrees     DOUBLE PRECISION NOT NULL,
			grid_distance_km  DOUBLE PRECISION NOT NULL,
			data_sources      INTEGER NOT NULL,
			score             INTEGER NOT NULL,
			grade             TEXT NOT NULL,
			solar_score       DOUBLE PRECISION NOT NULL,
			grid_score        DOUBLE PRECISION NOT NULL,
			annual_energy_kwh DOUBLE PRECISION NOT NULL,
			annual_savings    DOUBLE PRECISION NOT NULL,
			payback_years     DOUBLE PRECISION,
			lifetime_profit   DOUBLE PRECISION NOT NULL,
			ai_summary        TEXT,
			ai_provider       TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create history table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS analysis_history_created_at_idx
		ON analysis_history (created_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to create history index: %w", err)
	}

	return nil
}

// Append inserts one record and returns its assigned id.
func (s *Store) Append(ctx context.Context, r *Record) (int64, error) {
	payback := sql.NullFloat64{}
	if r.PaybackYears.Finite() {
		payback = sql.NullFloat64{Float64: float64(r.PaybackYears), Valid: true}
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO analysis_history (
			created_at,
			lat, lng,
			solar_irradiance, wind_speed, temperature_c, humidity_pct,
			cloud_cover_pct, elevation_m, slope_degrees, grid_distance_km,
			data_sources,
			score, grade, solar_score, grid_score,
			annual_energy_kwh, annual_savings, payback_years, lifetime_profit,
			ai_summary, ai_provider
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22
		)
		RETURNING id
	`,
		r.CreatedAt,
		r.Lat, r.Lng,
		r.SolarIrradiance, r.WindSpeed, r.TemperatureC, r.HumidityPct,
		r.CloudCoverPct, r.ElevationM, r.SlopeDegrees, r.GridDistanceKm,
		r.DataSources,
		r.Score, r.Grade, r.SolarScore, r.GridScore,
		r.AnnualEnergyKWh, r.AnnualSavings, payback, r.LifetimeProfit,
		r.AISummary, r.AIProvider,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert record: %w", err)
	}

	r.ID = id
	return id, nil
}

// ReplaySince returns all records created at or after the given time,
// oldest first. The ascending order matters: the calibrator warm-up
// must see observations in the sequence they originally arrived.
func (s *Store) ReplaySince(ctx context.Context, since time.Time) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE created_at >= $1
		ORDER BY created_at ASC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Recent returns the newest records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

const selectColumns = `
	SELECT
		id, created_at,
		lat, lng,
		solar_irradiance, wind_speed, temperature_c, humidity_pct,
		cloud_cover_pct, elevation_m, slope_degrees, grid_distance_km,
		data_sources,
		score, grade, solar_score, grid_score,
		annual_energy_kwh, annual_savings, payback_years, lifetime_profit,
		ai_summary, ai_provider
	FROM analysis_history
`

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var r Record
		var payback sql.NullFloat64
		var summary, provider sql.NullString

		err := rows.Scan(
			&r.ID, &r.CreatedAt,
			&r.Lat, &r.Lng,
			&r.SolarIrradiance, &r.WindSpeed, &r.TemperatureC, &r.HumidityPct,
			&r.CloudCoverPct, &r.ElevationM, &r.SlopeDegrees, &r.GridDistanceKm,
			&r.DataSources,
			&r.Score, &r.Grade, &r.SolarScore, &r.GridScore,
			&r.AnnualEnergyKWh, &r.AnnualSavings, &payback, &r.LifetimeProfit,
			&summary, &provider,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		r.PaybackYears = finance.Payback(math.Inf(1))
		if payback.Valid {
			r.PaybackYears = finance.Payback(payback.Float64)
		}
		r.AISummary = summary.String
		r.AIProvider = provider.String

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return records, nil
}
