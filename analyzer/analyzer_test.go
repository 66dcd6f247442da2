package analyzer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/devskill-org/solar-site-analyzer/calibrate"
	"github.com/devskill-org/solar-site-analyzer/history"
	"github.com/devskill-org/solar-site-analyzer/llm"
	"github.com/devskill-org/solar-site-analyzer/scoring"
)

type fakeStore struct {
	appended  []history.Record
	appendErr error
	replay    []history.Record
}

func (f *fakeStore) EnsureSchema(ctx context.Context) error { return nil }

func (f *fakeStore) Append(ctx context.Context, r *history.Record) (int64, error) {
	if f.appendErr != nil {
		return 0, f.appendErr
	}
	f.appended = append(f.appended, *r)
	return int64(len(f.appended)), nil
}

func (f *fakeStore) ReplaySince(ctx context.Context, since time.Time) ([]history.Record, error) {
	return f.replay, nil
}

func (f *fakeStore) Recent(ctx context.Context, limit int) ([]history.Record, error) {
	if limit > len(f.appended) {
		limit = len(f.appended)
	}
	out := make([]history.Record, limit)
	copy(out, f.appended)
	return out, nil
}

func (f *fakeStore) Close() error { return nil }

type stubSummarizer struct {
	summary  string
	provider string
}

func (s *stubSummarizer) Summarize(ctx context.Context, report llm.SiteReport) (string, string) {
	return s.summary, s.provider
}

// newTestAnalyzer assembles an analyzer over stub providers, warmed
// empty calibrator and no web server.
func newTestAnalyzer(acquirer *Acquirer, store HistoryStore) *SiteAnalyzer {
	config := DefaultConfig()
	config.WebServerPort = 0

	calibrator := calibrate.New()
	calibrator.WarmUp(nil)

	return &SiteAnalyzer{
		config:     config,
		logger:     testLogger(),
		acquirer:   acquirer,
		engine:     scoring.NewEngine(calibrator),
		calibrator: calibrator,
		summarizer: &stubSummarizer{summary: "stub summary", provider: "stub"},
		store:      store,
	}
}

func liveAcquirer() *Acquirer {
	solar, weather, terrain := liveProviders()
	return NewAcquirer(solar, weather, terrain, time.Second, testLogger())
}

func desertQuery() Query {
	grid := 8.0
	area := 200.0
	return Query{
		Lat:             26.92,
		Lng:             70.90,
		PlantSizeKW:     20,
		ElectricityRate: 8.0,
		GridDistanceKm:  &grid,
		AvailableAreaM2: &area,
	}
}

// High-irradiance desert site: top grades, clean constraints, the
// capacity-first financials.
func TestAnalyze_DesertSite(t *testing.T) {
	s := newTestAnalyzer(liveAcquirer(), nil)

	result, err := s.Analyze(context.Background(), desertQuery())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.Score < 85 {
		t.Errorf("Expected score >= 85 for desert site, got %d", result.Score)
	}
	if result.Grade != "A+" && result.Grade != "A" {
		t.Errorf("Expected top grade, got %s", result.Grade)
	}
	if result.SuitabilityClass != "Excellent" {
		t.Errorf("Expected Excellent, got %s", result.SuitabilityClass)
	}
	if len(result.ConstraintViolations) != 0 {
		t.Errorf("Expected no violations, got %v", result.ConstraintViolations)
	}
	if !result.IsSuitable {
		t.Error("Expected suitable site")
	}
	if result.Features.DataSources != 4 {
		t.Errorf("Expected 4 data sources, got %d", result.Features.DataSources)
	}

	if math.Abs(result.Financial.AnnualEnergyKWh-37960) > 1 {
		t.Errorf("Expected ~37960 kWh annual, got %f", result.Financial.AnnualEnergyKWh)
	}
	if p := float64(result.Financial.PaybackYears); math.Abs(p-3.29) > 0.05 {
		t.Errorf("Expected ~3.3 yr payback, got %f", p)
	}
	if result.Financial.SubsidyAmount != 0 {
		t.Errorf("Expected no subsidy above 10 kWp, got %f", result.Financial.SubsidyAmount)
	}

	if result.RequestID == "" {
		t.Error("Expected a request id")
	}
	if result.AISummary != "stub summary" || result.AIProvider != "stub" {
		t.Errorf("Unexpected summary plumbing: %q via %q", result.AISummary, result.AIProvider)
	}
}

func TestAnalyze_InvalidQueries(t *testing.T) {
	s := newTestAnalyzer(liveAcquirer(), nil)

	tests := []struct {
		name   string
		mutate func(*Query)
	}{
		{"lat too high", func(q *Query) { q.Lat = 95 }},
		{"lng too low", func(q *Query) { q.Lng = -181 }},
		{"zero plant size", func(q *Query) { q.PlantSizeKW = 0 }},
		{"negative plant size", func(q *Query) { q.PlantSizeKW = -5 }},
		{"zero rate", func(q *Query) { q.ElectricityRate = 0 }},
		{"negative cost", func(q *Query) { q.InstallationCost = -1 }},
		{"negative grid distance", func(q *Query) { g := -2.0; q.GridDistanceKm = &g }},
		{"nan lat", func(q *Query) { q.Lat = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := desertQuery()
			tt.mutate(&q)

			_, err := s.Analyze(context.Background(), q)
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("Expected RequestError, got %v", err)
			}
			if reqErr.Code != CodeInputInvalid {
				t.Errorf("Expected %s, got %s", CodeInputInvalid, reqErr.Code)
			}
			if reqErr.HTTPStatus() != 400 {
				t.Errorf("Expected 400 mapping, got %d", reqErr.HTTPStatus())
			}
		})
	}
}

// Degraded pipeline: every provider down, request still succeeds on
// fallback tables.
func TestAnalyze_AllProvidersDown(t *testing.T) {
	a := NewAcquirer(
		&stubSolar{dailyErr: errProviderDown, climoErr: errProviderDown},
		&stubWeather{err: errProviderDown},
		&stubTerrain{err: errProviderDown},
		time.Second, testLogger(),
	)
	s := newTestAnalyzer(a, nil)

	q := desertQuery()
	q.GridDistanceKm = nil

	result, err := s.Analyze(context.Background(), q)
	if err != nil {
		t.Fatalf("Degraded pipeline must not fail: %v", err)
	}

	if result.Features.DataSources != 0 {
		t.Errorf("Expected 0 data sources, got %d", result.Features.DataSources)
	}
	if result.Features.SolarIrradiance <= 0 || result.Features.ElevationM == 0 {
		t.Errorf("Expected fallback features, got %+v", result.Features)
	}
	if result.Confidence < 0 || result.Confidence > 100 {
		t.Errorf("Confidence out of range: %f", result.Confidence)
	}
	if result.Score < 0 || result.Score > 100 {
		t.Errorf("Score out of range: %d", result.Score)
	}
}

func TestAnalyze_PersistsRecord(t *testing.T) {
	store := &fakeStore{}
	s := newTestAnalyzer(liveAcquirer(), store)

	result, err := s.Analyze(context.Background(), desertQuery())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(store.appended) != 1 {
		t.Fatalf("Expected 1 persisted record, got %d", len(store.appended))
	}

	record := store.appended[0]
	if record.Score != result.Score || record.Grade != result.Grade {
		t.Errorf("Persisted verdict mismatch: %d/%s vs %d/%s",
			record.Score, record.Grade, result.Score, result.Grade)
	}
	if record.Lat != 26.92 || record.Lng != 70.90 {
		t.Errorf("Persisted location mismatch: (%f, %f)", record.Lat, record.Lng)
	}
	if record.AISummary != "stub summary" {
		t.Errorf("Persisted summary mismatch: %q", record.AISummary)
	}
}

// Persistence failure is logged, never surfaced.
func TestAnalyze_PersistenceFailureDoesNotFailRequest(t *testing.T) {
	store := &fakeStore{appendErr: errors.New("disk full")}
	s := newTestAnalyzer(liveAcquirer(), store)

	if _, err := s.Analyze(context.Background(), desertQuery()); err != nil {
		t.Fatalf("Expected success despite persistence failure, got %v", err)
	}
}

func TestAnalyze_DryRunSkipsPersistence(t *testing.T) {
	store := &fakeStore{}
	s := newTestAnalyzer(liveAcquirer(), store)
	s.config.DryRun = true

	if _, err := s.Analyze(context.Background(), desertQuery()); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(store.appended) != 0 {
		t.Errorf("Expected no writes in dry-run, got %d", len(store.appended))
	}
}

func TestAnalyze_FeedsCalibrator(t *testing.T) {
	s := newTestAnalyzer(liveAcquirer(), nil)

	for i := 0; i < 3; i++ {
		if _, err := s.Analyze(context.Background(), desertQuery()); err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
	}

	stats := s.calibrator.Snapshot()
	if stats.Observations != 3 {
		t.Errorf("Expected 3 calibrator observations, got %d", stats.Observations)
	}
	if stats.Cells != 1 {
		t.Errorf("Expected 1 calibrator cell, got %d", stats.Cells)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	// Two analyzers with identical state must produce identical
	// verdicts for the same query.
	a := newTestAnalyzer(liveAcquirer(), nil)
	b := newTestAnalyzer(liveAcquirer(), nil)

	ra, err := a.Analyze(context.Background(), desertQuery())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	rb, err := b.Analyze(context.Background(), desertQuery())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if ra.Score != rb.Score || ra.Confidence != rb.Confidence {
		t.Errorf("Verdicts differ: %d/%f vs %d/%f", ra.Score, ra.Confidence, rb.Score, rb.Confidence)
	}
	if ra.Financial != rb.Financial {
		t.Error("Financial projections differ")
	}
}

func TestWarmUp_ReplaysHistory(t *testing.T) {
	replay := make([]history.Record, 6)
	for i := range replay {
		replay[i] = history.Record{
			CreatedAt: time.Now().Add(-time.Duration(i) * time.Hour),
			Lat:       26.92, Lng: 70.90, Score: 90,
		}
	}
	store := &fakeStore{replay: replay}
	s := newTestAnalyzer(liveAcquirer(), store)
	s.calibrator = calibrate.New()
	s.engine = scoring.NewEngine(s.calibrator)

	s.warmUpCalibrator(context.Background())

	stats := s.calibrator.Snapshot()
	if !stats.Warmed {
		t.Error("Expected calibrator warmed")
	}
	if stats.Observations != 6 {
		t.Errorf("Expected 6 replayed observations, got %d", stats.Observations)
	}
}

func TestSeasonal_Validation(t *testing.T) {
	s := newTestAnalyzer(liveAcquirer(), nil)

	if _, err := s.Seasonal(context.Background(), 95, 0, 10); err == nil {
		t.Error("Expected error for out-of-range lat")
	}
	if _, err := s.Seasonal(context.Background(), 20, 0, 0); err == nil {
		t.Error("Expected error for zero plant size")
	}

	analysis, err := s.Seasonal(context.Background(), 26.92, 70.90, 20)
	if err != nil {
		t.Fatalf("Seasonal failed: %v", err)
	}
	if len(analysis.Monthly) != 12 {
		t.Errorf("Expected 12 months, got %d", len(analysis.Monthly))
	}
}

func TestHeatmap_EndToEnd(t *testing.T) {
	s := newTestAnalyzer(liveAcquirer(), nil)

	req := HeatmapRequest{
		Polygon: [][2]float64{
			{26.91, 70.89},
			{26.91, 70.91},
			{26.93, 70.91},
			{26.93, 70.89},
		},
		PlantSizeKW: 20,
	}

	result, err := s.Heatmap(context.Background(), req)
	if err != nil {
		t.Fatalf("Heatmap failed: %v", err)
	}
	if result.CellCount == 0 {
		t.Error("Expected scored cells")
	}

	if _, err := s.Heatmap(context.Background(), HeatmapRequest{PlantSizeKW: 20}); err == nil {
		t.Error("Expected error for missing polygon")
	}
}

func TestSensitivity_DefaultLadder(t *testing.T) {
	s := newTestAnalyzer(liveAcquirer(), nil)

	points, err := s.Sensitivity(SensitivityRequest{SolarIrradiance: 6.5, PlantSizeKW: 20})
	if err != nil {
		t.Fatalf("Sensitivity failed: %v", err)
	}
	if len(points) != 9 {
		t.Errorf("Expected 9 ladder points, got %d", len(points))
	}

	// Higher tariffs pay back faster.
	for i := 1; i < len(points); i++ {
		if float64(points[i].PaybackYears) >= float64(points[i-1].PaybackYears) {
			t.Errorf("Payback not decreasing at rate %f", points[i].TariffRate)
		}
	}
}
