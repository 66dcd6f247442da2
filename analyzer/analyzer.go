// Package analyzer orchestrates the site analysis pipeline: concurrent
// feature acquisition, scoring against the regional calibrator,
// financial projection, narrative generation and history persistence,
// exposed over a REST and websocket server.
package analyzer

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devskill-org/solar-site-analyzer/calibrate"
	"github.com/devskill-org/solar-site-analyzer/elevation"
	"github.com/devskill-org/solar-site-analyzer/finance"
	"github.com/devskill-org/solar-site-analyzer/heatmap"
	"github.com/devskill-org/solar-site-analyzer/history"
	"github.com/devskill-org/solar-site-analyzer/llm"
	"github.com/devskill-org/solar-site-analyzer/meteo"
	"github.com/devskill-org/solar-site-analyzer/power"
	"github.com/devskill-org/solar-site-analyzer/scoring"
	"github.com/devskill-org/solar-site-analyzer/seasonal"
)

// Version is reported on the status endpoints.
const Version = "2.0.0"

// Query is one analysis request. GridDistanceKm and AvailableAreaM2
// are pointers because absent and zero mean different things: a
// supplied grid distance counts as a live data source, and the land
// constraint is only checked when an area was given.
type Query struct {
	Lat              float64  `json:"lat"`
	Lng              float64  `json:"lng"`
	PlantSizeKW      float64  `json:"plant_size_kw"`
	ElectricityRate  float64  `json:"electricity_rate"`
	PanelAreaM2      float64  `json:"panel_area,omitempty"`
	Efficiency       float64  `json:"efficiency,omitempty"`
	InstallationCost float64  `json:"installation_cost,omitempty"`
	GridDistanceKm   *float64 `json:"grid_distance_km,omitempty"`
	AvailableAreaM2  *float64 `json:"available_area_m2,omitempty"`
}

// Validate rejects malformed queries before any provider is touched.
func (q *Query) Validate() *RequestError {
	if math.IsNaN(q.Lat) || q.Lat < -90 || q.Lat > 90 {
		return inputInvalid("lat must be between -90 and 90, got %f", q.Lat)
	}
	if math.IsNaN(q.Lng) || q.Lng < -180 || q.Lng > 180 {
		return inputInvalid("lng must be between -180 and 180, got %f", q.Lng)
	}
	if math.IsNaN(q.PlantSizeKW) || q.PlantSizeKW <= 0 {
		return inputInvalid("plant_size_kw must be greater than 0, got %f", q.PlantSizeKW)
	}
	if math.IsNaN(q.ElectricityRate) || q.ElectricityRate <= 0 {
		return inputInvalid("electricity_rate must be greater than 0, got %f", q.ElectricityRate)
	}
	if q.InstallationCost < 0 {
		return inputInvalid("installation_cost must be non-negative, got %f", q.InstallationCost)
	}
	if q.GridDistanceKm != nil && *q.GridDistanceKm < 0 {
		return inputInvalid("grid_distance_km must be non-negative, got %f", *q.GridDistanceKm)
	}
	if q.AvailableAreaM2 != nil && *q.AvailableAreaM2 < 0 {
		return inputInvalid("available_area_m2 must be non-negative, got %f", *q.AvailableAreaM2)
	}
	return nil
}

// Result is the assembled response for one analysis. The embedded
// Verdict flattens the scoring fields into the top level of the JSON
// body.
type Result struct {
	RequestID  string    `json:"request_id"`
	AnalyzedAt time.Time `json:"analyzed_at"`
	Query      Query     `json:"query"`
	Features   Features  `json:"features"`
	scoring.Verdict
	Financial  finance.Projection `json:"financial"`
	AISummary  string             `json:"ai_summary"`
	AIProvider string             `json:"ai_provider"`
}

// HistoryStore is the persistence surface the orchestrator consumes.
type HistoryStore interface {
	EnsureSchema(ctx context.Context) error
	Append(ctx context.Context, r *history.Record) (int64, error)
	ReplaySince(ctx context.Context, since time.Time) ([]history.Record, error)
	Recent(ctx context.Context, limit int) ([]history.Record, error)
	Close() error
}

// Summarizer is the narrative collaborator. Implementations never
// fail: they substitute a deterministic template instead.
type Summarizer interface {
	Summarize(ctx context.Context, report llm.SiteReport) (summary, provider string)
}

// Status is the analyzer's point-in-time state for the status and
// health endpoints.
type Status struct {
	IsRunning      bool            `json:"is_running"`
	Version        string          `json:"version"`
	AnalysisCount  int64           `json:"analysis_count"`
	LastAnalysis   *time.Time      `json:"last_analysis,omitempty"`
	Calibrator     calibrate.Stats `json:"calibrator"`
	HistoryEnabled bool            `json:"history_enabled"`
}

// SiteAnalyzer owns the pipeline components and the process-wide
// calibrator. One instance serves all requests.
type SiteAnalyzer struct {
	config     *Config
	logger     *log.Logger
	acquirer   *Acquirer
	engine     *scoring.Engine
	calibrator *calibrate.Calibrator
	summarizer Summarizer
	store      HistoryStore
	web        *WebServer

	mu            sync.RWMutex
	isRunning     bool
	analysisCount int64
	lastAnalysis  *time.Time
}

// NewSiteAnalyzer wires the production provider clients according to
// the configuration.
func NewSiteAnalyzer(config *Config, logger *log.Logger) *SiteAnalyzer {
	if logger == nil {
		logger = log.Default()
	}

	solarClient := power.NewClient(config.UserAgent)
	if config.NASABaseURL != "" {
		solarClient.SetBaseURL(config.NASABaseURL)
	}

	weatherClient := meteo.NewClient(config.UserAgent)
	if config.MeteoBaseURL != "" {
		weatherClient.SetBaseURL(config.MeteoBaseURL)
	}

	terrainClient := elevation.NewClient(config.UserAgent, config.GoogleElevationAPIKey)
	if config.OpenElevationURL != "" {
		terrainClient.SetSecondaryURL(config.OpenElevationURL)
	}

	summarizer := llm.NewClient(config.GeminiAPIKey)
	if config.GeminiBaseURL != "" {
		summarizer.SetBaseURL(config.GeminiBaseURL)
	}

	calibrator := calibrate.New()

	s := &SiteAnalyzer{
		config:     config,
		logger:     logger,
		acquirer:   NewAcquirer(solarClient, weatherClient, terrainClient, config.ProviderTimeout, logger),
		engine:     scoring.NewEngine(calibrator),
		calibrator: calibrator,
		summarizer: summarizer,
	}
	s.web = NewWebServer(s, config.WebServerPort)
	return s
}

// Start connects persistence, replays history through the calibrator
// and brings up the web server. It returns once the analyzer is ready
// to serve.
func (s *SiteAnalyzer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("analyzer is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	if s.store == nil && s.config.PostgresConnString != "" {
		store, err := history.Open(ctx, s.config.PostgresConnString, s.logger)
		if err != nil {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			return fmt.Errorf("failed to open history store: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			return fmt.Errorf("failed to ensure history schema: %w", err)
		}
		s.store = store
	}

	s.warmUpCalibrator(ctx)

	if err := s.web.Start(); err != nil {
		return fmt.Errorf("failed to start web server: %w", err)
	}
	if s.web != nil {
		s.logger.Printf("Web server listening on port %d", s.config.WebServerPort)
	}

	return nil
}

// warmUpCalibrator replays the recent history window into the
// calibrator. Warm-up always completes: with no store or a failed
// replay the gate still opens, just on an empty model.
func (s *SiteAnalyzer) warmUpCalibrator(ctx context.Context) {
	var observations []calibrate.Observation

	if s.store != nil {
		since := time.Now().AddDate(0, 0, -s.config.WarmupDays)
		records, err := s.store.ReplaySince(ctx, since)
		if err != nil {
			s.logger.Printf("[WARMUP] history replay failed (%v), starting cold", err)
		} else {
			observations = make([]calibrate.Observation, len(records))
			for i, r := range records {
				observations[i] = calibrate.Observation{
					Lat:   r.Lat,
					Lng:   r.Lng,
					Score: float64(r.Score),
				}
			}
		}
	}

	s.calibrator.WarmUp(observations)
	s.logger.Printf("[WARMUP] calibrator warmed with %d observations", len(observations))
}

// Stop drains the web server within the shutdown grace period and
// closes persistence. Calibrator state is deliberately not persisted;
// the next start rebuilds it from history.
func (s *SiteAnalyzer) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownGrace)
	defer cancel()

	if err := s.web.Stop(ctx); err != nil {
		s.logger.Printf("Web server shutdown error: %v", err)
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Printf("History store close error: %v", err)
		}
	}

	s.logger.Printf("Analyzer stopped")
}

// Analyze runs the full pipeline for one query.
func (s *SiteAnalyzer) Analyze(ctx context.Context, q Query) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestHardDeadline)
	defer cancel()

	requestID := uuid.NewString()

	features := s.acquirer.Acquire(ctx, q.Lat, q.Lng, q.GridDistanceKm)
	if ctx.Err() != nil {
		return nil, timeoutError("request deadline exceeded during data acquisition")
	}

	verdict := s.engine.Score(scoring.Input{
		Lat:             q.Lat,
		Lng:             q.Lng,
		SolarIrradiance: features.SolarIrradiance,
		WindSpeed:       features.WindSpeed,
		TemperatureC:    features.TemperatureC,
		HumidityPct:     features.HumidityPct,
		CloudCoverPct:   features.CloudCoverPct,
		ElevationM:      features.ElevationM,
		SlopeDegrees:    features.SlopeDegrees,
		GridDistanceKm:  features.GridDistanceKm,
		PlantSizeKW:     q.PlantSizeKW,
		AvailableAreaM2: q.AvailableAreaM2,
		DataSources:     features.DataSources,
	})

	projection := finance.Project(finance.Input{
		SolarIrradiance:  features.SolarIrradiance,
		PlantSizeKW:      q.PlantSizeKW,
		ElectricityRate:  q.ElectricityRate,
		PanelAreaM2:      q.PanelAreaM2,
		Efficiency:       q.Efficiency,
		InstallationCost: q.InstallationCost,
		CostPerKW:        s.config.CostPerKW,
	})

	report := buildReport(q, features, verdict, projection)

	result := &Result{
		RequestID:  requestID,
		AnalyzedAt: start.UTC(),
		Query:      q,
		Features:   features,
		Verdict:    verdict,
		Financial:  projection,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sumCtx, sumCancel := context.WithTimeout(ctx, s.config.SummarizerTimeout)
		defer sumCancel()
		result.AISummary, result.AIProvider = s.summarizer.Summarize(sumCtx, report)
	}()

	// The observation feeds the already-calibrated score back into the
	// model, ordered before the response. Not cancellable: it is a
	// quick in-memory write.
	s.calibrator.Observe(q.Lat, q.Lng, float64(verdict.Score))

	wg.Wait()

	s.persist(ctx, result)

	if ctx.Err() != nil {
		return nil, timeoutError("request deadline exceeded")
	}

	elapsed := time.Since(start)
	if elapsed > s.config.RequestSoftDeadline {
		s.logger.Printf("[PIPELINE] %s exceeded soft deadline: %s", requestID, elapsed.Round(time.Millisecond))
	}

	now := time.Now()
	s.mu.Lock()
	s.analysisCount++
	s.lastAnalysis = &now
	s.mu.Unlock()

	s.web.BroadcastAnalysis(result)

	return result, nil
}

// persist appends the record. Failures are logged and swallowed: the
// response is already complete and the calibrator already updated.
func (s *SiteAnalyzer) persist(ctx context.Context, r *Result) {
	if s.store == nil || s.config.DryRun {
		return
	}

	record := &history.Record{
		CreatedAt:       r.AnalyzedAt,
		Lat:             r.Query.Lat,
		Lng:             r.Query.Lng,
		SolarIrradiance: r.Features.SolarIrradiance,
		WindSpeed:       r.Features.WindSpeed,
		TemperatureC:    r.Features.TemperatureC,
		HumidityPct:     r.Features.HumidityPct,
		CloudCoverPct:   r.Features.CloudCoverPct,
		ElevationM:      r.Features.ElevationM,
		SlopeDegrees:    r.Features.SlopeDegrees,
		GridDistanceKm:  r.Features.GridDistanceKm,
		DataSources:     r.Features.DataSources,
		Score:           r.Score,
		Grade:           r.Grade,
		SolarScore:      r.SubScores[scoring.FactorSolar],
		GridScore:       r.SubScores[scoring.FactorGrid],
		AnnualEnergyKWh: r.Financial.AnnualEnergyKWh,
		AnnualSavings:   r.Financial.AnnualSavings,
		PaybackYears:    r.Financial.PaybackYears,
		LifetimeProfit:  r.Financial.LifetimeProfit,
		AISummary:       r.AISummary,
		AIProvider:      r.AIProvider,
	}

	if _, err := s.store.Append(ctx, record); err != nil {
		s.logger.Printf("[PIPELINE] failed to persist analysis %s: %v", r.RequestID, err)
	}
}

// buildReport projects the analysis into the summarizer's compact view.
func buildReport(q Query, f Features, v scoring.Verdict, p finance.Projection) llm.SiteReport {
	return llm.SiteReport{
		Lat:                  q.Lat,
		Lng:                  q.Lng,
		Score:                v.Score,
		Grade:                v.Grade,
		SuitabilityClass:     v.SuitabilityClass,
		ConstraintViolations: v.ConstraintViolations,
		SolarIrradiance:      f.SolarIrradiance,
		WindSpeed:            f.WindSpeed,
		SlopeDegrees:         f.SlopeDegrees,
		PlantSizeKW:          q.PlantSizeKW,
		AnnualEnergyKWh:      p.AnnualEnergyKWh,
		AnnualSavings:        p.AnnualSavings,
		PaybackYears:         float64(p.PaybackYears),
		PaybackFinite:        p.PaybackYears.Finite(),
		LifetimeProfit:       p.LifetimeProfit,
	}
}

// Recent returns the newest persisted analyses, or an empty slice when
// history is disabled.
func (s *SiteAnalyzer) Recent(ctx context.Context, limit int) ([]history.Record, error) {
	if s.store == nil {
		return []history.Record{}, nil
	}
	return s.store.Recent(ctx, limit)
}

// Seasonal builds the monthly breakdown for a site, preferring the
// live climatology and degrading to the latitude model.
func (s *SiteAnalyzer) Seasonal(ctx context.Context, lat, lng, plantSizeKW float64) (*seasonal.Analysis, error) {
	if lat < -90 || lat > 90 {
		return nil, inputInvalid("lat must be between -90 and 90, got %f", lat)
	}
	if lng < -180 || lng > 180 {
		return nil, inputInvalid("lng must be between -180 and 180, got %f", lng)
	}
	if plantSizeKW <= 0 {
		return nil, inputInvalid("plant_size_kw must be greater than 0, got %f", plantSizeKW)
	}

	monthly := s.acquirer.MonthlyIrradiance(ctx, lat, lng)
	analysis := seasonal.Analyze(lat, lng, plantSizeKW, monthly)
	return &analysis, nil
}

// HeatmapRequest is one micro-grid analysis request.
type HeatmapRequest struct {
	Polygon     [][2]float64 `json:"polygon"`
	PlantSizeKW float64      `json:"plant_size_kw"`
}

// Heatmap anchors one acquisition and scoring pass at the polygon
// centroid and grids the parcel around it.
func (s *SiteAnalyzer) Heatmap(ctx context.Context, req HeatmapRequest) (*heatmap.Result, error) {
	if len(req.Polygon) < 3 {
		return nil, inputInvalid("polygon needs at least 3 vertices, got %d", len(req.Polygon))
	}
	if req.PlantSizeKW <= 0 {
		return nil, inputInvalid("plant_size_kw must be greater than 0, got %f", req.PlantSizeKW)
	}
	for _, v := range req.Polygon {
		if v[0] < -90 || v[0] > 90 || v[1] < -180 || v[1] > 180 {
			return nil, inputInvalid("polygon vertex (%f, %f) out of range", v[0], v[1])
		}
	}

	lat, lng := heatmap.Centroid(req.Polygon)
	features := s.acquirer.Acquire(ctx, lat, lng, nil)
	if ctx.Err() != nil {
		return nil, timeoutError("request deadline exceeded during data acquisition")
	}

	verdict := s.engine.Score(scoring.Input{
		Lat:             lat,
		Lng:             lng,
		SolarIrradiance: features.SolarIrradiance,
		WindSpeed:       features.WindSpeed,
		TemperatureC:    features.TemperatureC,
		HumidityPct:     features.HumidityPct,
		CloudCoverPct:   features.CloudCoverPct,
		ElevationM:      features.ElevationM,
		SlopeDegrees:    features.SlopeDegrees,
		GridDistanceKm:  features.GridDistanceKm,
		PlantSizeKW:     req.PlantSizeKW,
		DataSources:     features.DataSources,
	})

	result, err := heatmap.Analyze(heatmap.Input{
		Polygon:     req.Polygon,
		PlantSizeKW: req.PlantSizeKW,
		Base: heatmap.BaseSite{
			SolarIrradiance: features.SolarIrradiance,
			ElevationM:      features.ElevationM,
			SlopeDegrees:    features.SlopeDegrees,
			Score:           verdict.Score,
		},
	})
	if err != nil {
		return nil, inputInvalid("%v", err)
	}
	return result, nil
}

// SensitivityRequest is one tariff sensitivity request. A zero
// installation cost derives it from the benchmark rate.
type SensitivityRequest struct {
	SolarIrradiance  float64   `json:"solar_irradiance"`
	PlantSizeKW      float64   `json:"plant_size_kw"`
	InstallationCost float64   `json:"installation_cost,omitempty"`
	Rates            []float64 `json:"rates,omitempty"`
}

// Sensitivity projects savings and payback across a tariff ladder.
func (s *SiteAnalyzer) Sensitivity(req SensitivityRequest) ([]finance.SensitivityPoint, error) {
	if req.PlantSizeKW <= 0 {
		return nil, inputInvalid("plant_size_kw must be greater than 0, got %f", req.PlantSizeKW)
	}
	if req.SolarIrradiance <= 0 {
		return nil, inputInvalid("solar_irradiance must be greater than 0, got %f", req.SolarIrradiance)
	}

	cost := req.InstallationCost
	if cost == 0 {
		cost = req.PlantSizeKW * s.config.CostPerKW
	}
	return finance.TariffSensitivity(req.SolarIrradiance, req.PlantSizeKW, cost, req.Rates), nil
}

// GetConfig returns the analyzer configuration.
func (s *SiteAnalyzer) GetConfig() *Config {
	return s.config
}

// GetStatus returns the current analyzer state.
func (s *SiteAnalyzer) GetStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		IsRunning:      s.isRunning,
		Version:        Version,
		AnalysisCount:  s.analysisCount,
		LastAnalysis:   s.lastAnalysis,
		Calibrator:     s.calibrator.Snapshot(),
		HistoryEnabled: s.store != nil,
	}
}
