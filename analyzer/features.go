package analyzer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/devskill-org/solar-site-analyzer/elevation"
	"github.com/devskill-org/solar-site-analyzer/meteo"
	"github.com/devskill-org/solar-site-analyzer/power"
)

// Breaker thresholds shared by all three provider chains. A tripped
// breaker short-circuits straight to the fallback for 30 seconds, so a
// browned-out provider does not cost every request its timeout.
const (
	breakerTripAfter = 3
	breakerCooldown  = 30 * time.Second
)

// Features is the assembled site picture one scoring pass consumes.
// Every field always has a value; DataSources records how many of them
// came from live providers rather than fallback tables.
type Features struct {
	SolarIrradiance float64 `json:"solar_irradiance"`
	WindSpeed       float64 `json:"wind_speed"`
	TemperatureC    float64 `json:"temperature_c"`
	HumidityPct     float64 `json:"humidity_pct"`
	CloudCoverPct   float64 `json:"cloud_cover_pct"`
	ElevationM      float64 `json:"elevation_m"`
	SlopeDegrees    float64 `json:"slope_degrees"`
	GridDistanceKm  float64 `json:"grid_distance_km"`
	DataSources     int     `json:"data_sources"`
}

// solarProvider is the POWER client surface the acquirer needs.
type solarProvider interface {
	DailyAverage(ctx context.Context, lat, lng float64) (float64, error)
	AnnualClimatology(ctx context.Context, lat, lng float64) (float64, error)
	MonthlyClimatology(ctx context.Context, lat, lng float64) ([]float64, error)
}

// weatherProvider is the Open-Meteo client surface the acquirer needs.
type weatherProvider interface {
	GetAverages(ctx context.Context, lat, lng float64) (*meteo.Averages, error)
}

// terrainProvider is the elevation client surface the acquirer needs.
type terrainProvider interface {
	Profile(ctx context.Context, lat, lng float64) (*elevation.Profile, error)
}

// Acquirer assembles Features by fanning out to the three providers
// concurrently, each behind its own deadline and circuit breaker, and
// degrading to the compiled-in tables when a chain fails. It never
// returns an error for transient reasons.
type Acquirer struct {
	solar   solarProvider
	weather weatherProvider
	terrain terrainProvider
	timeout time.Duration
	logger  *log.Logger

	solarBreaker   *gobreaker.CircuitBreaker
	weatherBreaker *gobreaker.CircuitBreaker
	terrainBreaker *gobreaker.CircuitBreaker
}

// NewAcquirer creates an acquirer over the three provider clients.
func NewAcquirer(solar solarProvider, weather weatherProvider, terrain terrainProvider,
	timeout time.Duration, logger *log.Logger) *Acquirer {
	if logger == nil {
		logger = log.Default()
	}
	return &Acquirer{
		solar:          solar,
		weather:        weather,
		terrain:        terrain,
		timeout:        timeout,
		logger:         logger,
		solarBreaker:   newProviderBreaker("solar"),
		weatherBreaker: newProviderBreaker("weather"),
		terrainBreaker: newProviderBreaker("terrain"),
	}
}

func newProviderBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
	})
}

// Acquire fetches all features for a site. A supplied grid distance is
// used verbatim and counts as the fourth live source; otherwise the
// regional estimate fills in. The failure of one provider never
// cancels the others.
func (a *Acquirer) Acquire(ctx context.Context, lat, lng float64, gridDistanceKm *float64) Features {
	var (
		wg sync.WaitGroup

		irradiance float64
		solarLive  bool

		weather     *meteo.Averages
		weatherLive bool

		terrain     *elevation.Profile
		terrainLive bool
	)

	wg.Add(3)

	go func() {
		defer wg.Done()
		fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		irradiance, solarLive = a.fetchIrradiance(fetchCtx, lat, lng)
	}()

	go func() {
		defer wg.Done()
		fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		weather, weatherLive = a.fetchWeather(fetchCtx, lat, lng)
	}()

	go func() {
		defer wg.Done()
		fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		terrain, terrainLive = a.fetchTerrain(fetchCtx, lat, lng)
	}()

	wg.Wait()

	sources := 0
	for _, live := range []bool{solarLive, weatherLive, terrainLive} {
		if live {
			sources++
		}
	}

	gridKm := EstimateGridDistance(lat, lng)
	if gridDistanceKm != nil {
		gridKm = *gridDistanceKm
		sources++
	}

	return Features{
		SolarIrradiance: irradiance,
		WindSpeed:       weather.WindSpeedMS,
		TemperatureC:    weather.TemperatureC,
		HumidityPct:     weather.HumidityPct,
		CloudCoverPct:   weather.CloudCoverPct,
		ElevationM:      terrain.ElevationM,
		SlopeDegrees:    terrain.SlopeDegrees,
		GridDistanceKm:  gridKm,
		DataSources:     sources,
	}
}

// fetchIrradiance walks the solar chain: daily observations, then the
// climatology, then the latitude table.
func (a *Acquirer) fetchIrradiance(ctx context.Context, lat, lng float64) (float64, bool) {
	result, err := a.solarBreaker.Execute(func() (any, error) {
		return a.solar.DailyAverage(ctx, lat, lng)
	})
	if err == nil {
		return result.(float64), true
	}
	a.logger.Printf("[SOLAR] daily irradiance unavailable (%v), trying climatology", err)

	result, err = a.solarBreaker.Execute(func() (any, error) {
		return a.solar.AnnualClimatology(ctx, lat, lng)
	})
	if err == nil {
		return result.(float64), true
	}
	a.logger.Printf("[SOLAR] climatology unavailable (%v), using latitude estimate", err)

	return power.EstimateIrradiance(lat), false
}

// fetchWeather pulls the averaged bundle, or the latitude table.
func (a *Acquirer) fetchWeather(ctx context.Context, lat, lng float64) (*meteo.Averages, bool) {
	result, err := a.weatherBreaker.Execute(func() (any, error) {
		return a.weather.GetAverages(ctx, lat, lng)
	})
	if err == nil {
		return result.(*meteo.Averages), true
	}
	a.logger.Printf("[WEATHER] forecast unavailable (%v), using latitude estimate", err)

	return meteo.Estimate(lat), false
}

// fetchTerrain pulls the stencil profile, or the regional table. The
// elevation client already chains its primary and secondary providers
// internally.
func (a *Acquirer) fetchTerrain(ctx context.Context, lat, lng float64) (*elevation.Profile, bool) {
	result, err := a.terrainBreaker.Execute(func() (any, error) {
		return a.terrain.Profile(ctx, lat, lng)
	})
	if err == nil {
		return result.(*elevation.Profile), true
	}
	a.logger.Printf("[ELEVATION] providers unavailable (%v), using regional estimate", err)

	return elevation.EstimateProfile(lat, lng), false
}

// MonthlyIrradiance exposes the climatology months for the seasonal
// endpoint, behind the same breaker as the scoring fetches. A nil
// slice means the caller should use the latitude model.
func (a *Acquirer) MonthlyIrradiance(ctx context.Context, lat, lng float64) []float64 {
	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result, err := a.solarBreaker.Execute(func() (any, error) {
		return a.solar.MonthlyClimatology(fetchCtx, lat, lng)
	})
	if err != nil {
		a.logger.Printf("[SOLAR] monthly climatology unavailable (%v), using latitude model", err)
		return nil
	}
	return result.([]float64)
}

// EstimateGridDistance returns a deterministic regional estimate of the
// distance to the nearest grid interconnection, in km, for callers that
// did not supply one. Dense-grid regions first, sparse ones after.
func EstimateGridDistance(lat, lng float64) float64 {
	switch {
	case lat >= 8 && lat <= 37 && lng >= 68 && lng <= 97: // India
		switch {
		case lat >= 20 && lat < 30:
			return 8
		case lat >= 30:
			return 20
		default:
			return 10
		}
	case lat >= 35 && lat <= 70 && lng >= -10 && lng <= 40: // Europe
		return 5
	case lat >= 25 && lat <= 60 && lng >= -125 && lng <= -65: // North America
		return 12
	case lat >= -35 && lat <= 35 && lng >= -20 && lng <= 52: // Africa
		return 25
	default:
		return 15
	}
}
