package analyzer

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/devskill-org/solar-site-analyzer/elevation"
	"github.com/devskill-org/solar-site-analyzer/meteo"
	"github.com/devskill-org/solar-site-analyzer/power"
)

var errProviderDown = errors.New("provider down")

type stubSolar struct {
	daily      float64
	dailyErr   error
	climo      float64
	climoErr   error
	monthly    []float64
	monthlyErr error
}

func (s *stubSolar) DailyAverage(ctx context.Context, lat, lng float64) (float64, error) {
	return s.daily, s.dailyErr
}

func (s *stubSolar) AnnualClimatology(ctx context.Context, lat, lng float64) (float64, error) {
	return s.climo, s.climoErr
}

func (s *stubSolar) MonthlyClimatology(ctx context.Context, lat, lng float64) ([]float64, error) {
	return s.monthly, s.monthlyErr
}

type stubWeather struct {
	averages *meteo.Averages
	err      error
}

func (s *stubWeather) GetAverages(ctx context.Context, lat, lng float64) (*meteo.Averages, error) {
	return s.averages, s.err
}

type stubTerrain struct {
	profile *elevation.Profile
	err     error
}

func (s *stubTerrain) Profile(ctx context.Context, lat, lng float64) (*elevation.Profile, error) {
	return s.profile, s.err
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func liveProviders() (*stubSolar, *stubWeather, *stubTerrain) {
	return &stubSolar{daily: 6.5},
		&stubWeather{averages: &meteo.Averages{
			WindSpeedMS:   3.5,
			TemperatureC:  34,
			HumidityPct:   35,
			CloudCoverPct: 20,
		}},
		&stubTerrain{profile: &elevation.Profile{ElevationM: 250, SlopeDegrees: 2}}
}

func TestAcquire_AllProvidersLive(t *testing.T) {
	solar, weather, terrain := liveProviders()
	a := NewAcquirer(solar, weather, terrain, time.Second, testLogger())

	features := a.Acquire(context.Background(), 26.92, 70.90, nil)

	if features.SolarIrradiance != 6.5 {
		t.Errorf("Expected live irradiance 6.5, got %f", features.SolarIrradiance)
	}
	if features.WindSpeed != 3.5 || features.TemperatureC != 34 {
		t.Errorf("Unexpected weather: wind=%f temp=%f", features.WindSpeed, features.TemperatureC)
	}
	if features.ElevationM != 250 || features.SlopeDegrees != 2 {
		t.Errorf("Unexpected terrain: elev=%f slope=%f", features.ElevationM, features.SlopeDegrees)
	}
	if features.DataSources != 3 {
		t.Errorf("Expected 3 live sources, got %d", features.DataSources)
	}
}

func TestAcquire_SuppliedGridDistanceCountsAsSource(t *testing.T) {
	solar, weather, terrain := liveProviders()
	a := NewAcquirer(solar, weather, terrain, time.Second, testLogger())

	grid := 8.0
	features := a.Acquire(context.Background(), 26.92, 70.90, &grid)

	if features.GridDistanceKm != 8.0 {
		t.Errorf("Expected supplied grid distance 8, got %f", features.GridDistanceKm)
	}
	if features.DataSources != 4 {
		t.Errorf("Expected 4 sources with supplied grid, got %d", features.DataSources)
	}
}

// All three providers down: the request still produces a complete
// feature set from the fallback tables.
func TestAcquire_AllProvidersDown(t *testing.T) {
	a := NewAcquirer(
		&stubSolar{dailyErr: errProviderDown, climoErr: errProviderDown},
		&stubWeather{err: errProviderDown},
		&stubTerrain{err: errProviderDown},
		time.Second, testLogger(),
	)

	features := a.Acquire(context.Background(), 26.92, 70.90, nil)

	if features.DataSources != 0 {
		t.Errorf("Expected 0 live sources, got %d", features.DataSources)
	}
	if features.SolarIrradiance != power.EstimateIrradiance(26.92) {
		t.Errorf("Expected latitude-band irradiance, got %f", features.SolarIrradiance)
	}
	est := meteo.Estimate(26.92)
	if features.WindSpeed != est.WindSpeedMS || features.CloudCoverPct != est.CloudCoverPct {
		t.Errorf("Expected latitude-band weather, got wind=%f cloud=%f", features.WindSpeed, features.CloudCoverPct)
	}
	if features.SlopeDegrees != elevation.DefaultSlopeDegrees {
		t.Errorf("Expected default slope, got %f", features.SlopeDegrees)
	}
	if features.GridDistanceKm <= 0 {
		t.Errorf("Expected estimated grid distance, got %f", features.GridDistanceKm)
	}
}

func TestAcquire_SolarFallsBackToClimatology(t *testing.T) {
	a := NewAcquirer(
		&stubSolar{dailyErr: errProviderDown, climo: 5.8},
		&stubWeather{averages: meteo.Estimate(26.92)},
		&stubTerrain{profile: elevation.EstimateProfile(26.92, 70.90)},
		time.Second, testLogger(),
	)

	features := a.Acquire(context.Background(), 26.92, 70.90, nil)

	if features.SolarIrradiance != 5.8 {
		t.Errorf("Expected climatology irradiance 5.8, got %f", features.SolarIrradiance)
	}
	// Climatology is still the live provider.
	if features.DataSources != 3 {
		t.Errorf("Expected 3 live sources, got %d", features.DataSources)
	}
}

// One failing provider must not take down its siblings.
func TestAcquire_IndependentFailure(t *testing.T) {
	solar, _, terrain := liveProviders()
	a := NewAcquirer(solar, &stubWeather{err: errProviderDown}, terrain, time.Second, testLogger())

	features := a.Acquire(context.Background(), 26.92, 70.90, nil)

	if features.DataSources != 2 {
		t.Errorf("Expected 2 live sources, got %d", features.DataSources)
	}
	if features.SolarIrradiance != 6.5 {
		t.Errorf("Solar fetch affected by weather failure: %f", features.SolarIrradiance)
	}
	if features.WindSpeed != meteo.Estimate(26.92).WindSpeedMS {
		t.Errorf("Expected fallback wind, got %f", features.WindSpeed)
	}
}

// Repeated failures trip the breaker; the fallback still serves.
func TestAcquire_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	weather := &stubWeather{err: errProviderDown}
	solar, _, terrain := liveProviders()
	a := NewAcquirer(solar, weather, terrain, time.Second, testLogger())

	for i := 0; i < 5; i++ {
		features := a.Acquire(context.Background(), 26.92, 70.90, nil)
		if features.WindSpeed != meteo.Estimate(26.92).WindSpeedMS {
			t.Fatalf("Iteration %d: expected fallback wind, got %f", i, features.WindSpeed)
		}
	}

	// The breaker is now open: a recovered provider is not consulted
	// until the cooldown elapses, and the fallback keeps serving.
	weather.err = nil
	weather.averages = meteo.Estimate(0)
	features := a.Acquire(context.Background(), 26.92, 70.90, nil)
	if features.DataSources != 2 {
		t.Errorf("Expected weather still on fallback while breaker open, got %d sources", features.DataSources)
	}
}

func TestMonthlyIrradiance_FallsBackToNil(t *testing.T) {
	a := NewAcquirer(
		&stubSolar{monthlyErr: errProviderDown},
		&stubWeather{averages: meteo.Estimate(0)},
		&stubTerrain{profile: elevation.EstimateProfile(0, 0)},
		time.Second, testLogger(),
	)

	if monthly := a.MonthlyIrradiance(context.Background(), 26.92, 70.90); monthly != nil {
		t.Errorf("Expected nil monthly on provider failure, got %v", monthly)
	}
}

func TestEstimateGridDistance(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lng  float64
		want float64
	}{
		{"rajasthan", 26.92, 70.90, 8},
		{"kashmir", 34, 75, 20},
		{"kerala", 10, 76, 10},
		{"germany", 51, 10, 5},
		{"texas", 31, -100, 12},
		{"sahara", 23, 10, 25},
		{"pacific", -20, -150, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateGridDistance(tt.lat, tt.lng); got != tt.want {
				t.Errorf("EstimateGridDistance(%f, %f) = %f, want %f", tt.lat, tt.lng, got, tt.want)
			}
		})
	}
}
