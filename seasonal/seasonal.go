// Package seasonal breaks the annual solar resource into a monthly
// picture: climatological irradiance, expected generation, day length
// and sun altitude per month, plus an hour-by-hour generation profile
// for a representative day. Everything is deterministic for a given
// location; sun geometry comes from astronomical formulas, not
// providers.
package seasonal

import (
	"math"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/devskill-org/solar-site-analyzer/finance"
)

// FillSentinel mirrors the climatology fill value: months at or below
// it, or negative, are replaced by the latitude model.
const FillSentinel = -900.0

// referenceYear pins sun geometry to a fixed year so repeated calls
// for the same location return identical numbers.
const referenceYear = 2025

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var daysInMonth = [12]float64{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// MonthStats is the resource and geometry picture for one month.
type MonthStats struct {
	Month           string  `json:"month"`
	Irradiance      float64 `json:"irradiance"` // kWh/m²/day
	GenerationKWh   float64 `json:"generation_kwh"`
	DayLengthHours  float64 `json:"day_length_hours"`
	NoonAltitudeDeg float64 `json:"noon_altitude_deg"`
}

// HourPoint is one hour of the representative-day generation profile.
type HourPoint struct {
	Hour         int     `json:"hour"`
	GenerationKW float64 `json:"generation_kw"`
}

// Analysis is the complete seasonal breakdown for one site.
type Analysis struct {
	Monthly             []MonthStats `json:"monthly"`
	AnnualGenerationKWh float64      `json:"annual_generation_kwh"`
	StabilityScore      float64      `json:"stability_score"` // 0..1, 1 = flat year
	PeakMonth           string       `json:"peak_month"`
	LowMonth            string       `json:"low_month"`
	DailyProfile        []HourPoint  `json:"daily_profile"`
}

// ModelIrradiance returns the latitude-model monthly irradiance in
// kWh/m²/day. The annual base follows the global irradiance gradient;
// a latitude-scaled seasonal swing is added on top, inverted for the
// southern hemisphere, floored at 0.5.
func ModelIrradiance(lat float64) [12]float64 {
	abs := math.Abs(lat)

	var annual float64
	switch {
	case abs < 15:
		annual = 6.2
	case abs < 25:
		annual = 5.8
	case abs < 35:
		annual = 5.2
	case abs < 45:
		annual = 4.5
	case abs < 55:
		annual = 3.5
	default:
		annual = 2.5
	}

	amplitude := 0.1 + abs/90.0*1.8

	var monthly [12]float64
	for m := 0; m < 12; m++ {
		seasonal := math.Sin(math.Pi * float64(m) / 6.0)
		if lat < 0 {
			seasonal = -seasonal
		}
		monthly[m] = math.Max(0.5, round2(annual+amplitude*seasonal))
	}
	return monthly
}

// Sanitize replaces fill and negative months with the latitude model.
// A nil or short input yields the pure model.
func Sanitize(monthly []float64, lat float64) [12]float64 {
	model := ModelIrradiance(lat)
	if len(monthly) < 12 {
		return model
	}

	var out [12]float64
	for m := 0; m < 12; m++ {
		v := monthly[m]
		if v <= FillSentinel || v < 0 {
			v = model[m]
		}
		out[m] = round2(v)
	}
	return out
}

// Analyze builds the full seasonal breakdown. The monthly slice may
// come from a climatology provider with fill values, or be nil to use
// the latitude model throughout.
func Analyze(lat, lng, plantSizeKW float64, monthly []float64) Analysis {
	irr := Sanitize(monthly, lat)

	stats := make([]MonthStats, 12)
	var annual, peak, low float64
	peakMonth, lowMonth := 0, 0
	low = math.Inf(1)

	for m := 0; m < 12; m++ {
		generation := round1(plantSizeKW * irr[m] * daysInMonth[m] * finance.PerformanceRatio)
		dayLength, noonAltitude := sunGeometry(lat, lng, m)

		stats[m] = MonthStats{
			Month:           monthNames[m],
			Irradiance:      irr[m],
			GenerationKWh:   generation,
			DayLengthHours:  dayLength,
			NoonAltitudeDeg: noonAltitude,
		}

		annual += generation
		if generation > peak {
			peak, peakMonth = generation, m
		}
		if generation < low {
			low, lowMonth = generation, m
		}
	}

	bestIrr := irr[peakMonth]
	return Analysis{
		Monthly:             stats,
		AnnualGenerationKWh: round1(annual),
		StabilityScore:      stability(stats),
		PeakMonth:           monthNames[peakMonth],
		LowMonth:            monthNames[lowMonth],
		DailyProfile:        DailyProfile(lat, lng, plantSizeKW, bestIrr, peakMonth),
	}
}

// sunGeometry returns day length in hours and solar-noon altitude in
// degrees for the middle of the given month (0-based).
func sunGeometry(lat, lng float64, month int) (dayLength, noonAltitude float64) {
	day := midMonth(month)
	times := suncalc.GetTimes(day, lat, lng)

	noon := times["solarNoon"].Value
	if noon.IsZero() {
		noon = day
	}
	pos := suncalc.GetPosition(noon, lat, lng)
	noonAltitude = round1(pos.Altitude * 180 / math.Pi)

	sunrise := times["sunrise"].Value
	sunset := times["sunset"].Value
	if sunrise.IsZero() || sunset.IsZero() || !sunset.After(sunrise) {
		// Polar day or night: the noon altitude decides which.
		if noonAltitude > 0 {
			return 24, noonAltitude
		}
		return 0, noonAltitude
	}

	return round1(sunset.Sub(sunrise).Hours()), noonAltitude
}

// DailyProfile distributes one day's expected energy across the hours
// the sun is up, weighted by the sine of the solar altitude. Hours are
// local solar time (longitude-shifted from UTC), so the peak lands
// around hour 12 everywhere. The profile integrates to
// plantSizeKW · irradiance · performance ratio.
func DailyProfile(lat, lng, plantSizeKW, irradiance float64, month int) []HourPoint {
	midnight := time.Date(referenceYear, time.Month(month+1), 15, 0, 0, 0, 0, time.UTC)

	factors := make([]float64, 24)
	var sum float64
	for h := 0; h < 24; h++ {
		t := midnight.Add(time.Duration((float64(h) - lng/15.0) * float64(time.Hour)))
		pos := suncalc.GetPosition(t, lat, lng)
		f := math.Max(0, math.Sin(pos.Altitude))
		factors[h] = f
		sum += f
	}

	profile := make([]HourPoint, 24)
	dailyEnergy := plantSizeKW * irradiance * finance.PerformanceRatio
	for h := 0; h < 24; h++ {
		var kw float64
		if sum > 0 {
			kw = round2(dailyEnergy * factors[h] / sum)
		}
		profile[h] = HourPoint{Hour: h, GenerationKW: kw}
	}
	return profile
}

// stability is 1 minus the coefficient of variation of monthly
// generation, floored at 0. A site generating evenly all year scores 1.
func stability(stats []MonthStats) float64 {
	var sum float64
	for _, s := range stats {
		sum += s.GenerationKWh
	}
	mean := sum / float64(len(stats))
	if mean <= 0 {
		return 0
	}

	var variance float64
	for _, s := range stats {
		variance += (s.GenerationKWh - mean) * (s.GenerationKWh - mean)
	}
	variance /= float64(len(stats))

	cov := math.Sqrt(variance) / mean
	return round2(math.Max(0, 1-cov))
}

// midMonth returns solar noon UTC-ish anchor on the 15th of the month
// in the fixed reference year.
func midMonth(month int) time.Time {
	return time.Date(referenceYear, time.Month(month+1), 15, 12, 0, 0, 0, time.UTC)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
