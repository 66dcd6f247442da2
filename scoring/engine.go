package scoring

import (
	"math"
	"sort"
)

// AlgorithmVersion identifies the scoring model in responses and stored records.
const AlgorithmVersion = "v3-production"

// Factor names. Every weight key produces exactly one sub-score under the
// same name.
const (
	FactorSolar       = "solar"
	FactorTemperature = "temperature"
	FactorElevation   = "elevation"
	FactorWind        = "wind"
	FactorCloud       = "cloud"
	FactorSlope       = "slope"
	FactorGrid        = "grid"
	FactorPlant       = "plant_feasibility"
)

// Weights is the factor weight table. The weights sum to 1.0.
var Weights = map[string]float64{
	FactorSolar:       0.30,
	FactorTemperature: 0.10,
	FactorElevation:   0.10,
	FactorWind:        0.08,
	FactorCloud:       0.10,
	FactorSlope:       0.10,
	FactorGrid:        0.12,
	FactorPlant:       0.10,
}

// Hard constraint thresholds. All comparisons are strict, so a value exactly
// at the threshold passes.
const (
	MinSolarIrradiance = 2.0   // kWh/m²/day
	MaxSlopeDegrees    = 25.0  // degrees
	MaxCloudCoverPct   = 90.0  // percent
	MaxGridDistanceKm  = 100.0 // km
	MinAreaRatio       = 0.4   // fraction of required land area
)

// Constraint violation messages.
const (
	ViolationMinSolar = "Solar irradiance insufficient"
	ViolationMaxSlope = "Terrain unsuitable"
	ViolationMaxCloud = "Permanent overcast"
	ViolationMaxGrid  = "Grid connection unviable"
	ViolationMinArea  = "Insufficient land area"
)

// LandAreaPerKW is the land requirement for crystalline silicon, m² per kW.
const LandAreaPerKW = 8.0

// CalibrationSource supplies the learned regional bias consulted during
// scoring. Delta returns the cell-vs-global deviation in score points,
// bounded to ±10; the engine applies it negated so that regions running
// hot are pulled back toward the global distribution.
type CalibrationSource interface {
	Delta(lat, lng float64) float64
}

// Input carries the assembled site features and plant parameters for one
// scoring pass. AvailableAreaM2 is a pointer because "not supplied" and
// "zero" behave differently: the land-area constraint is only checked when
// the caller supplied a value.
type Input struct {
	Lat             float64
	Lng             float64
	SolarIrradiance float64 // kWh/m²/day
	WindSpeed       float64 // m/s
	TemperatureC    float64
	HumidityPct     float64
	CloudCoverPct   float64
	ElevationM      float64
	SlopeDegrees    float64
	GridDistanceKm  float64
	PlantSizeKW     float64
	AvailableAreaM2 *float64
	DataSources     int // live provider count, 0..4
}

// Verdict is the scoring outcome for one site query.
type Verdict struct {
	Score                 int                `json:"score"`
	Grade                 string             `json:"grade"`
	SuitabilityClass      string             `json:"suitability_class"`
	Confidence            float64            `json:"confidence"`
	Recommendation        string             `json:"recommendation"`
	ConstraintViolations  []string           `json:"constraint_violations"`
	IsSuitable            bool               `json:"is_suitable"`
	SubScores             map[string]float64 `json:"sub_scores"`
	CalibrationAdjustment float64            `json:"calibration_adjustment"`
	AlgorithmVersion      string             `json:"algorithm_version"`
}

// Engine computes placement verdicts. A nil calibration source disables
// regional adjustment.
type Engine struct {
	calibration CalibrationSource
}

// NewEngine creates a scoring engine backed by the given calibration source.
func NewEngine(calibration CalibrationSource) *Engine {
	return &Engine{calibration: calibration}
}

// gaussian is a bell curve peaking at 1.0 where x equals the optimum.
func gaussian(x, optimal, spread float64) float64 {
	d := (x - optimal) / spread
	return math.Exp(-0.5 * d * d)
}

// sigmoid is the logistic curve, 0.5 at the midpoint.
func sigmoid(x, midpoint, steepness float64) float64 {
	return 1.0 / (1.0 + math.Exp(-steepness*(x-midpoint)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// scoreSolar peaks at 5.5 kWh/m²/day, the yield of top-tier arid sites.
func scoreSolar(irradiance float64) float64 {
	return gaussian(irradiance, 5.5, 1.5)
}

// scoreTemperature peaks at 22°C. Panels are rated at 25°C and lose roughly
// 0.4%/°C above it; deep cold hurts inverter efficiency instead.
func scoreTemperature(tempC float64) float64 {
	return gaussian(tempC, 22.0, 8.0)
}

// scoreElevation peaks at 600 m: enough altitude for atmospheric clarity,
// not enough for access and structural problems.
func scoreElevation(elevationM float64) float64 {
	return gaussian(elevationM, 600.0, 800.0)
}

// scoreWind peaks at 3.5 m/s, where convective panel cooling is best
// without structural risk.
func scoreWind(windSpeed float64) float64 {
	return gaussian(windSpeed, 3.5, 2.0)
}

// scoreCloud decreases monotonically with cover.
func scoreCloud(cloudPct float64) float64 {
	return 1.0 - sigmoid(cloudPct, 50.0, 0.06)
}

// scoreSlope is a step table following ground-mount feasibility bands.
func scoreSlope(slopeDeg float64) float64 {
	switch {
	case slopeDeg < 5.0:
		return 1.00
	case slopeDeg < 15.0:
		return 0.65
	case slopeDeg < 25.0:
		return 0.30
	default:
		return 0.05
	}
}

// scoreGrid decreases monotonically with distance to the nearest
// interconnection point.
func scoreGrid(distanceKm float64) float64 {
	return 1.0 - sigmoid(distanceKm, 25.0, 0.10)
}

// scorePlantFeasibility combines the land fit of the requested capacity with
// the resource available to drive it. When no area was supplied, twice the
// required land is assumed so the area term saturates.
func scorePlantFeasibility(plantKW float64, availableM2 *float64, irradiance float64) float64 {
	required := plantKW * LandAreaPerKW
	area := required * 2
	if availableM2 != nil {
		area = *availableM2
	}
	areaRatio := 1.0
	if required > 0 {
		areaRatio = clamp(area/required, 0, 1)
	}
	irrFactor := clamp(irradiance/5.5, 0, 1)
	return sigmoid(areaRatio*irrFactor, 0.5, 6.0)
}

// checkConstraints returns the violated hard constraints in declaration
// order. An empty slice means every constraint passed.
func checkConstraints(in Input) []string {
	var violations []string
	if in.SolarIrradiance < MinSolarIrradiance {
		violations = append(violations, ViolationMinSolar)
	}
	if in.SlopeDegrees > MaxSlopeDegrees {
		violations = append(violations, ViolationMaxSlope)
	}
	if in.CloudCoverPct > MaxCloudCoverPct {
		violations = append(violations, ViolationMaxCloud)
	}
	if in.GridDistanceKm > MaxGridDistanceKm {
		violations = append(violations, ViolationMaxGrid)
	}
	if in.AvailableAreaM2 != nil {
		required := in.PlantSizeKW * LandAreaPerKW
		if *in.AvailableAreaM2 < MinAreaRatio*required {
			violations = append(violations, ViolationMinArea)
		}
	}
	return violations
}

// confidence estimates how much the verdict can be trusted, 0..100.
// Factor agreement (variance of the sub-scores), data provenance and input
// plausibility are blended 50/30/20.
func confidence(subScores map[string]float64, in Input) float64 {
	// Agreement: variance of the eight sub-scores against the worst case of
	// an even 0..100 spread (variance 2500).
	var sum float64
	for _, s := range subScores {
		sum += s
	}
	mean := sum / float64(len(subScores))
	var variance float64
	for _, s := range subScores {
		variance += (s - mean) * (s - mean)
	}
	variance /= float64(len(subScores))
	agreement := clamp(1.0-variance/2500.0, 0, 1)

	sourceQuality := clamp(float64(in.DataSources)/4.0, 0, 1)

	penalties := 0.0
	if in.SolarIrradiance > 10.0 {
		penalties += 0.25
	}
	if in.SlopeDegrees < 0 {
		penalties += 0.25
	}
	if in.CloudCoverPct < 0 || in.CloudCoverPct > 100 {
		penalties += 0.25
	}
	if in.HumidityPct < 0 || in.HumidityPct > 100 {
		penalties += 0.25
	}
	plausibility := math.Max(0, 1.0-penalties)

	c := clamp(0.50*agreement+0.30*sourceQuality+0.20*plausibility, 0, 1)
	return round1(c * 100.0)
}

// Grade returns the letter grade for a final score.
func Grade(score int) string {
	switch {
	case score >= 88:
		return "A+"
	case score >= 78:
		return "A"
	case score >= 68:
		return "B+"
	case score >= 58:
		return "B"
	case score >= 47:
		return "C"
	case score >= 35:
		return "D"
	default:
		return "F"
	}
}

// SuitabilityClass returns the coarse class for a final score. Constraint
// violations override it to Unsuitable regardless of score.
func SuitabilityClass(score int) string {
	switch {
	case score >= 78:
		return "Excellent"
	case score >= 58:
		return "Good"
	case score >= 47:
		return "Moderate"
	case score >= 35:
		return "Poor"
	default:
		return "Unsuitable"
	}
}

// Recommendation returns the one-sentence investment guidance for a score.
func Recommendation(score int) string {
	switch {
	case score >= 85:
		return "Exceptional — Top-tier solar site. Maximum ROI expected with minimal risk."
	case score >= 75:
		return "Highly Recommended — Excellent solar potential. Fast payback, high lifetime returns."
	case score >= 65:
		return "Recommended — Good conditions for solar installation with solid returns."
	case score >= 55:
		return "Promising — Above-average potential. Standard installation will be profitable."
	case score >= 45:
		return "Moderate — Acceptable conditions. Consider premium panels for better yield."
	case score >= 35:
		return "Marginal — Limited potential. Evaluate shading, orientation and hybrid options."
	default:
		return "Not Recommended — Poor solar resource. High investment risk."
	}
}

// Score produces the verdict for one site. It is a pure function of the
// input and the calibration source's current state.
func (e *Engine) Score(in Input) Verdict {
	violations := checkConstraints(in)

	subScores := map[string]float64{
		FactorSolar:       round1(scoreSolar(in.SolarIrradiance) * 100),
		FactorTemperature: round1(scoreTemperature(in.TemperatureC) * 100),
		FactorElevation:   round1(scoreElevation(in.ElevationM) * 100),
		FactorWind:        round1(scoreWind(in.WindSpeed) * 100),
		FactorCloud:       round1(scoreCloud(in.CloudCoverPct) * 100),
		FactorSlope:       round1(scoreSlope(in.SlopeDegrees) * 100),
		FactorGrid:        round1(scoreGrid(in.GridDistanceKm) * 100),
		FactorPlant:       round1(scorePlantFeasibility(in.PlantSizeKW, in.AvailableAreaM2, in.SolarIrradiance) * 100),
	}

	var weighted float64
	for factor, weight := range Weights {
		weighted += weight * subScores[factor] / 100.0
	}

	// The 1.05 headroom lets near-ideal sites reach the top of the scale
	// despite the Gaussian tails never touching 1.0.
	raw := clamp(weighted*1.05*100.0, 0, 100)

	gated := len(violations) > 0
	if gated {
		raw = math.Min(raw, 34)
	}

	adjustment := 0.0
	if e.calibration != nil {
		if delta := e.calibration.Delta(in.Lat, in.Lng); delta != 0 {
			// Anti-bias: cells scoring above the global distribution are
			// pulled down, not amplified.
			adjustment = -clamp(delta, -10, 10)
		}
	}

	final := clamp(raw+adjustment, 0, 100)
	if gated {
		final = math.Min(final, 34)
	}
	score := int(math.Round(final))

	class := SuitabilityClass(score)
	if gated {
		class = "Unsuitable"
	}

	return Verdict{
		Score:                 score,
		Grade:                 Grade(score),
		SuitabilityClass:      class,
		Confidence:            confidence(subScores, in),
		Recommendation:        Recommendation(score),
		ConstraintViolations:  violations,
		IsSuitable:            score >= 50 && !gated,
		SubScores:             subScores,
		CalibrationAdjustment: round2(adjustment),
		AlgorithmVersion:      AlgorithmVersion,
	}
}

// SubScore returns the 0..100 sub-score the engine would assign one
// factor value in isolation. The composite plant_feasibility factor is
// not addressable this way and returns 0.
func SubScore(factor string, value float64) float64 {
	switch factor {
	case FactorSolar:
		return round1(scoreSolar(value) * 100)
	case FactorTemperature:
		return round1(scoreTemperature(value) * 100)
	case FactorElevation:
		return round1(scoreElevation(value) * 100)
	case FactorWind:
		return round1(scoreWind(value) * 100)
	case FactorCloud:
		return round1(scoreCloud(value) * 100)
	case FactorSlope:
		return round1(scoreSlope(value) * 100)
	case FactorGrid:
		return round1(scoreGrid(value) * 100)
	default:
		return 0
	}
}

// FactorNames returns the factor keys in stable sorted order.
func FactorNames() []string {
	names := make([]string, 0, len(Weights))
	for name := range Weights {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
