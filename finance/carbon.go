package finance

import "math"

// Grid displacement factors.
const (
	// GridCO2KgPerKWh is the grid emission factor (CEA, coal-heavy mix).
	GridCO2KgPerKWh = 0.82

	// TreeCO2KgPerYear is the absorption of one mature tree.
	TreeCO2KgPerYear = 21.0

	// CarCO2TonnesPerYear is the emission of one average passenger car.
	CarCO2TonnesPerYear = 2.4
)

// Carbon is the avoided-emissions block of a projection.
type Carbon struct {
	KgPerYear       float64 `json:"co2_kg_per_year"`
	TonnesPerYear   float64 `json:"co2_tonnes_per_year"`
	Tonnes25Yr      float64 `json:"co2_tonnes_25yr"`
	TreesEquivalent float64 `json:"trees_equivalent"`
	CarsOffRoad     float64 `json:"cars_off_road"`
}

// CarbonSavings converts an annual yield into avoided grid emissions and
// the usual press-release equivalents.
func CarbonSavings(annualEnergyKWh float64) Carbon {
	kgYear := annualEnergyKWh * GridCO2KgPerKWh
	tonnesYear := kgYear / 1000

	return Carbon{
		KgPerYear:       round1(kgYear),
		TonnesPerYear:   round2(tonnesYear),
		Tonnes25Yr:      round1(tonnesYear * SystemLifetimeYears),
		TreesEquivalent: math.Round(kgYear / TreeCO2KgPerYear),
		CarsOffRoad:     round1(tonnesYear / CarCO2TonnesPerYear),
	}
}
