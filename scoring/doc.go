// Package scoring implements the multi-factor photovoltaic placement
// scoring engine.
//
// Eight site factors (solar irradiance, temperature, elevation, wind,
// cloud cover, terrain slope, grid proximity and plant-size feasibility)
// are normalized with Gaussian, sigmoid and step curves, combined by a
// fixed weight table, gated by hard constraints and graded A+ through F.
// A confidence estimate models factor agreement, data provenance and
// input plausibility.
//
// The engine itself is pure: for identical inputs and an identical
// calibration source it always produces the same Verdict.
//
// Example usage:
//
//	engine := scoring.NewEngine(calibrator)
//	verdict := engine.Score(scoring.Input{
//		Lat:             26.92,
//		Lng:             70.90,
//		SolarIrradiance: 6.5,
//		WindSpeed:       3.5,
//		TemperatureC:    34,
//		HumidityPct:     35,
//		CloudCoverPct:   20,
//		ElevationM:      250,
//		SlopeDegrees:    2,
//		GridDistanceKm:  8,
//		PlantSizeKW:     20,
//		DataSources:     4,
//	})
//	fmt.Printf("%d/100 (%s, %s)\n", verdict.Score, verdict.Grade, verdict.SuitabilityClass)
package scoring
