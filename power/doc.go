// Package power provides a Go client for the NASA POWER solar resource API.
//
// The client covers the two temporal endpoints the analyzer consumes:
// the daily point series (recent observed irradiance) and the point
// climatology (22-year monthly and annual means).
//
// Basic Usage:
//
//	client := power.NewClient("SolarSiteAnalyzer/1.0")
//
//	irradiance, err := client.DailyAverage(ctx, 26.92, 70.90)
//	if err != nil {
//		// fall back to the climatology endpoint
//		irradiance, err = client.AnnualClimatology(ctx, 26.92, 70.90)
//	}
//	if err != nil {
//		// last resort: latitude-band estimate, always available
//		irradiance = power.EstimateIrradiance(26.92)
//	}
//
//	fmt.Printf("Average irradiance: %.3f kWh/m²/day\n", irradiance)
//
// POWER marks missing days with large negative fill values; DailyAverage
// filters anything at or below -900 before averaging, and returns
// ErrNoData when the window holds nothing usable.
//
// For more information about the API, visit: https://power.larc.nasa.gov/docs/services/api/
package power
