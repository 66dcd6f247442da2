// Package meteo provides a Go client for the Open-Meteo forecast API.
//
// The analyzer consumes one weather bundle per site: 7-day hourly means
// of wind speed, temperature, relative humidity and cloud cover. All
// four series come back from a single forecast call, so a site costs
// one HTTP round-trip.
//
// Basic Usage:
//
//	client := meteo.NewClient("SolarSiteAnalyzer/1.0")
//
//	bundle, err := client.GetAverages(ctx, 26.92, 70.90)
//	if err != nil {
//		// provider unreachable: fall back to latitude-band estimates
//		bundle = meteo.Estimate(26.92)
//	}
//
//	fmt.Printf("wind %.2f m/s, %.2f°C, %.0f%% humidity, %.0f%% cloud\n",
//		bundle.WindSpeedMS, bundle.TemperatureC,
//		bundle.HumidityPct, bundle.CloudCoverPct)
//
// Hours the model has no value for arrive as JSON nulls and are skipped
// when averaging; a series that is entirely empty is filled from the
// same latitude-band tables, so a successful call always produces a
// complete bundle.
//
// For more information about the API, visit: https://open-meteo.com/en/docs
package meteo
