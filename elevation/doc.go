// Package elevation resolves terrain height and slope for a site.
//
// Elevations come from a Google-style batch endpoint when an API key is
// configured, falling back to the free Open-Elevation batch service.
// Slope is derived from a five-point stencil: the site itself plus four
// cardinal neighbours 200 m away.
//
// Basic Usage:
//
//	client := elevation.NewClient("SolarSiteAnalyzer/1.0", os.Getenv("ELEVATION_API_KEY"))
//
//	profile, err := client.Profile(ctx, 26.92, 70.90)
//	if err != nil {
//		// both providers down: coarse regional estimate
//		profile = elevation.EstimateProfile(26.92, 70.90)
//	}
//
//	fmt.Printf("%.1f m, %.2f° slope\n", profile.ElevationM, profile.SlopeDegrees)
//
// The stencil order [center, north, south, east, west] is fixed; both
// providers are required to echo elevations in request order.
package elevation
