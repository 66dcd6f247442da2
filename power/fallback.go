package power

// EstimateIrradiance returns a latitude-band estimate of daily
// irradiance in kWh/m²/day, for use when both POWER endpoints are
// unreachable. The bands track the global horizontal irradiance
// gradient from the tropics to the poles.
func EstimateIrradiance(lat float64) float64 {
	abs := lat
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs <= 15:
		return 6.5 // tropical
	case abs <= 30:
		return 5.5 // subtropical
	case abs <= 45:
		return 4.0 // temperate
	case abs <= 60:
		return 2.5 // subarctic
	default:
		return 1.5 // arctic
	}
}
