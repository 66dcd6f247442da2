package elevation

// DefaultSlopeDegrees is assumed when no stencil could be sampled.
// Gentle terrain is the common case for candidate solar sites.
const DefaultSlopeDegrees = 2.0

// EstimateElevation returns a coarse regional elevation in metres for
// use when every provider is unreachable. Mountain belts are checked
// before the countries that contain them.
func EstimateElevation(lat, lng float64) float64 {
	switch {
	case lat >= 28 && lat <= 40 && lng >= 75 && lng <= 105:
		return 3500.0 // Himalayas
	case lat >= 8 && lat <= 37 && lng >= 68 && lng <= 97:
		return 400.0 // Indian subcontinent
	case lat >= -55 && lat <= 10 && lng >= -80 && lng <= -60:
		return 1500.0 // Andes
	case lat >= 30 && lat <= 60 && lng >= -125 && lng <= -90:
		return 700.0 // North America
	case lat >= 44 && lat <= 48 && lng >= 6 && lng <= 16:
		return 1200.0 // Alps
	default:
		return 150.0 // coastal / lowland
	}
}

// EstimateProfile is the all-providers-down terrain fallback.
func EstimateProfile(lat, lng float64) *Profile {
	return &Profile{
		ElevationM:   EstimateElevation(lat, lng),
		SlopeDegrees: DefaultSlopeDegrees,
	}
}
