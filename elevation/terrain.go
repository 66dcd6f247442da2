package elevation

import "math"

// metersPerDegree is the meridian arc length of one degree of latitude.
const metersPerDegree = 111320.0

// stencilOffsetM is the cardinal sampling distance from the site.
const stencilOffsetM = 200.0

// stencilRunM is the horizontal run between opposite stencil points.
const stencilRunM = 2 * stencilOffsetM

// Stencil returns the five-point sampling pattern around a site in the
// fixed order [center, north, south, east, west]. The longitude offset
// is corrected for meridian convergence at the site latitude.
func Stencil(lat, lng float64) [5][2]float64 {
	dLat := stencilOffsetM / metersPerDegree
	dLng := stencilOffsetM / (metersPerDegree * math.Cos(lat*math.Pi/180))

	return [5][2]float64{
		{lat, lng},
		{lat + dLat, lng},
		{lat - dLat, lng},
		{lat, lng + dLng},
		{lat, lng - dLng},
	}
}

// Slope converts the four cardinal elevations of a stencil into a
// terrain slope in degrees.
func Slope(north, south, east, west float64) float64 {
	dzdx := (east - west) / stencilRunM
	dzdy := (north - south) / stencilRunM
	gradient := math.Sqrt(dzdx*dzdx + dzdy*dzdy)
	return round2(math.Atan(gradient) * 180.0 / math.Pi)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
