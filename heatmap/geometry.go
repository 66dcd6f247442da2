package heatmap

import "math"

// metersPerDegree is the meridian arc length of one degree of latitude.
const metersPerDegree = 111320.0

// earthRadiusM is the WGS84 equatorial radius.
const earthRadiusM = 6378137.0

// PointInPolygon reports whether (lat, lng) lies inside the polygon,
// using the even-odd ray casting rule on the coordinate plane. Good
// enough at parcel scale, where the surface is effectively flat.
func PointInPolygon(lat, lng float64, polygon [][2]float64) bool {
	inside := false
	n := len(polygon)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		yi, xi := polygon[i][0], polygon[i][1]
		yj, xj := polygon[j][0], polygon[j][1]

		if (yi > lat) != (yj > lat) &&
			lng < (xj-xi)*(lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// PolygonAreaM2 returns the surface area of the polygon in square
// metres using the spherical excess formula. Vertex order does not
// matter; the result is always positive.
func PolygonAreaM2(polygon [][2]float64) float64 {
	n := len(polygon)
	if n < 3 {
		return 0
	}

	var total float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		lat1 := polygon[i][0] * math.Pi / 180
		lat2 := polygon[j][0] * math.Pi / 180
		lng1 := polygon[i][1] * math.Pi / 180
		lng2 := polygon[j][1] * math.Pi / 180

		total += (lng2 - lng1) * (2 + math.Sin(lat1) + math.Sin(lat2))
	}

	return math.Abs(total * earthRadiusM * earthRadiusM / 2)
}

// Centroid returns the vertex-average center of the polygon. For the
// convex parcels users draw, this is always inside.
func Centroid(polygon [][2]float64) (lat, lng float64) {
	for _, v := range polygon {
		lat += v[0]
		lng += v[1]
	}
	n := float64(len(polygon))
	return lat / n, lng / n
}
