package elevation

// Profile is the terrain picture for one site.
type Profile struct {
	ElevationM   float64 `json:"elevation_m"`
	SlopeDegrees float64 `json:"slope_degrees"`
}

// googleResponse is the Google Elevation API batch response shape.
type googleResponse struct {
	Results []struct {
		Elevation float64 `json:"elevation"`
	} `json:"results"`
	Status string `json:"status"`
}

// lookupRequest is the Open-Elevation batch request body.
type lookupRequest struct {
	Locations []lookupPoint `json:"locations"`
}

type lookupPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// lookupResponse is the Open-Elevation batch response shape.
type lookupResponse struct {
	Results []struct {
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}
