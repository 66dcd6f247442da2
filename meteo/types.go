package meteo

// Averages is the averaged weather picture for a site.
type Averages struct {
	WindSpeedMS   float64 `json:"wind_speed"`
	TemperatureC  float64 `json:"temperature_c"`
	HumidityPct   float64 `json:"humidity_pct"`
	CloudCoverPct float64 `json:"cloud_cover_pct"`
}

// forecastResponse is the subset of an Open-Meteo forecast response the
// client consumes. The hourly arrays may contain nulls for hours the
// model cannot resolve; element pointers preserve them so averaging can
// skip instead of counting zeros.
type forecastResponse struct {
	Hourly hourlySeries `json:"hourly"`
}

type hourlySeries struct {
	WindSpeed   []*float64 `json:"windspeed_10m"`
	Temperature []*float64 `json:"temperature_2m"`
	Humidity    []*float64 `json:"relative_humidity_2m"`
	CloudCover  []*float64 `json:"cloudcover"`
}
