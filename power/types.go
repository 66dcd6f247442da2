package power

// pointResponse is the subset of a POWER point response the client
// consumes. Both temporal endpoints share this shape: a parameter name
// mapping to keyed values (dates for the daily series, month
// abbreviations plus "ANN" for climatology).
type pointResponse struct {
	Properties struct {
		Parameter map[string]map[string]float64 `json:"parameter"`
	} `json:"properties"`
}
