package llm

import (
	"fmt"
	"strings"
)

// SiteReport is the compact view of one finished analysis handed to the
// summarizer. It deliberately carries plain numbers instead of the
// engine types so the narrative layer stays decoupled from scoring and
// finance internals.
type SiteReport struct {
	Lat                  float64
	Lng                  float64
	Score                int
	Grade                string
	SuitabilityClass     string
	ConstraintViolations []string

	SolarIrradiance float64 // kWh/m²/day
	WindSpeed       float64 // m/s
	SlopeDegrees    float64

	PlantSizeKW     float64
	AnnualEnergyKWh float64
	AnnualSavings   float64
	PaybackYears    float64 // non-finite means never
	PaybackFinite   bool
	LifetimeProfit  float64
}

// BuildPrompt renders the report as the summarization prompt. The
// instructions pin length and tone so model swaps do not change the
// response shape.
func BuildPrompt(r SiteReport) string {
	var b strings.Builder

	b.WriteString("You are a solar energy consultant. Summarize this photovoltaic site assessment ")
	b.WriteString("in 2-3 plain sentences for an investor. No markdown, no bullet points.\n\n")

	fmt.Fprintf(&b, "Location: %.4f, %.4f\n", r.Lat, r.Lng)
	fmt.Fprintf(&b, "Placement score: %d/100 (grade %s, %s)\n", r.Score, r.Grade, r.SuitabilityClass)
	fmt.Fprintf(&b, "Solar irradiance: %.2f kWh/m2/day\n", r.SolarIrradiance)
	fmt.Fprintf(&b, "Wind speed: %.1f m/s, terrain slope: %.1f degrees\n", r.WindSpeed, r.SlopeDegrees)
	fmt.Fprintf(&b, "Plant capacity: %.1f kW\n", r.PlantSizeKW)
	fmt.Fprintf(&b, "Annual energy: %.0f kWh, annual savings: %.0f\n", r.AnnualEnergyKWh, r.AnnualSavings)
	if r.PaybackFinite {
		fmt.Fprintf(&b, "Payback period: %.1f years\n", r.PaybackYears)
	} else {
		b.WriteString("Payback period: never at the given tariff\n")
	}
	fmt.Fprintf(&b, "25-year profit: %.0f\n", r.LifetimeProfit)

	if len(r.ConstraintViolations) > 0 {
		fmt.Fprintf(&b, "Hard constraint violations: %s\n", strings.Join(r.ConstraintViolations, "; "))
	}

	return b.String()
}
