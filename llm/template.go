package llm

import (
	"fmt"
	"strings"
)

// TemplateSummary is the deterministic fallback narrative. It mirrors
// the structure a model would produce: a suitability statement, a
// resource note, the money sentence, and an outlook clause.
func TemplateSummary(r SiteReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "This site scores %d/100 (%s), making it %s for a %.0f kW solar installation.",
		r.Score, r.Grade, suitabilityAdjective(r.Score), r.PlantSizeKW)

	if len(r.ConstraintViolations) > 0 {
		fmt.Fprintf(&b, " Main concern: %s.", strings.ToLower(r.ConstraintViolations[0]))
	} else {
		fmt.Fprintf(&b, " %s at %.1f kWh/m2/day%s.",
			irradianceNote(r.SolarIrradiance), r.SolarIrradiance, windNote(r.WindSpeed))
	}

	fmt.Fprintf(&b, " Expected annual yield is %.0f kWh worth %.0f", r.AnnualEnergyKWh, r.AnnualSavings)
	if r.PaybackFinite {
		fmt.Fprintf(&b, ", recovering the investment in %.1f years.", r.PaybackYears)
	} else {
		b.WriteString(", which does not recover the investment at the given tariff.")
	}

	if r.Score >= 65 {
		b.WriteString(" A solid long-term outlook over the 25-year system life.")
	} else if len(r.ConstraintViolations) == 0 && r.Score >= 45 {
		b.WriteString(" Returns are workable but sensitive to tariff changes.")
	} else {
		b.WriteString(" Investment is not advisable without addressing the limiting factors.")
	}

	return b.String()
}

func suitabilityAdjective(score int) string {
	switch {
	case score >= 78:
		return "an excellent location"
	case score >= 58:
		return "a good location"
	case score >= 47:
		return "a moderate location"
	case score >= 35:
		return "a below-average location"
	default:
		return "an unsuitable location"
	}
}

func irradianceNote(irradiance float64) string {
	switch {
	case irradiance >= 5.5:
		return "Solar resource is outstanding"
	case irradiance >= 4.5:
		return "Solar resource is strong"
	case irradiance >= 3.5:
		return "Solar resource is adequate"
	default:
		return "Solar resource is limited"
	}
}

func windNote(windSpeed float64) string {
	if windSpeed >= 6.0 {
		return " with high winds requiring reinforced mounting"
	}
	return ""
}
