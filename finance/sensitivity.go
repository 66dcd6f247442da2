package finance

import "math"

// DefaultTariffRates is the rate ladder used for sensitivity charts.
var DefaultTariffRates = []float64{4, 5, 6, 7, 8, 9, 10, 12, 15}

// SensitivityPoint is the projected outcome at one tariff rate.
type SensitivityPoint struct {
	TariffRate    float64 `json:"tariff_rate"`
	AnnualSavings float64 `json:"annual_savings"`
	PaybackYears  Payback `json:"payback_years"`
}

// TariffSensitivity projects annual savings and payback across a ladder
// of electricity tariffs. A nil rates slice uses DefaultTariffRates.
func TariffSensitivity(irradiance, plantSizeKW, installationCost float64, rates []float64) []SensitivityPoint {
	if rates == nil {
		rates = DefaultTariffRates
	}

	annualEnergy := plantSizeKW * irradiance * DaysPerYear * PerformanceRatio
	points := make([]SensitivityPoint, 0, len(rates))
	for _, rate := range rates {
		savings := math.Round(annualEnergy * rate)
		points = append(points, SensitivityPoint{
			TariffRate:    rate,
			AnnualSavings: savings,
			PaybackYears:  paybackYears(installationCost, savings),
		})
	}
	return points
}
