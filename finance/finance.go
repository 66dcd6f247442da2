// Package finance models the economics of a photovoltaic installation:
// capacity-first sizing, degradation-aware lifetime yield, the tiered
// residential capital subsidy, net metering and carbon displacement.
// Everything in this package is a pure function of its inputs.
package finance

import (
	"encoding/json"
	"math"
)

const (
	// SystemLifetimeYears is the modelled panel service life.
	SystemLifetimeYears = 25

	// DegradationRate is the annual panel output loss.
	DegradationRate = 0.005

	// DaysPerYear used in yield arithmetic.
	DaysPerYear = 365

	// LandAreaPerKW is the land requirement for crystalline silicon, m² per kW.
	LandAreaPerKW = 8.0

	// DefaultCostPerKW is the benchmark installed cost per kW in currency
	// units, overridable per deployment through configuration.
	DefaultCostPerKW = 50000.0

	// PerformanceRatio lumps inverter, wiring, soiling and temperature
	// derate into one factor. Documented, not tunable.
	PerformanceRatio = 0.80
)

// Net metering and grid carbon parameters.
const (
	// SelfConsumptionShare is the fraction of generation consumed on site.
	SelfConsumptionShare = 0.70

	// ExportTariffShare is the fraction of the retail tariff paid for
	// exported energy.
	ExportTariffShare = 0.50
)

// ResidentialSubsidyCapKWp is the system size above which no capital
// subsidy applies.
const ResidentialSubsidyCapKWp = 10.0

type subsidyTier struct {
	maxKWp float64 // 0 marks the open-ended cap tier
	amount float64
}

var subsidyTiers = []subsidyTier{
	{1.0, 30000},
	{2.0, 60000},
	{3.0, 78000},
	{0, 78000},
}

// Subsidy returns the capital subsidy for a system of the given size.
// The schedule is piecewise-constant and only applies to residential
// systems up to ResidentialSubsidyCapKWp.
func Subsidy(systemKWp float64) float64 {
	if systemKWp > ResidentialSubsidyCapKWp {
		return 0
	}
	for _, tier := range subsidyTiers {
		if tier.maxKWp == 0 || systemKWp <= tier.maxKWp {
			return tier.amount
		}
	}
	return 0
}

// Payback is a payback period in years. A system that never pays back
// carries +Inf, which marshals as JSON null.
type Payback float64

// MarshalJSON renders non-finite paybacks as null.
func (p Payback) MarshalJSON() ([]byte, error) {
	v := float64(p)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// UnmarshalJSON reads null back as +Inf so stored records round-trip.
func (p *Payback) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Payback(math.Inf(1))
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Payback(v)
	return nil
}

// Finite reports whether the payback period is a real number of years.
func (p Payback) Finite() bool {
	v := float64(p)
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Input is one projection request. PlantSizeKW drives capacity-first
// sizing; when it is zero the legacy area-first path uses PanelAreaM2
// and Efficiency instead. InstallationCost zero means derive the cost
// from the benchmark rate.
type Input struct {
	SolarIrradiance  float64 // kWh/m²/day
	PlantSizeKW      float64
	ElectricityRate  float64 // currency per kWh
	PanelAreaM2      float64
	Efficiency       float64
	InstallationCost float64
	CostPerKW        float64 // 0 means DefaultCostPerKW
}

// NetMetering is the annual billing effect of a 70/30 self-consumption
// split with exports paid at half the retail tariff.
type NetMetering struct {
	SelfConsumedKWh float64 `json:"self_consumed_kwh"`
	ExportedKWh     float64 `json:"exported_kwh"`
	SelfSavings     float64 `json:"self_savings"`
	ExportCredit    float64 `json:"export_credit"`
	AnnualBenefit   float64 `json:"annual_benefit"`
	PaybackYears    Payback `json:"payback_years"`
}

// Projection is the complete financial picture for one site query.
type Projection struct {
	AnnualEnergyKWh     float64 `json:"annual_energy_kwh"`
	AnnualSavings       float64 `json:"annual_savings"`
	MonthlySavings      float64 `json:"monthly_savings"`
	DailySavings        float64 `json:"daily_savings"`
	InstallationCost    float64 `json:"installation_cost"`
	PaybackYears        Payback `json:"payback_years"`
	LifetimeProfit      float64 `json:"lifetime_profit"`
	SystemLifetimeYears int     `json:"system_lifetime_years"`

	SystemSizeKWp      float64 `json:"system_size_kwp"`
	RequiredLandAreaM2 float64 `json:"required_land_area_m2"`

	SubsidyAmount              float64 `json:"subsidy_amount"`
	NetCostAfterSubsidy        float64 `json:"net_cost_after_subsidy"`
	PaybackAfterSubsidy        Payback `json:"payback_years_after_subsidy"`
	LifetimeProfitAfterSubsidy float64 `json:"lifetime_profit_after_subsidy"`

	NetMetering NetMetering `json:"net_metering"`
	Carbon      Carbon      `json:"carbon"`

	ElectricityRate float64 `json:"electricity_rate"`
}

// Project computes the full financial projection for one site.
func Project(in Input) Projection {
	costPerKW := in.CostPerKW
	if costPerKW <= 0 {
		costPerKW = DefaultCostPerKW
	}

	var (
		landM2       float64
		annualEnergy float64
		systemKWp    float64
		cost         float64
	)
	if in.PlantSizeKW > 0 {
		landM2 = in.PlantSizeKW * LandAreaPerKW
		annualEnergy = round1(in.PlantSizeKW * in.SolarIrradiance * DaysPerYear * PerformanceRatio)
		systemKWp = in.PlantSizeKW
		cost = in.InstallationCost
		if cost == 0 {
			cost = in.PlantSizeKW * costPerKW
		}
	} else {
		landM2 = in.PanelAreaM2
		annualEnergy = round1(in.PanelAreaM2 * in.Efficiency * in.SolarIrradiance * DaysPerYear)
		systemKWp = round2(in.PanelAreaM2 * in.Efficiency)
		cost = in.InstallationCost
		if cost == 0 {
			cost = in.PanelAreaM2 * costPerKW / LandAreaPerKW
		}
	}

	annualSavings := round2(annualEnergy * in.ElectricityRate)

	var lifetimeEnergy float64
	for yr := 0; yr < SystemLifetimeYears; yr++ {
		lifetimeEnergy += annualEnergy * math.Pow(1-DegradationRate, float64(yr))
	}
	lifetimeSavings := round2(lifetimeEnergy * in.ElectricityRate)

	subsidy := Subsidy(systemKWp)
	netCost := math.Max(round2(cost-subsidy), 0)

	return Projection{
		AnnualEnergyKWh:     annualEnergy,
		AnnualSavings:       annualSavings,
		MonthlySavings:      round2(annualSavings / 12),
		DailySavings:        round2(annualSavings / DaysPerYear),
		InstallationCost:    round2(cost),
		PaybackYears:        paybackYears(cost, annualSavings),
		LifetimeProfit:      round2(lifetimeSavings - cost),
		SystemLifetimeYears: SystemLifetimeYears,

		SystemSizeKWp:      round2(systemKWp),
		RequiredLandAreaM2: round1(landM2),

		SubsidyAmount:              subsidy,
		NetCostAfterSubsidy:        netCost,
		PaybackAfterSubsidy:        paybackYears(netCost, annualSavings),
		LifetimeProfitAfterSubsidy: round2(lifetimeSavings - netCost),

		NetMetering: netMetering(annualEnergy, in.ElectricityRate, cost),
		Carbon:      CarbonSavings(annualEnergy),

		ElectricityRate: in.ElectricityRate,
	}
}

func netMetering(annualEnergy, rate, cost float64) NetMetering {
	selfConsumed := round1(annualEnergy * SelfConsumptionShare)
	exported := round1(annualEnergy * (1 - SelfConsumptionShare))
	selfSavings := round2(selfConsumed * rate)
	exportCredit := round2(exported * rate * ExportTariffShare)
	benefit := round2(selfSavings + exportCredit)

	return NetMetering{
		SelfConsumedKWh: selfConsumed,
		ExportedKWh:     exported,
		SelfSavings:     selfSavings,
		ExportCredit:    exportCredit,
		AnnualBenefit:   benefit,
		PaybackYears:    paybackYears(cost, benefit),
	}
}

// paybackYears divides cost by annual savings, returning +Inf when the
// savings cannot repay anything.
func paybackYears(cost, annualSavings float64) Payback {
	if annualSavings <= 0 {
		return Payback(math.Inf(1))
	}
	return Payback(cost / annualSavings)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
