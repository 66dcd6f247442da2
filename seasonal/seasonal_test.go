package seasonal

import (
	"math"
	"reflect"
	"testing"
)

func TestModelIrradiance_Bounds(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
	}{
		{"equator", 0},
		{"rajasthan", 26.92},
		{"central europe", 50},
		{"tromso", 69},
		{"southern chile", -45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monthly := ModelIrradiance(tt.lat)
			for m, v := range monthly {
				if v < 0.5 {
					t.Errorf("Month %d below floor: %f", m, v)
				}
				if v > 10 {
					t.Errorf("Month %d implausibly high: %f", m, v)
				}
			}
		})
	}
}

func TestModelIrradiance_HemisphereInversion(t *testing.T) {
	north := ModelIrradiance(40)
	south := ModelIrradiance(-40)

	// April (index 3) is the northern seasonal peak of the model; the
	// southern hemisphere must be in its trough then.
	if north[3] <= south[3] {
		t.Errorf("Expected northern April above southern April, got %f vs %f", north[3], south[3])
	}
	if north[9] >= south[9] {
		t.Errorf("Expected northern October below southern October, got %f vs %f", north[9], south[9])
	}
}

func TestSanitize_ReplacesFillValues(t *testing.T) {
	monthly := make([]float64, 12)
	for m := range monthly {
		monthly[m] = 5.0
	}
	monthly[2] = -999.0
	monthly[7] = -1.0

	out := Sanitize(monthly, 26.92)
	model := ModelIrradiance(26.92)

	if out[2] != model[2] {
		t.Errorf("Expected fill month replaced by model %f, got %f", model[2], out[2])
	}
	if out[7] != model[7] {
		t.Errorf("Expected negative month replaced by model %f, got %f", model[7], out[7])
	}
	if out[0] != 5.0 {
		t.Errorf("Expected valid month preserved, got %f", out[0])
	}
}

func TestSanitize_NilUsesModel(t *testing.T) {
	if Sanitize(nil, 30) != ModelIrradiance(30) {
		t.Error("Expected nil input to yield the pure model")
	}
}

func TestAnalyze_Structure(t *testing.T) {
	a := Analyze(26.92, 70.90, 20, nil)

	if len(a.Monthly) != 12 {
		t.Fatalf("Expected 12 months, got %d", len(a.Monthly))
	}
	if len(a.DailyProfile) != 24 {
		t.Fatalf("Expected 24 profile hours, got %d", len(a.DailyProfile))
	}
	if a.StabilityScore < 0 || a.StabilityScore > 1 {
		t.Errorf("Stability out of range: %f", a.StabilityScore)
	}
	if a.PeakMonth == a.LowMonth {
		t.Errorf("Peak and low month both %s", a.PeakMonth)
	}

	var total float64
	for _, m := range a.Monthly {
		if m.GenerationKWh < 0 {
			t.Errorf("Negative generation in %s", m.Month)
		}
		total += m.GenerationKWh
	}
	if math.Abs(total-a.AnnualGenerationKWh) > 1 {
		t.Errorf("Annual %f does not match monthly sum %f", a.AnnualGenerationKWh, total)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := Analyze(26.92, 70.90, 20, nil)
	b := Analyze(26.92, 70.90, 20, nil)

	if !reflect.DeepEqual(a, b) {
		t.Error("Repeated analysis of the same site differs")
	}
}

func TestAnalyze_DayLengthSeasonality(t *testing.T) {
	a := Analyze(50, 8, 10, nil)

	var june, december MonthStats
	for _, m := range a.Monthly {
		switch m.Month {
		case "June":
			june = m
		case "December":
			december = m
		}
	}

	if june.DayLengthHours <= december.DayLengthHours {
		t.Errorf("Expected June day longer than December at 50N, got %f vs %f",
			june.DayLengthHours, december.DayLengthHours)
	}
	if june.NoonAltitudeDeg <= december.NoonAltitudeDeg {
		t.Errorf("Expected June noon sun higher than December at 50N, got %f vs %f",
			june.NoonAltitudeDeg, december.NoonAltitudeDeg)
	}
}

func TestDailyProfile_IntegratesToDailyEnergy(t *testing.T) {
	const (
		plantKW    = 20.0
		irradiance = 6.5
	)

	profile := DailyProfile(26.92, 70.90, plantKW, irradiance, 4)

	var total float64
	for _, p := range profile {
		if p.GenerationKW < 0 {
			t.Errorf("Negative generation at hour %d", p.Hour)
		}
		total += p.GenerationKW
	}

	want := plantKW * irradiance * 0.80
	if math.Abs(total-want) > want*0.01 {
		t.Errorf("Profile integrates to %f, want ~%f", total, want)
	}
}

func TestDailyProfile_NightIsDark(t *testing.T) {
	profile := DailyProfile(26.92, 70.90, 20, 6.5, 4)

	// Hours are local solar time; 1 am must be dark, midday must not.
	if profile[1].GenerationKW != 0 {
		t.Errorf("Expected zero generation at 1am, got %f", profile[1].GenerationKW)
	}
	if profile[12].GenerationKW == 0 {
		t.Error("Expected nonzero generation at noon")
	}
}
