package meteo

import "math"

// Estimate returns latitude-band climatological estimates for every
// bundle field, used when the forecast provider is unreachable. The
// bands follow the planetary circulation belts: calm humid tropics,
// dry subtropical ridge, windy cloudy westerlies, hostile poles.
func Estimate(lat float64) *Averages {
	return &Averages{
		WindSpeedMS:   estimateWind(lat),
		TemperatureC:  estimateTemperature(lat),
		HumidityPct:   estimateHumidity(lat),
		CloudCoverPct: estimateCloudCover(lat),
	}
}

func estimateWind(lat float64) float64 {
	switch a := math.Abs(lat); {
	case a <= 15:
		return 3.2
	case a <= 25:
		return 4.0
	case a <= 35:
		return 4.8
	case a <= 50:
		return 5.5
	case a <= 65:
		return 7.0
	default:
		return 8.5
	}
}

func estimateTemperature(lat float64) float64 {
	switch a := math.Abs(lat); {
	case a <= 10:
		return 28.0
	case a <= 20:
		return 26.0
	case a <= 30:
		return 24.0
	case a <= 40:
		return 18.0
	case a <= 50:
		return 10.0
	case a <= 60:
		return 4.0
	default:
		return -5.0
	}
}

func estimateHumidity(lat float64) float64 {
	switch a := math.Abs(lat); {
	case a <= 10:
		return 80.0
	case a <= 20:
		return 65.0
	case a <= 30:
		return 48.0
	case a <= 40:
		return 55.0
	case a <= 55:
		return 70.0
	default:
		return 75.0
	}
}

func estimateCloudCover(lat float64) float64 {
	switch a := math.Abs(lat); {
	case a <= 10:
		return 55.0
	case a <= 20:
		return 35.0
	case a <= 30:
		return 30.0
	case a <= 40:
		return 45.0
	case a <= 55:
		return 65.0
	default:
		return 75.0
	}
}
