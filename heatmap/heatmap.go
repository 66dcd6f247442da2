// Package heatmap resolves a drawn land parcel into a micro-grid of
// scored cells. One real acquisition pass at the parcel centroid
// anchors the analysis; per-cell variation comes from a deterministic
// coordinate-seeded perturbation of the terrain-sensitive factors, so
// the same polygon always produces the same map without one provider
// call per cell.
package heatmap

import (
	"errors"
	"fmt"
	"math"

	"github.com/devskill-org/solar-site-analyzer/scoring"
)

const (
	// DefaultResolutionM is the cell edge for field-scale polygons.
	DefaultResolutionM = 100.0

	// MinResolutionM bounds the auto-scaled resolution for small plots.
	MinResolutionM = 10.0

	// MaxCells caps the grid so an oversized polygon cannot stall a
	// request.
	MaxCells = 2500
)

// ErrPolygonTooSmall means fewer than three vertices were supplied.
var ErrPolygonTooSmall = errors.New("polygon needs at least 3 vertices")

// BaseSite is the anchored analysis at the polygon centroid.
type BaseSite struct {
	SolarIrradiance float64
	ElevationM      float64
	SlopeDegrees    float64
	Score           int
}

// Input is one heatmap request.
type Input struct {
	Polygon     [][2]float64 // [lat, lng] vertices
	PlantSizeKW float64
	Base        BaseSite
}

// Cell is one scored grid cell.
type Cell struct {
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
	Score           int     `json:"score"`
	SolarIrradiance float64 `json:"solar_irradiance"`
	ElevationM      float64 `json:"elevation_m"`
	SlopeDegrees    float64 `json:"slope_degrees"`
}

// Result is the complete micro-grid analysis.
type Result struct {
	Cells             []Cell  `json:"cells"`
	Optimal           Cell    `json:"optimal"`
	OptimalReason     string  `json:"optimal_reason"`
	AvgScore          float64 `json:"avg_score"`
	Variance          float64 `json:"variance"`
	SpatialConfidence float64 `json:"spatial_confidence"`
	CellCount         int     `json:"cell_count"`
	ResolutionM       float64 `json:"resolution_m"`
	PolygonAreaM2     float64 `json:"polygon_area_m2"`
}

// Analyze grids the polygon and scores every cell against the base
// site.
func Analyze(in Input) (*Result, error) {
	if len(in.Polygon) < 3 {
		return nil, ErrPolygonTooSmall
	}

	area := PolygonAreaM2(in.Polygon)
	resolution := autoResolution(area)

	cells := gridCells(in.Polygon, resolution, in.Base)
	if len(cells) == 0 {
		// Sliver polygons can miss every grid center; score the
		// centroid so the caller always gets at least one cell.
		lat, lng := Centroid(in.Polygon)
		cells = []Cell{scoreCell(lat, lng, in.Base)}
	}

	var sum float64
	optimal := cells[0]
	for _, c := range cells {
		sum += float64(c.Score)
		if c.Score > optimal.Score {
			optimal = c
		}
	}
	avg := sum / float64(len(cells))

	var variance float64
	for _, c := range cells {
		variance += (float64(c.Score) - avg) * (float64(c.Score) - avg)
	}
	variance /= float64(len(cells))

	return &Result{
		Cells:   cells,
		Optimal: optimal,
		OptimalReason: fmt.Sprintf(
			"Best combination of irradiance (%.2f kWh/m²/day) and terrain (%.1f° slope) inside the parcel",
			optimal.SolarIrradiance, optimal.SlopeDegrees),
		AvgScore:          round1(avg),
		Variance:          round1(variance),
		SpatialConfidence: round1(math.Max(0, 100-2*math.Sqrt(variance))),
		CellCount:         len(cells),
		ResolutionM:       round1(resolution),
		PolygonAreaM2:     round1(area),
	}, nil
}

// autoResolution scales the grid to the parcel: √area/3 for small
// plots, bounded to [MinResolutionM, DefaultResolutionM].
func autoResolution(areaM2 float64) float64 {
	r := math.Sqrt(areaM2) / 3
	return math.Max(MinResolutionM, math.Min(DefaultResolutionM, r))
}

// gridCells walks the bounding box at the given resolution and scores
// every center inside the polygon.
func gridCells(polygon [][2]float64, resolutionM float64, base BaseSite) []Cell {
	minLat, maxLat := polygon[0][0], polygon[0][0]
	minLng, maxLng := polygon[0][1], polygon[0][1]
	for _, v := range polygon[1:] {
		minLat = math.Min(minLat, v[0])
		maxLat = math.Max(maxLat, v[0])
		minLng = math.Min(minLng, v[1])
		maxLng = math.Max(maxLng, v[1])
	}

	midLat := (minLat + maxLat) / 2
	dLat := resolutionM / metersPerDegree
	dLng := resolutionM / (metersPerDegree * math.Cos(midLat*math.Pi/180))

	var cells []Cell
	for lat := minLat + dLat/2; lat <= maxLat; lat += dLat {
		for lng := minLng + dLng/2; lng <= maxLng; lng += dLng {
			if !PointInPolygon(lat, lng, polygon) {
				continue
			}
			cells = append(cells, scoreCell(lat, lng, base))
			if len(cells) >= MaxCells {
				return cells
			}
		}
	}
	return cells
}

// scoreCell perturbs the terrain-sensitive features for one coordinate
// and blends the re-scored factors with the base score. Solar,
// elevation and slope carry their engine weights; the remaining half
// of the weight budget stays with the anchored base analysis.
func scoreCell(lat, lng float64, base BaseSite) Cell {
	seed := math.Mod(lat*1000, 13.7) + math.Mod(lng*1000, 7.3)

	solar := base.SolarIrradiance + math.Sin(seed*2.1)*0.15
	slope := base.SlopeDegrees + math.Abs(math.Cos(seed*3.7))*2.0
	elevation := base.ElevationM + math.Sin(seed*1.4)*15

	composite := 0.30*scoring.SubScore(scoring.FactorSolar, solar) +
		0.10*scoring.SubScore(scoring.FactorElevation, elevation) +
		0.10*scoring.SubScore(scoring.FactorSlope, slope) +
		0.50*float64(base.Score)

	return Cell{
		Lat:             round6(lat),
		Lng:             round6(lng),
		Score:           int(math.Round(math.Max(0, math.Min(100, composite)))),
		SolarIrradiance: round2(solar),
		ElevationM:      round1(elevation),
		SlopeDegrees:    round2(slope),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
