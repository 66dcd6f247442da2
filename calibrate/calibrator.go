// Package calibrate maintains the adaptive regional bias model. Final
// scores are fed back as observations into 5°x5° geographic cells; the
// deviation of a cell's running average from the global running average
// becomes the calibration delta consulted on the next scoring pass for
// that region.
package calibrate

import (
	"math"
	"sync"
)

const (
	// BucketDegrees is the cell edge length in degrees, floor-aligned on
	// both axes.
	BucketDegrees = 5.0

	// Alpha is the EMA smoothing factor for both cell and global averages.
	Alpha = 0.12

	// MinCellSamples gates the delta: cells with fewer observations stay
	// neutral.
	MinCellSamples = 5

	// MaxDelta bounds the reported deviation in score points.
	MaxDelta = 10.0

	// MinDeltaMagnitude is the dead band. Deviations inside it are noise,
	// not regional bias.
	MinDeltaMagnitude = 1.0

	// GlobalPrior seeds the global average before any observation. A
	// neutral mid-range prior lets early cells diverge from it instead of
	// defining it.
	GlobalPrior = 65.0
)

// Observation is one scored site fed back into the model.
type Observation struct {
	Lat   float64
	Lng   float64
	Score float64
}

// Stats is a point-in-time snapshot of the model, served on the status
// endpoint.
type Stats struct {
	Warmed       bool    `json:"warmed"`
	Cells        int     `json:"cells"`
	Observations int64   `json:"observations"`
	GlobalAvg    float64 `json:"global_avg"`
}

type bucket struct {
	lat int
	lng int
}

type cell struct {
	avg     float64
	samples int
}

// Calibrator accumulates score observations per geographic cell and
// reports the regional deviation. It is safe for concurrent use. The
// zero value is not usable; call New.
type Calibrator struct {
	mu     sync.RWMutex
	cells  map[bucket]*cell
	global float64
	count  int64
	warmed bool
}

// New creates an empty calibrator. Delta stays zero until WarmUp is
// called, so a freshly started process never adjusts scores from an
// unseeded model.
func New() *Calibrator {
	return &Calibrator{
		cells:  make(map[bucket]*cell),
		global: GlobalPrior,
	}
}

func bucketFor(lat, lng float64) bucket {
	return bucket{
		lat: int(math.Floor(lat/BucketDegrees) * BucketDegrees),
		lng: int(math.Floor(lng/BucketDegrees) * BucketDegrees),
	}
}

// Observe feeds one final score into the cell containing (lat, lng) and
// into the global average.
func (c *Calibrator) Observe(lat, lng, score float64) {
	b := bucketFor(lat, lng)

	c.mu.Lock()
	defer c.mu.Unlock()

	cl, ok := c.cells[b]
	if !ok {
		// First observation defines the cell average.
		cl = &cell{avg: score}
		c.cells[b] = cl
	} else {
		cl.avg += Alpha * (score - cl.avg)
	}
	cl.samples++

	c.global += Alpha * (score - c.global)
	c.count++
}

// Delta returns the learned deviation of the cell containing (lat, lng)
// from the global average, in score points, clamped to ±MaxDelta.
// It returns 0 before warm-up, for cells with fewer than MinCellSamples
// observations, and for deviations inside the dead band.
func (c *Calibrator) Delta(lat, lng float64) float64 {
	b := bucketFor(lat, lng)

	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.warmed {
		return 0
	}
	cl, ok := c.cells[b]
	if !ok || cl.samples < MinCellSamples {
		return 0
	}
	d := cl.avg - c.global
	if math.Abs(d) < MinDeltaMagnitude {
		return 0
	}
	return math.Max(-MaxDelta, math.Min(MaxDelta, d))
}

// WarmUp replays historical observations, oldest first, and opens the
// delta gate. Calling it with no observations still opens the gate; a
// deployment without history serves neutral deltas until live traffic
// accumulates.
func (c *Calibrator) WarmUp(observations []Observation) {
	for _, o := range observations {
		c.Observe(o.Lat, o.Lng, o.Score)
	}

	c.mu.Lock()
	c.warmed = true
	c.mu.Unlock()
}

// Warmed reports whether the delta gate is open.
func (c *Calibrator) Warmed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.warmed
}

// Snapshot returns the current model statistics.
func (c *Calibrator) Snapshot() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Warmed:       c.warmed,
		Cells:        len(c.cells),
		Observations: c.count,
		GlobalAvg:    math.Round(c.global*100) / 100,
	}
}
