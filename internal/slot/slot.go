package slot

import (
	"math"
	"time"

	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/models"
	"github.com/julianstephens/daylit-planner/internal/utils"
)

// bandFalloff is how far from its band a chunk can drift before band proximity reaches zero
const bandFalloff = 12 * time.Hour

// Request describes the item being placed
type Request struct {
	Remaining time.Duration
	MinChunk  time.Duration
	MaxChunk  time.Duration
	Band      constants.TimeBand
	// Anchor replaces the band for flexible events: closer to the original start is better
	Anchor *time.Time
	// Window is the item's whole search window, used for the earliness term
	Window       models.Interval
	MinUsefulGap time.Duration
}

// Candidate is a concrete proposal inside one free interval
type Candidate struct {
	models.Interval
	Fit   float64
	Band  float64
	Early float64
	Score float64
}

// Optimizer proposes grid-aligned chunks and scores them
type Optimizer struct {
	weights models.Weights
	grid    time.Duration
}

func NewOptimizer(weights models.Weights) *Optimizer {
	return &Optimizer{weights: weights, grid: constants.SlotGrid}
}

// ChunkLength picks the chunk duration for the given free length.
// The full remainder is preferred; otherwise the chunk is shortened so the leftover stays placeable.
func (o *Optimizer) ChunkLength(available time.Duration, req Request) (time.Duration, bool) {
	d := req.Remaining
	if req.MaxChunk > 0 && req.MaxChunk < d {
		d = req.MaxChunk
	}
	if available < d {
		d = available
	}
	if rest := req.Remaining - d; rest > 0 && rest < req.MinChunk {
		d = req.Remaining - req.MinChunk
	}
	if d <= 0 || d < req.MinChunk {
		return 0, false
	}
	return d, true
}

// Best returns the highest scoring chunk inside iv, or false when every option breaks the minimum chunk
func (o *Optimizer) Best(iv models.Interval, req Request) (Candidate, bool) {
	earliest := utils.RoundUpToGrid(iv.Start, o.grid)
	if !earliest.Before(iv.End) {
		return Candidate{}, false
	}
	d, ok := o.ChunkLength(iv.End.Sub(earliest), req)
	if !ok {
		return Candidate{}, false
	}

	latest := utils.RoundDownToGrid(iv.End.Add(-d), o.grid)
	if latest.Before(earliest) {
		latest = earliest
	}

	starts := []time.Time{earliest, latest}
	if target, ok := o.target(earliest, req); ok {
		t := utils.RoundUpToGrid(target, o.grid)
		starts = append(starts, utils.MaxTime(earliest, utils.MinTime(t, latest)))
	}

	var best Candidate
	found := false
	for _, s := range starts {
		c := o.Evaluate(iv, models.Interval{Start: s, End: s.Add(d)}, req)
		if !found || c.Score > best.Score || (c.Score == best.Score && c.Start.Before(best.Start)) {
			best = c
			found = true
		}
	}
	return best, found
}

// Evaluate scores a chunk placed inside the free interval iv
func (o *Optimizer) Evaluate(iv, chunk models.Interval, req Request) Candidate {
	c := Candidate{
		Interval: chunk,
		Fit:      fit(iv, chunk, req.MinUsefulGap),
		Band:     o.bandProximity(chunk, req),
		Early:    earliness(chunk, req.Window, iv),
	}
	c.Score = o.weights.SlotFit*c.Fit + o.weights.SlotBand*c.Band + o.weights.SlotEarly*c.Early
	return c
}

// fit is 1 when the chunk leaves no unusable sliver, dropping by half for each one it leaves
func fit(iv, chunk models.Interval, gap time.Duration) float64 {
	score := 1.0
	for _, rest := range []time.Duration{chunk.Start.Sub(iv.Start), iv.End.Sub(chunk.End)} {
		if rest > 0 && rest < gap {
			score -= 0.5
		}
	}
	return score
}

func (o *Optimizer) target(day time.Time, req Request) (time.Time, bool) {
	if req.Anchor != nil {
		return *req.Anchor, true
	}
	bounds, ok := constants.Bands[req.Band]
	if !ok {
		return time.Time{}, false
	}
	return utils.Midnight(day).Add(bounds[0]), true
}

func (o *Optimizer) bandProximity(chunk models.Interval, req Request) float64 {
	var dist time.Duration
	switch {
	case req.Anchor != nil:
		dist = absDuration(chunk.Start.Sub(*req.Anchor))
	default:
		bounds, ok := constants.Bands[req.Band]
		if !ok {
			return 0
		}
		midnight := utils.Midnight(chunk.Start)
		band := models.Interval{Start: midnight.Add(bounds[0]), End: midnight.Add(bounds[1])}
		if chunk.Start.Before(band.Start) {
			dist += band.Start.Sub(chunk.Start)
		}
		if chunk.End.After(band.End) {
			dist += chunk.End.Sub(band.End)
		}
	}
	return math.Max(0, 1-float64(dist)/float64(bandFalloff))
}

// earliness is 1 at the start of the search window and 0 at its end
func earliness(chunk, window, fallback models.Interval) float64 {
	if window.Empty() {
		window = fallback
	}
	span := window.Duration()
	if span <= 0 {
		return 0
	}
	pos := float64(chunk.Start.Sub(window.Start)) / float64(span)
	return math.Max(0, math.Min(1, 1-pos))
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
