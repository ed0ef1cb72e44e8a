package posture

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// window is a time-bounded buffer of samples ordered by ascending
// timestamp. Stale samples are evicted from the front before every read.
type window struct {
	maxAge  time.Duration
	samples []Sample
}

func (w *window) record(s Sample) {
	w.samples = append(w.samples, s)
}

func (w *window) evict(now time.Time) {
	for len(w.samples) > 0 && now.Sub(w.samples[0].Time) > w.maxAge {
		w.samples = w.samples[1:]
	}
}

// average returns the mean score of a component across the window, with 0
// as the explicit no-data sentinel for an empty window.
func (w *window) average(c Component, now time.Time) float64 {
	w.evict(now)
	if len(w.samples) == 0 {
		return 0
	}
	xs := make([]float64, len(w.samples))
	for i, s := range w.samples {
		xs[i] = s.Scores.Get(c)
	}
	return stat.Mean(xs, nil)
}

func (w *window) len(now time.Time) int {
	w.evict(now)
	return len(w.samples)
}

// Aggregator maintains the two sample windows the pipeline reads from:
// a short window for telemetry and a long window for alert evaluation.
// It is owned exclusively by the frame loop and is not safe for
// concurrent use.
type Aggregator struct {
	short window
	long  window
}

// NewAggregator creates an aggregator with the given window ages.
func NewAggregator(shortAge, longAge time.Duration) *Aggregator {
	return &Aggregator{
		short: window{maxAge: shortAge},
		long:  window{maxAge: longAge},
	}
}

// Record admits a sample into both windows. Samples from frames whose
// placement was not classified good are silently dropped; they count as
// neither good nor bad posture.
func (a *Aggregator) Record(s Sample) {
	if s.Placement != PlacementGood {
		return
	}
	a.short.record(s)
	a.long.record(s)
}

// ShortAverages returns per-component means over the short window.
func (a *Aggregator) ShortAverages(now time.Time) Scores {
	return Scores{
		Neck:      a.short.average(ComponentNeck, now),
		Torso:     a.short.average(ComponentTorso, now),
		Shoulders: a.short.average(ComponentShoulders, now),
	}
}

// LongAverages returns per-component means over the long window.
func (a *Aggregator) LongAverages(now time.Time) Scores {
	return Scores{
		Neck:      a.long.average(ComponentNeck, now),
		Torso:     a.long.average(ComponentTorso, now),
		Shoulders: a.long.average(ComponentShoulders, now),
	}
}

// ShortLen returns the number of live samples in the short window.
func (a *Aggregator) ShortLen(now time.Time) int {
	return a.short.len(now)
}

// LongLen returns the number of live samples in the long window.
func (a *Aggregator) LongLen(now time.Time) int {
	return a.long.len(now)
}
