package posture

import "sort"

// CurvePoint is one breakpoint of a calibration curve.
type CurvePoint struct {
	Breakpoint float64 `yaml:"breakpoint" json:"breakpoint"`
	Score      float64 `yaml:"score" json:"score"`
}

// Curve maps a raw metric to a 0-100 score via piecewise-linear
// interpolation. Points are ordered by strictly increasing breakpoint;
// Score re-sorts defensively in case a hot-swapped curve arrives unsorted.
type Curve []CurvePoint

// Normalized returns a copy of the curve sorted by breakpoint.
func (c Curve) Normalized() Curve {
	out := make(Curve, len(c))
	copy(out, c)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Breakpoint < out[j].Breakpoint
	})
	return out
}

// Score maps x onto the curve. Values outside the breakpoint range clamp
// to the first/last score; values between breakpoints interpolate linearly.
// An empty curve scores 0.
func (c Curve) Score(x float64) float64 {
	if len(c) == 0 {
		return 0
	}

	pts := c
	if !sort.SliceIsSorted(pts, func(i, j int) bool {
		return pts[i].Breakpoint < pts[j].Breakpoint
	}) {
		pts = c.Normalized()
	}

	if x <= pts[0].Breakpoint {
		return pts[0].Score
	}
	last := pts[len(pts)-1]
	if x >= last.Breakpoint {
		return last.Score
	}

	for i := 1; i < len(pts); i++ {
		if x <= pts[i].Breakpoint {
			p0, p1 := pts[i-1], pts[i]
			t := (x - p0.Breakpoint) / (p1.Breakpoint - p0.Breakpoint)
			return p0.Score + t*(p1.Score-p0.Score)
		}
	}
	return last.Score
}
