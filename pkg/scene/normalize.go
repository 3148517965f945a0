package scene

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Two normalization strategies coexist on purpose. Thresholds use a linear
// mapping over the true min/max so the user-facing cutoff feels intuitive;
// visual intensity uses a quantile distribution so a few extreme values
// cannot saturate the encoding.

// collapsedSpan is the width below which a span counts as degenerate.
const collapsedSpan = 1e-9

// Domain is the empirical score range used for linear threshold mapping.
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ComputeDomain returns the min/max of the scores, or nil for an empty set.
func ComputeDomain(scores []float64) *Domain {
	if len(scores) == 0 {
		return nil
	}
	d := &Domain{Min: scores[0], Max: scores[0]}
	for _, s := range scores[1:] {
		d.Min = math.Min(d.Min, s)
		d.Max = math.Max(d.Max, s)
	}
	return d
}

// Distribution summarizes a value set for quantile-based normalization.
// When Log is set, values were compressed with log1p before the quantiles
// were taken, and NormalizeByDistribution applies the same compression.
type Distribution struct {
	Min float64
	Max float64
	P10 float64
	P90 float64
	Log bool
}

// ComputeDistribution computes min/max and the linear-interpolated rank
// quantiles p10/p90 of the values. Returns nil for an empty set.
func ComputeDistribution(values []float64, useLog bool) *Distribution {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	if useLog {
		for i, v := range sorted {
			sorted[i] = math.Log1p(v)
		}
	}
	sort.Float64s(sorted)

	return &Distribution{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		P10: stat.Quantile(0.10, stat.LinInterp, sorted, nil),
		P90: stat.Quantile(0.90, stat.LinInterp, sorted, nil),
		Log: useLog,
	}
}

// NormalizeByDistribution maps a value into [0,1], primarily over the
// p10..p90 span, falling back to the full min..max span when that span
// collapses, and finally to 1 when the whole distribution is one repeated
// value.
func NormalizeByDistribution(value float64, d *Distribution) float64 {
	if d == nil {
		return 1
	}
	if d.Log {
		value = math.Log1p(value)
	}
	if span := d.P90 - d.P10; span > collapsedSpan {
		return clamp01((value - d.P10) / span)
	}
	if span := d.Max - d.Min; span > collapsedSpan {
		return clamp01((value - d.Min) / span)
	}
	return 1
}

// NormalizedToRaw linearly maps a [0,1] threshold onto the domain. A nil or
// degenerate domain yields 0: a defined fallback, never a failure.
func NormalizedToRaw(normalized float64, d *Domain) float64 {
	if d == nil || d.Max-d.Min <= collapsedSpan {
		return 0
	}
	return d.Min + clamp01(normalized)*(d.Max-d.Min)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
