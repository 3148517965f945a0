package scene

import (
	"math"
	"sort"

	"github.com/mseren/cortexviz/pkg/smg"
)

// Intensity blend weights and compression exponent. Count and mean are
// quantile-normalized independently, raised to the 0.8 power to keep
// outliers from saturating the visual encoding, then blended.
const (
	matrixCountWeight = 0.35
	matrixMeanWeight  = 0.65
	matrixGamma       = 0.8
)

type pairKey struct {
	a, b int // a <= b
}

// buildClusterMatrix aggregates every related edge, and optionally every
// top-K long-range edge, into unordered cluster-pair statistics. Self-pairs
// are valid and meaningful.
func (b *Builder) buildClusterMatrix(req Request) *Scene {
	type cellAcc struct {
		count int
		sum   float64
		max   float64
	}
	cells := make(map[pairKey]*cellAcc)

	accumulate := func(srcID, dstID int, score float64) {
		ca, okA := b.store.ClusterOf(srcID)
		cb, okB := b.store.ClusterOf(dstID)
		if !okA || !okB {
			return
		}
		if ca > cb {
			ca, cb = cb, ca
		}
		key := pairKey{a: ca, b: cb}
		acc := cells[key]
		if acc == nil {
			acc = &cellAcc{max: math.Inf(-1)}
			cells[key] = acc
		}
		acc.count++
		acc.sum += score
		acc.max = math.Max(acc.max, score)
	}

	b.store.AscendNotes(func(n *smg.Note) bool {
		for _, link := range n.Related {
			if _, ok := b.store.NoteByID(link.Target); !ok {
				continue
			}
			accumulate(n.ID, link.Target, link.Score)
		}
		return true
	})

	if req.IncludeLongRange {
		for _, l := range b.store.LongRangeTop(req.LongRangeTopK) {
			accumulate(l.A, l.B, l.Score)
		}
	}

	keys := make([]pairKey, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})

	// The cell threshold is derived from the pair-max distribution: linear
	// mapping over the empirical range of per-pair maxima.
	s := &Scene{}
	for _, k := range keys {
		s.ScoreValues = append(s.ScoreValues, cells[k].max)
	}
	s.ScoreDomain = ComputeDomain(s.ScoreValues)
	s.ThresholdRaw = NormalizedToRaw(req.MinScoreNormalized, s.ScoreDomain)

	var visible []pairKey
	for _, k := range keys {
		if cells[k].max < s.ThresholdRaw {
			continue
		}
		visible = append(visible, k)
	}

	counts := make([]float64, 0, len(visible))
	means := make([]float64, 0, len(visible))
	for _, k := range visible {
		acc := cells[k]
		counts = append(counts, float64(acc.count))
		means = append(means, acc.sum/float64(acc.count))
	}
	countDist := ComputeDistribution(counts, true)
	meanDist := ComputeDistribution(means, false)

	for i, k := range visible {
		acc := cells[k]
		mean := means[i]
		nc := math.Pow(NormalizeByDistribution(float64(acc.count), countDist), matrixGamma)
		nm := math.Pow(NormalizeByDistribution(mean, meanDist), matrixGamma)
		s.Cells = append(s.Cells, MatrixCell{
			ClusterA:  k.a,
			ClusterB:  k.b,
			Count:     acc.count,
			Sum:       acc.sum,
			Max:       acc.max,
			Mean:      mean,
			Intensity: matrixCountWeight*nc + matrixMeanWeight*nm,
		})
	}
	return s
}
