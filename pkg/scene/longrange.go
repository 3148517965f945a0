package scene

// buildLongRange extracts the long-range-only view: the top-K global
// long-range links by descending score, threshold-filtered, exposing exactly
// the notes touched by surviving edges. The selected note, if among them, is
// flagged distinctly.
func (b *Builder) buildLongRange(req Request) *Scene {
	top := b.store.LongRangeTop(req.LongRangeTopK)

	s := &Scene{}
	for _, l := range top {
		s.ScoreValues = append(s.ScoreValues, l.Score)
	}
	s.ScoreDomain = ComputeDomain(s.ScoreValues)
	s.ThresholdRaw = NormalizedToRaw(req.MinScoreNormalized, s.ScoreDomain)

	touched := newNodeSet()
	for _, l := range top {
		if l.Score < s.ThresholdRaw {
			continue
		}
		s.Edges = append(s.Edges, SceneEdge{Source: l.A, Target: l.B, Kind: EdgeLongRange, Score: l.Score})
		touched.add(l.A, KindLongRange)
		touched.add(l.B, KindLongRange)
	}

	for _, id := range touched.order {
		kind := touched.kind[id]
		if id == req.NoteID {
			kind = KindSelected
		}
		s.Nodes = append(s.Nodes, SceneNode{ID: id, Kind: kind})
	}
	return s
}
