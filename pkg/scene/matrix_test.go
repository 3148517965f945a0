package scene

import (
	"math"
	"testing"
)

func cellFor(s *Scene, a, b int) *MatrixCell {
	for i := range s.Cells {
		if s.Cells[i].ClusterA == a && s.Cells[i].ClusterB == b {
			return &s.Cells[i]
		}
	}
	return nil
}

func TestClusterMatrixAggregation(t *testing.T) {
	b := newTestBuilder(t, DefaultLimits())

	s, err := b.Build(Request{Mode: ModeClusterMatrix})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Related edges by cluster pair:
	//   (0,0): 1->2 (0.9)
	//   (0,1): 1->3 (0.7), 1->4 (0.5), 4->1 (0.4)
	//   (0,2): 1->5 (0.3), 2->6 (0.6)
	if len(s.Cells) != 3 {
		t.Fatalf("expected 3 cells, got %v", s.Cells)
	}

	self := cellFor(s, 0, 0)
	if self == nil || self.Count != 1 || self.Max != 0.9 {
		t.Errorf("unexpected self-pair cell: %+v", self)
	}

	c01 := cellFor(s, 0, 1)
	if c01 == nil {
		t.Fatalf("missing (0,1) cell: %v", s.Cells)
	}
	if c01.Count != 3 || math.Abs(c01.Sum-1.6) > 1e-12 || c01.Max != 0.7 {
		t.Errorf("unexpected (0,1) aggregates: %+v", c01)
	}
	if math.Abs(c01.Mean-1.6/3) > 1e-12 {
		t.Errorf("mean = %v, want %v", c01.Mean, 1.6/3)
	}

	c02 := cellFor(s, 0, 2)
	if c02 == nil || c02.Count != 2 || c02.Max != 0.6 {
		t.Errorf("unexpected (0,2) aggregates: %+v", c02)
	}

	// Pairs are unordered: the 4 -> 1 edge lands in (0,1), never (1,0).
	for _, cell := range s.Cells {
		if cell.ClusterA > cell.ClusterB {
			t.Errorf("cell pair out of canonical order: %+v", cell)
		}
	}

	// Intensity is a bounded blend.
	for _, cell := range s.Cells {
		if cell.Intensity < 0 || cell.Intensity > 1 {
			t.Errorf("intensity out of [0,1]: %+v", cell)
		}
	}

	// Matrix scenes carry cells only.
	if len(s.Nodes) != 0 || len(s.Edges) != 0 {
		t.Errorf("matrix mode must not emit nodes or edges: %+v", s)
	}
}

func TestClusterMatrixLongRange(t *testing.T) {
	b := newTestBuilder(t, DefaultLimits())

	s, err := b.Build(Request{Mode: ModeClusterMatrix, IncludeLongRange: true, LongRangeTopK: 10})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// The 3 -- 6 link (clusters 1 and 2) adds a cell no related edge covers.
	c12 := cellFor(s, 1, 2)
	if c12 == nil || c12.Count != 1 || c12.Max != 0.85 {
		t.Errorf("long-range links must feed the matrix, got %+v", c12)
	}

	// 2 -- 4 (0.75) joins the (0,1) accumulator.
	c01 := cellFor(s, 0, 1)
	if c01 == nil || c01.Count != 4 || c01.Max != 0.75 {
		t.Errorf("unexpected (0,1) aggregates with long range: %+v", c01)
	}
}

func TestClusterMatrixThreshold(t *testing.T) {
	b := newTestBuilder(t, DefaultLimits())

	s, err := b.Build(Request{Mode: ModeClusterMatrix, MinScoreNormalized: 1})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// The threshold is taken over per-pair maxima; at full strength only the
	// strongest pair stays visible.
	if s.ThresholdRaw != 0.9 {
		t.Errorf("threshold = %v, want 0.9", s.ThresholdRaw)
	}
	if len(s.Cells) != 1 || s.Cells[0].ClusterA != 0 || s.Cells[0].ClusterB != 0 {
		t.Errorf("only the (0,0) cell should survive, got %v", s.Cells)
	}
	if len(s.ScoreValues) != 3 {
		t.Errorf("ScoreValues must keep excluded pair maxima, got %v", s.ScoreValues)
	}
}

func TestClusterMatrixNoLabels(t *testing.T) {
	store := newTestBuilder(t, DefaultLimits()).store
	if err := store.Load([]byte(`{"notes": [
		{"note_id": 1, "related_note_links": [[2, 0.5]]},
		{"note_id": 2}
	]}`)); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	b := NewBuilder(store, DefaultLimits())

	s, err := b.Build(Request{Mode: ModeClusterMatrix})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Without cluster assignments nothing can be aggregated.
	if len(s.Cells) != 0 || s.ScoreDomain != nil {
		t.Errorf("expected an empty matrix, got %+v", s)
	}
}
