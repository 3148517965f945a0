package scene

import (
	"testing"

	"github.com/mseren/cortexviz/pkg/smg"
)

func TestLongRangeTopK(t *testing.T) {
	b := newTestBuilder(t, DefaultLimits())

	s, err := b.Build(Request{Mode: ModeLongRange, NoteID: 1, LongRangeTopK: 2})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// 1. Top-2 by descending score: 1 -- 5 (0.95), then 3 -- 6 (0.85).
	if len(s.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %v", s.Edges)
	}
	if s.Edges[0].Score != 0.95 || s.Edges[1].Score != 0.85 {
		t.Errorf("edges out of score order: %v", s.Edges)
	}

	// 2. Only touched notes appear; the selected one is flagged.
	kinds := nodeKinds(s)
	if len(s.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %v", s.Nodes)
	}
	if kinds[1] != KindSelected {
		t.Errorf("note 1 kind = %q, want selected", kinds[1])
	}
	for _, id := range []int{5, 3, 6} {
		if kinds[id] != KindLongRange {
			t.Errorf("note %d kind = %q, want long_range", id, kinds[id])
		}
	}
}

func TestLongRangeTieOrder(t *testing.T) {
	store := smg.NewStore()
	doc := `{"notes": [
		{"note_id": 1}, {"note_id": 2}, {"note_id": 3},
		{"note_id": 4}, {"note_id": 5}
	],
	"long_range_links": [[4, 5, 0.5], [1, 3, 0.5], [1, 2, 0.5]]}`
	if err := store.Load([]byte(doc)); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	b := NewBuilder(store, DefaultLimits())

	s, err := b.Build(Request{Mode: ModeLongRange, LongRangeTopK: 3})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Equal scores order by ascending id pair.
	want := [][2]int{{1, 2}, {1, 3}, {4, 5}}
	if len(s.Edges) != 3 {
		t.Fatalf("expected 3 edges, got %v", s.Edges)
	}
	for i, e := range s.Edges {
		if e.Source != want[i][0] || e.Target != want[i][1] {
			t.Errorf("edges[%d] = (%d, %d), want %v", i, e.Source, e.Target, want[i])
		}
	}
}

func TestLongRangeThreshold(t *testing.T) {
	b := newTestBuilder(t, DefaultLimits())

	s, err := b.Build(Request{Mode: ModeLongRange, LongRangeTopK: 10, MinScoreNormalized: 1})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Threshold at the raw maximum keeps only the strongest link, and the
	// node set shrinks with the surviving edges.
	if s.ThresholdRaw != 0.95 {
		t.Errorf("threshold = %v, want 0.95", s.ThresholdRaw)
	}
	if len(s.Edges) != 1 || s.Edges[0].Score != 0.95 {
		t.Errorf("only the 0.95 link should survive, got %v", s.Edges)
	}
	if len(s.Nodes) != 2 {
		t.Errorf("nodes must shrink with surviving edges, got %v", s.Nodes)
	}
	if len(s.ScoreValues) != 3 {
		t.Errorf("ScoreValues must keep excluded scores, got %v", s.ScoreValues)
	}
}

func TestLongRangeEmptyGraph(t *testing.T) {
	b := NewBuilder(smg.NewStore(), DefaultLimits())

	s, err := b.Build(Request{Mode: ModeLongRange, LongRangeTopK: 5})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(s.Nodes) != 0 || len(s.Edges) != 0 || s.ScoreDomain != nil || s.ThresholdRaw != 0 {
		t.Errorf("empty graph must yield an empty scene, got %+v", s)
	}
}
