package scene

import "testing"

func TestNeighborhoodDepthOne(t *testing.T) {
	b := newTestBuilder(t, DefaultLimits())

	s, err := b.Build(Request{Mode: ModeNeighborhood, NoteID: 1, RelatedLimit: 2, Depth: 1})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// 1. Exactly the top-2 outbound links survive the per-note cap, plus the
	// single inbound link.
	kinds := nodeKinds(s)
	if len(s.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %v", s.Nodes)
	}
	if kinds[1] != KindSelected || kinds[2] != KindOutbound || kinds[3] != KindOutbound || kinds[4] != KindInbound {
		t.Errorf("unexpected node kinds: %v", kinds)
	}
	if _, ok := kinds[5]; ok {
		t.Error("link 1 -> 5 (0.3) must be cut by related_limit=2")
	}

	// 2. Edges carry their raw scores.
	if len(s.Edges) != 3 {
		t.Fatalf("expected 3 edges, got %v", s.Edges)
	}
	if !hasEdge(s, 1, 2, EdgeRelated) || !hasEdge(s, 1, 3, EdgeRelated) || !hasEdge(s, 4, 1, EdgeRelated) {
		t.Errorf("missing expected edges: %v", s.Edges)
	}

	// 3. The score domain spans every observed edge.
	if s.ScoreDomain == nil || s.ScoreDomain.Min != 0.4 || s.ScoreDomain.Max != 0.9 {
		t.Errorf("unexpected score domain: %+v", s.ScoreDomain)
	}
}

func TestNeighborhoodDepthTwo(t *testing.T) {
	b := newTestBuilder(t, DefaultLimits())

	s, err := b.Build(Request{Mode: ModeNeighborhood, NoteID: 1, RelatedLimit: 2, Depth: 2})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// The second hop reaches 6 through 2 and marks it expanded; the selected
	// note keeps its role even when rediscovered as an inbound source.
	kinds := nodeKinds(s)
	if kinds[6] != KindExpanded {
		t.Errorf("note 6 should be expanded at depth 2, got %q", kinds[6])
	}
	if kinds[1] != KindSelected {
		t.Errorf("selected role must never be downgraded, got %q", kinds[1])
	}
	if !hasEdge(s, 2, 6, EdgeRelated) {
		t.Errorf("missing second-hop edge 2 -> 6: %v", s.Edges)
	}
}

func TestNeighborhoodUnknownNote(t *testing.T) {
	b := newTestBuilder(t, DefaultLimits())

	s, err := b.Build(Request{Mode: ModeNeighborhood, NoteID: 12345, RelatedLimit: 2, Depth: 1})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(s.Nodes) != 0 || len(s.Edges) != 0 || s.ScoreDomain != nil {
		t.Errorf("unknown selection must yield an empty scene, got %+v", s)
	}
}

func TestNeighborhoodThreshold(t *testing.T) {
	b := newTestBuilder(t, DefaultLimits())

	s, err := b.Build(Request{
		Mode: ModeNeighborhood, NoteID: 1,
		RelatedLimit: 2, Depth: 1, MinScoreNormalized: 1,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// 1. A full-strength threshold maps to the raw maximum; only the top
	// edge survives.
	if s.ThresholdRaw != 0.9 {
		t.Errorf("threshold = %v, want 0.9", s.ThresholdRaw)
	}
	if len(s.Edges) != 1 || !hasEdge(s, 1, 2, EdgeRelated) {
		t.Errorf("only the 0.9 edge should survive, got %v", s.Edges)
	}

	// 2. ScoreValues still records the filtered-out scores, and nodes are
	// not removed by the threshold.
	if len(s.ScoreValues) != 3 {
		t.Errorf("ScoreValues must include excluded edges, got %v", s.ScoreValues)
	}
	if len(s.Nodes) != 4 {
		t.Errorf("threshold must not drop nodes, got %v", s.Nodes)
	}
}

func TestNeighborhoodLongRange(t *testing.T) {
	b := newTestBuilder(t, DefaultLimits())

	s, err := b.Build(Request{
		Mode: ModeNeighborhood, NoteID: 1,
		RelatedLimit: 2, Depth: 1,
		IncludeLongRange: true, LongRangeTopK: 10,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	kinds := nodeKinds(s)
	if kinds[5] != KindLongRange {
		t.Errorf("note 5 should join via its long-range link, got %q", kinds[5])
	}
	if !hasEdge(s, 1, 5, EdgeLongRange) {
		t.Errorf("missing long-range edge 1 -> 5: %v", s.Edges)
	}
}

func TestNeighborhoodNodeCap(t *testing.T) {
	limits := DefaultLimits()
	limits.NeighborhoodNodeCap = 2
	b := newTestBuilder(t, limits)

	s, err := b.Build(Request{Mode: ModeNeighborhood, NoteID: 1, RelatedLimit: 2, Depth: 1})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Truncation keeps discovery order and drops edges touching cut nodes.
	if len(s.Nodes) != 2 || s.Nodes[0].ID != 1 || s.Nodes[1].ID != 2 {
		t.Fatalf("unexpected capped node set: %v", s.Nodes)
	}
	if len(s.Edges) != 1 || !hasEdge(s, 1, 2, EdgeRelated) {
		t.Errorf("edges touching cut nodes must be dropped, got %v", s.Edges)
	}
}
