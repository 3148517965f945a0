package scene

import (
	"errors"
	"testing"

	"github.com/mseren/cortexviz/pkg/smg"
)

// sceneTestDoc is the shared fixture graph:
//
//	clusters: 1,2 -> 0; 3,4 -> 1; 5,6 -> 2
//	1 -> 2 (0.9), 1 -> 3 (0.7), 1 -> 4 (0.5), 1 -> 5 (0.3)
//	2 -> 6 (0.6), 4 -> 1 (0.4)
//	long range: 1 -- 5 (0.95), 3 -- 6 (0.85), 2 -- 4 (0.75)
const sceneTestDoc = `{
	"metadata": {},
	"notes": [
		{"note_id": 1, "raw_content": "n1",
		 "related_note_links": [[2, 0.9], [3, 0.7], [4, 0.5], [5, 0.3]]},
		{"note_id": 2, "raw_content": "n2", "related_note_links": [[6, 0.6]]},
		{"note_id": 3, "raw_content": "n3"},
		{"note_id": 4, "raw_content": "n4", "related_note_links": [[1, 0.4]]},
		{"note_id": 5, "raw_content": "n5"},
		{"note_id": 6, "raw_content": "n6"}
	],
	"cluster_labels": [0, 0, 1, 1, 2, 2],
	"cluster_centroids": {},
	"cluster_centroid_norms": {},
	"long_range_links": [[1, 5, 0.95], [3, 6, 0.85], [2, 4, 0.75]]
}`

func newTestBuilder(t *testing.T, limits Limits) *Builder {
	t.Helper()
	store := smg.NewStore()
	if err := store.Load([]byte(sceneTestDoc)); err != nil {
		t.Fatalf("fixture load failed: %v", err)
	}
	return NewBuilder(store, limits)
}

func nodeKinds(s *Scene) map[int]string {
	kinds := make(map[int]string, len(s.Nodes))
	for _, n := range s.Nodes {
		kinds[n.ID] = n.Kind
	}
	return kinds
}

func hasEdge(s *Scene, source, target int, kind string) bool {
	for _, e := range s.Edges {
		if e.Source == source && e.Target == target && e.Kind == kind {
			return true
		}
	}
	return false
}

func TestBuildUnknownMode(t *testing.T) {
	b := newTestBuilder(t, DefaultLimits())

	_, err := b.Build(Request{Mode: "spiral"})
	if !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestRequestClamping(t *testing.T) {
	// Out-of-range parameters are forced into range, never rejected.
	r := Request{RelatedLimit: 0, Depth: 9, MinScoreNormalized: 2.5, LongRangeTopK: -1}.clamped()
	if r.RelatedLimit != 1 || r.Depth != 3 || r.MinScoreNormalized != 1 || r.LongRangeTopK != 0 {
		t.Errorf("unexpected clamped request: %+v", r)
	}
}
