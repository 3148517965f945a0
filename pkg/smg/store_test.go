package smg

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// testDoc builds a small snapshot document:
//
//	1 -> 2 (0.9), 1 -> 3 (0.4), 2 -> 3 (0.7), 3 -> 99 (0.5, dangling)
//	long range: 1 -- 3 (0.8), 2 -- 42 (0.6, dangling)
//	clusters: 1,2 in cluster 0; 3 in cluster 1
const testDoc = `{
	"metadata": {"format_version": "spectral-cortex-1"},
	"notes": [
		{"note_id": 1, "raw_content": "alpha", "context": "c1",
		 "embedding": [0.1, 0.2], "norm": 0.22,
		 "related_note_links": [[2, 0.9], [3, 0.4]]},
		{"note_id": 2, "raw_content": "beta", "context": "c2",
		 "embedding": [0.3, 0.4], "norm": 0.5,
		 "related_note_links": [[3, 0.7]]},
		{"note_id": 3, "raw_content": "gamma", "context": "c3",
		 "embedding": [0.5, 0.6], "norm": 0.78,
		 "related_note_links": [[99, 0.5]]}
	],
	"cluster_labels": [0, 0, 1],
	"cluster_centroids": {"0": [0.2, 0.3], "1": [0.5, 0.6]},
	"cluster_centroid_norms": {"0": 0.36, "1": 0.78},
	"long_range_links": [[1, 3, 0.8], [2, 42, 0.6]]
}`

func loadTestStore(t *testing.T, doc string) *Store {
	t.Helper()
	s := NewStore()
	if err := s.Load([]byte(doc)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return s
}

func TestBuildIndexes(t *testing.T) {
	s := loadTestStore(t, testDoc)

	// 1. byID contains exactly the well-formed notes.
	if s.Len() != 3 {
		t.Fatalf("expected 3 indexed notes, got %d", s.Len())
	}
	for _, id := range []int{1, 2, 3} {
		if _, ok := s.NoteByID(id); !ok {
			t.Errorf("note %d missing from byID", id)
		}
	}

	// 2. reverseRelated: inbound edges of note 3, excluding the dangling
	// 3 -> 99 target.
	inbound := s.ReverseRelated(3)
	if len(inbound) != 2 || inbound[1] != 0.4 || inbound[2] != 0.7 {
		t.Errorf("unexpected reverseRelated(3): %v", inbound)
	}
	if len(s.ReverseRelated(99)) != 0 {
		t.Errorf("dangling target 99 must not appear in reverseRelated")
	}

	// 3. The dangling related reference produced a warning, the dangling
	// long-range entry did not.
	warnings := s.IndexWarnings()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "99") {
		t.Errorf("expected one dangling warning naming 99, got %v", warnings)
	}

	// 4. longRangeAdj: 1 -- 3 indexed both ways, 2 -- 42 silently skipped.
	if adj := s.LongRangeAdj(1); len(adj) != 1 || adj[0].Other != 3 || adj[0].Score != 0.8 {
		t.Errorf("unexpected longRangeAdj(1): %v", adj)
	}
	if adj := s.LongRangeAdj(3); len(adj) != 1 || adj[0].Other != 1 {
		t.Errorf("unexpected longRangeAdj(3): %v", adj)
	}
	if adj := s.LongRangeAdj(2); len(adj) != 0 {
		t.Errorf("dangling long-range entry must be skipped, got %v", adj)
	}

	// 5. Cluster assignment and counts.
	if c, ok := s.ClusterOf(2); !ok || c != 0 {
		t.Errorf("ClusterOf(2) = %d, %v; want 0, true", c, ok)
	}
	if got := s.ClusterIDs(); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("unexpected ClusterIDs: %v", got)
	}
	if s.ClusterCount(0) != 2 || s.ClusterCount(1) != 1 {
		t.Errorf("unexpected cluster counts: %d, %d", s.ClusterCount(0), s.ClusterCount(1))
	}
}

func TestDuplicateIDsCollapse(t *testing.T) {
	doc := `{"notes": [
		{"note_id": 7, "raw_content": "first"},
		{"note_id": 7, "raw_content": "second"}
	]}`
	s := loadTestStore(t, doc)

	if s.Len() != 1 {
		t.Fatalf("duplicates must collapse to one entry, got %d", s.Len())
	}
	// The Validator independently flags the duplication as an error.
	report := Validate(s.Graph())
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0], "duplicate") {
		t.Errorf("expected one duplicate error, got %v", report.Errors)
	}
}

func TestLoadFailureRetainsPreviousGraph(t *testing.T) {
	s := loadTestStore(t, testDoc)

	// 1. Root not an object.
	err := s.Load([]byte(`[1, 2, 3]`))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}

	// 2. notes not a sequence.
	if err := s.Load([]byte(`{"notes": {"not": "an array"}}`)); err == nil {
		t.Fatal("expected ParseError for non-array notes")
	}

	// 3. The previous graph is untouched.
	if s.Len() != 3 {
		t.Errorf("previous graph lost after failed load: %d notes", s.Len())
	}
}

func TestSaveRoundTrip(t *testing.T) {
	s := loadTestStore(t, testDoc)

	var buf bytes.Buffer
	if err := s.Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// 1. Opaque fields survive verbatim.
	var out map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("saved document is not valid JSON: %v", err)
	}
	for _, key := range []string{"metadata", "cluster_centroids", "cluster_centroid_norms"} {
		if _, ok := out[key]; !ok {
			t.Errorf("saved document lost %q", key)
		}
	}

	// 2. The saved document loads back to the same graph.
	s2 := NewStore()
	if err := s2.Load(buf.Bytes()); err != nil {
		t.Fatalf("reloading saved document failed: %v", err)
	}
	if s2.Len() != s.Len() {
		t.Errorf("round trip changed note count: %d != %d", s2.Len(), s.Len())
	}
	n, ok := s2.NoteByID(1)
	if !ok || len(n.Related) != 2 || n.Related[0].Target != 2 {
		t.Errorf("round trip damaged related links of note 1: %+v", n)
	}
}

func TestSaveRefusedOnValidationErrors(t *testing.T) {
	doc := `{"notes": [{"raw_content": "no id"}]}`
	s := loadTestStore(t, doc)

	var buf bytes.Buffer
	err := s.Save(&buf)
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	if buf.Len() != 0 {
		t.Error("save must be all-or-nothing; bytes were written")
	}
}

func TestUnknownNoteFieldsPreserved(t *testing.T) {
	doc := `{"notes": [{"note_id": 1, "raw_content": "x", "custom_field": {"a": 1}}]}`
	s := loadTestStore(t, doc)

	var buf bytes.Buffer
	if err := s.Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"custom_field"`) {
		t.Errorf("note-level unknown field lost: %s", buf.String())
	}
}
