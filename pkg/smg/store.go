package smg

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/tidwall/btree"

	"github.com/mseren/cortexviz/pkg/metrics"
)

// ErrValidationFailed is returned by Save when the graph carries validation
// errors. Save is all-or-nothing: nothing is written in that case.
var ErrValidationFailed = errors.New("smg: graph has validation errors, save refused")

// LongRangeNeighbor is one endpoint of a long-range link as seen from a
// given note.
type LongRangeNeighbor struct {
	Other int
	Score float64
}

// Store owns the loaded graph and its derived indexes. It is the single
// mutable resource of the core: mutations go through Load or Mutator, and
// every mutation ends with a wholesale BuildIndexes before the next read.
type Store struct {
	graph *Graph

	byID           *btree.BTreeG[*Note]
	reverseRelated map[int]map[int]float64
	longRangeAdj   map[int][]LongRangeNeighbor
	clusterOf      map[int]int
	clusterCounts  map[int]int

	indexWarnings []string
}

func noteLess(a, b *Note) bool { return a.ID < b.ID }

// NewStore returns a Store with an empty graph and built (empty) indexes.
func NewStore() *Store {
	s := &Store{graph: &Graph{raw: map[string]json.RawMessage{}}}
	s.BuildIndexes()
	return s
}

// Load parses a snapshot document and replaces the current graph.
// On parse failure the previous graph and its indexes stay untouched.
func (s *Store) Load(data []byte) error {
	g, err := ParseDocument(data)
	if err != nil {
		return err
	}
	s.graph = g
	s.BuildIndexes()
	slog.Info("snapshot loaded",
		"notes", len(g.Notes),
		"long_range_links", len(g.LongRange),
		"cluster_labels", g.HasClusterLabels(),
	)
	return nil
}

// LoadReader is Load over an io.Reader.
func (s *Store) LoadReader(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return &ParseError{Msg: "reading document", Err: err}
	}
	return s.Load(data)
}

// Save validates the graph and, only if no errors are found, writes the
// re-serialized document. Warnings never block a save.
func (s *Store) Save(w io.Writer) error {
	report := Validate(s.graph)
	if len(report.Errors) > 0 {
		return fmt.Errorf("%w: %d error(s), first: %s",
			ErrValidationFailed, len(report.Errors), report.Errors[0])
	}
	data, err := s.graph.MarshalDocument()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Graph exposes the current graph. Callers must treat it as read-only;
// mutation goes through Mutator.
func (s *Store) Graph() *Graph { return s.graph }

// BuildIndexes derives all five index structures from the current graph in
// O(notes + edges). It is atomic from a reader's point of view: the new
// structures are built aside and swapped in together.
//
// Dangling related_note_links targets are excluded from reverseRelated and
// recorded as warnings; dangling long_range_links entries are skipped with
// no warning. The asymmetry is deliberate, observed behavior.
func (s *Store) BuildIndexes() {
	start := time.Now()

	byID := btree.NewBTreeG[*Note](noteLess)
	clusterOf := make(map[int]int)
	clusterCounts := make(map[int]int)
	var warnings []string

	labelsOK := s.graph.HasClusterLabels() &&
		len(s.graph.ClusterLabels) == len(s.graph.Notes)

	for pos, n := range s.graph.Notes {
		if !n.hasID {
			continue
		}
		// Later duplicates replace earlier ones, matching map-insert
		// load semantics. The Validator flags the duplication itself.
		byID.Set(n)
		if labelsOK {
			clusterOf[n.ID] = s.graph.ClusterLabels[pos]
		}
	}
	for _, c := range clusterOf {
		clusterCounts[c]++
	}

	edgeCount := 0
	reverse := make(map[int]map[int]float64)
	for _, n := range s.graph.Notes {
		if !n.hasID {
			continue
		}
		for _, link := range n.Related {
			edgeCount++
			if _, ok := byID.Get(&Note{ID: link.Target}); !ok {
				warnings = append(warnings, fmt.Sprintf(
					"note %d references missing note %d in related_note_links",
					n.ID, link.Target))
				continue
			}
			m := reverse[link.Target]
			if m == nil {
				m = make(map[int]float64)
				reverse[link.Target] = m
			}
			m[n.ID] = link.Score
		}
	}

	adj := make(map[int][]LongRangeNeighbor)
	for _, l := range s.graph.LongRange {
		_, okA := byID.Get(&Note{ID: l.A})
		_, okB := byID.Get(&Note{ID: l.B})
		if !okA || !okB {
			continue
		}
		adj[l.A] = append(adj[l.A], LongRangeNeighbor{Other: l.B, Score: l.Score})
		adj[l.B] = append(adj[l.B], LongRangeNeighbor{Other: l.A, Score: l.Score})
	}

	s.byID = byID
	s.reverseRelated = reverse
	s.longRangeAdj = adj
	s.clusterOf = clusterOf
	s.clusterCounts = clusterCounts
	s.indexWarnings = warnings

	metrics.GraphNotes.Set(float64(byID.Len()))
	metrics.GraphEdges.Set(float64(edgeCount))
	metrics.IndexRebuildDuration.Observe(time.Since(start).Seconds())
}

// IndexWarnings returns the dangling-reference warnings collected by the
// last rebuild.
func (s *Store) IndexWarnings() []string { return s.indexWarnings }

// NoteByID looks a note up through the id index.
func (s *Store) NoteByID(id int) (*Note, bool) {
	return s.byID.Get(&Note{ID: id})
}

// Len returns the number of indexed notes (well-formed unique ids).
func (s *Store) Len() int { return s.byID.Len() }

// AscendNotes iterates indexed notes in ascending id order until iter
// returns false.
func (s *Store) AscendNotes(iter func(n *Note) bool) {
	s.byID.Scan(iter)
}

// ReverseRelated returns the inbound edge map (source id to score) of a note.
func (s *Store) ReverseRelated(id int) map[int]float64 {
	return s.reverseRelated[id]
}

// LongRangeAdj returns the long-range neighbors of a note.
func (s *Store) LongRangeAdj(id int) []LongRangeNeighbor {
	return s.longRangeAdj[id]
}

// ClusterOf returns the cluster label of a note, if cluster assignments are
// present and aligned.
func (s *Store) ClusterOf(id int) (int, bool) {
	c, ok := s.clusterOf[id]
	return c, ok
}

// ClusterIDs returns the distinct cluster ids in ascending order.
func (s *Store) ClusterIDs() []int {
	ids := make([]int, 0, len(s.clusterCounts))
	for c := range s.clusterCounts {
		ids = append(ids, c)
	}
	sort.Ints(ids)
	return ids
}

// ClusterCount returns the number of notes assigned to a cluster.
func (s *Store) ClusterCount(cluster int) int { return s.clusterCounts[cluster] }

// LongRangeTop returns up to k indexed long-range links ordered by descending
// score, ties broken by ascending id pair. k <= 0 means all.
func (s *Store) LongRangeTop(k int) []LongRangeLink {
	links := make([]LongRangeLink, 0, len(s.graph.LongRange))
	for _, l := range s.graph.LongRange {
		_, okA := s.byID.Get(&Note{ID: l.A})
		_, okB := s.byID.Get(&Note{ID: l.B})
		if okA && okB {
			links = append(links, l)
		}
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].Score != links[j].Score {
			return links[i].Score > links[j].Score
		}
		if links[i].A != links[j].A {
			return links[i].A < links[j].A
		}
		return links[i].B < links[j].B
	})
	if k > 0 && len(links) > k {
		links = links[:k]
	}
	return links
}
