package scene

import (
	"fmt"

	"github.com/mseren/cortexviz/pkg/smg"
)

// buildClusterMap extracts the global overview: a bounded, cluster-balanced
// node sample plus the strongest outbound links between sampled notes.
func (b *Builder) buildClusterMap(req Request) *Scene {
	sample := b.sampleClusterMap(req.NoteID)

	edges := newUnorderedEdgeSet()

	for _, id := range sample.order {
		note, ok := b.store.NoteByID(id)
		if !ok {
			continue
		}
		taken := 0
		for _, link := range note.RelatedByScore() {
			if taken == b.limits.SampleOutboundCap {
				break
			}
			if !sample.has(link.Target) {
				continue
			}
			taken++
			edges.add(SceneEdge{Source: id, Target: link.Target, Kind: EdgeRelated, Score: link.Score})
		}
	}

	if req.IncludeLongRange {
		for _, l := range b.store.LongRangeTop(req.LongRangeTopK) {
			if !sample.has(l.A) || !sample.has(l.B) {
				continue
			}
			edges.add(SceneEdge{Source: l.A, Target: l.B, Kind: EdgeLongRange, Score: l.Score})
		}
	}

	s := &Scene{}
	for _, e := range edges.order {
		s.ScoreValues = append(s.ScoreValues, e.Score)
	}
	s.ScoreDomain = ComputeDomain(s.ScoreValues)
	s.ThresholdRaw = NormalizedToRaw(req.MinScoreNormalized, s.ScoreDomain)

	for _, id := range sample.order {
		s.Nodes = append(s.Nodes, SceneNode{ID: id, Kind: sample.kind[id]})
	}
	for _, e := range edges.order {
		if e.Score < s.ThresholdRaw {
			continue
		}
		s.Edges = append(s.Edges, e)
	}
	return s
}

// sampleClusterMap builds the node sample: the selected note first, then up
// to ceil(cap/clusterCount) lowest-id members per cluster in cluster id
// order, then lowest-id notes overall until the global cap is reached.
func (b *Builder) sampleClusterMap(selectedID int) *nodeSet {
	sample := newNodeSet()
	globalCap := b.limits.GlobalSampleCap

	if _, ok := b.store.NoteByID(selectedID); ok {
		sample.add(selectedID, KindSelected)
	}

	clusters := b.store.ClusterIDs()
	if len(clusters) > 0 {
		perCluster := (globalCap + len(clusters) - 1) / len(clusters)

		members := make(map[int][]int, len(clusters))
		b.store.AscendNotes(func(n *smg.Note) bool {
			if c, ok := b.store.ClusterOf(n.ID); ok {
				members[c] = append(members[c], n.ID)
			}
			return true
		})

		for _, c := range clusters {
			taken := 0
			for _, id := range members[c] {
				if len(sample.order) >= globalCap {
					return sample
				}
				if taken == perCluster {
					break
				}
				if sample.has(id) {
					continue
				}
				sample.add(id, KindSampled)
				taken++
			}
		}
	}

	b.store.AscendNotes(func(n *smg.Note) bool {
		if len(sample.order) >= globalCap {
			return false
		}
		if !sample.has(n.ID) {
			sample.add(n.ID, KindSampled)
		}
		return true
	})

	return sample
}

// unorderedEdgeSet deduplicates by unordered endpoint pair plus relation
// category, keeping first-seen order.
type unorderedEdgeSet struct {
	order []SceneEdge
	seen  map[string]bool
}

func newUnorderedEdgeSet() *unorderedEdgeSet {
	return &unorderedEdgeSet{seen: make(map[string]bool)}
}

func (es *unorderedEdgeSet) add(e SceneEdge) {
	a, z := e.Source, e.Target
	if a > z {
		a, z = z, a
	}
	key := fmt.Sprintf("%d-%d|%s", a, z, e.Kind)
	if es.seen[key] {
		return
	}
	es.seen[key] = true
	es.order = append(es.order, e)
}
