package scene

import (
	"fmt"
	"sort"

	"github.com/mseren/cortexviz/pkg/smg"
)

// rolePriority orders node kinds for the neighborhood view. A node reached
// through several roles keeps the highest one.
var rolePriority = map[string]int{
	KindSelected:  4,
	KindOutbound:  3,
	KindInbound:   3,
	KindExpanded:  2,
	KindLongRange: 1,
}

// nodeSet tracks discovered nodes in discovery order with role upgrades.
type nodeSet struct {
	order []int
	kind  map[int]string
}

func newNodeSet() *nodeSet {
	return &nodeSet{kind: make(map[int]string)}
}

// add inserts or upgrades a node. Discovery order is kept from the first
// sighting; only the role can improve.
func (ns *nodeSet) add(id int, kind string) {
	cur, seen := ns.kind[id]
	if !seen {
		ns.order = append(ns.order, id)
		ns.kind[id] = kind
		return
	}
	if rolePriority[kind] > rolePriority[cur] {
		ns.kind[id] = kind
	}
}

func (ns *nodeSet) has(id int) bool {
	_, ok := ns.kind[id]
	return ok
}

// edgeSet deduplicates candidate edges by (direction, kind).
type edgeSet struct {
	order []SceneEdge
	seen  map[string]bool
}

func newEdgeSet() *edgeSet {
	return &edgeSet{seen: make(map[string]bool)}
}

func (es *edgeSet) add(e SceneEdge) {
	key := fmt.Sprintf("%d>%d|%s", e.Source, e.Target, e.Kind)
	if es.seen[key] {
		return
	}
	es.seen[key] = true
	es.order = append(es.order, e)
}

// buildNeighborhood extracts the bounded subgraph around the selected note:
// breadth-first expansion up to req.Depth hops, with outbound and inbound
// links capped at req.RelatedLimit per visited note.
func (b *Builder) buildNeighborhood(req Request) *Scene {
	if _, ok := b.store.NoteByID(req.NoteID); !ok {
		return &Scene{}
	}

	nodes := newNodeSet()
	edges := newEdgeSet()

	type queueItem struct {
		id    int
		depth int
	}
	queue := []queueItem{{id: req.NoteID, depth: 0}}
	queued := map[int]bool{req.NoteID: true}
	nodes.add(req.NoteID, KindSelected)

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if item.depth >= req.Depth {
			continue
		}

		note, ok := b.store.NoteByID(item.id)
		if !ok {
			continue
		}

		// Outbound: descending score, capped. Dangling targets are not in
		// the index and are skipped here.
		outbound := note.RelatedByScore()
		taken := 0
		for _, link := range outbound {
			if taken == req.RelatedLimit {
				break
			}
			if _, exists := b.store.NoteByID(link.Target); !exists {
				continue
			}
			taken++
			kind := KindExpanded
			if item.id == req.NoteID {
				kind = KindOutbound
			}
			nodes.add(link.Target, kind)
			edges.add(SceneEdge{Source: item.id, Target: link.Target, Kind: EdgeRelated, Score: link.Score})
			if !queued[link.Target] {
				queued[link.Target] = true
				queue = append(queue, queueItem{id: link.Target, depth: item.depth + 1})
			}
		}

		// Inbound: descending score, ties by ascending source id, capped.
		inbound := sortedInbound(b.store.ReverseRelated(item.id))
		if len(inbound) > req.RelatedLimit {
			inbound = inbound[:req.RelatedLimit]
		}
		for _, in := range inbound {
			kind := KindExpanded
			if item.id == req.NoteID {
				kind = KindInbound
			}
			nodes.add(in.source, kind)
			edges.add(SceneEdge{Source: in.source, Target: item.id, Kind: EdgeRelated, Score: in.score})
			if !queued[in.source] {
				queued[in.source] = true
				queue = append(queue, queueItem{id: in.source, depth: item.depth + 1})
			}
		}
	}

	// Long-range links of the selected note, independent of BFS depth.
	if req.IncludeLongRange {
		limit := minInt(req.RelatedLimit, b.limits.LongRangeHardCap, req.LongRangeTopK)
		for _, lr := range sortedLongRange(b.store.LongRangeAdj(req.NoteID), limit) {
			nodes.add(lr.Other, KindLongRange)
			edges.add(SceneEdge{Source: req.NoteID, Target: lr.Other, Kind: EdgeLongRange, Score: lr.Score})
		}
	}

	return finishGraphScene(nodes, edges, req.MinScoreNormalized, b.limits.NeighborhoodNodeCap)
}

type inboundLink struct {
	source int
	score  float64
}

func sortedInbound(m map[int]float64) []inboundLink {
	links := make([]inboundLink, 0, len(m))
	for src, score := range m {
		links = append(links, inboundLink{source: src, score: score})
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].score != links[j].score {
			return links[i].score > links[j].score
		}
		return links[i].source < links[j].source
	})
	return links
}

func sortedLongRange(adj []smg.LongRangeNeighbor, limit int) []smg.LongRangeNeighbor {
	links := make([]smg.LongRangeNeighbor, len(adj))
	copy(links, adj)
	sort.Slice(links, func(i, j int) bool {
		if links[i].Score != links[j].Score {
			return links[i].Score > links[j].Score
		}
		return links[i].Other < links[j].Other
	})
	if limit < 0 {
		limit = 0
	}
	if len(links) > limit {
		links = links[:limit]
	}
	return links
}

// finishGraphScene applies the shared tail of the graph modes: score domain
// over every observed edge, linear raw threshold, edge filtering, node cap
// and removal of edges touching dropped nodes.
func finishGraphScene(nodes *nodeSet, edges *edgeSet, minScoreNormalized float64, nodeCap int) *Scene {
	s := &Scene{}

	for _, e := range edges.order {
		s.ScoreValues = append(s.ScoreValues, e.Score)
	}
	s.ScoreDomain = ComputeDomain(s.ScoreValues)
	s.ThresholdRaw = NormalizedToRaw(minScoreNormalized, s.ScoreDomain)

	keptIDs := nodes.order
	if nodeCap > 0 && len(keptIDs) > nodeCap {
		keptIDs = keptIDs[:nodeCap]
	}
	kept := make(map[int]bool, len(keptIDs))
	for _, id := range keptIDs {
		kept[id] = true
		s.Nodes = append(s.Nodes, SceneNode{ID: id, Kind: nodes.kind[id]})
	}

	for _, e := range edges.order {
		if e.Score < s.ThresholdRaw {
			continue
		}
		if !kept[e.Source] || !kept[e.Target] {
			continue
		}
		s.Edges = append(s.Edges, e)
	}
	return s
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
