// Package scene turns the full note graph into small, render-ready scenes:
// bounded node/edge sets for the neighborhood, cluster-map and long-range
// views, or a cluster-aggregation matrix.
//
// Every build is a pure function of the current store snapshot and the
// request parameters; the package holds no state between calls. All four
// modes are bounded by fixed ceilings, so construction always terminates in
// bounded work.
package scene

import (
	"errors"
	"fmt"
	"time"

	"github.com/mseren/cortexviz/pkg/metrics"
	"github.com/mseren/cortexviz/pkg/smg"
)

// Mode selects one of the four extraction strategies.
type Mode string

const (
	ModeNeighborhood  Mode = "neighborhood"
	ModeClusterMap    Mode = "cluster_map"
	ModeLongRange     Mode = "long_range"
	ModeClusterMatrix Mode = "cluster_matrix"
)

// Node kinds, in decreasing role precedence. A node reachable through
// multiple roles keeps the highest-priority one.
const (
	KindSelected  = "selected"
	KindOutbound  = "outbound"
	KindInbound   = "inbound"
	KindExpanded  = "expanded"
	KindLongRange = "long_range"
	KindSampled   = "sampled"
)

// Edge kinds (relation categories).
const (
	EdgeRelated   = "related"
	EdgeLongRange = "long_range"
)

// ErrUnknownMode is returned by Build for an unrecognized request mode.
var ErrUnknownMode = errors.New("scene: unknown view mode")

// Request is the tagged view request: a mode plus its parameters. Values
// outside the documented ranges are clamped, not rejected.
type Request struct {
	Mode   Mode `json:"mode"`
	NoteID int  `json:"note_id"`

	RelatedLimit       int     `json:"related_limit"`        // >= 1
	Depth              int     `json:"depth"`                // 1..3
	MinScoreNormalized float64 `json:"min_score_normalized"` // 0..1
	LongRangeTopK      int     `json:"long_range_top_k"`
	IncludeLongRange   bool    `json:"include_long_range"`
}

// clamped returns a copy of the request with every parameter forced into its
// documented range.
func (r Request) clamped() Request {
	if r.RelatedLimit < 1 {
		r.RelatedLimit = 1
	}
	if r.Depth < 1 {
		r.Depth = 1
	}
	if r.Depth > 3 {
		r.Depth = 3
	}
	if r.MinScoreNormalized < 0 {
		r.MinScoreNormalized = 0
	}
	if r.MinScoreNormalized > 1 {
		r.MinScoreNormalized = 1
	}
	if r.LongRangeTopK < 0 {
		r.LongRangeTopK = 0
	}
	return r
}

// SceneNode is one renderable node.
type SceneNode struct {
	ID   int    `json:"id"`
	Kind string `json:"kind"`
}

// SceneEdge is one renderable edge. Source and Target are note ids; for
// long-range edges the direction carries no meaning.
type SceneEdge struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Kind   string  `json:"kind"`
	Score  float64 `json:"score"`
}

// MatrixCell is one unordered cluster pair aggregate. Self-pairs (A == B)
// are valid and meaningful.
type MatrixCell struct {
	ClusterA  int     `json:"cluster_a"`
	ClusterB  int     `json:"cluster_b"`
	Count     int     `json:"count"`
	Sum       float64 `json:"sum"`
	Max       float64 `json:"max"`
	Mean      float64 `json:"mean"`
	Intensity float64 `json:"intensity"`
}

// Scene is the bounded payload handed to the external rendering layer.
// Graph modes fill Nodes/Edges; the cluster matrix fills Cells instead.
type Scene struct {
	Nodes []SceneNode  `json:"nodes"`
	Edges []SceneEdge  `json:"edges"`
	Cells []MatrixCell `json:"cells,omitempty"`

	// ScoreValues holds every score observed while building the scene,
	// including scores of edges the threshold later excluded.
	ScoreValues  []float64 `json:"score_values"`
	ScoreDomain  *Domain   `json:"score_domain"`
	ThresholdRaw float64   `json:"threshold_raw"`
}

// Limits are the fixed ceilings bounding every scene. The zero value is not
// useful; use DefaultLimits or load overrides from configuration.
type Limits struct {
	// NeighborhoodNodeCap caps the final node set of the neighborhood view.
	NeighborhoodNodeCap int `yaml:"neighborhood_node_cap"`
	// GlobalSampleCap caps the cluster-map node sample.
	GlobalSampleCap int `yaml:"global_sample_cap"`
	// SampleOutboundCap caps outbound candidate edges per sampled note.
	SampleOutboundCap int `yaml:"sample_outbound_cap"`
	// LongRangeHardCap is the absolute ceiling on appended long-range links.
	LongRangeHardCap int `yaml:"long_range_hard_cap"`
}

// DefaultLimits returns the standard ceilings.
func DefaultLimits() Limits {
	return Limits{
		NeighborhoodNodeCap: 120,
		GlobalSampleCap:     1200,
		SampleOutboundCap:   3,
		LongRangeHardCap:    50,
	}
}

// Builder reads a store and produces scenes. It holds no mutable state of
// its own.
type Builder struct {
	store  *smg.Store
	limits Limits
}

// NewBuilder returns a Builder over the given store.
func NewBuilder(store *smg.Store, limits Limits) *Builder {
	return &Builder{store: store, limits: limits}
}

// Build dispatches the request to its extraction strategy.
func (b *Builder) Build(req Request) (*Scene, error) {
	req = req.clamped()

	start := time.Now()
	var s *Scene
	switch req.Mode {
	case ModeNeighborhood:
		s = b.buildNeighborhood(req)
	case ModeClusterMap:
		s = b.buildClusterMap(req)
	case ModeLongRange:
		s = b.buildLongRange(req)
	case ModeClusterMatrix:
		s = b.buildClusterMatrix(req)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}

	metrics.SceneBuilds.WithLabelValues(string(req.Mode)).Inc()
	metrics.SceneBuildDuration.WithLabelValues(string(req.Mode)).Observe(time.Since(start).Seconds())
	return s, nil
}
