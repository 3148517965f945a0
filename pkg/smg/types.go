// Package smg implements the in-memory semantic note graph: the data model
// loaded from a JSON snapshot, the derived indexes kept consistent under
// mutation, schema validation, and the edit/delete operations.
//
// The graph itself is a plain value; all derived state lives in Store and is
// rebuilt wholesale after every successful load or mutation.
package smg

import "encoding/json"

// RelatedLink is a directed, scored edge owned by its source note.
type RelatedLink struct {
	Target int
	Score  float64
}

// LongRangeLink is an undirected, scored edge from the global cross-cluster
// link set. A and B are note ids.
type LongRangeLink struct {
	A     int
	B     int
	Score float64
}

// Note is one node of the graph. Only the fields the viewer core interprets
// are typed; everything else (embedding, norm, provenance sequences and any
// unknown keys) stays as raw JSON and is written back verbatim on save.
type Note struct {
	ID         int
	RawContent string
	Context    string
	Related    []RelatedLink

	// raw holds every field of the note as loaded, keyed by original name.
	// Typed fields above shadow their raw counterparts on save.
	raw map[string]json.RawMessage

	hasID      bool
	badRelated []int // indexes of malformed related_note_links entries
}

// HasID reports whether the note carried a well-formed integer note_id.
func (n *Note) HasID() bool { return n.hasID }

// Graph is the full loaded document. Notes are ordered: the array position is
// the alignment key for ClusterLabels, so deletions must stay positional.
type Graph struct {
	Notes         []*Note
	ClusterLabels []int
	LongRange     []LongRangeLink

	hasClusterLabels bool
	badClusterLabels bool
	hasLongRange     bool
	badLongRange     int // count of malformed long_range_links entries

	// raw holds the top-level document fields verbatim (metadata,
	// cluster_centroids, cluster_centroid_norms, unknown keys, ...).
	raw map[string]json.RawMessage
}

// HasClusterLabels reports whether the document carried a cluster_labels key
// that parsed as an integer array.
func (g *Graph) HasClusterLabels() bool { return g.hasClusterLabels && !g.badClusterLabels }

// HasLongRange reports whether the document carried a long_range_links key.
func (g *Graph) HasLongRange() bool { return g.hasLongRange }

// Session is the explicit per-caller state object: current selection, dirty
// flag and accumulated non-blocking warnings. The store and the view builders
// never hold this state themselves.
type Session struct {
	ID       string // assigned by the hosting layer, opaque here
	Current  int    // selected note id, NoSelection when nothing is selected
	Dirty    bool
	Warnings []string
}

// NoSelection is the Session.Current value meaning "no note selected".
const NoSelection = -1

// NewSession returns a Session with no selection and a clean slate.
func NewSession() *Session {
	return &Session{Current: NoSelection}
}
