package smg

import "fmt"

// Report carries validation diagnostics. Errors block save; warnings never
// block anything.
type Report struct {
	Errors   []string
	Warnings []string
}

// optionalTopLevelKeys are reported as warnings when absent. Their absence is
// a valid state everywhere else in the core.
var optionalTopLevelKeys = []string{
	"metadata",
	"cluster_labels",
	"cluster_centroids",
	"cluster_centroid_norms",
	"long_range_links",
}

// Validate inspects a graph and returns diagnostics without mutating
// anything. The ordering is deterministic: per-note checks in array order
// first, then top-level checks.
func Validate(g *Graph) Report {
	var r Report

	seen := make(map[int]int, len(g.Notes))
	for pos, n := range g.Notes {
		if !n.hasID {
			r.Errors = append(r.Errors, fmt.Sprintf(
				"notes[%d]: missing or non-integer note_id", pos))
			continue
		}
		if firstPos, dup := seen[n.ID]; dup {
			r.Errors = append(r.Errors, fmt.Sprintf(
				"notes[%d]: duplicate note_id %d (first at notes[%d])",
				pos, n.ID, firstPos))
		} else {
			seen[n.ID] = pos
		}
		for _, i := range n.badRelated {
			r.Errors = append(r.Errors, fmt.Sprintf(
				"note %d: related_note_links[%d] is not an (integer, number) pair",
				n.ID, i))
		}
	}

	// Dangling outbound references. They stay in the owning note's list until
	// the user edits it; indexing just excludes them from reverseRelated.
	for _, n := range g.Notes {
		if !n.hasID {
			continue
		}
		for _, link := range n.Related {
			if _, ok := seen[link.Target]; !ok {
				r.Warnings = append(r.Warnings, fmt.Sprintf(
					"note %d references missing note %d in related_note_links",
					n.ID, link.Target))
			}
		}
	}

	for _, key := range optionalTopLevelKeys {
		if _, ok := g.raw[key]; !ok {
			r.Warnings = append(r.Warnings, fmt.Sprintf("missing optional key %q", key))
		}
	}
	if g.badClusterLabels {
		r.Warnings = append(r.Warnings, "cluster_labels is not an integer array")
	} else if g.hasClusterLabels && len(g.ClusterLabels) != len(g.Notes) {
		r.Warnings = append(r.Warnings, fmt.Sprintf(
			"cluster_labels length %d does not match %d notes",
			len(g.ClusterLabels), len(g.Notes)))
	}
	if g.badLongRange > 0 {
		r.Warnings = append(r.Warnings, fmt.Sprintf(
			"%d malformed long_range_links entries", g.badLongRange))
	}

	return r
}
