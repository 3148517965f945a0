package smg

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/mseren/cortexviz/pkg/metrics"
)

// ErrNoteNotFound is returned by EditNote for an unknown id. DeleteNote
// treats an unknown id as a no-op instead.
var ErrNoteNotFound = errors.New("smg: note not found")

// EditFields carries the editable fields of a note. Nil pointers leave the
// corresponding field untouched.
type EditFields struct {
	RawContent *string
	Context    *string

	// RelatedText replaces the note's related_note_links from the editor
	// text contract: "id:score" tokens separated by commas, spaces or
	// newlines; a bare id implies score 0.
	RelatedText *string
}

// Mutator applies edits and deletions to a Store while preserving the graph
// invariants. Every successful mutation marks the session dirty and rebuilds
// the store indexes before returning.
type Mutator struct {
	store *Store
}

// NewMutator returns a Mutator over the given store.
func NewMutator(s *Store) *Mutator {
	return &Mutator{store: s}
}

// EditNote updates a note's text fields and, when RelatedText is set,
// replaces its related links. Unknown target ids are dropped and reported as
// one session warning naming every dropped id.
func (m *Mutator) EditNote(sess *Session, id int, fields EditFields) error {
	note, ok := m.store.NoteByID(id)
	if !ok {
		return ErrNoteNotFound
	}

	if fields.RawContent != nil {
		note.RawContent = *fields.RawContent
	}
	if fields.Context != nil {
		note.Context = *fields.Context
	}
	if fields.RelatedText != nil {
		links := parseRelatedText(*fields.RelatedText)
		kept := links[:0]
		var dropped []int
		for _, l := range links {
			if _, exists := m.store.NoteByID(l.Target); exists {
				kept = append(kept, l)
			} else {
				dropped = append(dropped, l.Target)
			}
		}
		note.Related = kept
		if len(dropped) > 0 {
			sess.Warnings = append(sess.Warnings, fmt.Sprintf(
				"edit of note %d dropped unknown note ids %v", id, dropped))
		}
	}

	sess.Dirty = true
	m.store.BuildIndexes()
	metrics.Mutations.WithLabelValues("edit").Inc()
	return nil
}

// parseRelatedText parses the editor text contract into deduplicated links.
// Per-token parse failures are dropped silently. Duplicate targets collapse
// to one link keeping the maximum score, in first-seen order.
func parseRelatedText(text string) []RelatedLink {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	var order []int
	best := make(map[int]float64)
	for _, tok := range tokens {
		idPart, scorePart, hasScore := strings.Cut(tok, ":")
		target, err := strconv.Atoi(idPart)
		if err != nil {
			continue
		}
		score := 0.0
		if hasScore {
			score, err = strconv.ParseFloat(scorePart, 64)
			if err != nil {
				continue
			}
		}
		if prev, seen := best[target]; seen {
			if score > prev {
				best[target] = score
			}
			continue
		}
		best[target] = score
		order = append(order, target)
	}

	links := make([]RelatedLink, 0, len(order))
	for _, target := range order {
		links = append(links, RelatedLink{Target: target, Score: best[target]})
	}
	return links
}

// DeleteNote removes a note and scrubs every reference to it. Unknown ids
// are a no-op. This is the only operation that shrinks the note universe;
// surviving ids are never renumbered.
//
// Removal is positional: when cluster_labels covers the note's array
// position, the aligned label entry is removed at the same position, keeping
// every other position's alignment intact.
func (m *Mutator) DeleteNote(sess *Session, id int) {
	g := m.store.Graph()

	pos := -1
	for i, n := range g.Notes {
		if n.hasID && n.ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return
	}

	g.Notes = append(g.Notes[:pos], g.Notes[pos+1:]...)
	if g.hasClusterLabels && !g.badClusterLabels && pos < len(g.ClusterLabels) {
		g.ClusterLabels = append(g.ClusterLabels[:pos], g.ClusterLabels[pos+1:]...)
	}

	for _, n := range g.Notes {
		if len(n.Related) == 0 {
			continue
		}
		kept := n.Related[:0]
		for _, l := range n.Related {
			if l.Target != id {
				kept = append(kept, l)
			}
		}
		n.Related = kept
	}

	if len(g.LongRange) > 0 {
		kept := g.LongRange[:0]
		for _, l := range g.LongRange {
			if l.A != id && l.B != id {
				kept = append(kept, l)
			}
		}
		g.LongRange = kept
	}

	if len(g.Notes) == 0 {
		sess.Current = NoSelection
	} else {
		next := pos
		if next > len(g.Notes)-1 {
			next = len(g.Notes) - 1
		}
		sess.Current = g.Notes[next].ID
	}

	sess.Dirty = true
	m.store.BuildIndexes()
	metrics.Mutations.WithLabelValues("delete").Inc()
}

// RelatedByScore returns a copy of the note's outbound links ordered by
// descending score, ties by ascending target id.
func (n *Note) RelatedByScore() []RelatedLink {
	links := make([]RelatedLink, len(n.Related))
	copy(links, n.Related)
	sort.SliceStable(links, func(i, j int) bool {
		if links[i].Score != links[j].Score {
			return links[i].Score > links[j].Score
		}
		return links[i].Target < links[j].Target
	})
	return links
}
