package smg

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ParseError is the only fatal failure mode of the core: the snapshot
// document is syntactically unusable. The previous graph, if any, stays
// loaded when Parse fails.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("smg: parse: %s: %v", e.Msg, e.Err)
	}
	return "smg: parse: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseDocument decodes a snapshot document into a Graph.
//
// Only two shapes are fatal: the root not being a JSON object, and the
// "notes" key missing or not being an array. Everything else (bad note ids,
// malformed link entries, missing optional keys) is decoded loosely and left
// for Validate to report, so a damaged snapshot can still be inspected.
func ParseDocument(data []byte) (*Graph, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{Msg: "root is not a JSON object", Err: err}
	}

	rawNotes, ok := root["notes"]
	if !ok {
		return nil, &ParseError{Msg: "missing \"notes\" array"}
	}
	var noteDocs []json.RawMessage
	if err := json.Unmarshal(rawNotes, &noteDocs); err != nil {
		return nil, &ParseError{Msg: "\"notes\" is not an array", Err: err}
	}

	g := &Graph{raw: root}

	g.Notes = make([]*Note, 0, len(noteDocs))
	for _, doc := range noteDocs {
		g.Notes = append(g.Notes, parseNote(doc))
	}

	if raw, ok := root["cluster_labels"]; ok && !isJSONNull(raw) {
		g.hasClusterLabels = true
		if err := json.Unmarshal(raw, &g.ClusterLabels); err != nil {
			g.badClusterLabels = true
			g.ClusterLabels = nil
		}
	}

	if raw, ok := root["long_range_links"]; ok && !isJSONNull(raw) {
		g.hasLongRange = true
		g.LongRange, g.badLongRange = parseLongRange(raw)
	}

	return g, nil
}

// parseNote decodes one note loosely. A note that is not an object, or that
// lacks an integer note_id, is kept with hasID=false so the Validator can
// flag it; it never participates in indexes.
func parseNote(doc json.RawMessage) *Note {
	n := &Note{}
	if err := json.Unmarshal(doc, &n.raw); err != nil {
		return n
	}

	if raw, ok := n.raw["note_id"]; ok {
		var id int
		if err := json.Unmarshal(raw, &id); err == nil {
			n.ID = id
			n.hasID = true
		}
	}
	if raw, ok := n.raw["raw_content"]; ok {
		_ = json.Unmarshal(raw, &n.RawContent)
	}
	if raw, ok := n.raw["context"]; ok {
		_ = json.Unmarshal(raw, &n.Context)
	}

	if raw, ok := n.raw["related_note_links"]; ok && !isJSONNull(raw) {
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			n.badRelated = append(n.badRelated, 0)
			return n
		}
		for i, entry := range entries {
			link, ok := parseRelatedEntry(entry)
			if !ok {
				n.badRelated = append(n.badRelated, i)
				continue
			}
			n.Related = append(n.Related, link)
		}
	}
	return n
}

// parseRelatedEntry accepts exactly the pair shape (integer, number).
func parseRelatedEntry(entry json.RawMessage) (RelatedLink, bool) {
	var pair []json.Number
	if err := json.Unmarshal(entry, &pair); err != nil || len(pair) != 2 {
		return RelatedLink{}, false
	}
	target, err := pair[0].Int64()
	if err != nil {
		return RelatedLink{}, false
	}
	score, err := pair[1].Float64()
	if err != nil {
		return RelatedLink{}, false
	}
	return RelatedLink{Target: int(target), Score: score}, true
}

// parseLongRange decodes the global link triples, counting malformed entries
// instead of failing. Malformed entries surface as a validation warning.
func parseLongRange(raw json.RawMessage) ([]LongRangeLink, int) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, 1
	}
	links := make([]LongRangeLink, 0, len(entries))
	bad := 0
	for _, entry := range entries {
		var triple []json.Number
		if err := json.Unmarshal(entry, &triple); err != nil || len(triple) != 3 {
			bad++
			continue
		}
		a, errA := triple[0].Int64()
		b, errB := triple[1].Int64()
		score, errS := triple[2].Float64()
		if errA != nil || errB != nil || errS != nil {
			bad++
			continue
		}
		links = append(links, LongRangeLink{A: int(a), B: int(b), Score: score})
	}
	return links, bad
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 4 && string(raw) == "null"
}

// MarshalDocument re-serializes the graph in the snapshot shape. Typed fields
// overwrite their raw counterparts; every other field, at both document and
// note level, is emitted verbatim as loaded.
//
// Callers are expected to gate this behind Validate (Store.Save does): a
// graph with validation errors has notes that cannot be faithfully rebuilt.
func (g *Graph) MarshalDocument() ([]byte, error) {
	root := make(map[string]json.RawMessage, len(g.raw)+2)
	for k, v := range g.raw {
		root[k] = v
	}

	notes := make([]json.RawMessage, 0, len(g.Notes))
	for _, n := range g.Notes {
		doc, err := n.marshalNote()
		if err != nil {
			return nil, err
		}
		notes = append(notes, doc)
	}
	if err := setRaw(root, "notes", notes); err != nil {
		return nil, err
	}

	if g.hasClusterLabels && !g.badClusterLabels {
		if err := setRaw(root, "cluster_labels", g.ClusterLabels); err != nil {
			return nil, err
		}
	}
	if g.hasLongRange {
		triples := make([][3]json.Number, 0, len(g.LongRange))
		for _, l := range g.LongRange {
			triples = append(triples, [3]json.Number{
				json.Number(fmt.Sprint(l.A)),
				json.Number(fmt.Sprint(l.B)),
				formatScore(l.Score),
			})
		}
		if err := setRaw(root, "long_range_links", triples); err != nil {
			return nil, err
		}
	}

	return marshalOrdered(root)
}

func (n *Note) marshalNote() (json.RawMessage, error) {
	doc := make(map[string]json.RawMessage, len(n.raw)+4)
	for k, v := range n.raw {
		doc[k] = v
	}
	if err := setRaw(doc, "note_id", n.ID); err != nil {
		return nil, err
	}
	if err := setRaw(doc, "raw_content", n.RawContent); err != nil {
		return nil, err
	}
	if err := setRaw(doc, "context", n.Context); err != nil {
		return nil, err
	}
	if _, had := n.raw["related_note_links"]; had || n.Related != nil {
		pairs := make([][2]json.Number, 0, len(n.Related))
		for _, l := range n.Related {
			pairs = append(pairs, [2]json.Number{
				json.Number(fmt.Sprint(l.Target)),
				formatScore(l.Score),
			})
		}
		if err := setRaw(doc, "related_note_links", pairs); err != nil {
			return nil, err
		}
	}
	return marshalOrdered(doc)
}

func setRaw(m map[string]json.RawMessage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("smg: marshal %q: %w", key, err)
	}
	m[key] = json.RawMessage(data)
	return nil
}

// formatScore renders a score as a JSON number without losing precision.
func formatScore(s float64) json.Number {
	data, _ := json.Marshal(s)
	return json.Number(data)
}

// marshalOrdered writes a raw-message map with sorted keys, which keeps the
// output byte-stable across saves.
func marshalOrdered(m map[string]json.RawMessage) (json.RawMessage, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := []byte{'{'}
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf = append(buf, name...)
		buf = append(buf, ':')
		buf = append(buf, m[k]...)
	}
	buf = append(buf, '}')
	return buf, nil
}
