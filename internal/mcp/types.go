package mcp

import "github.com/mseren/cortexviz/pkg/scene"

// --- Tool Arguments ---

type GraphSummaryArgs struct{}

type GraphSummaryResult struct {
	Notes          int  `json:"notes"`
	RelatedLinks   int  `json:"related_links"`
	LongRangeLinks int  `json:"long_range_links"`
	Clusters       int  `json:"clusters"`
	ClusterLabels  bool `json:"cluster_labels_present"`
}

type InspectNoteArgs struct {
	NoteID       int `json:"note_id" jsonschema:"Note id to inspect,required"`
	LinksK       int `json:"links_k,omitempty" jsonschema:"Number of related notes to include (default 10)"`
	SnippetChars int `json:"snippet_chars,omitempty" jsonschema:"Maximum characters per snippet (default 140)"`
}

type InspectNoteResult struct {
	NoteID  int          `json:"note_id"`
	Snippet string       `json:"snippet"`
	Context string       `json:"context"`
	Cluster *int         `json:"cluster,omitempty"`
	Related []ScoredNote `json:"related"`
}

type ScoredNote struct {
	NoteID  int     `json:"note_id"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

type LongRangeLinksArgs struct {
	TopK         int `json:"top_k,omitempty" jsonschema:"Number of long-range links to include (default 20)"`
	SnippetChars int `json:"snippet_chars,omitempty" jsonschema:"Maximum characters per snippet (default 140)"`
}

type LongRangeLinksResult struct {
	Links []LongRangeEntry `json:"links"`
}

type LongRangeEntry struct {
	NoteA    int     `json:"note_a"`
	NoteB    int     `json:"note_b"`
	Score    float64 `json:"score"`
	SnippetA string  `json:"snippet_a"`
	SnippetB string  `json:"snippet_b"`
}

type BuildSceneArgs struct {
	Mode               string  `json:"mode" jsonschema:"View mode,required"`
	NoteID             int     `json:"note_id,omitempty" jsonschema:"Selected note id (neighborhood focus)"`
	RelatedLimit       int     `json:"related_limit,omitempty" jsonschema:"Per-note link cap (default 5)"`
	Depth              int     `json:"depth,omitempty" jsonschema:"Expansion depth 1-3 (default 1)"`
	MinScoreNormalized float64 `json:"min_score_normalized,omitempty" jsonschema:"Normalized score threshold 0-1"`
	LongRangeTopK      int     `json:"long_range_top_k,omitempty" jsonschema:"Global long-range cap (default 20)"`
	IncludeLongRange   bool    `json:"include_long_range,omitempty" jsonschema:"Append long-range links"`
}

type BuildSceneResult struct {
	Scene *scene.Scene `json:"scene"`
}

type EditNoteArgs struct {
	NoteID      int     `json:"note_id" jsonschema:"Note id to edit,required"`
	RawContent  *string `json:"raw_content,omitempty" jsonschema:"Replacement raw content"`
	Context     *string `json:"context,omitempty" jsonschema:"Replacement context"`
	RelatedText *string `json:"related_text,omitempty" jsonschema:"Replacement related links as 'id:score' tokens; a bare id means score 0"`
}

type EditNoteResult struct {
	Status   string   `json:"status"`
	Warnings []string `json:"warnings"`
}

type DeleteNoteArgs struct {
	NoteID int `json:"note_id" jsonschema:"Note id to delete,required"`
}

type DeleteNoteResult struct {
	Status    string `json:"status"`
	NotesLeft int    `json:"notes_left"`
}

type ValidateGraphArgs struct{}

type ValidateGraphResult struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}
