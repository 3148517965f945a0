package server

import "github.com/mseren/cortexviz/pkg/scene"

// --- Request payloads ---

type sceneRequest struct {
	SessionID string `json:"session_id,omitempty"`
	// UseSelection substitutes the session's current selection for the
	// request's note id.
	UseSelection bool          `json:"use_selection,omitempty"`
	Request      scene.Request `json:"request"`
}

type editNoteRequest struct {
	SessionID   string  `json:"session_id,omitempty"`
	RawContent  *string `json:"raw_content,omitempty"`
	Context     *string `json:"context,omitempty"`
	RelatedText *string `json:"related_text,omitempty"`
}

type selectRequest struct {
	NoteID int `json:"note_id"`
}

// --- Response payloads ---

type sessionResponse struct {
	SessionID string   `json:"session_id"`
	Current   int      `json:"current"`
	Dirty     bool     `json:"dirty"`
	Warnings  []string `json:"warnings"`
}

type statsResponse struct {
	Notes          int `json:"notes"`
	RelatedLinks   int `json:"related_links"`
	LongRangeLinks int `json:"long_range_links"`
	Clusters       int `json:"clusters"`
}

type noteResponse struct {
	NoteID     int            `json:"note_id"`
	RawContent string         `json:"raw_content"`
	Context    string         `json:"context"`
	Cluster    *int           `json:"cluster,omitempty"`
	Outbound   []linkResponse `json:"outbound"`
	Inbound    []linkResponse `json:"inbound"`
	LongRange  []linkResponse `json:"long_range"`
}

type linkResponse struct {
	NoteID int     `json:"note_id"`
	Score  float64 `json:"score"`
}

type validateResponse struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}
