// Package mcp exposes the note graph to LLM clients over the Model Context
// Protocol: inspection, view construction and guarded mutation.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mseren/cortexviz/pkg/scene"
	"github.com/mseren/cortexviz/pkg/smg"
)

const (
	defaultLinksK       = 10
	defaultTopK         = 20
	defaultSnippetChars = 140
	defaultRelatedLimit = 5
)

// Service holds the tool handlers. All access to the store is serialized
// through mu, keeping mutations atomic relative to reads.
type Service struct {
	mu      sync.Mutex
	store   *smg.Store
	mutator *smg.Mutator
	builder *scene.Builder
	session *smg.Session
}

func NewService(store *smg.Store, builder *scene.Builder) *Service {
	return &Service{
		store:   store,
		mutator: smg.NewMutator(store),
		builder: builder,
		session: smg.NewSession(),
	}
}

// snippet truncates text for LLM consumption.
func snippet(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = defaultSnippetChars
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= maxChars {
		return text
	}
	return text[:maxChars] + "…"
}

// --- Tool Handlers ---

func (s *Service) GraphSummary(ctx context.Context, req *mcp.CallToolRequest, args GraphSummaryArgs) (*mcp.CallToolResult, GraphSummaryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edges := 0
	for _, n := range s.store.Graph().Notes {
		edges += len(n.Related)
	}
	return nil, GraphSummaryResult{
		Notes:          s.store.Len(),
		RelatedLinks:   edges,
		LongRangeLinks: len(s.store.Graph().LongRange),
		Clusters:       len(s.store.ClusterIDs()),
		ClusterLabels:  s.store.Graph().HasClusterLabels(),
	}, nil
}

func (s *Service) InspectNote(ctx context.Context, req *mcp.CallToolRequest, args InspectNoteArgs) (*mcp.CallToolResult, InspectNoteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	note, ok := s.store.NoteByID(args.NoteID)
	if !ok {
		return nil, InspectNoteResult{}, fmt.Errorf("note %d not found", args.NoteID)
	}

	linksK := args.LinksK
	if linksK <= 0 {
		linksK = defaultLinksK
	}

	res := InspectNoteResult{
		NoteID:  note.ID,
		Snippet: snippet(note.RawContent, args.SnippetChars),
		Context: snippet(note.Context, args.SnippetChars),
		Related: []ScoredNote{},
	}
	if c, ok := s.store.ClusterOf(note.ID); ok {
		res.Cluster = &c
	}
	for _, link := range note.RelatedByScore() {
		if len(res.Related) == linksK {
			break
		}
		target, ok := s.store.NoteByID(link.Target)
		if !ok {
			continue
		}
		res.Related = append(res.Related, ScoredNote{
			NoteID:  link.Target,
			Score:   link.Score,
			Snippet: snippet(target.RawContent, args.SnippetChars),
		})
	}
	return nil, res, nil
}

func (s *Service) LongRangeLinks(ctx context.Context, req *mcp.CallToolRequest, args LongRangeLinksArgs) (*mcp.CallToolResult, LongRangeLinksResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	topK := args.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	res := LongRangeLinksResult{Links: []LongRangeEntry{}}
	for _, l := range s.store.LongRangeTop(topK) {
		entry := LongRangeEntry{NoteA: l.A, NoteB: l.B, Score: l.Score}
		if a, ok := s.store.NoteByID(l.A); ok {
			entry.SnippetA = snippet(a.RawContent, args.SnippetChars)
		}
		if b, ok := s.store.NoteByID(l.B); ok {
			entry.SnippetB = snippet(b.RawContent, args.SnippetChars)
		}
		res.Links = append(res.Links, entry)
	}
	return nil, res, nil
}

func (s *Service) BuildScene(ctx context.Context, req *mcp.CallToolRequest, args BuildSceneArgs) (*mcp.CallToolResult, BuildSceneResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	relatedLimit := args.RelatedLimit
	if relatedLimit <= 0 {
		relatedLimit = defaultRelatedLimit
	}
	topK := args.LongRangeTopK
	if topK <= 0 {
		topK = defaultTopK
	}

	built, err := s.builder.Build(scene.Request{
		Mode:               scene.Mode(args.Mode),
		NoteID:             args.NoteID,
		RelatedLimit:       relatedLimit,
		Depth:              args.Depth,
		MinScoreNormalized: args.MinScoreNormalized,
		LongRangeTopK:      topK,
		IncludeLongRange:   args.IncludeLongRange,
	})
	if err != nil {
		return nil, BuildSceneResult{}, err
	}
	return nil, BuildSceneResult{Scene: built}, nil
}

func (s *Service) EditNote(ctx context.Context, req *mcp.CallToolRequest, args EditNoteArgs) (*mcp.CallToolResult, EditNoteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.session.Warnings)
	err := s.mutator.EditNote(s.session, args.NoteID, smg.EditFields{
		RawContent:  args.RawContent,
		Context:     args.Context,
		RelatedText: args.RelatedText,
	})
	if err != nil {
		return nil, EditNoteResult{}, err
	}
	return nil, EditNoteResult{
		Status:   "edited",
		Warnings: append([]string{}, s.session.Warnings[before:]...),
	}, nil
}

func (s *Service) DeleteNote(ctx context.Context, req *mcp.CallToolRequest, args DeleteNoteArgs) (*mcp.CallToolResult, DeleteNoteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mutator.DeleteNote(s.session, args.NoteID)
	return nil, DeleteNoteResult{Status: "deleted", NotesLeft: s.store.Len()}, nil
}

func (s *Service) ValidateGraph(ctx context.Context, req *mcp.CallToolRequest, args ValidateGraphArgs) (*mcp.CallToolResult, ValidateGraphResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := smg.Validate(s.store.Graph())
	res := ValidateGraphResult{Errors: []string{}, Warnings: []string{}}
	res.Errors = append(res.Errors, report.Errors...)
	res.Warnings = append(res.Warnings, report.Warnings...)
	return nil, res, nil
}
