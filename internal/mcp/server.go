package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mseren/cortexviz/pkg/scene"
	"github.com/mseren/cortexviz/pkg/smg"
)

func NewMCPServer(store *smg.Store, builder *scene.Builder) (*mcp.Server, error) {
	service := NewService(store, builder)

	s := mcp.NewServer(&mcp.Implementation{
		Name:    "Cortexviz Graph",
		Version: "0.3.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "graph_summary",
		Description: "Quick summary of the loaded note graph: note, link and cluster counts.",
	}, service.GraphSummary)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "inspect_note",
		Description: "Inspect one note and its strongest related notes.",
	}, service.InspectNote)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "long_range_links",
		Description: "List the strongest cross-cluster long-range links with snippets.",
	}, service.LongRangeLinks)

	// build_scene gets an explicit schema so the mode enum is visible to
	// clients instead of being a free-form string.
	sceneSchema, err := jsonschema.For[BuildSceneArgs](nil)
	if err != nil {
		return nil, err
	}
	sceneSchema.Properties["mode"].Enum = []any{
		string(scene.ModeNeighborhood),
		string(scene.ModeClusterMap),
		string(scene.ModeLongRange),
		string(scene.ModeClusterMatrix),
	}
	mcp.AddTool(s, &mcp.Tool{
		Name:        "build_scene",
		Description: "Build a bounded, render-ready scene of the graph under one of the four view modes.",
		InputSchema: sceneSchema,
	}, service.BuildScene)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "edit_note",
		Description: "Edit a note's text or replace its related links ('id:score' tokens).",
	}, service.EditNote)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "delete_note",
		Description: "Delete a note and scrub every reference to it from the graph.",
	}, service.DeleteNote)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "validate_graph",
		Description: "Validate the graph: schema errors (block save) and non-blocking warnings.",
	}, service.ValidateGraph)

	return s, nil
}
