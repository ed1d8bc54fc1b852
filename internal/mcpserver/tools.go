package mcpserver

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shpitdev/linknest/pkg/card"
)

type URLInput struct {
	URL string `json:"url" jsonschema:"the link to process"`
}

type URLsInput struct {
	URLs []string `json:"urls" jsonschema:"the links to enrich, in order"`
}

type ClassifyOutput struct {
	Kind card.Kind `json:"kind"`
}

type BatchOutput struct {
	Items     []card.BatchItem `json:"items"`
	Succeeded int              `json:"succeeded"`
}

type CategoryInput struct {
	ID          string `json:"id" jsonschema:"caller-defined category identifier"`
	Name        string `json:"name" jsonschema:"category name"`
	Description string `json:"description,omitempty" jsonschema:"optional category description"`
}

type SuggestInput struct {
	Title      string          `json:"title" jsonschema:"title of the saved link"`
	Summary    string          `json:"summary" jsonschema:"summary of the saved link"`
	Tags       []string        `json:"tags,omitempty" jsonschema:"tags of the saved link"`
	Categories []CategoryInput `json:"categories" jsonschema:"candidate categories, in display order"`
}

type SuggestOutput struct {
	CategoryID string `json:"categoryId,omitempty"`
	Matched    bool   `json:"matched"`
}

var errEmptyURL = errors.New("url is required")

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "classify_url",
		Description: "Classify a link as video, short-post, code-repo or article",
	}, s.handleClassify)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "preview_url",
		Description: "Fetch quick preview metadata (title, description, image) for a link",
	}, s.handlePreview)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "enrich_url",
		Description: "Summarize and tag a link using its content",
	}, s.handleEnrich)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "enrich_urls",
		Description: "Summarize and tag several links; results keep the input order",
	}, s.handleEnrichBatch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "suggest_nest",
		Description: "Pick the best matching category for an enriched link",
	}, s.handleSuggest)
}

func (s *Server) handleClassify(_ context.Context, _ *mcp.CallToolRequest, in URLInput) (*mcp.CallToolResult, ClassifyOutput, error) {
	if strings.TrimSpace(in.URL) == "" {
		return nil, ClassifyOutput{}, errEmptyURL
	}
	return nil, ClassifyOutput{Kind: s.pipeline.Classify(in.URL)}, nil
}

func (s *Server) handlePreview(ctx context.Context, _ *mcp.CallToolRequest, in URLInput) (*mcp.CallToolResult, card.FastMetadata, error) {
	if strings.TrimSpace(in.URL) == "" {
		return nil, card.FastMetadata{}, errEmptyURL
	}
	return nil, s.pipeline.Preview(ctx, strings.TrimSpace(in.URL)), nil
}

func (s *Server) handleEnrich(ctx context.Context, _ *mcp.CallToolRequest, in URLInput) (*mcp.CallToolResult, card.Result, error) {
	if strings.TrimSpace(in.URL) == "" {
		return nil, card.Result{}, errEmptyURL
	}
	return nil, s.pipeline.Enrich(ctx, strings.TrimSpace(in.URL)), nil
}

func (s *Server) handleEnrichBatch(ctx context.Context, _ *mcp.CallToolRequest, in URLsInput) (*mcp.CallToolResult, BatchOutput, error) {
	if len(in.URLs) == 0 {
		return nil, BatchOutput{}, errors.New("urls must not be empty")
	}
	items, err := s.pipeline.EnrichBatch(ctx, in.URLs)
	if err != nil {
		return nil, BatchOutput{}, err
	}
	out := BatchOutput{Items: items}
	for _, it := range items {
		if it.Succeeded {
			out.Succeeded++
		}
	}
	return nil, out, nil
}

func (s *Server) handleSuggest(ctx context.Context, _ *mcp.CallToolRequest, in SuggestInput) (*mcp.CallToolResult, SuggestOutput, error) {
	cats := make([]card.Category, len(in.Categories))
	for i, c := range in.Categories {
		cats[i] = card.Category{ID: c.ID, Name: c.Name, Description: c.Description}
	}
	item := card.Result{Title: in.Title, Summary: in.Summary, Tags: in.Tags}
	id, ok := s.pipeline.SuggestNest(ctx, item, cats)
	return nil, SuggestOutput{CategoryID: id, Matched: ok}, nil
}
