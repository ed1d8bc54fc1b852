package mcpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shpitdev/linknest/pkg/card"
)

type fakePipeline struct {
	batchErr  error
	gotCats   []card.Category
	gotItem   card.Result
	suggestID string
}

func (f *fakePipeline) Classify(string) card.Kind { return card.KindVideo }

func (f *fakePipeline) Preview(_ context.Context, rawURL string) card.FastMetadata {
	return card.FastMetadata{Title: "preview of " + rawURL, Kind: card.KindArticle}
}

func (f *fakePipeline) Enrich(_ context.Context, rawURL string) card.Result {
	return card.Result{Title: rawURL, Summary: "s", Tags: []string{"t"}, ModelUsed: "m"}
}

func (f *fakePipeline) EnrichBatch(_ context.Context, urls []string) ([]card.BatchItem, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	items := make([]card.BatchItem, len(urls))
	for i, u := range urls {
		items[i] = card.BatchItem{URL: u, Succeeded: i%2 == 0}
	}
	return items, nil
}

func (f *fakePipeline) SuggestNest(_ context.Context, item card.Result, cats []card.Category) (string, bool) {
	f.gotItem, f.gotCats = item, cats
	return f.suggestID, f.suggestID != ""
}

func newTestServer(t *testing.T, p *fakePipeline) *Server {
	t.Helper()
	s, err := New(p, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func TestNew_RequiresPipeline(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrMissingPipeline)
}

func TestServer_handleClassifyAndPreview(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t, &fakePipeline{})

	_, out, err := s.handleClassify(ctx, nil, URLInput{URL: "https://youtu.be/x"})
	require.NoError(t, err)
	assert.Equal(t, card.KindVideo, out.Kind)

	_, _, err = s.handleClassify(ctx, nil, URLInput{URL: "  "})
	require.Error(t, err)

	_, md, err := s.handlePreview(ctx, nil, URLInput{URL: " https://example.com "})
	require.NoError(t, err)
	assert.Equal(t, "preview of https://example.com", md.Title)
}

func TestServer_handleEnrich(t *testing.T) {
	s := newTestServer(t, &fakePipeline{})

	_, res, err := s.handleEnrich(context.Background(), nil, URLInput{URL: "https://example.com/a"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", res.Title)
}

func TestServer_handleEnrichBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps order and counts successes", func(t *testing.T) {
		s := newTestServer(t, &fakePipeline{})
		_, out, err := s.handleEnrichBatch(ctx, nil, URLsInput{URLs: []string{"a", "b", "c"}})
		require.NoError(t, err)
		require.Len(t, out.Items, 3)
		assert.Equal(t, "b", out.Items[1].URL)
		assert.Equal(t, 2, out.Succeeded)
	})

	t.Run("empty input errors", func(t *testing.T) {
		s := newTestServer(t, &fakePipeline{})
		_, _, err := s.handleEnrichBatch(ctx, nil, URLsInput{})
		require.Error(t, err)
	})

	t.Run("limit error is returned", func(t *testing.T) {
		s := newTestServer(t, &fakePipeline{batchErr: errors.New("batch too large")})
		_, _, err := s.handleEnrichBatch(ctx, nil, URLsInput{URLs: []string{"a"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})
}

func TestServer_handleSuggest(t *testing.T) {
	p := &fakePipeline{suggestID: "c2"}
	s := newTestServer(t, p)

	_, out, err := s.handleSuggest(context.Background(), nil, SuggestInput{
		Title:      "Pasta",
		Summary:    "Recipe",
		Categories: []CategoryInput{{ID: "c1", Name: "Go"}, {ID: "c2", Name: "Cooking", Description: "food"}},
	})
	require.NoError(t, err)
	assert.True(t, out.Matched)
	assert.Equal(t, "c2", out.CategoryID)
	assert.Equal(t, "Pasta", p.gotItem.Title)
	require.Len(t, p.gotCats, 2)
	assert.Equal(t, "food", p.gotCats[1].Description)
}
