package enrich_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shpitdev/linknest/pkg/card"
	"github.com/shpitdev/linknest/pkg/enrich"
	"github.com/shpitdev/linknest/pkg/extract"
	"github.com/shpitdev/linknest/pkg/llm"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type extractorFunc func(ctx context.Context, rawURL string) (card.ExtractedContent, error)

func (f extractorFunc) Extract(ctx context.Context, rawURL string) (card.ExtractedContent, error) {
	return f(ctx, rawURL)
}

func failingExtractor() extractorFunc {
	return func(_ context.Context, rawURL string) (card.ExtractedContent, error) {
		return card.ExtractedContent{}, &extract.ExtractionError{URL: rawURL, Kind: card.KindArticle, Err: errors.New("404")}
	}
}

func textExtractor(text, title string) extractorFunc {
	return func(context.Context, string) (card.ExtractedContent, error) {
		return card.ExtractedContent{Text: text, Title: title, Kind: card.KindArticle}, nil
	}
}

func TestEnrich_ContentPrompt(t *testing.T) {
	body := strings.Repeat("Goroutines are cheap. ", 600)
	model := &llm.Fake{ModelName: "m1", Respond: func(string) (string, error) {
		return `{"title":"Goroutines","summary":"S1. S2. S3. S4. S5.","tags":["go","concurrency","runtime"]}`, nil
	}}
	e := enrich.New(textExtractor(body, "Page"), model, enrich.Options{Logger: quiet})

	res, err := e.Attempt(context.Background(), "https://example.com/goroutines")
	require.NoError(t, err)
	assert.Equal(t, "Goroutines", res.Title)
	assert.Equal(t, []string{"go", "concurrency", "runtime"}, res.Tags)
	assert.Equal(t, "m1", res.ModelUsed)
	assert.Equal(t, card.KindArticle, res.Kind)
	assert.Equal(t, len(body), res.ExtractedContentLength)

	prompts := model.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Content:")
	assert.Less(t, len(prompts[0]), len(body), "content must be truncated in the prompt")
}

func TestEnrich_ShortTextUsesURLPrompt(t *testing.T) {
	model := &llm.Fake{Respond: func(string) (string, error) {
		return `{"title":"Guess","summary":"Likely about X.","tags":["x"]}`, nil
	}}
	e := enrich.New(textExtractor("too short", ""), model, enrich.Options{Logger: quiet})

	res := e.Enrich(context.Background(), "https://example.com/x")
	assert.Equal(t, "Guess", res.Title)
	assert.Equal(t, 9, res.ExtractedContentLength)
	require.Len(t, model.Prompts(), 1)
	assert.Contains(t, model.Prompts()[0], "could not be retrieved")
}

func TestEnrich_ExtractionFailureStillCallsModel(t *testing.T) {
	model := &llm.Fake{Respond: func(string) (string, error) {
		return `{"title":"From URL","summary":"s","tags":["a"]}`, nil
	}}
	e := enrich.New(failingExtractor(), model, enrich.Options{Logger: quiet})

	res, err := e.Attempt(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "From URL", res.Title)
	assert.Equal(t, 0, res.ExtractedContentLength)
}

func TestEnrich_RepairsModelOutput(t *testing.T) {
	model := &llm.Fake{Respond: func(string) (string, error) {
		return "```json\n{\"title\":\"  \",\"summary\":\"\",\"tags\":[\" Go \",\"go\",\"\",\"a\",\"b\",\"c\",\"d\",\"e\"]}\n```", nil
	}}
	e := enrich.New(textExtractor("x", "Extracted Title"), model, enrich.Options{Logger: quiet})

	res := e.Enrich(context.Background(), "https://example.com/a")
	assert.Equal(t, "Extracted Title", res.Title)
	assert.Equal(t, "Summary not available.", res.Summary)
	assert.Equal(t, []string{"Go", "a", "b", "c", "d"}, res.Tags)
}

func TestEnrich_EmptyTagsAndTitleFallBack(t *testing.T) {
	model := &llm.Fake{Respond: func(string) (string, error) {
		return `{"title":"","summary":"ok","tags":[]}`, nil
	}}
	e := enrich.New(failingExtractor(), model, enrich.Options{Logger: quiet})

	res := e.Enrich(context.Background(), "https://www.example.com/a")
	assert.Equal(t, "www.example.com", res.Title)
	assert.Equal(t, []string{card.SentinelTag}, res.Tags)
}

func TestEnrich_TotalFailureDerivesTitle(t *testing.T) {
	model := &llm.Fake{Respond: func(string) (string, error) { return "", errors.New("model down") }}
	e := enrich.New(failingExtractor(), model, enrich.Options{Logger: quiet})

	res, err := e.Attempt(context.Background(), "https://example.com/blog/my-great-post.html")
	require.Error(t, err)
	assert.Equal(t, "my great post", res.Title)
	assert.Equal(t, card.ModelFallback, res.ModelUsed)
	assert.Equal(t, []string{card.SentinelTag}, res.Tags)
	assert.NotEmpty(t, res.Summary)
	assert.Equal(t, 0, res.ExtractedContentLength)

	assert.Equal(t, res.Title, e.Enrich(context.Background(), "https://example.com/blog/my-great-post.html").Title)
}

func TestEnrich_MalformedJSONFallsBack(t *testing.T) {
	model := &llm.Fake{Respond: func(string) (string, error) { return "not json", nil }}
	e := enrich.New(textExtractor(strings.Repeat("a", 200), ""), model, enrich.Options{Logger: quiet})

	res, err := e.Attempt(context.Background(), "https://example.com/")
	require.Error(t, err)
	assert.Equal(t, "example.com", res.Title)
	assert.Equal(t, card.ModelFallback, res.ModelUsed)
}

func TestEnrich_TotalForArbitraryInput(t *testing.T) {
	model := &llm.Fake{Respond: func(string) (string, error) { return "", errors.New("down") }}
	e := enrich.New(failingExtractor(), model, enrich.Options{Logger: quiet})

	for _, in := range []string{"", "   ", "::not a url::", "%%%", "https://", "ftp://host/only/"} {
		res := e.Enrich(context.Background(), in)
		assert.NotEmpty(t, res.Title, "input %q", in)
		assert.NotEmpty(t, res.Summary, "input %q", in)
		assert.NotEmpty(t, res.Tags, "input %q", in)
		assert.LessOrEqual(t, len(res.Tags), 5)
	}
}

func TestEnrich_TitleNeverEmptyWhenModelOmitsIt(t *testing.T) {
	model := &llm.Fake{ModelName: "m", Respond: func(string) (string, error) {
		return `{"summary":"s","tags":["a"]}`, nil
	}}
	e := enrich.New(failingExtractor(), model, enrich.Options{Logger: quiet})

	for _, in := range []string{"", "   ", "::not a url::", "%%%", "https://", "ftp://host/only/"} {
		res, err := e.Attempt(context.Background(), in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, "m", res.ModelUsed, "input %q", in)
		assert.NotEmpty(t, strings.TrimSpace(res.Title), "input %q", in)
		assert.Equal(t, []string{"a"}, res.Tags, "input %q", in)
	}

	res, err := e.Attempt(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, "Untitled link", res.Title)
}

func TestURLTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://example.com/blog/my-great-post.html", "my great post"},
		{"https://example.com/a/b_c+d/", "b c d"},
		{"https://example.com/caf%C3%A9-menu", "café menu"},
		{"https://example.com/", "example.com"},
		{"example.com/notes/2024.review.md", "2024 review"},
		{"::not a url::", "::not a url::"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, enrich.URLTitle(tt.in), tt.in)
	}
}
