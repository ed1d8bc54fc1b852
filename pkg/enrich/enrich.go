// Package enrich turns a URL into a titled, summarized and tagged card.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"google.golang.org/genai"

	"github.com/shpitdev/linknest/pkg/card"
	"github.com/shpitdev/linknest/pkg/classify"
	"github.com/shpitdev/linknest/pkg/llm"
	"github.com/shpitdev/linknest/pkg/pipeline/redact"
)

const (
	// Extracted text shorter than this is not worth grounding a summary on.
	minContentLen = 100
	maxPromptText = 8000
	maxTags       = 5

	summaryUnavailable = "Summary not available."
	untitled           = "Untitled link"
	fallbackSummary    = "We couldn't analyze this link automatically. Open it to read the full content."
)

// Extractor is the deep content source.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (card.ExtractedContent, error)
}

type Options struct {
	Logger *slog.Logger
}

// Enricher produces card.Results.
type Enricher struct {
	extractor Extractor
	model     llm.Model
	logger    *slog.Logger
	now       func() time.Time
}

func New(extractor Extractor, model llm.Model, opts Options) *Enricher {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Enricher{
		extractor: extractor,
		model:     model,
		logger:    opts.Logger,
		now:       time.Now,
	}
}

type reply struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

var outputSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":   {Type: genai.TypeString},
		"summary": {Type: genai.TypeString},
		"tags": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"title", "summary", "tags"},
}

// Enrich never fails: any error yields the URL-derived fallback result.
func (e *Enricher) Enrich(ctx context.Context, rawURL string) card.Result {
	res, err := e.Attempt(ctx, rawURL)
	if err != nil {
		e.logger.Warn("enrichment fell back", "url", redact.Secrets(rawURL), "err", redact.Secrets(err.Error()))
	}
	return res
}

// Attempt is Enrich with the failure made visible. When err is non-nil the returned
// Result is already the fallback and is safe to use.
func (e *Enricher) Attempt(ctx context.Context, rawURL string) (card.Result, error) {
	start := e.now()
	kind := classify.Classify(rawURL)

	content, err := e.extractor.Extract(ctx, rawURL)
	if err != nil {
		e.logger.Debug("extraction failed, using url only", "url", redact.Secrets(rawURL), "err", redact.Secrets(err.Error()))
		content = card.ExtractedContent{}
	}

	text := strings.TrimSpace(content.Text)
	var prompt string
	if utf8.RuneCountInString(text) >= minContentLen {
		prompt = contentPrompt(rawURL, kind, content, truncate(text, maxPromptText))
	} else {
		prompt = urlPrompt(rawURL, kind)
	}

	if e.model == nil {
		return e.fallback(rawURL, kind, start), errors.New("enrich: no model configured")
	}
	raw, err := e.model.GenerateJSON(ctx, prompt, outputSchema)
	if err != nil {
		return e.fallback(rawURL, kind, start), fmt.Errorf("enrich: model: %w", err)
	}
	var parsed reply
	if err := json.Unmarshal([]byte(stripFence(raw)), &parsed); err != nil {
		return e.fallback(rawURL, kind, start), fmt.Errorf("enrich: parse model json: %w", err)
	}

	return card.Result{
		Title:                  firstNonEmpty(parsed.Title, content.Title, classify.Host(rawURL), FallbackTitle(rawURL)),
		Summary:                firstNonEmpty(parsed.Summary, summaryUnavailable),
		Tags:                   repairTags(parsed.Tags),
		Kind:                   kind,
		ModelUsed:              e.model.Name(),
		ProcessingTimeMs:       e.now().Sub(start).Milliseconds(),
		ExtractedContentLength: utf8.RuneCountInString(content.Text),
	}, nil
}

func (e *Enricher) fallback(rawURL string, kind card.Kind, start time.Time) card.Result {
	return card.Result{
		Title:                  FallbackTitle(rawURL),
		Summary:                fallbackSummary,
		Tags:                   []string{card.SentinelTag},
		Kind:                   kind,
		ModelUsed:              card.ModelFallback,
		ProcessingTimeMs:       e.now().Sub(start).Milliseconds(),
		ExtractedContentLength: 0,
	}
}

// FallbackTitle is the last-resort title derived from the URL alone. It is never empty.
func FallbackTitle(rawURL string) string {
	return firstNonEmpty(URLTitle(rawURL), rawURL, untitled)
}

// repairTags trims, drops blanks and case-insensitive duplicates, and caps the list.
// An empty result becomes the sentinel tag.
func repairTags(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.Join(strings.Fields(t), " ")
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
		if len(out) == maxTags {
			break
		}
	}
	if len(out) == 0 {
		return []string{card.SentinelTag}
	}
	return out
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
