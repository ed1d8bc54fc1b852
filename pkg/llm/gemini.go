// Package llm wraps the generative model used for enrichment and category suggestion.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/shpitdev/linknest/pkg/pipeline/core"
)

// DefaultModel is a fast, low-latency Gemini variant.
const DefaultModel = "gemini-2.5-flash-lite"

// rateLimitRetries caps retries of 429 responses below the pool's budget.
const rateLimitRetries = 1

// ErrMissingAPIKey is returned at call time when no API key is configured.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is required")

// Model generates text from a prompt.
type Model interface {
	Name() string
	// GenerateJSON constrains the reply to JSON matching schema and returns the raw text.
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string

	// Timeout bounds each model call. Zero means no per-call limit.
	Timeout time.Duration
}

// Gemini is a Model backed by the Gemini API. The underlying client is built on the
// first call and shared afterwards; a failed build is retried on the next call.
type Gemini struct {
	cfg Config

	mu     sync.Mutex
	client *genai.Client
}

func NewGemini(cfg Config) *Gemini {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Gemini{cfg: cfg}
}

func (g *Gemini) Name() string { return g.cfg.Model }

func (g *Gemini) handle(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}
	if g.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cc := &genai.ClientConfig{
		APIKey:  g.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if g.cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = g.cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	g.client = client
	return client, nil
}

func (g *Gemini) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	return g.generate(ctx, prompt, &genai.GenerateContentConfig{
		CandidateCount:   1,
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
}

func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, &genai.GenerateContentConfig{CandidateCount: 1})
}

func (g *Gemini) generate(ctx context.Context, prompt string, gc *genai.GenerateContentConfig) (string, error) {
	client, err := g.handle(ctx)
	if err != nil {
		return "", err
	}
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}
	resp, err := client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), gc)
	if err != nil {
		return "", classifyErr(err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

func classifyErr(err error) error {
	// Wrap transient failures so the worker pool will retry with backoff.
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 {
			// Quota windows rarely reopen within the pool's backoff.
			return &core.LimitedTransientError{Err: err, ExtraRetries: rateLimitRetries}
		}
		if apiErr.Code/100 == 5 {
			return &core.TransientError{Err: err}
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && (ne.Timeout() || ne.Temporary()) {
		return &core.TransientError{Err: err}
	}
	return err
}
