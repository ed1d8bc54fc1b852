// Package batch enriches lists of URLs with bounded concurrency.
package batch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shpitdev/linknest/pkg/card"
	"github.com/shpitdev/linknest/pkg/classify"
	"github.com/shpitdev/linknest/pkg/enrich"
	"github.com/shpitdev/linknest/pkg/pipeline/redact"
	"github.com/shpitdev/linknest/pkg/pipeline/worker"
)

// DefaultWindow is the number of URLs enriched at once.
const DefaultWindow = 5

const errorSummary = "Something went wrong while processing this link. Try enriching it again."

// Attempter is the enrichment step run per URL. On error the returned Result must
// already be a usable fallback.
type Attempter interface {
	Attempt(ctx context.Context, rawURL string) (card.Result, error)
}

type Options struct {
	// Window is the number of concurrent enrichments.
	Window int
	// MaxRetries applies to transient model failures only.
	MaxRetries     int
	RequestTimeout time.Duration
	RateLimitRPS   float64

	// OnItem, when set, is called as each item settles, in completion order.
	OnItem func(index int, item card.BatchItem)

	Logger *slog.Logger
}

type Coordinator struct {
	enricher Attempter
	opts     Options
	logger   *slog.Logger
}

func New(enricher Attempter, opts Options) *Coordinator {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Coordinator{enricher: enricher, opts: opts, logger: opts.Logger}
}

// EnrichBatch returns one item per URL, in input order. It never fails; an item whose
// processing broke down carries a synthetic result with ModelUsed "error".
func (c *Coordinator) EnrichBatch(ctx context.Context, urls []string) []card.BatchItem {
	runID := uuid.NewString()
	logger := c.logger.With("run", runID)
	start := time.Now()
	logger.Info("batch start", "urls", len(urls), "window", c.opts.Window, "maxRetries", c.opts.MaxRetries, "rateLimitRPS", c.opts.RateLimitRPS)

	completed, succeeded := 0, 0
	results := worker.ProcessAllWithCallback(ctx, urls, c.enricher.Attempt, func(r worker.Result[string, card.Result]) {
		item := toItem(r)
		completed++
		if item.Succeeded {
			succeeded++
		}
		attrs := []any{"index", r.Index, "url", redact.Secrets(r.Input), "completed", completed, "total", len(urls), "succeeded", item.Succeeded, "model", item.Result.ModelUsed}
		if r.Err != nil {
			attrs = append(attrs, "err", redact.Secrets(r.Err.Error()))
		}
		logger.Debug("batch item settled", attrs...)
		if c.opts.OnItem != nil {
			c.opts.OnItem(r.Index, item)
		}
	}, worker.Options{
		Workers:        c.opts.Window,
		MaxRetries:     c.opts.MaxRetries,
		RequestTimeout: c.opts.RequestTimeout,
		RateLimitRPS:   c.opts.RateLimitRPS,
	})

	items := make([]card.BatchItem, len(results))
	for i, r := range results {
		items[i] = toItem(r)
	}
	logger.Info("batch complete", "urls", len(urls), "succeeded", succeeded, "failed", len(urls)-succeeded, "duration", time.Since(start).Round(time.Millisecond))
	return items
}

func toItem(r worker.Result[string, card.Result]) card.BatchItem {
	res := r.Output
	var pe *worker.PanicError
	if errors.As(r.Err, &pe) || res.ModelUsed == "" {
		res = errorResult(r.Input)
	}
	return card.BatchItem{
		URL:       r.Input,
		Result:    res,
		Succeeded: r.Err == nil && res.ModelUsed != card.ModelFallback && res.ModelUsed != card.ModelError,
	}
}

func errorResult(rawURL string) card.Result {
	return card.Result{
		Title:     enrich.FallbackTitle(rawURL),
		Summary:   errorSummary,
		Tags:      []string{card.SentinelTag},
		Kind:      classify.Classify(rawURL),
		ModelUsed: card.ModelError,
	}
}
