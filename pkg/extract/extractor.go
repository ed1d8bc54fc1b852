// Package extract pulls substantive text out of a URL to ground AI enrichment.
//
// Each content kind has an ordered chain of steps. The first step that applies and
// succeeds wins; when none does, the chain's final rule decides between placeholder
// text and an ExtractionError.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/shpitdev/linknest/pkg/card"
	"github.com/shpitdev/linknest/pkg/classify"
	"github.com/shpitdev/linknest/pkg/fetch"
	"github.com/shpitdev/linknest/pkg/pipeline/redact"
	"github.com/shpitdev/linknest/pkg/transcript"
)

// DefaultTimeout bounds each page fetch.
const DefaultTimeout = 15 * time.Second

// ErrExtractionFailed matches every *ExtractionError.
var ErrExtractionFailed = errors.New("extraction failed")

// ExtractionError is returned for kinds with no sensible placeholder text
// (articles and code repositories) when their page cannot be fetched.
type ExtractionError struct {
	URL  string
	Kind card.Kind
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s %s: %v", e.Kind, redact.Secrets(e.URL), e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtractionFailed }

// VideoSource provides transcripts and oEmbed metadata.
type VideoSource interface {
	transcript.Fetcher
	OEmbed(ctx context.Context, videoURL string) (transcript.Meta, error)
}

// Cache stores successful extractions keyed by URL.
type Cache interface {
	Get(ctx context.Context, rawURL string) (card.ExtractedContent, bool)
	Put(ctx context.Context, rawURL string, content card.ExtractedContent) error
}

// Options configure an Extractor.
type Options struct {
	Timeout time.Duration
	Videos  VideoSource
	// GitHub enables the API step for github.com repositories. Nil skips it.
	GitHub *gh.Client
	Cache  Cache
	Logger *slog.Logger
}

// Extractor dispatches deep extraction by content kind.
type Extractor struct {
	getter  fetch.Getter
	timeout time.Duration
	videos  VideoSource
	github  *gh.Client
	cache   Cache
	logger  *slog.Logger
	chains  map[card.Kind]chain
}

type target struct {
	url  string
	kind card.Kind
}

type step struct {
	name    string
	applies func(t target) bool
	run     func(ctx context.Context, t target) (card.ExtractedContent, error)
}

type chain struct {
	steps []step
	// final runs when no step succeeded; lastErr is nil when no step applied.
	final func(t target, lastErr error) (card.ExtractedContent, error)
}

func New(getter fetch.Getter, opts Options) *Extractor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Videos == nil {
		opts.Videos = transcript.NewYouTube(getter, transcript.Options{Timeout: opts.Timeout, Logger: opts.Logger})
	}
	e := &Extractor{
		getter:  getter,
		timeout: opts.Timeout,
		videos:  opts.Videos,
		github:  opts.GitHub,
		cache:   opts.Cache,
		logger:  opts.Logger,
	}
	e.chains = map[card.Kind]chain{
		card.KindVideo: {
			steps: []step{{name: "youtube-transcript", applies: hasVideoID, run: e.videoTranscript}},
			final: videoPlaceholder,
		},
		card.KindArticle: {
			steps: []step{{name: "article-page", applies: always, run: e.articlePage}},
			final: failed,
		},
		card.KindShortPost: {
			steps: []step{{name: "social-meta", applies: always, run: e.socialMeta}},
			final: socialPlaceholder,
		},
		card.KindCodeRepo: {
			steps: []step{
				{name: "github-api", applies: e.githubApplies, run: e.githubRepo},
				{name: "repo-page", applies: always, run: e.repoPage},
			},
			final: failed,
		},
	}
	return e
}

// Extract returns the content of rawURL. Only articles and code repositories can fail,
// with an *ExtractionError; every other kind degrades to placeholder text.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (card.ExtractedContent, error) {
	t := target{url: rawURL, kind: classify.Classify(rawURL)}

	if e.cache != nil {
		if c, ok := e.cache.Get(ctx, rawURL); ok {
			e.logger.Debug("extraction cache hit", "url", rawURL)
			return c, nil
		}
	}

	c, err := e.run(ctx, t)
	if err != nil {
		return card.ExtractedContent{}, err
	}
	c.Kind = t.kind
	c.Text = truncate(c.Text, t.kind.MaxTextLen())

	if e.cache != nil && !c.Degraded {
		if err := e.cache.Put(ctx, rawURL, c); err != nil {
			e.logger.Warn("extraction cache write failed", "url", rawURL, "err", redact.Secrets(err.Error()))
		}
	}
	return c, nil
}

func (e *Extractor) run(ctx context.Context, t target) (card.ExtractedContent, error) {
	ch, ok := e.chains[t.kind]
	if !ok {
		ch = e.chains[card.KindArticle]
	}
	var lastErr error
	for _, s := range ch.steps {
		if !s.applies(t) {
			continue
		}
		c, err := s.run(ctx, t)
		if err == nil {
			e.logger.Debug("extraction step succeeded", "url", t.url, "kind", t.kind, "step", s.name, "chars", len(c.Text))
			return c, nil
		}
		e.logger.Debug("extraction step failed", "url", t.url, "kind", t.kind, "step", s.name, "err", redact.Secrets(err.Error()))
		lastErr = err
	}
	return ch.final(t, lastErr)
}

func (e *Extractor) pageOptions() fetch.Options {
	return fetch.Options{Timeout: e.timeout}
}

func always(target) bool { return true }

func failed(t target, lastErr error) (card.ExtractedContent, error) {
	if lastErr == nil {
		lastErr = errors.New("no extraction step applied")
	}
	return card.ExtractedContent{}, &ExtractionError{URL: t.url, Kind: t.kind, Err: lastErr}
}
