// Package app wires the linknest pipeline from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/shpitdev/linknest/internal/cache"
	"github.com/shpitdev/linknest/internal/config"
	"github.com/shpitdev/linknest/pkg/batch"
	"github.com/shpitdev/linknest/pkg/card"
	"github.com/shpitdev/linknest/pkg/classify"
	"github.com/shpitdev/linknest/pkg/enrich"
	"github.com/shpitdev/linknest/pkg/extract"
	"github.com/shpitdev/linknest/pkg/fetch"
	"github.com/shpitdev/linknest/pkg/llm"
	"github.com/shpitdev/linknest/pkg/nest"
	"github.com/shpitdev/linknest/pkg/preview"
	"github.com/shpitdev/linknest/pkg/transcript"
)

// ErrBatchTooLarge is returned when a batch exceeds the configured limit.
var ErrBatchTooLarge = errors.New("batch too large")

// Options override collaborators built from config. Nil fields use the defaults.
type Options struct {
	Logger *slog.Logger
	Getter fetch.Getter
	Model  llm.Model
	GitHub *gh.Client
	Videos extract.VideoSource
}

// Service exposes the pipeline operations.
type Service struct {
	cfg    config.Config
	logger *slog.Logger

	preview  *preview.Extractor
	extract  *extract.Extractor
	enricher *enrich.Enricher
	batch    *batch.Coordinator
	nests    *nest.Suggester
	cache    *cache.Store
}

func New(ctx context.Context, cfg config.Config, opts Options) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	getter := opts.Getter
	if getter == nil {
		getter = fetch.NewClient(cfg.UserAgent)
	}
	model := opts.Model
	if model == nil {
		model = llm.NewGemini(llm.Config{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
			Timeout: cfg.Gemini.Timeout,
		})
	}
	videos := opts.Videos
	if videos == nil {
		videos = transcript.NewYouTube(getter, transcript.Options{
			Timeout:  extract.DefaultTimeout,
			Language: cfg.TranscriptLanguage,
			Logger:   logger,
		})
	}
	githubClient := opts.GitHub
	if githubClient == nil {
		githubClient = newGitHubClient(ctx, cfg.GitHubToken)
	}

	s := &Service{cfg: cfg, logger: logger}

	var xcache extract.Cache
	if cfg.CachePath != "" {
		store, err := cache.Open(cfg.CachePath, cfg.CacheTTL, logger)
		if err != nil {
			return nil, err
		}
		if n, err := store.Prune(ctx); err != nil {
			logger.Warn("cache prune failed", "err", err)
		} else if n > 0 {
			logger.Debug("pruned expired cache entries", "count", n)
		}
		s.cache = store
		xcache = store
	}

	s.preview = preview.New(getter, preview.Options{Logger: logger})
	s.extract = extract.New(getter, extract.Options{
		Videos: videos,
		GitHub: githubClient,
		Cache:  xcache,
		Logger: logger,
	})
	s.enricher = enrich.New(s.extract, model, enrich.Options{Logger: logger})
	s.batch = batch.New(s.enricher, batch.Options{
		Window:       cfg.Window,
		MaxRetries:   cfg.MaxRetries,
		RateLimitRPS: cfg.RateLimitRPS,
		Logger:       logger,
	})
	s.nests = nest.New(model, nest.Options{Logger: logger})
	return s, nil
}

// newGitHubClient returns a token-authenticated client, or an anonymous one when token is empty.
func newGitHubClient(ctx context.Context, token string) *gh.Client {
	if token == "" {
		return gh.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return gh.NewClient(oauth2.NewClient(ctx, ts))
}

func (s *Service) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}

// BatchLimit is the most URLs EnrichBatch accepts.
func (s *Service) BatchLimit() int { return s.cfg.BatchLimit }

func (s *Service) Classify(rawURL string) card.Kind {
	return classify.Classify(rawURL)
}

func (s *Service) Preview(ctx context.Context, rawURL string) card.FastMetadata {
	return s.preview.Extract(ctx, rawURL)
}

func (s *Service) Extract(ctx context.Context, rawURL string) (card.ExtractedContent, error) {
	return s.extract.Extract(ctx, rawURL)
}

func (s *Service) Enrich(ctx context.Context, rawURL string) card.Result {
	return s.enricher.Enrich(ctx, rawURL)
}

// EnrichBatch enriches up to BatchLimit URLs.
func (s *Service) EnrichBatch(ctx context.Context, urls []string) ([]card.BatchItem, error) {
	if len(urls) > s.cfg.BatchLimit {
		return nil, fmt.Errorf("%w: %d urls, limit is %d", ErrBatchTooLarge, len(urls), s.cfg.BatchLimit)
	}
	return s.batch.EnrichBatch(ctx, urls), nil
}

func (s *Service) SuggestNest(ctx context.Context, item card.Result, categories []card.Category) (string, bool) {
	return s.nests.Suggest(ctx, item, categories)
}
