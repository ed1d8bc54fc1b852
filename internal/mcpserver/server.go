// Package mcpserver exposes the linknest pipeline as MCP tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shpitdev/linknest/internal/version"
	"github.com/shpitdev/linknest/pkg/card"
)

// ErrMissingPipeline is returned when no pipeline is provided.
var ErrMissingPipeline = errors.New("mcpserver: pipeline is required")

// Pipeline is the set of operations served as tools.
type Pipeline interface {
	Classify(rawURL string) card.Kind
	Preview(ctx context.Context, rawURL string) card.FastMetadata
	Enrich(ctx context.Context, rawURL string) card.Result
	EnrichBatch(ctx context.Context, urls []string) ([]card.BatchItem, error)
	SuggestNest(ctx context.Context, item card.Result, categories []card.Category) (string, bool)
}

type Server struct {
	pipeline Pipeline
	server   *mcp.Server
	logger   *slog.Logger
}

func New(p Pipeline, logger *slog.Logger) (*Server, error) {
	if p == nil {
		return nil, ErrMissingPipeline
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		pipeline: p,
		server:   mcp.NewServer(&mcp.Implementation{Name: "linknest", Version: version.Current}, nil),
		logger:   logger,
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("mcp http shutdown", "err", err)
		}
	}()

	s.logger.Info("mcp http listening", "addr", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("mcp http: %w", err)
	}
	return nil
}
