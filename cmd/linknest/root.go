package main

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shpitdev/linknest/internal/app"
	"github.com/shpitdev/linknest/internal/config"
	"github.com/shpitdev/linknest/internal/version"
)

type rootFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "linknest",
		Short: "Classify, preview and enrich saved links",
		Long: `linknest turns links into cards: it classifies a URL, fetches a quick preview,
extracts the page content and asks a Gemini model for a title, summary and tags.

Configuration is read from --config (or LINKNEST_CONFIG, YAML or TOML) and then the
environment: GEMINI_API_KEY, GEMINI_MODEL, GEMINI_BASE_URL, GEMINI_TIMEOUT,
LINKNEST_BATCH_LIMIT, LINKNEST_WINDOW, LINKNEST_MAX_RETRIES, LINKNEST_RATE_LIMIT_RPS,
LINKNEST_CACHE_PATH, LINKNEST_CACHE_TTL, GITHUB_TOKEN, LINKNEST_USER_AGENT.`,
		Version:       version.Current,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML or TOML config file")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newClassifyCmd(),
		newPreviewCmd(flags),
		newExtractCmd(flags),
		newEnrichCmd(flags),
		newBatchCmd(flags),
		newSuggestCmd(flags),
		newMCPCmd(flags),
	)
	return cmd
}

func (f *rootFlags) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// service loads config and builds the pipeline. Logs go to stderr so stdout stays JSON.
func (f *rootFlags) service(cmd *cobra.Command) (*app.Service, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg, app.Options{Logger: f.logger(cmd.ErrOrStderr())})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
