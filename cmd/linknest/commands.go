package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shpitdev/linknest/internal/app"
	"github.com/shpitdev/linknest/internal/mcpserver"
	"github.com/shpitdev/linknest/pkg/card"
	"github.com/shpitdev/linknest/pkg/classify"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <url>",
		Short: "Print the content kind of a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), map[string]card.Kind{"kind": classify.Classify(args[0])})
		},
	}
}

func newPreviewCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <url>",
		Short: "Fetch quick preview metadata for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := flags.service(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()
			return writeJSON(cmd.OutOrStdout(), svc.Preview(cmd.Context(), args[0]))
		},
	}
}

func newExtractCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract the main text content of a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := flags.service(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()
			content, err := svc.Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), content)
		},
	}
}

func newEnrichCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "enrich <url>",
		Short: "Summarize and tag a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := flags.service(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()
			return writeJSON(cmd.OutOrStdout(), svc.Enrich(cmd.Context(), args[0]))
		},
	}
}

func newBatchCmd(flags *rootFlags) *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:   "batch [url...]",
		Short: "Enrich several URLs, from arguments or a file",
		Long: `Enrich several URLs concurrently. Results keep the input order.

URLs given as arguments must fit in one batch (LINKNEST_BATCH_LIMIT, default 10).
With --input, the file (CSV with a "url" column, or one URL per line) is processed in
consecutive batches; with --output the results are written as CSV instead of JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" && len(args) == 0 {
				return fmt.Errorf("batch needs URLs as arguments or --input")
			}
			if input != "" && len(args) > 0 {
				return fmt.Errorf("use either URL arguments or --input, not both")
			}
			svc, err := flags.service(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			if input != "" && output != "" {
				return svc.RunBatchFile(cmd.Context(), input, output)
			}

			var items []card.BatchItem
			if input != "" {
				urls, err := app.ReadURLs(input)
				if err != nil {
					return err
				}
				items, err = svc.EnrichAll(cmd.Context(), urls)
				if err != nil {
					return err
				}
			} else {
				items, err = svc.EnrichBatch(cmd.Context(), args)
				if err != nil {
					return err
				}
			}
			return writeJSON(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "file of URLs (.csv with a url column, otherwise one per line)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write results as CSV to this path (requires --input)")
	return cmd
}

type suggestRequest struct {
	Item       card.Result     `json:"item"`
	Categories []card.Category `json:"categories"`
}

func newSuggestCmd(flags *rootFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest a category for an enriched item",
		Long: `Read {"item": <result>, "categories": [{"id","name","description"}]} as JSON from
--file or stdin and print the chosen category id, or null when nothing fits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			var req suggestRequest
			if err := json.NewDecoder(r).Decode(&req); err != nil {
				return fmt.Errorf("decode request: %w", err)
			}
			svc, err := flags.service(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			var out struct {
				CategoryID *string `json:"categoryId"`
			}
			if id, ok := svc.SuggestNest(cmd.Context(), req.Item, req.Categories); ok {
				out.CategoryID = &id
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "request JSON file (default stdin)")
	return cmd
}

func newMCPCmd(flags *rootFlags) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the pipeline as MCP tools",
		Long: `Start a Model Context Protocol server exposing classify_url, preview_url,
enrich_url, enrich_urls and suggest_nest.

By default the server speaks JSON-RPC over stdio. Use --port to serve the
streamable HTTP transport instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := flags.service(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			server, err := mcpserver.New(svc, flags.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			if port > 0 {
				return server.RunHTTP(cmd.Context(), fmt.Sprintf(":%d", port))
			}
			return server.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (0 = use stdio)")
	return cmd
}
