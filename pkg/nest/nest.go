// Package nest suggests which of a user's categories ("nests") a card belongs in.
package nest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shpitdev/linknest/pkg/card"
	"github.com/shpitdev/linknest/pkg/llm"
	"github.com/shpitdev/linknest/pkg/pipeline/redact"
)

type Options struct {
	Logger *slog.Logger
}

type Suggester struct {
	model  llm.Model
	logger *slog.Logger
}

func New(model llm.Model, opts Options) *Suggester {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Suggester{model: model, logger: opts.Logger}
}

// Suggest returns the ID of the best matching category. ok is false when the list is
// empty, the model finds no good match, or its answer cannot be used.
func (s *Suggester) Suggest(ctx context.Context, item card.Result, categories []card.Category) (id string, ok bool) {
	if len(categories) == 0 || s.model == nil {
		return "", false
	}
	reply, err := s.model.GenerateText(ctx, buildPrompt(item, categories))
	if err != nil {
		s.logger.Warn("nest suggestion failed", "err", redact.Secrets(err.Error()))
		return "", false
	}
	n, ok := leadingInt(reply)
	if !ok || n < 1 || n > len(categories) {
		s.logger.Debug("no nest suggested", "reply", redact.Truncate(reply, 40))
		return "", false
	}
	return categories[n-1].ID, true
}

func buildPrompt(item card.Result, categories []card.Category) string {
	var b strings.Builder
	b.WriteString("Pick the category that best fits this saved link.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", item.Title)
	fmt.Fprintf(&b, "Summary: %s\n", item.Summary)
	if len(item.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(item.Tags, ", "))
	}
	b.WriteString("\nCategories:\n")
	for i, c := range categories {
		fmt.Fprintf(&b, "%d. %s", i+1, c.Name)
		if d := strings.TrimSpace(c.Description); d != "" {
			fmt.Fprintf(&b, " - %s", d)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nRespond with ONLY the number, or 0 for no match.")
	return b.String()
}

// leadingInt parses the integer at the start of s, ignoring leading whitespace and
// anything after the digits.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
