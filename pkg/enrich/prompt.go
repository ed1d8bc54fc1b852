package enrich

import (
	"strings"

	"github.com/shpitdev/linknest/pkg/card"
)

func contentPrompt(rawURL string, kind card.Kind, c card.ExtractedContent, text string) string {
	var b strings.Builder
	b.WriteString(`You are organizing a personal reading list. Read the content below and describe it.

Return ONLY a single JSON object with these keys:
- title (string; a clear, specific title for the content)
- summary (string; exactly 5 sentences covering the main points)
- tags (array of exactly 3 strings; specific topics, not generic words like "article" or "interesting")

Rules:
- Base everything on the content; do not invent facts.
- Do not include extra keys.

`)
	b.WriteString("URL: " + rawURL + "\n")
	b.WriteString("Kind: " + string(kind) + "\n")
	if c.Title != "" {
		b.WriteString("Page title: " + c.Title + "\n")
	}
	if c.Author != "" {
		b.WriteString("Author: " + c.Author + "\n")
	}
	b.WriteString("\nContent:\n")
	b.WriteString(text)
	b.WriteString("\n")
	return b.String()
}

func urlPrompt(rawURL string, kind card.Kind) string {
	return strings.TrimSpace(`
You are organizing a personal reading list. The page content could not be retrieved, so
infer what this link most likely contains from its URL structure and what you know about the site.

Return ONLY a single JSON object with these keys:
- title (string; a plausible, specific title)
- summary (string; exactly 5 sentences describing what the link likely covers, phrased as likely rather than certain)
- tags (array of exactly 3 strings; specific topics)

Rules:
- Do not include extra keys.

URL: ` + rawURL + `
Kind: ` + string(kind) + `
`)
}
