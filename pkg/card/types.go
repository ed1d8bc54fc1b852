// Package card holds the value types produced by the intake pipeline.
//
// Every type here is created fresh per call and never mutated afterwards. Persisting
// them is the caller's job.
package card

// Kind is the coarse content category derived from a URL's domain.
type Kind string

const (
	KindVideo     Kind = "video"
	KindShortPost Kind = "short-post"
	KindCodeRepo  Kind = "code-repo"
	KindArticle   Kind = "article"
)

// MaxTextLen returns the hard truncation limit for extracted text of the given kind.
func (k Kind) MaxTextLen() int {
	if k == KindCodeRepo {
		return 10_000
	}
	return 15_000
}

// ExtractedContent is the substantive text pulled from a page by deep extraction.
type ExtractedContent struct {
	Text   string `json:"text"`
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
	Kind   Kind   `json:"kind"`

	// Degraded marks placeholder text produced by a fallback rather than the source.
	Degraded bool `json:"degraded,omitempty"`
}

// FastMetadata is the low-latency preview shown before (or without) AI enrichment.
type FastMetadata struct {
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Image            *string `json:"image"`
	SiteName         string  `json:"siteName"`
	Favicon          string  `json:"favicon"`
	Domain           string  `json:"domain"`
	Kind             Kind    `json:"kind"`
	IsRichMedia      bool    `json:"isRichMedia"`
	ExtractionTimeMs int64   `json:"extractionTimeMs"`
}

// Result is the enriched card for a single URL.
//
// Title and Summary are never empty and Tags holds between one and five entries.
type Result struct {
	Title                  string   `json:"title"`
	Summary                string   `json:"summary"`
	Tags                   []string `json:"tags"`
	Kind                   Kind     `json:"kind"`
	ModelUsed              string   `json:"modelUsed"`
	ProcessingTimeMs       int64    `json:"processingTimeMs"`
	ExtractedContentLength int      `json:"extractedContentLength"`
}

// Model names recorded in Result.ModelUsed when no model produced the result.
const (
	ModelFallback = "fallback"
	ModelError    = "error"
)

// SentinelTag is used when no real tags could be produced.
const SentinelTag = "uncategorized"

// BatchItem is one entry of a batch enrichment, in input order.
type BatchItem struct {
	URL       string `json:"url"`
	Result    Result `json:"result"`
	Succeeded bool   `json:"succeeded"`
}

// Category is a caller-supplied nest a card may be filed under.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
