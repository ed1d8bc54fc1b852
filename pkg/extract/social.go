package extract

import (
	"context"

	"github.com/shpitdev/linknest/pkg/card"
	"github.com/shpitdev/linknest/pkg/classify"
)

const socialUnavailable = "Content unavailable. This post may be private or deleted."

// socialMeta reads the share card a platform exposes to link unfurlers.
// Most platforms serve it only to some clients; a missing description degrades.
func (e *Extractor) socialMeta(ctx context.Context, t target) (card.ExtractedContent, error) {
	resp, err := e.getter.Get(ctx, t.url, e.pageOptions())
	if err != nil {
		return card.ExtractedContent{}, err
	}
	doc, err := resp.Document()
	if err != nil {
		return card.ExtractedContent{}, err
	}

	title := firstNonEmpty(meta(doc, "og:title"), meta(doc, "twitter:title"), postTitle(t.url))
	desc := firstNonEmpty(meta(doc, "og:description"), meta(doc, "twitter:description"))
	author := firstNonEmpty(meta(doc, "author"), meta(doc, "twitter:creator"))

	if desc == "" {
		return card.ExtractedContent{
			Text:     socialUnavailable,
			Title:    title,
			Author:   author,
			Kind:     card.KindShortPost,
			Degraded: true,
		}, nil
	}
	return card.ExtractedContent{Text: desc, Title: title, Author: author, Kind: card.KindShortPost}, nil
}

func socialPlaceholder(t target, _ error) (card.ExtractedContent, error) {
	return card.ExtractedContent{
		Text:     socialUnavailable,
		Title:    postTitle(t.url),
		Kind:     card.KindShortPost,
		Degraded: true,
	}, nil
}

func postTitle(rawURL string) string {
	site := classify.SiteName(rawURL)
	if site == "" {
		site = classify.Domain(rawURL)
	}
	return "Post on " + site
}
