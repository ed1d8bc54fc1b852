package extract

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/shpitdev/linknest/pkg/card"
)

const (
	strippedTags = "script, style, nav, footer, header, iframe, noscript"

	// Candidates shorter than this are treated as navigation chrome.
	minBodyLen = 100
)

var articleContainers = []string{
	"article",
	"[role='main']",
	".post-content",
	".entry-content",
	".article-content",
	".article-body",
	".content",
	"main",
}

func (e *Extractor) articlePage(ctx context.Context, t target) (card.ExtractedContent, error) {
	resp, err := e.getter.Get(ctx, t.url, e.pageOptions())
	if err != nil {
		return card.ExtractedContent{}, err
	}
	doc, err := resp.Document()
	if err != nil {
		return card.ExtractedContent{}, err
	}

	readable := sync.OnceValues(func() (readability.Article, error) {
		parser := readability.NewParser()
		return parser.Parse(bytes.NewReader(resp.Body), resp.URL)
	})

	title := firstNonEmpty(
		doc.Find("title").First().Text(),
		meta(doc, "og:title"),
		doc.Find("h1").First().Text(),
	)
	author := firstNonEmpty(meta(doc, "author"), meta(doc, "article:author"))
	if author == "" {
		if a, err := readable(); err == nil {
			author = collapse(a.Byline)
		}
	}

	doc.Find(strippedTags).Remove()

	candidates := []func() string{
		func() string { return longestContainer(doc) },
		func() string { return readableText(readable) },
	}
	text := ""
	for _, c := range candidates {
		if s := c(); len(s) >= minBodyLen {
			text = s
			break
		}
	}
	if text == "" {
		text = collapse(doc.Find("body").Text())
	}
	if text == "" {
		text = title
	}
	if text == "" {
		return card.ExtractedContent{}, errors.New("page has no text")
	}

	return card.ExtractedContent{Text: text, Title: title, Author: author, Kind: card.KindArticle}, nil
}

func longestContainer(doc *goquery.Document) string {
	best := ""
	for _, sel := range articleContainers {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if txt := collapse(s.Text()); len(txt) > len(best) {
				best = txt
			}
		})
	}
	return best
}

func readableText(readable func() (readability.Article, error)) string {
	a, err := readable()
	if err != nil || strings.TrimSpace(a.Content) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(a.Content))
	if err != nil {
		return ""
	}
	return collapse(doc.Text())
}
