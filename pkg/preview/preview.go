// Package preview builds the fast, scrape-light card preview for a URL.
package preview

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/shpitdev/linknest/pkg/card"
	"github.com/shpitdev/linknest/pkg/classify"
	"github.com/shpitdev/linknest/pkg/fetch"
	"github.com/shpitdev/linknest/pkg/transcript"
)

const (
	DefaultTimeout      = 3 * time.Second
	DefaultMaxRedirects = 3

	// unknownDomain labels the floor of a URL with nothing usable in it.
	unknownDomain = "link"

	maxTitleLen       = 200
	maxDescriptionLen = 500
)

var placeholderColors = map[card.Kind]string{
	card.KindVideo:     "ef4444",
	card.KindShortPost: "0ea5e9",
	card.KindCodeRepo:  "24292e",
	card.KindArticle:   "6366f1",
}

var placeholderLabels = map[card.Kind]string{
	card.KindVideo:     "Video",
	card.KindShortPost: "Post",
	card.KindCodeRepo:  "Repository",
	card.KindArticle:   "Article",
}

// Options configure an Extractor.
type Options struct {
	Timeout      time.Duration
	MaxRedirects int
	Logger       *slog.Logger
}

// Extractor produces FastMetadata.
type Extractor struct {
	getter       fetch.Getter
	timeout      time.Duration
	maxRedirects int
	logger       *slog.Logger
	now          func() time.Time
}

func New(getter fetch.Getter, opts Options) *Extractor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Extractor{
		getter:       getter,
		timeout:      opts.Timeout,
		maxRedirects: opts.MaxRedirects,
		logger:       opts.Logger,
		now:          time.Now,
	}
}

// Extract returns preview metadata for rawURL. It never fails: any fetch or parse
// problem yields the deterministic fallback for the URL's kind.
func (e *Extractor) Extract(ctx context.Context, rawURL string) card.FastMetadata {
	start := e.now()
	kind := classify.Classify(rawURL)
	floor := Fallback(rawURL, kind)

	elapsed := func(m card.FastMetadata) card.FastMetadata {
		m.ExtractionTimeMs = e.now().Sub(start).Milliseconds()
		return m
	}

	if kind == card.KindShortPost {
		// These platforms block scrapers; a fetch only adds latency.
		return elapsed(socialPreview(rawURL, floor))
	}

	resp, err := e.getter.Get(ctx, rawURL, fetch.Options{
		Timeout:      e.timeout,
		MaxRedirects: e.maxRedirects,
	})
	if err != nil {
		e.logger.Debug("preview fetch failed", "url", rawURL, "kind", kind, "err", err)
		return elapsed(floor)
	}
	doc, err := resp.Document()
	if err != nil {
		e.logger.Debug("preview parse failed", "url", rawURL, "err", err)
		return elapsed(floor)
	}

	var m card.FastMetadata
	if kind == card.KindVideo {
		m = videoPreview(rawURL, doc, floor)
	} else {
		m = pagePreview(doc, resp.URL, floor)
	}
	m.Title = truncate(m.Title, maxTitleLen)
	m.Description = truncate(m.Description, maxDescriptionLen)
	return elapsed(m)
}

// Fallback is the unconditional floor for rawURL: every field populated without I/O,
// even for an empty or unparsable URL.
func Fallback(rawURL string, kind card.Kind) card.FastMetadata {
	domain := firstNonEmpty(classify.Domain(rawURL), rawURL, unknownDomain)
	image := PlaceholderImage(kind)
	return card.FastMetadata{
		Title:       domain,
		Description: "Content from " + domain,
		Image:       &image,
		SiteName:    domain,
		Favicon:     Favicon(domain),
		Domain:      domain,
		Kind:        kind,
		IsRichMedia: classify.IsRichMedia(kind),
	}
}

// Favicon returns the favicon-service URL for domain.
func Favicon(domain string) string {
	return "https://www.google.com/s2/favicons?domain=" + url.QueryEscape(domain) + "&sz=64"
}

// PlaceholderImage returns a generated image URL with a fixed color per kind.
func PlaceholderImage(kind card.Kind) string {
	color, ok := placeholderColors[kind]
	if !ok {
		color = placeholderColors[card.KindArticle]
	}
	label, ok := placeholderLabels[kind]
	if !ok {
		label = placeholderLabels[card.KindArticle]
	}
	return fmt.Sprintf("https://placehold.co/600x400/%s/ffffff?text=%s", color, url.QueryEscape(label))
}

func socialPreview(rawURL string, floor card.FastMetadata) card.FastMetadata {
	site := classify.SiteName(rawURL)
	if site == "" {
		site = floor.Domain
	}
	floor.Title = "Post on " + site
	floor.Description = "View this post on " + site
	floor.SiteName = site
	return floor
}

func videoPreview(rawURL string, doc *goquery.Document, floor card.FastMetadata) card.FastMetadata {
	m := floor
	if site := classify.SiteName(rawURL); site != "" {
		m.SiteName = site
	}
	m.Title = firstNonEmpty(metaContent(doc, "og:title"), doc.Find("title").First().Text(), floor.Title)
	m.Description = firstNonEmpty(metaContent(doc, "og:description"), metaContent(doc, "description"), floor.Description)
	m.SiteName = firstNonEmpty(metaContent(doc, "og:site_name"), m.SiteName)

	if img := metaContent(doc, "og:image"); img != "" {
		m.Image = &img
	} else if id := transcript.VideoID(rawURL); id != "" {
		thumb := transcript.ThumbnailURL(id)
		m.Image = &thumb
	}
	return m
}

func pagePreview(doc *goquery.Document, base *url.URL, floor card.FastMetadata) card.FastMetadata {
	m := floor
	m.Title = firstNonEmpty(
		metaContent(doc, "og:title"),
		metaContent(doc, "twitter:title"),
		doc.Find("title").First().Text(),
		floor.Title,
	)
	m.Description = firstNonEmpty(
		metaContent(doc, "og:description"),
		metaContent(doc, "description"),
		metaContent(doc, "twitter:description"),
		doc.Find("p").First().Text(),
		floor.Description,
	)
	m.SiteName = firstNonEmpty(metaContent(doc, "og:site_name"), floor.SiteName)

	raw := firstNonEmpty(metaContent(doc, "og:image"), metaContent(doc, "twitter:image"))
	if raw != "" {
		if img, ok := resolve(base, raw); ok {
			m.Image = &img
		} else {
			m.Image = nil
		}
	}
	return m
}

// metaContent reads <meta property=name> or <meta name=name>.
func metaContent(doc *goquery.Document, name string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, name, name)).First()
	v, _ := sel.Attr("content")
	return strings.TrimSpace(v)
}

// resolve makes ref absolute against the origin of the fetched page.
func resolve(base *url.URL, ref string) (string, bool) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	if u.IsAbs() {
		return u.String(), true
	}
	if base == nil || base.Host == "" {
		return "", false
	}
	origin := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"}
	return origin.ResolveReference(u).String(), true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		v = strings.Join(strings.Fields(v), " ")
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
