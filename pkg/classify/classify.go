// Package classify maps URLs to a content kind using domain heuristics only.
package classify

import (
	"net/url"
	"strings"

	"github.com/shpitdev/linknest/pkg/card"
)

type marker struct {
	domain string
	kind   card.Kind
	site   string
}

// Checked in order; the first match wins.
var markers = []marker{
	{domain: "youtube.com", kind: card.KindVideo, site: "YouTube"},
	{domain: "youtu.be", kind: card.KindVideo, site: "YouTube"},
	{domain: "vimeo.com", kind: card.KindVideo, site: "Vimeo"},
	{domain: "dailymotion.com", kind: card.KindVideo, site: "Dailymotion"},

	{domain: "twitter.com", kind: card.KindShortPost, site: "X (Twitter)"},
	{domain: "x.com", kind: card.KindShortPost, site: "X (Twitter)"},
	{domain: "instagram.com", kind: card.KindShortPost, site: "Instagram"},
	{domain: "threads.net", kind: card.KindShortPost, site: "Threads"},
	{domain: "tiktok.com", kind: card.KindShortPost, site: "TikTok"},
	{domain: "facebook.com", kind: card.KindShortPost, site: "Facebook"},

	{domain: "github.com", kind: card.KindCodeRepo, site: "GitHub"},
	{domain: "gitlab.com", kind: card.KindCodeRepo, site: "GitLab"},
	{domain: "bitbucket.org", kind: card.KindCodeRepo, site: "Bitbucket"},
}

// Classify returns the content kind of rawURL. It never fails: unmatched or malformed
// input is an article.
func Classify(rawURL string) card.Kind {
	if m, ok := match(rawURL); ok {
		return m.kind
	}
	return card.KindArticle
}

// SiteName returns the platform display name for known domains, or "" when unknown.
func SiteName(rawURL string) string {
	if m, ok := match(rawURL); ok {
		return m.site
	}
	return ""
}

// IsRichMedia reports whether cards of this kind are rendered as media rather than text.
func IsRichMedia(kind card.Kind) bool {
	return kind == card.KindVideo || kind == card.KindShortPost
}

// match compares markers against the host only, so a marker in the path or query
// (an archive link, a redirect parameter) does not change the kind. The raw string is
// searched only when no host parses.
func match(rawURL string) (marker, bool) {
	host := Host(rawURL)
	lower := strings.ToLower(rawURL)
	for _, m := range markers {
		if host != "" {
			if host == m.domain || strings.HasSuffix(host, "."+m.domain) {
				return m, true
			}
			continue
		}
		if strings.Contains(lower, m.domain) {
			return m, true
		}
	}
	return marker{}, false
}

// Host returns the lower-cased host of rawURL, assuming https when no scheme is given.
// It returns "" when no host can be parsed.
func Host(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Domain is Host without a leading "www.".
func Domain(rawURL string) string {
	return strings.TrimPrefix(Host(rawURL), "www.")
}
