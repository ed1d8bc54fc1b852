package enrich

import (
	"net/url"
	"path"
	"strings"
)

var separators = strings.NewReplacer("-", " ", "_", " ", "+", " ", ".", " ")

// URLTitle derives a readable title from the URL alone: the last non-empty path
// segment, decoded, without its extension and with separators turned into spaces.
// It falls back to the hostname, then to the raw string when the URL does not parse.
func URLTitle(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	s := raw
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return raw
	}

	segments := strings.Split(u.EscapedPath(), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg == "" {
			continue
		}
		if dec, err := url.PathUnescape(seg); err == nil {
			seg = dec
		}
		if ext := path.Ext(seg); ext != "" && ext != seg {
			seg = strings.TrimSuffix(seg, ext)
		}
		if title := strings.Join(strings.Fields(separators.Replace(seg)), " "); title != "" {
			return title
		}
	}
	if h := u.Hostname(); h != "" {
		return h
	}
	return raw
}
