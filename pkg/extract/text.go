package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// collapse folds all whitespace runs into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = collapse(v); v != "" {
			return v
		}
	}
	return ""
}

// meta reads <meta property=name> or <meta name=name>.
func meta(doc *goquery.Document, name string) string {
	v, _ := doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, name, name)).First().Attr("content")
	return strings.TrimSpace(v)
}
