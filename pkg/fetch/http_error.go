package fetch

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/shpitdev/linknest/pkg/pipeline/redact"
)

// HTTPError is a sanitized summary of a non-2xx response.
//
// Important: do not include raw response bodies here (can leak tokens or private content).
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string

	// Snippet is a redacted, truncated hint of the response body.
	Snippet string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http error"
	}
	parts := []string{
		fmt.Sprintf("fetch %s: status=%s", redact.Secrets(e.URL), strings.TrimSpace(e.Status)),
	}
	if strings.TrimSpace(e.Snippet) != "" {
		parts = append(parts, "body="+strings.TrimSpace(e.Snippet))
	}
	return strings.Join(parts, " ")
}

// Temporary reports whether retrying later may succeed.
func (e *HTTPError) Temporary() bool {
	if e == nil {
		return false
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode/100 == 5
}

func newHTTPError(rawURL string, resp *http.Response, body []byte) *HTTPError {
	h := &HTTPError{URL: rawURL}
	if resp != nil {
		h.StatusCode = resp.StatusCode
		h.Status = resp.Status
	}
	h.Snippet = redactAndTruncate(body)
	return h
}

func redactAndTruncate(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	// Keep this small: pages can be large and contain personal data.
	const max = 160
	b := body
	if len(b) > max {
		b = b[:max]
	}
	s := redact.Secrets(string(b))
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	if len(body) > max {
		return s + "..."
	}
	return s
}
