package fetch

import (
	"context"
	"net/url"
	"sync"
)

// Fake is an in-memory Getter keyed by exact URL. Unknown URLs return a 404 HTTPError.
type Fake struct {
	mu     sync.Mutex
	Pages  map[string]string
	Errors map[string]error
	calls  []string
}

// Get implements Getter.
func (f *Fake) Get(_ context.Context, rawURL string, _ Options) (*Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rawURL)
	f.mu.Unlock()

	if err, ok := f.Errors[rawURL]; ok {
		return nil, err
	}
	body, ok := f.Pages[rawURL]
	if !ok {
		return nil, &HTTPError{URL: rawURL, StatusCode: 404, Status: "404 Not Found"}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return &Response{URL: u, StatusCode: 200, ContentType: "text/html", Body: []byte(body)}, nil
}

// Calls returns the URLs requested so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
