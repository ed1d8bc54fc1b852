// Package fetch performs the bounded HTTP GETs used by the extractors.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// BrowserUserAgent is sent by default; many sites serve bots an empty shell.
	BrowserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// BrowserAccept matches what a desktop browser sends for a navigation.
	BrowserAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"

	defaultMaxBody = 5 * 1024 * 1024
)

// ErrTooManyRedirects is returned when a response redirects more than Options.MaxRedirects times.
var ErrTooManyRedirects = errors.New("too many redirects")

// Options bound a single GET.
type Options struct {
	Timeout time.Duration
	// MaxRedirects caps followed redirects. Zero means the http package default (10).
	MaxRedirects int
	Headers      map[string]string
}

// Response is a fully read 2xx response.
type Response struct {
	// URL is the final URL after redirects.
	URL         *url.URL
	StatusCode  int
	ContentType string
	Body        []byte
}

// Document parses the body as HTML.
func (r *Response) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Getter is the HTTP capability the extractors depend on.
type Getter interface {
	Get(ctx context.Context, rawURL string, opts Options) (*Response, error)
}

// Client is the default Getter.
type Client struct {
	transport http.RoundTripper
	userAgent string
	maxBody   int64
}

// NewClient builds a Client. An empty userAgent uses BrowserUserAgent.
func NewClient(userAgent string) *Client {
	if userAgent == "" {
		userAgent = BrowserUserAgent
	}
	return &Client{
		transport: http.DefaultTransport,
		userAgent: userAgent,
		maxBody:   defaultMaxBody,
	}
}

// Get fetches rawURL and returns the body of a 2xx response. Non-2xx responses are
// returned as *HTTPError.
func (c *Client) Get(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", BrowserAccept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	hc := &http.Client{Transport: c.transport}
	if opts.MaxRedirects > 0 {
		max := opts.MaxRedirects
		hc.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
			if len(via) > max {
				return ErrTooManyRedirects
			}
			return nil
		}
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newHTTPError(rawURL, resp, body)
	}

	return &Response{
		URL:         resp.Request.URL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
