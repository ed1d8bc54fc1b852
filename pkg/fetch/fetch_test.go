package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shpitdev/linknest/pkg/fetch"
)

func TestClientGet_ReturnsBodyAndFinalURL(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><head><title>Hi</title></head></html>"))
	}))
	defer srv.Close()

	resp, err := fetch.NewClient("").Get(context.Background(), srv.URL+"/old", fetch.Options{MaxRedirects: 3})
	require.NoError(t, err)
	assert.Equal(t, "/new", resp.URL.Path)
	assert.Equal(t, fetch.BrowserUserAgent, gotUA)

	doc, err := resp.Document()
	require.NoError(t, err)
	assert.Equal(t, "Hi", doc.Find("title").Text())
}

func TestClientGet_Non2xxIsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down key=hunter2"))
	}))
	defer srv.Close()

	_, err := fetch.NewClient("test-agent").Get(context.Background(), srv.URL, fetch.Options{})
	var he *fetch.HTTPError
	require.True(t, errors.As(err, &he), "got %v", err)
	assert.Equal(t, http.StatusTooManyRequests, he.StatusCode)
	assert.True(t, he.Temporary())
	assert.NotContains(t, he.Error(), "hunter2")
}

func TestClientGet_RedirectCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	_, err := fetch.NewClient("").Get(context.Background(), srv.URL+"/", fetch.Options{MaxRedirects: 2})
	assert.ErrorIs(t, err, fetch.ErrTooManyRedirects)
}

func TestClientGet_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := fetch.NewClient("").Get(context.Background(), srv.URL, fetch.Options{Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
