package preview_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shpitdev/linknest/pkg/card"
	"github.com/shpitdev/linknest/pkg/fetch"
	"github.com/shpitdev/linknest/pkg/preview"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestExtract_ShortPostSkipsFetch(t *testing.T) {
	f := &fetch.Fake{}
	p := preview.New(f, preview.Options{Logger: quiet})

	m := p.Extract(context.Background(), "https://x.com/gopher/status/1")

	assert.Empty(t, f.Calls())
	assert.Equal(t, card.KindShortPost, m.Kind)
	assert.True(t, m.IsRichMedia)
	assert.Equal(t, "Post on X (Twitter)", m.Title)
	assert.Equal(t, "View this post on X (Twitter)", m.Description)
	assert.Equal(t, "x.com", m.Domain)
	require.NotNil(t, m.Image)
	assert.Contains(t, *m.Image, "0ea5e9")
}

func TestExtract_ArticleOpenGraph(t *testing.T) {
	u := "https://www.example.com/posts/1"
	page := `<html><head>
<meta property="og:title" content="` + strings.Repeat("T", 300) + `">
<meta name="description" content="A short description">
<meta property="og:site_name" content="Example Blog">
<meta property="og:image" content="/img/cover.png">
</head><body><p>first paragraph</p></body></html>`
	p := preview.New(&fetch.Fake{Pages: map[string]string{u: page}}, preview.Options{Logger: quiet})

	m := p.Extract(context.Background(), u)

	assert.Equal(t, card.KindArticle, m.Kind)
	assert.Len(t, []rune(m.Title), 200)
	assert.Equal(t, "A short description", m.Description)
	assert.Equal(t, "Example Blog", m.SiteName)
	assert.Equal(t, "example.com", m.Domain)
	require.NotNil(t, m.Image)
	assert.Equal(t, "https://www.example.com/img/cover.png", *m.Image)
	assert.False(t, m.IsRichMedia)
}

func TestExtract_ArticleWithoutMetaUsesPage(t *testing.T) {
	u := "https://example.com/plain"
	page := `<html><head><title>Plain Page</title></head><body><p>  Opening   line. </p><p>second</p></body></html>`
	p := preview.New(&fetch.Fake{Pages: map[string]string{u: page}}, preview.Options{Logger: quiet})

	m := p.Extract(context.Background(), u)

	assert.Equal(t, "Plain Page", m.Title)
	assert.Equal(t, "Opening line.", m.Description)
	require.NotNil(t, m.Image)
	assert.Equal(t, preview.PlaceholderImage(card.KindArticle), *m.Image)
}

func TestExtract_VideoThumbnailFallback(t *testing.T) {
	u := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	page := `<html><head><title>Never Gonna - YouTube</title></head></html>`
	p := preview.New(&fetch.Fake{Pages: map[string]string{u: page}}, preview.Options{Logger: quiet})

	m := p.Extract(context.Background(), u)

	assert.Equal(t, card.KindVideo, m.Kind)
	assert.True(t, m.IsRichMedia)
	assert.Equal(t, "Never Gonna - YouTube", m.Title)
	assert.Equal(t, "YouTube", m.SiteName)
	require.NotNil(t, m.Image)
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg", *m.Image)
}

func TestExtract_FetchFailureFallsBack(t *testing.T) {
	p := preview.New(&fetch.Fake{}, preview.Options{Logger: quiet})

	m := p.Extract(context.Background(), "https://github.com/gopher/tools")

	assert.Equal(t, card.KindCodeRepo, m.Kind)
	assert.Equal(t, "github.com", m.Title)
	assert.Equal(t, "Content from github.com", m.Description)
	assert.Equal(t, "https://www.google.com/s2/favicons?domain=github.com&sz=64", m.Favicon)
	require.NotNil(t, m.Image)
	assert.Equal(t, "https://placehold.co/600x400/24292e/ffffff?text=Repository", *m.Image)
	assert.GreaterOrEqual(t, m.ExtractionTimeMs, int64(0))
}

func TestExtract_RelativeImageResolvesAgainstOrigin(t *testing.T) {
	u := "https://example.com/posts/1"
	page := `<html><head><title>T</title><meta property="og:image" content="img/x.png"></head></html>`
	p := preview.New(&fetch.Fake{Pages: map[string]string{u: page}}, preview.Options{Logger: quiet})

	m := p.Extract(context.Background(), u)

	require.NotNil(t, m.Image)
	assert.Equal(t, "https://example.com/img/x.png", *m.Image)
}

func TestExtract_UnresolvableImageIsDropped(t *testing.T) {
	u := "https://example.com/posts/2"
	page := `<html><head><title>T</title><meta property="og:image" content="%zz/cover.png"></head></html>`
	p := preview.New(&fetch.Fake{Pages: map[string]string{u: page}}, preview.Options{Logger: quiet})

	m := p.Extract(context.Background(), u)

	assert.Equal(t, "T", m.Title)
	assert.Nil(t, m.Image)
}

func TestExtract_EmptyURLIsFullyPopulated(t *testing.T) {
	p := preview.New(&fetch.Fake{}, preview.Options{Logger: quiet})

	for _, in := range []string{"", "   ", "https://"} {
		m := p.Extract(context.Background(), in)
		assert.Equal(t, card.KindArticle, m.Kind, "input %q", in)
		assert.NotEmpty(t, m.Title, "input %q", in)
		assert.NotEmpty(t, m.Domain, "input %q", in)
		assert.NotEmpty(t, m.SiteName, "input %q", in)
		assert.NotEqual(t, "Content from ", m.Description, "input %q", in)
		assert.NotContains(t, m.Favicon, "domain=&", "input %q", in)
		require.NotNil(t, m.Image, "input %q", in)
	}

	m := p.Extract(context.Background(), "")
	assert.Equal(t, "link", m.Domain)
	assert.Equal(t, "Content from link", m.Description)
	assert.Equal(t, "https://www.google.com/s2/favicons?domain=link&sz=64", m.Favicon)
}
