package extract

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	gh "github.com/google/go-github/v80/github"

	"github.com/shpitdev/linknest/pkg/card"
	"github.com/shpitdev/linknest/pkg/classify"
	"github.com/shpitdev/linknest/pkg/pipeline/redact"
)

var readmeContainers = []string{
	"article.markdown-body",
	"#readme",
	".markdown-body",
	"[data-testid='readme']",
}

// repoPath returns owner and repo from a github.com URL path.
func repoPath(rawURL string) (owner, repo string, ok bool) {
	if classify.Domain(rawURL) != "github.com" {
		return "", "", false
	}
	s := strings.TrimSpace(rawURL)
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), true
}

func (e *Extractor) githubApplies(t target) bool {
	if e.github == nil {
		return false
	}
	_, _, ok := repoPath(t.url)
	return ok
}

func (e *Extractor) githubRepo(ctx context.Context, t target) (card.ExtractedContent, error) {
	owner, name, _ := repoPath(t.url)
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	repo, _, err := e.github.Repositories.Get(ctx, owner, name)
	if err != nil {
		return card.ExtractedContent{}, fmt.Errorf("github repository %s/%s: %w", owner, name, err)
	}

	var b strings.Builder
	if d := repo.GetDescription(); d != "" {
		b.WriteString(d)
		b.WriteString("\n\n")
	}
	if len(repo.Topics) > 0 {
		b.WriteString("Topics: ")
		b.WriteString(strings.Join(repo.Topics, ", "))
		b.WriteString("\n\n")
	}
	if lang := repo.GetLanguage(); lang != "" {
		fmt.Fprintf(&b, "Language: %s\n\n", lang)
	}

	readme, _, err := e.github.Repositories.GetReadme(ctx, owner, name, nil)
	if err != nil {
		e.logger.Debug("github readme unavailable", "repo", owner+"/"+name, "err", redact.Secrets(err.Error()))
	} else if body, err := readme.GetContent(); err == nil {
		b.WriteString(body)
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return card.ExtractedContent{}, fmt.Errorf("github repository %s/%s has no description or readme", owner, name)
	}
	return card.ExtractedContent{
		Text:   text,
		Title:  firstNonEmpty(repo.GetFullName(), owner+"/"+name),
		Author: repo.GetOwner().GetLogin(),
		Kind:   card.KindCodeRepo,
	}, nil
}

// repoPage scrapes the hosting site's page: its share description plus the rendered README.
func (e *Extractor) repoPage(ctx context.Context, t target) (card.ExtractedContent, error) {
	resp, err := e.getter.Get(ctx, t.url, e.pageOptions())
	if err != nil {
		return card.ExtractedContent{}, err
	}
	doc, err := resp.Document()
	if err != nil {
		return card.ExtractedContent{}, err
	}

	title := firstNonEmpty(meta(doc, "og:title"), doc.Find("title").First().Text())
	desc := firstNonEmpty(meta(doc, "og:description"), meta(doc, "description"))

	readme := ""
	for _, sel := range readmeContainers {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		h, err := s.Html()
		if err != nil {
			continue
		}
		conv := md.NewConverter("", true, nil)
		if out, err := conv.ConvertString(h); err == nil && strings.TrimSpace(out) != "" {
			readme = strings.TrimSpace(out)
			break
		}
	}

	text := strings.TrimSpace(strings.Join(nonEmpty(desc, readme), "\n\n"))
	if text == "" {
		// A reachable page with no description or README still names the repository.
		path := ""
		if resp.URL != nil {
			path = strings.Trim(resp.URL.Path, "/")
		}
		text = firstNonEmpty(title, path)
	}
	if text == "" {
		return card.ExtractedContent{}, errors.New("repository page has no text")
	}
	return card.ExtractedContent{Text: text, Title: title, Kind: card.KindCodeRepo}, nil
}

func nonEmpty(vals ...string) []string {
	out := vals[:0]
	for _, v := range vals {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
