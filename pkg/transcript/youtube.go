// Package transcript retrieves YouTube caption tracks and video metadata.
package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shpitdev/linknest/pkg/fetch"
)

var (
	// ErrNoVideoID is returned when a URL does not name a video.
	ErrNoVideoID = errors.New("no video id in url")
	// ErrNoTranscript is returned when the video has no caption track.
	ErrNoTranscript = errors.New("no transcript available")
)

// Tried in order; the first match wins.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?(?:.*&)?v=)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtu\.be/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtube\.com/embed/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtube\.com/shorts/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtube\.com/v/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtube\.com/live/)([A-Za-z0-9_-]{11})`),
}

// VideoID returns the YouTube video id in rawURL, or "" when there is none.
func VideoID(rawURL string) string {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(rawURL); len(m) == 2 {
			return m[1]
		}
	}
	return ""
}

// ThumbnailURL returns the public high-quality thumbnail for a video id.
func ThumbnailURL(videoID string) string {
	return "https://img.youtube.com/vi/" + videoID + "/hqdefault.jpg"
}

// Segment is one caption cue.
type Segment struct {
	Text     string
	Start    float64
	Duration float64
}

// Join concatenates segment texts with single spaces.
func Join(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		t := strings.Join(strings.Fields(s.Text), " ")
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Fetcher retrieves the caption track of a video.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) ([]Segment, error)
}

// Meta is the oEmbed metadata of a video.
type Meta struct {
	Title  string `json:"title"`
	Author string `json:"author_name"`
}

// Options configure a YouTube client.
type Options struct {
	Timeout  time.Duration
	Retries  int
	Language string
	Logger   *slog.Logger
}

// YouTube reads caption tracks from the public watch page.
type YouTube struct {
	getter   fetch.Getter
	timeout  time.Duration
	retries  int
	language string
	logger   *slog.Logger
}

func NewYouTube(getter fetch.Getter, opts Options) *YouTube {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Retries <= 0 {
		opts.Retries = 2
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &YouTube{
		getter:   getter,
		timeout:  opts.Timeout,
		retries:  opts.Retries,
		language: opts.Language,
		logger:   opts.Logger,
	}
}

// OEmbed fetches title and channel for a video URL.
func (y *YouTube) OEmbed(ctx context.Context, videoURL string) (Meta, error) {
	endpoint := "https://www.youtube.com/oembed?format=json&url=" + url.QueryEscape(videoURL)
	resp, err := y.getter.Get(ctx, endpoint, fetch.Options{Timeout: y.timeout})
	if err != nil {
		return Meta{}, err
	}
	var m Meta
	if err := json.Unmarshal(resp.Body, &m); err != nil {
		return Meta{}, fmt.Errorf("decode oembed: %w", err)
	}
	return m, nil
}

// Fetch returns the caption segments of videoID, preferring the configured language.
func (y *YouTube) Fetch(ctx context.Context, videoID string) ([]Segment, error) {
	if videoID == "" {
		return nil, ErrNoVideoID
	}
	page, err := y.getWithRetries(ctx, "https://www.youtube.com/watch?v="+url.QueryEscape(videoID))
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	tracks, err := parseCaptionTracks(page)
	if err != nil {
		return nil, err
	}
	track := pickTrack(tracks, y.language)

	body, err := y.getWithRetries(ctx, track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("caption track: %w", err)
	}
	segments, err := parseTimedText(body)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, ErrNoTranscript
	}
	return segments, nil
}

func (y *YouTube) getWithRetries(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for i := 0; i <= y.retries; i++ {
		resp, err := y.getter.Get(ctx, rawURL, fetch.Options{Timeout: y.timeout})
		if err == nil {
			return resp.Body, nil
		}
		lastErr = err
		var he *fetch.HTTPError
		if !errors.As(err, &he) || !he.Temporary() {
			return nil, err
		}
		y.logger.Debug("youtube throttled, backing off", "attempt", i+1, "status", he.StatusCode)
		t := time.NewTimer(time.Duration(i+1) * 500 * time.Millisecond)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("exceeded max retries: %w", lastErr)
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

func parseCaptionTracks(page []byte) ([]captionTrack, error) {
	const key = `"captionTracks":`
	s := string(page)
	i := strings.Index(s, key)
	if i < 0 {
		return nil, ErrNoTranscript
	}
	var tracks []captionTrack
	if err := json.NewDecoder(strings.NewReader(s[i+len(key):])).Decode(&tracks); err != nil {
		return nil, fmt.Errorf("decode caption tracks: %w", err)
	}
	out := tracks[:0]
	for _, t := range tracks {
		if strings.TrimSpace(t.BaseURL) != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoTranscript
	}
	return out, nil
}

// pickTrack prefers a manual track in lang, then an auto-generated one, then the first.
func pickTrack(tracks []captionTrack, lang string) captionTrack {
	var auto *captionTrack
	for i := range tracks {
		t := &tracks[i]
		if !strings.HasPrefix(t.LanguageCode, lang) {
			continue
		}
		if t.Kind != "asr" {
			return *t
		}
		if auto == nil {
			auto = t
		}
	}
	if auto != nil {
		return *auto
	}
	return tracks[0]
}

type timedText struct {
	Texts []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Text  string `xml:",chardata"`
	} `xml:"text"`
	Body struct {
		Paragraphs []struct {
			T    string `xml:"t,attr"`
			D    string `xml:"d,attr"`
			Text string `xml:",innerxml"`
		} `xml:"p"`
	} `xml:"body"`
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

func parseTimedText(body []byte) ([]Segment, error) {
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("decode timedtext: %w", err)
	}
	var out []Segment
	for _, t := range tt.Texts {
		out = append(out, Segment{
			Text:     html.UnescapeString(t.Text),
			Start:    parseFloat(t.Start),
			Duration: parseFloat(t.Dur),
		})
	}
	for _, p := range tt.Body.Paragraphs {
		// innerxml keeps entities encoded once more than chardata does.
		text := html.UnescapeString(html.UnescapeString(tagRe.ReplaceAllString(p.Text, "")))
		out = append(out, Segment{
			Text:     text,
			Start:    parseFloat(p.T) / 1000,
			Duration: parseFloat(p.D) / 1000,
		})
	}
	return out, nil
}

func parseFloat(s string) float64 {
	var f float64
	_, _ = fmt.Sscanf(strings.TrimSpace(s), "%g", &f)
	return f
}
