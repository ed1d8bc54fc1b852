package extract

import (
	"context"

	"github.com/shpitdev/linknest/pkg/card"
	"github.com/shpitdev/linknest/pkg/pipeline/redact"
	"github.com/shpitdev/linknest/pkg/transcript"
)

const (
	defaultVideoTitle     = "YouTube Video"
	transcriptPlaceholder = "Transcript unavailable for this video. The summary is based on the video's title and link."
)

func hasVideoID(t target) bool {
	return transcript.VideoID(t.url) != ""
}

func (e *Extractor) videoTranscript(ctx context.Context, t target) (card.ExtractedContent, error) {
	title, author := defaultVideoTitle, ""
	if m, err := e.videos.OEmbed(ctx, t.url); err != nil {
		e.logger.Debug("oembed lookup failed", "url", t.url, "err", redact.Secrets(err.Error()))
	} else {
		title = firstNonEmpty(m.Title, title)
		author = collapse(m.Author)
	}

	segments, err := e.videos.Fetch(ctx, transcript.VideoID(t.url))
	if err != nil {
		return card.ExtractedContent{}, err
	}
	text := transcript.Join(segments)
	if text == "" {
		return card.ExtractedContent{}, transcript.ErrNoTranscript
	}
	return card.ExtractedContent{Text: text, Title: title, Author: author, Kind: card.KindVideo}, nil
}

func videoPlaceholder(target, error) (card.ExtractedContent, error) {
	return card.ExtractedContent{
		Text:     transcriptPlaceholder,
		Title:    defaultVideoTitle,
		Kind:     card.KindVideo,
		Degraded: true,
	}, nil
}
