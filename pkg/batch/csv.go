package batch

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/shpitdev/linknest/pkg/card"
)

// Header returns the stable output CSV header.
func Header() []string {
	return []string{
		"url",
		"title",
		"summary",
		"tags",
		"kind",
		"model_used",
		"processing_time_ms",
		"extracted_content_length",
		"succeeded",
	}
}

// WriteCSV writes items with the Header() ordering. Tags are joined with "; ".
func WriteCSV(w io.Writer, items []card.BatchItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, it := range items {
		r := it.Result
		if err := cw.Write([]string{
			it.URL,
			r.Title,
			r.Summary,
			strings.Join(r.Tags, "; "),
			string(r.Kind),
			r.ModelUsed,
			strconv.FormatInt(r.ProcessingTimeMs, 10),
			strconv.Itoa(r.ExtractedContentLength),
			strconv.FormatBool(it.Succeeded),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
