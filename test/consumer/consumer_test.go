package consumer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shpitdev/linknest/pkg/batch"
	"github.com/shpitdev/linknest/pkg/card"
	"github.com/shpitdev/linknest/pkg/classify"
	"github.com/shpitdev/linknest/pkg/enrich"
	"github.com/shpitdev/linknest/pkg/extract"
	"github.com/shpitdev/linknest/pkg/fetch"
	"github.com/shpitdev/linknest/pkg/llm"
	"github.com/shpitdev/linknest/pkg/nest"
	"github.com/shpitdev/linknest/pkg/pipeline/core"
	"github.com/shpitdev/linknest/pkg/pipeline/worker"
	"github.com/shpitdev/linknest/pkg/preview"
)

func TestPublicPackagesCompile(t *testing.T) {
	t.Parallel()

	if got := classify.Classify("https://youtu.be/abc"); got != card.KindVideo {
		t.Fatalf("Classify=%q want video", got)
	}

	upper := core.ProcessFunc[string, string](func(_ context.Context, in string) (string, error) {
		return strings.ToUpper(strings.TrimSpace(in)), nil
	})
	out := worker.ProcessAll(context.Background(), []string{" a ", "b"}, upper.Process, worker.Options{Workers: 1})
	if len(out) != 2 || out[0].Output != "A" || out[1].Output != "B" {
		t.Fatalf("unexpected output: %#v", out)
	}

	getter := &fetch.Fake{}
	_ = preview.New(getter, preview.Options{}).Extract(context.Background(), "https://x.com/u/status/1")

	model := &llm.Fake{Respond: func(string) (string, error) {
		return `{"title":"t","summary":"s","tags":["a"]}`, nil
	}}
	e := enrich.New(extract.New(getter, extract.Options{}), model, enrich.Options{})
	items := batch.New(e, batch.Options{}).EnrichBatch(context.Background(), []string{"https://example.com/a"})
	if len(items) != 1 || items[0].Result.Title != "t" {
		t.Fatalf("unexpected batch: %#v", items)
	}

	var buf bytes.Buffer
	if err := batch.WriteCSV(&buf, items); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	if _, ok := nest.New(model, nest.Options{}).Suggest(context.Background(), items[0].Result, nil); ok {
		t.Fatalf("empty category list must not match")
	}
}
