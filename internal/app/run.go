package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shpitdev/linknest/pkg/batch"
	"github.com/shpitdev/linknest/pkg/card"
	localio "github.com/shpitdev/linknest/pkg/pipeline/io/local"
)

// ReadURLs reads a URL list: CSV with a "url" column for .csv files, one URL per line otherwise.
func ReadURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return readURLs(f, strings.EqualFold(filepath.Ext(path), ".csv"))
}

func readURLs(r io.Reader, isCSV bool) ([]string, error) {
	if isCSV {
		return localio.ReadURLsCSV(r)
	}
	return localio.ReadURLLines(r)
}

// RunBatchFile enriches every URL in inputPath and writes the results as CSV to outputPath.
// Lists longer than the batch limit are sent as consecutive batches.
func (s *Service) RunBatchFile(ctx context.Context, inputPath, outputPath string) error {
	urls, err := ReadURLs(inputPath)
	if err != nil {
		return err
	}
	items, err := s.EnrichAll(ctx, urls)
	if err != nil {
		return err
	}

	outF, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = outF.Close()
	}()

	if err := batch.WriteCSV(outF, items); err != nil {
		return err
	}
	return outF.Close()
}

// EnrichAll enriches urls in consecutive batches of at most BatchLimit.
func (s *Service) EnrichAll(ctx context.Context, urls []string) ([]card.BatchItem, error) {
	start := time.Now()
	items := make([]card.BatchItem, 0, len(urls))
	for lo := 0; lo < len(urls); lo += s.cfg.BatchLimit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hi := min(lo+s.cfg.BatchLimit, len(urls))
		chunk, err := s.EnrichBatch(ctx, urls[lo:hi])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", lo, hi, err)
		}
		items = append(items, chunk...)
	}
	ok := 0
	for _, it := range items {
		if it.Succeeded {
			ok++
		}
	}
	s.logger.Info("enrichment complete", "produced", len(items), "ok", ok, "fallback", len(items)-ok, "duration", time.Since(start).Round(time.Millisecond))
	return items, nil
}
