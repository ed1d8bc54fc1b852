// Package local reads URL lists from local files.
package local

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ReadURLsCSV reads a CSV file and returns the values from the "url" column.
// Blank cells are skipped.
func ReadURLsCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	urlIdx := -1
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")), "url") {
			urlIdx = i
			break
		}
	}
	if urlIdx < 0 {
		return nil, fmt.Errorf("missing required column %q", "url")
	}

	var urls []string
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if urlIdx >= len(rec) {
			return nil, fmt.Errorf("row %d has %d columns, want at least %d", line, len(rec), urlIdx+1)
		}
		if u := strings.TrimSpace(rec[urlIdx]); u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// ReadURLLines reads one URL per line. Blank lines and lines starting with '#' are skipped.
func ReadURLLines(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read urls: %w", err)
	}
	return urls, nil
}
