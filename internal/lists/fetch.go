package lists

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// maxLineBytes bounds a single line of a remote list.
const maxLineBytes = 64 * 1024

// fetchAll downloads every source in parallel. The returned map always has
// one entry per source; failed sources map to nil.
func (c *Catalog) fetchAll(ctx context.Context) map[string][]string {
	results := make([][]string, len(c.sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, source := range c.sources {
		g.Go(func() error {
			domains, err := c.fetchSource(ctx, source)
			if err != nil {
				c.metrics.IncListFetch("error")
				c.log.WithError(err).WithField("source", source).Warn("disposable list fetch failed")
				return nil
			}
			c.metrics.IncListFetch("ok")
			c.log.WithFields(logrus.Fields{"source": source, "domains": len(domains)}).Debug("disposable list fetched")
			results[i] = domains
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string][]string, len(c.sources))
	for i, source := range c.sources {
		out[source] = results[i]
	}
	return out
}

func (c *Catalog) fetchSource(ctx context.Context, url string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseList(resp.Body)
}

// parseList reads one domain per line, skipping blanks, comments and
// anything without a dot.
func parseList(r io.Reader) ([]string, error) {
	var domains []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for scanner.Scan() {
		if d := normalizeEntry(scanner.Text()); d != "" {
			domains = append(domains, d)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read list: %w", err)
	}
	return domains, nil
}

// loadLocalFile reads the first column of the curated CSV. A missing file
// yields no domains and no error.
func loadLocalFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var domains []string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if len(row) == 0 {
			continue
		}
		if d := normalizeEntry(row[0]); d != "" {
			domains = append(domains, d)
		}
	}
	return domains, nil
}
