// Package sources implements the upstream fetchers: the school calendar grid,
// the district RSS feed, the announcements spreadsheet and the athletics
// sites. Each fetcher only produces record batches; reconciling them against
// the store is the ingest package's job.
package sources

import (
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"

	"schoolbeat/internal/retry"
)

const userAgent = "Mozilla/5.0 (compatible; schoolbeat/1.0)"

// Doer is the slice of http.Client the fetchers need.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// fetchDocument GETs url and parses the body as HTML, retrying transient
// failures.
func fetchDocument(ctx context.Context, client Doer, url string, rcfg retry.Config) (*goquery.Document, error) {
	var doc *goquery.Document
	err := retry.Do(ctx, rcfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		doc, err = goquery.NewDocumentFromReader(resp.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return doc, nil
}
