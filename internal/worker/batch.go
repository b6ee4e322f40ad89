package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/medscrape/internal/model"
	"github.com/ppiankov/medscrape/internal/pipeline"
)

// Scraper harvests one review listing
type Scraper interface {
	ScrapeListing(ctx context.Context, drug, listingURL string, mode pipeline.PageMode) (*model.Listing, error)
}

// ListingJob scrapes one row of the URL table
type ListingJob struct {
	Row     model.URLRow
	Mode    pipeline.PageMode
	Scraper Scraper
}

func (j *ListingJob) Execute(ctx context.Context) Result {
	listing, err := j.Scraper.ScrapeListing(ctx, j.Row.Drug, j.Row.URL, j.Mode)
	return &ListingResult{
		Drug:    j.Row.Drug,
		URL:     j.Row.URL,
		Listing: listing,
		Error:   err,
	}
}

// ListingResult is the outcome of one listing. Listing is nil when Error is set.
type ListingResult struct {
	Drug    string
	URL     string
	Listing *model.Listing
	Error   error
}

func (r *ListingResult) GetError() error {
	return r.Error
}

// BatchProcessor scrapes many listings concurrently. A failing listing
// does not affect the others.
type BatchProcessor struct {
	scraper     Scraper
	concurrency int
}

func NewBatchProcessor(scraper Scraper, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		scraper:     scraper,
		concurrency: concurrency,
	}
}

// ProcessRows scrapes every row and returns one result per row, in row order
func (b *BatchProcessor) ProcessRows(ctx context.Context, rows []model.URLRow, mode pipeline.PageMode) []*ListingResult {
	if len(rows) == 0 {
		return []*ListingResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, row := range rows {
		pool.Submit(&ListingJob{
			Row:     row,
			Mode:    mode,
			Scraper: b.scraper,
		})
	}

	byURL := make(map[string]*ListingResult, len(rows))
	for _, result := range pool.Wait() {
		lr := result.(*ListingResult)
		byURL[lr.URL] = lr
	}

	results := make([]*ListingResult, len(rows))
	for i, row := range rows {
		if lr, ok := byURL[row.URL]; ok {
			results[i] = lr
			continue
		}
		cause := context.Cause(ctx)
		if cause == nil {
			cause = errors.New("cancelled")
		}
		results[i] = &ListingResult{Drug: row.Drug, URL: row.URL, Error: fmt.Errorf("not attempted: %w", cause)}
	}
	return results
}

// ProcessFile reads a URL table and scrapes every listing in it
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string, mode pipeline.PageMode) ([]*ListingResult, error) {
	rows, err := ReadURLTable(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URL table: %w", err)
	}

	return b.ProcessRows(ctx, rows, mode), nil
}

// ReadURLTable reads a {Drug, URL} CSV. Rows without a URL are skipped and
// a URL listed twice is scraped once.
func ReadURLTable(filePath string) ([]model.URLRow, error) {
	renderer := pipeline.NewRenderer()

	var table []model.URLRow
	err := renderer.OpenFile(filePath, func(r io.Reader) error {
		var err error
		table, err = renderer.ReadURLTable(r)
		return err
	})
	if err != nil {
		return nil, err
	}

	var rows []model.URLRow
	seen := make(map[string]bool)
	for _, row := range table {
		row.Drug = strings.TrimSpace(row.Drug)
		row.URL = strings.TrimSpace(row.URL)
		if row.URL == "" || seen[row.URL] {
			continue
		}
		seen[row.URL] = true
		rows = append(rows, row)
	}
	return rows, nil
}
