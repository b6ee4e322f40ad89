package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/medscrape/internal/extract"
	"github.com/ppiankov/medscrape/internal/markup"
	"github.com/ppiankov/medscrape/internal/model"
)

const progressEvery = 10

// DocumentFetcher retrieves and parses one page
type DocumentFetcher interface {
	Document(ctx context.Context, rawURL string) (markup.Element, error)
}

// PageMode selects how many listing pages to walk. All asks the listing
// for its review total; otherwise exactly Pages pages are fetched.
type PageMode struct {
	All   bool
	Pages int
}

// Collector walks the pages of a review listing and harvests every review.
// It holds no per-listing state, so one Collector can serve many listings
// concurrently.
type Collector struct {
	fetcher   DocumentFetcher
	extractor *extract.ReviewExtractor
	workers   int
	logger    zerolog.Logger
}

// NewCollector creates a Collector fetching up to workers pages at once
func NewCollector(fetcher DocumentFetcher, workers int, logger zerolog.Logger) *Collector {
	if workers <= 0 {
		workers = 1
	}
	return &Collector{
		fetcher:   fetcher,
		extractor: extract.NewReviewExtractor(),
		workers:   workers,
		logger:    logger,
	}
}

// PageCount fetches the listing's first page and derives how many pages
// hold reviews. A listing showing the no-reviews heading has zero pages.
func (c *Collector) PageCount(ctx context.Context, baseURL string) (int, error) {
	doc, err := c.fetcher.Document(ctx, baseURL)
	if err != nil {
		return 0, err
	}

	if extract.NoReviews(doc) {
		c.logger.Info().Str("url", baseURL).Msg("no reviews yet")
		return 0, nil
	}

	total, err := extract.ReviewTotal(doc, baseURL)
	if err != nil {
		return 0, err
	}

	pages := extract.PageCount(total)
	c.logger.Info().Str("url", baseURL).Int("reviews", total).Msg("found reviews")
	c.logger.Info().Str("url", baseURL).Int("pages", pages).Msg("scraping pages")
	return pages, nil
}

// Collect returns every review of the listing in page order, then in-page
// order. Any page failure aborts the listing with no partial result.
func (c *Collector) Collect(ctx context.Context, baseURL string, mode PageMode) ([]model.Review, error) {
	listing, err := c.Harvest(ctx, "", baseURL, mode)
	if err != nil {
		return nil, err
	}
	return listing.Reviews, nil
}

// Harvest is Collect with the page count and drug name kept alongside
func (c *Collector) Harvest(ctx context.Context, drug, baseURL string, mode PageMode) (*model.Listing, error) {
	pages, err := c.resolvePages(ctx, baseURL, mode)
	if err != nil {
		return nil, err
	}

	reviews, err := c.collectPages(ctx, baseURL, pages)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("url", baseURL).
		Int("pages", pages).
		Int("reviews", len(reviews)).
		Msg("listing complete")

	return &model.Listing{
		Drug:      drug,
		URL:       baseURL,
		PageCount: pages,
		Reviews:   reviews,
	}, nil
}

func (c *Collector) resolvePages(ctx context.Context, baseURL string, mode PageMode) (int, error) {
	if mode.All {
		return c.PageCount(ctx, baseURL)
	}
	if mode.Pages < 0 {
		return 0, fmt.Errorf("page count must not be negative, got %d", mode.Pages)
	}
	return mode.Pages, nil
}

func (c *Collector) collectPages(ctx context.Context, baseURL string, pages int) ([]model.Review, error) {
	if pages == 0 {
		return []model.Review{}, nil
	}

	perPage := make([][]model.Review, pages)
	var done atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i := 0; i < pages; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			pageURL, err := PageURL(baseURL, i)
			if err != nil {
				return err
			}

			doc, err := c.fetcher.Document(gctx, pageURL)
			if err != nil {
				return fmt.Errorf("page %d: %w", i, err)
			}

			reviews, err := c.extractor.Extract(doc, pageURL)
			if err != nil {
				return fmt.Errorf("page %d: %w", i, err)
			}
			perPage[i] = reviews

			if n := done.Add(1); n%progressEvery == 0 {
				c.logger.Info().Str("url", baseURL).Int32("pages", n).Int("of", pages).Msg("scraped pages")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, reviews := range perPage {
		total += len(reviews)
	}
	out := make([]model.Review, 0, total)
	for _, reviews := range perPage {
		out = append(out, reviews...)
	}
	return out, nil
}

// PageURL returns the URL of listing page index, sorted the way the site
// paginates reviews. Query parameters already on baseURL are kept.
func PageURL(baseURL string, index int) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse listing URL: %w", err)
	}

	q := u.Query()
	q.Set("pageIndex", strconv.Itoa(index))
	q.Set("sortby", "3")
	q.Set("conditionFilter", "-1")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
