package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/ppiankov/medscrape/internal/cache"
	"github.com/ppiankov/medscrape/internal/model"
	"github.com/ppiankov/medscrape/internal/util"
)

// Pipeline wires the fetcher, collector and renderer for one run
type Pipeline struct {
	fetcher   *Fetcher
	collector *Collector
	renderer  *Renderer
	config    *model.Config
	logger    zerolog.Logger
}

// NewPipeline builds a pipeline from configuration. Extra options (a rate
// limiter, for instance) are applied to the fetcher after the configured
// cache and robots policy.
func NewPipeline(cfg *model.Config, logger zerolog.Logger, opts ...FetcherOption) *Pipeline {
	base := []FetcherOption{WithLogger(logger)}
	if c := cache.FromConfig(cfg.Cache); c != nil {
		base = append(base, WithCache(c, cfg.Cache.DiskTTL))
		logger.Debug().Str("dir", cfg.Cache.Dir).Msg("page cache enabled")
	}

	fetcher := NewFetcher(cfg.HTTP, append(base, opts...)...)
	if cfg.HTTP.RespectRobots {
		WithRobots(util.NewRobotsChecker(fetcher.Client(), cfg.HTTP.UserAgent))(fetcher)
	}

	return &Pipeline{
		fetcher:   fetcher,
		collector: NewCollector(fetcher, cfg.Concurrency.PageWorkers, logger),
		renderer:  NewRenderer(),
		config:    cfg,
		logger:    logger,
	}
}

// Fetcher returns the configured fetcher so other stages share its client,
// limiter and cache
func (p *Pipeline) Fetcher() *Fetcher {
	return p.fetcher
}

func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// ScrapeListing harvests every review of one listing
func (p *Pipeline) ScrapeListing(ctx context.Context, drug, listingURL string, mode PageMode) (*model.Listing, error) {
	listing, err := p.collector.Harvest(ctx, drug, listingURL, mode)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", listingURL, err)
	}
	return listing, nil
}

// RenderListing writes the listing to the requested outputs. Empty paths are skipped.
func (p *Pipeline) RenderListing(listing *model.Listing, csvPath, jsonPath string) error {
	if csvPath != "" {
		err := p.renderer.SaveFile(csvPath, func(w io.Writer) error {
			return p.renderer.WriteReviewsCSV(w, listing.Reviews)
		})
		if err != nil {
			return fmt.Errorf("render CSV: %w", err)
		}
		p.logger.Info().Str("path", csvPath).Int("reviews", len(listing.Reviews)).Msg("wrote CSV")
	}

	if jsonPath != "" {
		err := p.renderer.SaveFile(jsonPath, func(w io.Writer) error {
			return p.renderer.WriteListingJSON(w, listing)
		})
		if err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		p.logger.Info().Str("path", jsonPath).Msg("wrote JSON")
	}

	return nil
}
