// Package resolve turns drug names into review-listing URLs by walking the
// site's search, results and drug-info pages.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ppiankov/medscrape/internal/extract"
	"github.com/ppiankov/medscrape/internal/model"
	"github.com/ppiankov/medscrape/internal/pipeline"
	"github.com/ppiankov/medscrape/internal/worker"
)

// Resolver maps drug names to review-listing URLs. It is safe for
// concurrent use; each name's stages run strictly in sequence.
type Resolver struct {
	fetcher    pipeline.DocumentFetcher
	site       *url.URL
	searchPath string
	commonPath string
	workers    int
	logger     zerolog.Logger
}

// NewResolver creates a Resolver for the configured site. workers bounds
// how many names resolve at once.
func NewResolver(fetcher pipeline.DocumentFetcher, site model.SiteConfig, workers int, logger zerolog.Logger) (*Resolver, error) {
	base, err := url.Parse(site.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse site URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("site URL %q must be absolute", site.BaseURL)
	}
	if workers <= 0 {
		workers = 1
	}

	return &Resolver{
		fetcher:    fetcher,
		site:       base,
		searchPath: site.SearchPath,
		commonPath: site.CommonDrugsPath,
		workers:    workers,
		logger:     logger,
	}, nil
}

// SearchURL is the site search for name, lower-cased
func (r *Resolver) SearchURL(name string) string {
	u := r.site.ResolveReference(&url.URL{Path: r.searchPath})
	u.RawQuery = url.Values{"query": {strings.ToLower(name)}}.Encode()
	return u.String()
}

// Resolve resolves names with up to the configured number of workers.
// The report keeps input order.
func (r *Resolver) Resolve(ctx context.Context, names []string) *model.ResolutionReport {
	resolutions := make([]model.Resolution, len(names))
	done := make([]bool, len(names))

	pool := worker.NewPool(ctx, r.workers)
	pool.Start()
	for i, name := range names {
		pool.Submit(&resolveJob{index: i, name: name, resolver: r})
	}

	for _, res := range pool.Wait() {
		result := res.(*resolveResult)
		resolutions[result.index] = result.resolution
		done[result.index] = true
	}

	// Names the pool never reached were cut off by cancellation
	for i, name := range names {
		if done[i] {
			continue
		}
		cause := context.Cause(ctx)
		if cause == nil {
			cause = errors.New("cancelled")
		}
		resolutions[i] = failed(name, fmt.Errorf("not attempted: %w", cause))
	}

	return &model.ResolutionReport{Resolutions: resolutions}
}

// ResolveOne runs the three stages for a single name
func (r *Resolver) ResolveOne(ctx context.Context, name string) model.Resolution {
	log := r.logger.With().Str("drug", name).Logger()

	searchURL := r.SearchURL(name)
	log.Debug().Str("url", searchURL).Msg("searching")

	doc, err := r.fetcher.Document(ctx, searchURL)
	if err != nil {
		return failed(name, fmt.Errorf("search: %w", err))
	}

	href, found, err := extract.DrugResultsHref(doc, searchURL)
	if err != nil {
		return failed(name, fmt.Errorf("search: %w", err))
	}
	if !found {
		log.Warn().Msg("no drug results")
		return model.Resolution{Name: name, Outcome: model.OutcomeUnfound}
	}

	resultsURL, err := extract.ResolveHref(r.site, href)
	if err != nil {
		return failed(name, fmt.Errorf("search: %w", err))
	}

	infoURL, err := r.infoPage(ctx, log, resultsURL)
	if err != nil {
		return failed(name, err)
	}
	if infoURL == "" {
		log.Debug().Str("url", resultsURL).Msg("no drug info page")
		return model.Resolution{Name: name, Outcome: model.OutcomeNoInfoPage}
	}

	doc, err = r.fetcher.Document(ctx, infoURL)
	if err != nil {
		return failed(name, fmt.Errorf("info page: %w", err))
	}

	href, found, err = extract.ReviewLinkHref(doc, infoURL)
	if err != nil {
		return failed(name, fmt.Errorf("info page: %w", err))
	}
	if !found {
		log.Debug().Str("url", infoURL).Msg("no review link")
		return model.Resolution{Name: name, Outcome: model.OutcomeNoReviewLink}
	}

	reviewURL, err := extract.ResolveHref(r.site, href)
	if err != nil {
		return failed(name, fmt.Errorf("info page: %w", err))
	}

	log.Info().Str("url", reviewURL).Msg("resolved")
	return model.Resolution{Name: name, URL: reviewURL, Outcome: model.OutcomeResolved}
}

// infoPage picks the drug-info page from a results page. A results page
// that already links to reviews is its own info page; otherwise the
// variant with the most reviews wins, first seen on ties. An empty URL
// means no candidate qualified.
func (r *Resolver) infoPage(ctx context.Context, log zerolog.Logger, resultsURL string) (string, error) {
	doc, err := r.fetcher.Document(ctx, resultsURL)
	if err != nil {
		return "", fmt.Errorf("results page: %w", err)
	}

	if extract.HasReviewLink(doc) {
		return resultsURL, nil
	}

	hrefs, err := extract.VariantHrefs(doc, resultsURL)
	if err != nil {
		return "", fmt.Errorf("results page: %w", err)
	}

	var best model.Variant
	for _, href := range hrefs {
		variantURL, err := extract.ResolveHref(r.site, href)
		if err != nil {
			return "", fmt.Errorf("variant: %w", err)
		}

		vdoc, err := r.fetcher.Document(ctx, variantURL)
		if err != nil {
			return "", fmt.Errorf("variant: %w", err)
		}

		count, err := extract.VariantReviewCount(vdoc, variantURL)
		if err != nil {
			return "", fmt.Errorf("variant: %w", err)
		}
		log.Debug().Str("url", variantURL).Int("reviews", count).Msg("variant")

		if count > best.ReviewCount {
			best = model.Variant{URL: variantURL, ReviewCount: count}
		}
	}

	return best.URL, nil
}

func failed(name string, err error) model.Resolution {
	return model.Resolution{Name: name, Outcome: model.OutcomeFailed, Err: err.Error()}
}

type resolveJob struct {
	index    int
	name     string
	resolver *Resolver
}

func (j *resolveJob) Execute(ctx context.Context) worker.Result {
	return &resolveResult{index: j.index, resolution: j.resolver.ResolveOne(ctx, j.name)}
}

type resolveResult struct {
	index      int
	resolution model.Resolution
}

func (r *resolveResult) GetError() error {
	if r.resolution.Outcome == model.OutcomeFailed {
		return fmt.Errorf("%s: %s", r.resolution.Name, r.resolution.Err)
	}
	return nil
}
