package resolve

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ppiankov/medscrape/internal/extract"
	"github.com/ppiankov/medscrape/internal/model"
)

// CommonDrugs reads the site's common-drugs index and returns each listed
// drug with its absolute review-listing URL
func (r *Resolver) CommonDrugs(ctx context.Context) ([]model.URLRow, error) {
	ref, err := url.Parse(r.commonPath)
	if err != nil {
		return nil, fmt.Errorf("parse common drugs path: %w", err)
	}
	indexURL := r.site.ResolveReference(ref)

	doc, err := r.fetcher.Document(ctx, indexURL.String())
	if err != nil {
		return nil, fmt.Errorf("common drugs: %w", err)
	}

	rows, err := extract.CommonDrugs(doc, indexURL.String())
	if err != nil {
		return nil, fmt.Errorf("common drugs: %w", err)
	}

	for i := range rows {
		abs, err := extract.ResolveHref(indexURL, rows[i].URL)
		if err != nil {
			return nil, fmt.Errorf("common drugs: %s: %w", rows[i].Drug, err)
		}
		rows[i].Drug = strings.TrimSpace(rows[i].Drug)
		rows[i].URL = abs
	}

	r.logger.Info().Int("drugs", len(rows)).Msg("common drugs index read")
	return rows, nil
}
