package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	outCSV  string
	outJSON string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <listing-url>",
	Short: "Harvest every review of one review listing",
	Long: `Scrape walks the pages of one review listing and extracts each review:
comment text plus effectiveness, ease-of-use and satisfaction ratings (1-5).

By default the listing's review total decides how many pages are walked.
A listing that shows the "be the first to share" marker yields no reviews.

Example:
  medscrape scrape "https://www.webmd.com/drugs/drugreview-8603-citalopram" --csv citalopram.csv
  medscrape scrape <url> --pages 3 --json citalopram.json`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVar(&outCSV, "csv", "reviews.csv", "output CSV path")
	scrapeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	addPageFlags(scrapeCmd)
	addFetchFlags(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	listingURL := args[0]

	mode, err := pageMode(cmd)
	if err != nil {
		return err
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer flushMetrics(cfg, logger)

	ctx, cancel := runContext(runTimeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Scraping: %s\n", listingURL)
		fmt.Fprintf(os.Stderr, "Page workers: %d\n", cfg.Concurrency.PageWorkers)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p := newPipeline(cfg, logger)

	listing, err := p.ScrapeListing(ctx, "", listingURL, mode)
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}

	runMetrics.AddReviews(len(listing.Reviews))

	if err := p.RenderListing(listing, outCSV, outJSON); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ %d reviews from %d pages\n", len(listing.Reviews), listing.PageCount)
	return nil
}
