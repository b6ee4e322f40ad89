package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/medscrape/internal/worker"
)

var (
	concurrency int
	outputDir   string
	batchJSON   bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <urls.csv>",
	Short: "Scrape every listing of a URL table in parallel",
	Long: `Batch reads a {Drug, URL} table (as written by resolve or common) and
scrapes each listing, writing one reviews CSV per drug.

A listing that fails does not stop the others; failures are listed in the
final summary.

Example:
  medscrape batch urls.csv
  medscrape batch urls.csv --concurrency 4 --output-dir ./reviews --pages 5`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "listings scraped at once (overrides concurrency.listing_workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./medscrape-reviews", "output directory for review files")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "also write a JSON file per listing")
	addPageFlags(batchCmd)
	addFetchFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	mode, err := pageMode(cmd)
	if err != nil {
		return err
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer flushMetrics(cfg, logger)
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.ListingWorkers = concurrency
	}

	ctx, cancel := runContext(runTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  medscrape Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Listings:     %d at once\n", cfg.Concurrency.ListingWorkers)
	fmt.Fprintf(os.Stderr, "  Pages:        %d at once\n", cfg.Concurrency.PageWorkers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p := newPipeline(cfg, logger)
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.ListingWorkers)

	results, err := processor.ProcessFile(ctx, file, mode)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0
	reviewCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", displayName(result.Drug, result.URL), result.Error)
			continue
		}

		slug := sanitizeFilename(displayName(result.Drug, result.URL))
		csvPath := filepath.Join(outputDir, slug+".csv")
		jsonPath := ""
		if batchJSON {
			jsonPath = filepath.Join(outputDir, slug+".json")
		}

		if err := p.RenderListing(result.Listing, csvPath, jsonPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", displayName(result.Drug, result.URL), err)
			continue
		}

		successCount++
		reviewCount += len(result.Listing.Reviews)
		runMetrics.AddReviews(len(result.Listing.Reviews))
		fmt.Fprintf(os.Stderr, "✓ %s (%d reviews)\n", displayName(result.Drug, result.URL), len(result.Listing.Reviews))
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d listings\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Reviews:   %d\n", reviewCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}
	return nil
}

func displayName(drug, url string) string {
	if drug != "" {
		return drug
	}
	return url
}

// sanitizeFilename turns a drug name into a safe file name
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		"&", "_",
		"=", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.ToLower(strings.TrimSpace(s)))
	s = strings.Trim(s, ".-_")

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "listing"
	}
	return s
}
