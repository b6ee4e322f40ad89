package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/medscrape/internal/resolve"
)

var commonOut string

// commonCmd represents the common command
var commonCmd = &cobra.Command{
	Use:   "common",
	Short: "List the site's common drugs with their review-listing URLs",
	Long: `Common reads the site's common-drugs index and writes a {Drug, URL} table
that can be fed straight into batch.

Example:
  medscrape common --out common.csv
  medscrape batch common.csv --pages 2`,
	Args: cobra.NoArgs,
	RunE: runCommon,
}

func init() {
	rootCmd.AddCommand(commonCmd)

	commonCmd.Flags().StringVar(&commonOut, "out", "common_drugs.csv", "output URL table path")
	addFetchFlags(commonCmd)
}

func runCommon(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer flushMetrics(cfg, logger)

	ctx, cancel := runContext(runTimeout)
	defer cancel()

	p := newPipeline(cfg, logger)
	resolver, err := resolve.NewResolver(p.Fetcher(), cfg.Site, cfg.Concurrency.ResolveWorkers, logger)
	if err != nil {
		return err
	}

	rows, err := resolver.CommonDrugs(ctx)
	if err != nil {
		return fmt.Errorf("common drugs: %w", err)
	}

	err = p.Renderer().SaveFile(commonOut, func(w io.Writer) error {
		return p.Renderer().WriteURLTable(w, rows)
	})
	if err != nil {
		return fmt.Errorf("write URL table: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ %d drugs written to %s\n", len(rows), commonOut)
	return nil
}
