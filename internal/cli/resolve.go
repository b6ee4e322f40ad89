package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ppiankov/medscrape/internal/model"
	"github.com/ppiankov/medscrape/internal/resolve"
)

var (
	urlTableOut string
	strictGaps  bool
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <names.csv>",
	Short: "Resolve drug names to review-listing URLs",
	Long: `Resolve looks up each drug name with the site search and follows it to
the drug's review listing. Names are read from the first column of a CSV
file with no header.

When a search result offers several product variants, the variant with the
most reviews wins; on a tie the first one listed is kept.

Names the search does not know are reported as unresolved. Names that are
found but lead to no review listing are dropped from the table; --strict
lists them and exits non-zero.

Example:
  medscrape resolve names.csv --out urls.csv
  medscrape resolve names.csv --strict`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&urlTableOut, "out", "urls.csv", "output URL table path")
	resolveCmd.Flags().BoolVar(&strictGaps, "strict", false, "report names that resolved to no review listing and fail")
	addFetchFlags(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	names, err := resolve.ReadNames(args[0])
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

	p := newPipeline(cfg, logger)
	resolver, err := resolve.NewResolver(p.Fetcher(), cfg.Site, cfg.Concurrency.ResolveWorkers, logger)
	if err != nil {
		return err
	}

	logger.Info().Int("names", len(names)).Int("workers", cfg.Concurrency.ResolveWorkers).Msg("resolving")
	report := resolver.Resolve(ctx, names)
	for _, res := range report.Resolutions {
		runMetrics.ObserveResolution(string(res.Outcome))
	}

	rows := report.Rows()
	err = p.Renderer().SaveFile(urlTableOut, func(w io.Writer) error {
		return p.Renderer().WriteURLTable(w, rows)
	})
	if err != nil {
		return fmt.Errorf("write URL table: %w", err)
	}

	printResolveSummary(report, urlTableOut)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("resolve interrupted: %w", err)
	}
	if gaps := report.Gaps(); strictGaps && len(gaps) > 0 {
		return fmt.Errorf("%d names resolved to no review listing", len(gaps))
	}
	return nil
}

func printResolveSummary(report *model.ResolutionReport, outPath string) {
	unfound := report.Unfound()
	failed := report.Failed()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Resolve Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Names:       %d\n", len(report.Resolutions))
	fmt.Fprintf(os.Stderr, "  Resolved:    %d\n", len(report.Rows()))
	fmt.Fprintf(os.Stderr, "  Unresolved:  %d\n", len(unfound))
	if len(failed) > 0 {
		fmt.Fprintf(os.Stderr, "  Failed:      %d\n", len(failed))
	}
	if strictGaps {
		fmt.Fprintf(os.Stderr, "  No listing:  %d\n", len(report.Gaps()))
	}
	fmt.Fprintf(os.Stderr, "  Output:      %s\n", outPath)
	fmt.Fprintf(os.Stderr, "\n")

	if len(unfound) > 0 {
		fmt.Fprintf(os.Stderr, "Unresolved names: %s\n\n", strings.Join(unfound, ", "))
	}

	problems := outcomeRows(report, strictGaps)
	if len(problems) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stderr)
	t.AppendHeader(table.Row{"Drug", "Outcome", "Detail"})
	t.AppendRows(problems)
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// outcomeRows lists every name that produced no URL, in input order.
// Silent gaps are included only when withGaps is set.
func outcomeRows(report *model.ResolutionReport, withGaps bool) []table.Row {
	var rows []table.Row
	for _, res := range report.Resolutions {
		switch {
		case res.Outcome == model.OutcomeResolved:
			continue
		case res.Outcome.IsGap() && !withGaps:
			continue
		}
		rows = append(rows, table.Row{res.Name, string(res.Outcome), res.Err})
	}
	return rows
}
