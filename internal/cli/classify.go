package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/medscrape/internal/llm"
	"github.com/ppiankov/medscrape/internal/model"
	"github.com/ppiankov/medscrape/internal/pipeline"
)

var (
	labeledOut  string
	llmProvider string
	llmModel    string
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <reviews.csv>",
	Short: "Label each review with an LLM",
	Long: `Classify sends each review comment to an LLM and asks for one label from
a fixed set (positive, negative, neutral by default; see llm.labels).
The output is the input CSV with a trailing label column.

Replies that match no label leave the label empty.

API keys are read from llm.api_key, MEDSCRAPE_LLM_API_KEY, or the
provider's usual variable (OPENAI_API_KEY, ANTHROPIC_API_KEY).

Example:
  medscrape classify citalopram.csv --llm-provider openai --llm-model gpt-4o-mini
  medscrape classify citalopram.csv --llm-provider ollama --llm-model llama3.1:8b`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringVar(&labeledOut, "out", "labeled.csv", "output CSV path")
	classifyCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	classifyCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	classifyCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "overall run timeout (0 = none)")
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer flushMetrics(cfg, logger)

	if err := applyLLMEnv(&cfg.LLM); err != nil {
		return err
	}

	renderer := pipeline.NewRenderer()
	var reviews []model.Review
	err = renderer.OpenFile(args[0], func(r io.Reader) error {
		var err error
		reviews, err = renderer.ReadReviews(r)
		return err
	})
	if err != nil {
		return err
	}

	labeler, err := llm.NewLabeler(llm.ConfigFromModel(cfg.LLM, cfg.HTTP), logger)
	if err != nil {
		return err
	}

	ctx, cancel := runContext(runTimeout)
	defer cancel()

	logger.Info().Int("reviews", len(reviews)).Str("provider", labeler.ProviderName()).Msg("labeling")
	labeled, labelErr := labeler.LabelAll(ctx, reviews)

	err = renderer.SaveFile(labeledOut, func(w io.Writer) error {
		return renderer.WriteLabeledCSV(w, labeled)
	})
	if err != nil {
		return err
	}

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(labelErr, ctxErr) {
		return fmt.Errorf("classify interrupted after %d of %d reviews: %w", len(labeled), len(reviews), labelErr)
	}

	unlabeled := 0
	for _, r := range labeled {
		runMetrics.ObserveLabel(r.Label)
		if r.Label == "" {
			unlabeled++
		}
	}
	if labelErr != nil {
		logger.Warn().Int("unlabeled", unlabeled).Msg("some reviews could not be labeled")
		logger.Debug().Err(labelErr).Msg("label errors")
	}

	fmt.Fprintf(os.Stderr, "✓ %d reviews labeled (%d unlabeled) → %s\n", len(labeled)-unlabeled, unlabeled, labeledOut)
	return nil
}

// applyLLMEnv fills the API key and Ollama endpoint from the providers'
// usual environment variables when the config leaves them empty
func applyLLMEnv(cfg *model.LLMConfig) error {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if cfg.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.BaseURL == "" {
			cfg.BaseURL = baseURL
		}
	}
	return nil
}
