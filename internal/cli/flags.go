package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ppiankov/medscrape/internal/model"
	"github.com/ppiankov/medscrape/internal/observability"
	"github.com/ppiankov/medscrape/internal/pipeline"
	"github.com/ppiankov/medscrape/internal/worker"
)

// Fetch flags shared by every command that talks to the site
var (
	runTimeout    time.Duration
	userAgent     string
	insecureTLS   bool
	useCache      bool
	respectRobots bool
	requestsPerS  float64
	httpProxy     string
	httpsProxy    string
)

// Listing flags shared by scrape and batch
var (
	allPages  bool
	pageCount int
)

func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&runTimeout, "timeout", 0, "overall run timeout (0 = none)")
	cmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (overrides http.user_agent)")
	cmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")
	cmd.Flags().BoolVar(&useCache, "cache", false, "cache fetched pages (memory + disk)")
	cmd.Flags().BoolVar(&respectRobots, "respect-robots", false, "honor robots.txt rules and crawl delay")
	cmd.Flags().Float64Var(&requestsPerS, "rps", 0, "max requests per second per domain (0 = unlimited)")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&allPages, "all", false, "walk every page the listing reports (default)")
	cmd.Flags().IntVar(&pageCount, "pages", 0, "walk exactly N pages")
}

// applyFetchFlags copies explicitly set flags over the loaded config
func applyFetchFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("ua") {
		cfg.HTTP.UserAgent = userAgent
	}
	if flags.Changed("insecure") {
		cfg.HTTP.InsecureTLS = insecureTLS
	}
	if flags.Changed("cache") {
		cfg.Cache.Enabled = useCache
	}
	if flags.Changed("respect-robots") {
		cfg.HTTP.RespectRobots = respectRobots
	}
	if flags.Changed("rps") {
		cfg.RateLimiting.RequestsPerSecond = requestsPerS
	}
	if flags.Changed("http-proxy") {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if flags.Changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
}

// pageMode reads --all / --pages. An explicit --pages selects fixed mode,
// including --pages 0.
// applyLLMFlags copies the classify command's provider flags over the config
func applyLLMFlags(cmd *cobra.Command, cfg *model.Config) {
	if cmd.Flags().Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if cmd.Flags().Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
}

func pageMode(cmd *cobra.Command) (pipeline.PageMode, error) {
	fixed := cmd.Flags().Changed("pages")
	if allPages && fixed {
		return pipeline.PageMode{}, fmt.Errorf("--all and --pages are mutually exclusive")
	}
	if !fixed {
		return pipeline.PageMode{All: true}, nil
	}
	if pageCount < 0 {
		return pipeline.PageMode{}, fmt.Errorf("--pages must not be negative, got %d", pageCount)
	}
	return pipeline.PageMode{Pages: pageCount}, nil
}

// runMetrics collects the current command's metrics
var runMetrics *observability.Metrics

// newPipeline builds the fetch pipeline with the per-domain limiter
func newPipeline(cfg *model.Config, logger zerolog.Logger) *pipeline.Pipeline {
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	return pipeline.NewPipeline(cfg, logger,
		pipeline.WithLimiter(limiter),
		pipeline.WithMetrics(runMetrics),
	)
}

// setup loads config, applies fetch and LLM flags, validates the result
// and creates the logger
func setup(cmd *cobra.Command) (*model.Config, zerolog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	applyFetchFlags(cmd, cfg)
	applyLLMFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), err
	}

	runMetrics = observability.NewMetrics()
	return cfg, newLogger(cfg), nil
}

// flushMetrics writes the run's metrics when --metrics-file is set
func flushMetrics(cfg *model.Config, logger zerolog.Logger) {
	if cfg.Output.MetricsFile == "" {
		return
	}
	if err := runMetrics.WriteFile(cfg.Output.MetricsFile); err != nil {
		logger.Warn().Err(err).Str("path", cfg.Output.MetricsFile).Msg("metrics write failed")
		return
	}
	logger.Debug().Str("path", cfg.Output.MetricsFile).Msg("wrote metrics")
}
