package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/medscrape/internal/cache"
	"github.com/ppiankov/medscrape/internal/model"
	"github.com/ppiankov/medscrape/internal/pipeline"
)

func TestPageMode(t *testing.T) {
	defer func() { allPages, pageCount = false, 0 }()

	tests := []struct {
		name    string
		args    []string
		want    pipeline.PageMode
		wantErr bool
	}{
		{"no flag walks every page", nil, pipeline.PageMode{All: true}, false},
		{"explicit all", []string{"--all"}, pipeline.PageMode{All: true}, false},
		{"fixed pages", []string{"--pages", "3"}, pipeline.PageMode{Pages: 3}, false},
		{"fixed zero pages", []string{"--pages", "0"}, pipeline.PageMode{Pages: 0}, false},
		{"both flags", []string{"--all", "--pages", "3"}, pipeline.PageMode{}, true},
		{"both flags with zero", []string{"--all", "--pages", "0"}, pipeline.PageMode{}, true},
		{"negative pages", []string{"--pages", "-1"}, pipeline.PageMode{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allPages, pageCount = false, 0
			cmd := &cobra.Command{Use: "test"}
			addPageFlags(cmd)
			require.NoError(t, cmd.ParseFlags(tt.args))

			mode, err := pageMode(cmd)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, mode)
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"Citalopram":               "citalopram",
		"Abilify Maintena":         "abilify-maintena",
		"Tylenol/Codeine #3":       "tylenol_codeine-#3",
		"  ../etc/passwd ":         "etc_passwd",
		"":                         "listing",
		strings.Repeat("a", 150):   strings.Repeat("a", 100),
		"https://x.test/r?id=1&x=": "https___x.test_r_id_1_x",
	}

	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), "input %q", in)
	}
}

func TestApplyFetchFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addFetchFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--cache", "--rps", "2.5", "--ua", "test-agent"}))

	cfg := model.DefaultConfig()
	cfg.HTTP.InsecureTLS = true
	applyFetchFlags(cmd, cfg)

	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 2.5, cfg.RateLimiting.RequestsPerSecond)
	assert.Equal(t, "test-agent", cfg.HTTP.UserAgent)
	assert.True(t, cfg.HTTP.InsecureTLS, "unset flags leave config values alone")
}

func TestLoadConfig_EnvOverridesDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	require.NoError(t, setDefaults(model.DefaultConfig()))
	viper.SetEnvPrefix("MEDSCRAPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	t.Setenv("MEDSCRAPE_HTTP_TIMEOUT", "10s")
	t.Setenv("MEDSCRAPE_CONCURRENCY_PAGE_WORKERS", "4")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 4, cfg.Concurrency.PageWorkers)
	assert.Equal(t, 1, cfg.Concurrency.ResolveWorkers)
	assert.Equal(t, "https://www.webmd.com", cfg.Site.BaseURL)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, []string{"positive", "negative", "neutral"}, cfg.LLM.Labels)
}

func TestApplyLLMEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg := model.LLMConfig{Provider: "openai"}
	require.NoError(t, applyLLMEnv(&cfg))
	assert.Equal(t, "sk-test", cfg.APIKey)

	cfg = model.LLMConfig{Provider: "openai", APIKey: "from-config"}
	require.NoError(t, applyLLMEnv(&cfg))
	assert.Equal(t, "from-config", cfg.APIKey, "config key wins over environment")

	cfg = model.LLMConfig{Provider: "anthropic"}
	assert.Error(t, applyLLMEnv(&cfg))

	t.Setenv("OLLAMA_BASE_URL", "http://gpu-box:11434")
	cfg = model.LLMConfig{Provider: "ollama"}
	require.NoError(t, applyLLMEnv(&cfg))
	assert.Equal(t, "http://gpu-box:11434", cfg.BaseURL)
}

func TestOutcomeRows(t *testing.T) {
	report := &model.ResolutionReport{Resolutions: []model.Resolution{
		{Name: "Citalopram", URL: "https://x.test/r", Outcome: model.OutcomeResolved},
		{Name: "Zzzznotadrug", Outcome: model.OutcomeUnfound},
		{Name: "Gapdrug", Outcome: model.OutcomeNoInfoPage},
		{Name: "Brokendrug", Outcome: model.OutcomeFailed, Err: "fetch: status 500"},
	}}

	rows := outcomeRows(report, false)
	require.Len(t, rows, 2)
	assert.Equal(t, "Zzzznotadrug", rows[0][0])
	assert.Equal(t, "fetch: status 500", rows[1][2])

	rows = outcomeRows(report, true)
	require.Len(t, rows, 3)
	assert.Equal(t, "Gapdrug", rows[1][0])
	assert.Equal(t, string(model.OutcomeNoInfoPage), rows[1][1])
}

func TestSetup_ValidatesLLMFlags(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	defer func() { llmProvider, llmModel = "", "" }()
	require.NoError(t, setDefaults(model.DefaultConfig()))

	newCmd := func(args ...string) *cobra.Command {
		cmd := &cobra.Command{Use: "classify"}
		cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "")
		cmd.Flags().StringVar(&llmModel, "llm-model", "", "")
		require.NoError(t, cmd.ParseFlags(args))
		return cmd
	}

	_, _, err := setup(newCmd("--llm-provider", "gemini"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Provider")

	cfg, _, err := setup(newCmd("--llm-provider", "ollama", "--llm-model", "llama3"))
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3", cfg.LLM.Model)
}

func TestClearCache_Disk(t *testing.T) {
	cfg := model.DefaultConfig().Cache
	cfg.Dir = filepath.Join(t.TempDir(), "pages")

	store := cache.Open(cfg)
	require.NoError(t, store.Set(cache.PageKey("https://example.com/a"), []byte("<html></html>"), 0))
	_, err := os.Stat(cfg.Dir)
	require.NoError(t, err)

	require.NoError(t, clearCache(cfg))

	_, err = os.Stat(cfg.Dir)
	assert.True(t, os.IsNotExist(err), "expected cache dir removed")
}
