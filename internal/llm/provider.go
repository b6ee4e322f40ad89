package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider labels review text with one label from a fixed set
type Provider interface {
	// Name returns the provider name
	Name() string

	// Classify asks the model for the label of one review
	Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error)

	// IsAvailable checks if the provider is properly configured and reachable
	IsAvailable(ctx context.Context) bool
}

// ClassifyRequest is one review to label
type ClassifyRequest struct {
	// Text is the review comment
	Text string

	// Labels is the closed set the reply must come from
	Labels []string

	// Prompt overrides the default prompt when set
	Prompt string

	// Model overrides the configured model when set
	Model string

	MaxTokens int
}

// ClassifyResponse is the raw model reply
type ClassifyResponse struct {
	// Reply is the trimmed model output, not yet matched against the label set
	Reply string

	// Model is the model that generated the response
	Model string

	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for the reply; a label needs only a few
	MaxTokens int

	// Labels is the closed label set
	Labels []string

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultLabels is the sentiment label set used when none is configured
var DefaultLabels = []string{"positive", "negative", "neutral"}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 10,
		Labels:    DefaultLabels,
	}
}

const systemPrompt = "You label patient drug reviews. Reply with exactly one label from the list you are given and nothing else."

// BuildPrompt constructs the default labeling prompt for one review
func BuildPrompt(text string, labels []string) string {
	return fmt.Sprintf(`Label the sentiment of this drug review.

Allowed labels: %s

Review:
"""
%s
"""

Reply with one label only.`, strings.Join(labels, ", "), text)
}

// MatchLabel maps a model reply onto the label set. The reply matches when,
// ignoring case, surrounding whitespace and punctuation, it equals a label
// or starts with one.
func MatchLabel(reply string, labels []string) (string, error) {
	cleaned := strings.ToLower(strings.TrimSpace(reply))
	cleaned = strings.Trim(cleaned, " \t\r\n.,;:!?\"'`*")

	for _, label := range labels {
		if cleaned == strings.ToLower(label) {
			return label, nil
		}
	}

	first := strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == '.' || r == ',' || r == ':'
	})
	if len(first) > 0 {
		for _, label := range labels {
			if first[0] == strings.ToLower(label) {
				return label, nil
			}
		}
	}

	return "", fmt.Errorf("reply %q is not one of %s", reply, strings.Join(labels, ", "))
}

func promptFor(req ClassifyRequest) string {
	if req.Prompt != "" {
		return req.Prompt
	}
	return BuildPrompt(req.Text, req.Labels)
}

func pickModel(reqModel, configModel, fallback string) string {
	if reqModel != "" {
		return reqModel
	}
	if configModel != "" {
		return configModel
	}
	return fallback
}

func pickMaxTokens(reqMax, configMax int) int {
	if reqMax > 0 {
		return reqMax
	}
	if configMax > 0 {
		return configMax
	}
	return 10
}
