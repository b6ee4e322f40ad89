package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ppiankov/medscrape/internal/model"
)

// ErrNoProvider is returned when labeling is requested without a provider
var ErrNoProvider = errors.New("no LLM provider configured (set llm.provider or --llm-provider)")

// Labeler assigns one label per review through an LLM provider
type Labeler struct {
	provider Provider
	labels   []string
	logger   zerolog.Logger
}

// NewLabeler creates a labeler from configuration. A configuration with no
// provider returns ErrNoProvider.
func NewLabeler(config Config, logger zerolog.Logger) (*Labeler, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	if provider == nil {
		return nil, ErrNoProvider
	}
	return NewLabelerWithProvider(provider, config.Labels, logger), nil
}

// NewLabelerWithProvider wraps an existing provider
func NewLabelerWithProvider(provider Provider, labels []string, logger zerolog.Logger) *Labeler {
	if len(labels) == 0 {
		labels = DefaultLabels
	}
	return &Labeler{
		provider: provider,
		labels:   labels,
		logger:   logger,
	}
}

// ProviderName returns the name of the underlying provider
func (l *Labeler) ProviderName() string {
	return l.provider.Name()
}

// Labels returns the label set replies are matched against
func (l *Labeler) Labels() []string {
	return l.labels
}

// Label returns the label for one review comment
func (l *Labeler) Label(ctx context.Context, comment string) (string, error) {
	resp, err := l.provider.Classify(ctx, ClassifyRequest{Text: comment, Labels: l.labels})
	if err != nil {
		return "", err
	}
	return MatchLabel(resp.Reply, l.labels)
}

// LabelAll labels reviews one at a time, in order. A review whose reply
// cannot be matched keeps an empty label and its error is joined into the
// returned error; cancellation stops the run and returns what was labeled.
func (l *Labeler) LabelAll(ctx context.Context, reviews []model.Review) ([]model.LabeledReview, error) {
	out := make([]model.LabeledReview, 0, len(reviews))
	var errs []error

	for i, review := range reviews {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		label, err := l.Label(ctx, review.Comment)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return out, ctxErr
			}
			l.logger.Warn().Err(err).Int("review", i).Msg("label failed")
			errs = append(errs, fmt.Errorf("review %d: %w", i, err))
		}

		out = append(out, model.LabeledReview{Review: review, Label: label})
		if (i+1)%25 == 0 {
			l.logger.Info().Int("labeled", i+1).Int("of", len(reviews)).Msg("labeling")
		}
	}

	return out, errors.Join(errs...)
}
