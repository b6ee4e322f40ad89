package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ppiankov/medscrape/internal/model"
)

// MockProvider replies from a fixed list, in call order
type MockProvider struct {
	replies []string
	err     error
	calls   int
	cancel  context.CancelFunc
	stopAt  int
}

func (m *MockProvider) Name() string                       { return "mock" }
func (m *MockProvider) IsAvailable(_ context.Context) bool { return true }

func (m *MockProvider) Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error) {
	m.calls++
	if m.cancel != nil && m.calls == m.stopAt {
		m.cancel()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	reply := m.replies[(m.calls-1)%len(m.replies)]
	return &ClassifyResponse{Reply: reply, Model: "mock-1"}, nil
}

func reviews(comments ...string) []model.Review {
	out := make([]model.Review, len(comments))
	for i, c := range comments {
		out[i] = model.Review{Comment: c, Effectiveness: 3, EaseOfUse: 3, Satisfaction: 3}
	}
	return out
}

func TestLabeler_LabelAll(t *testing.T) {
	mock := &MockProvider{replies: []string{"Positive.", "negative", "NEUTRAL"}}
	labeler := NewLabelerWithProvider(mock, nil, zerolog.Nop())

	out, err := labeler.LabelAll(context.Background(), reviews("good", "bad", "meh"))
	if err != nil {
		t.Fatalf("LabelAll failed: %v", err)
	}

	want := []string{"positive", "negative", "neutral"}
	if len(out) != len(want) {
		t.Fatalf("Expected %d labeled reviews, got %d", len(want), len(out))
	}
	for i, w := range want {
		if out[i].Label != w {
			t.Errorf("review %d: expected %q, got %q", i, w, out[i].Label)
		}
	}
	if out[1].Comment != "bad" || out[1].Satisfaction != 3 {
		t.Errorf("Expected review fields carried over, got %+v", out[1])
	}
}

func TestLabeler_UnmatchedReply(t *testing.T) {
	mock := &MockProvider{replies: []string{"positive", "I cannot say", "neutral"}}
	labeler := NewLabelerWithProvider(mock, nil, zerolog.Nop())

	out, err := labeler.LabelAll(context.Background(), reviews("a", "b", "c"))
	if err == nil {
		t.Fatal("Expected error for unmatched reply")
	}
	if !strings.Contains(err.Error(), "review 1") {
		t.Errorf("Expected error to name review 1, got %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("Expected every review in output, got %d", len(out))
	}
	if out[1].Label != "" {
		t.Errorf("Expected empty label for unmatched reply, got %q", out[1].Label)
	}
	if out[2].Label != "neutral" {
		t.Errorf("Expected labeling to continue after a bad reply, got %q", out[2].Label)
	}
}

func TestLabeler_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mock := &MockProvider{replies: []string{"positive"}, cancel: cancel, stopAt: 3}
	labeler := NewLabelerWithProvider(mock, nil, zerolog.Nop())

	out, err := labeler.LabelAll(ctx, reviews("a", "b", "c", "d"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if len(out) != 2 {
		t.Errorf("Expected 2 reviews labeled before cancellation, got %d", len(out))
	}
	if mock.calls != 3 {
		t.Errorf("Expected no calls after cancellation, got %d", mock.calls)
	}
}

func TestLabeler_ProviderError(t *testing.T) {
	mock := &MockProvider{err: errors.New("quota exceeded")}
	labeler := NewLabelerWithProvider(mock, []string{"yes", "no"}, zerolog.Nop())

	if got := labeler.Labels(); len(got) != 2 || got[0] != "yes" {
		t.Errorf("Expected custom labels, got %v", got)
	}
	if labeler.ProviderName() != "mock" {
		t.Errorf("Expected provider name mock, got %s", labeler.ProviderName())
	}

	_, err := labeler.Label(context.Background(), "text")
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("Expected provider error, got %v", err)
	}
}

func TestNewLabeler_NoProvider(t *testing.T) {
	_, err := NewLabeler(DefaultConfig(), zerolog.Nop())
	if !errors.Is(err, ErrNoProvider) {
		t.Errorf("Expected ErrNoProvider, got %v", err)
	}
}
