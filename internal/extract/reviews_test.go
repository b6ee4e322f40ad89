package extract

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/medscrape/internal/markup"
	"github.com/ppiankov/medscrape/internal/model"
)

func reviewBlock(comment string, ratings ...string) string {
	var b strings.Builder
	b.WriteString(`<div class="userPost">`)
	b.WriteString(`<p id="comTrunc1">truncated text</p>`)
	fmt.Fprintf(&b, `<p id="comFull1" style="display:none">%s</p>`, comment)
	for _, r := range ratings {
		fmt.Fprintf(&b, `<span class="current-rating">Current Rating: %s</span>`, r)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func parsePage(t *testing.T, blocks ...string) markup.Element {
	t.Helper()
	doc, err := markup.Parse("<html><body>" + strings.Join(blocks, "") + "</body></html>")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestReviewExtractor_Extract(t *testing.T) {
	extractor := NewReviewExtractor()

	doc := parsePage(t,
		reviewBlock("<strong>Comment:</strong>Helped a lot.\nNo side effects.<a>Hide Full Comment</a>", "5", "4", "3"),
		reviewBlock("Comment:Made me dizzy", "1", "2", "1"),
		reviewBlock("Comment:Okay", "3", "3", "3"),
	)

	reviews, err := extractor.Extract(doc, "https://example.com/reviews")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(reviews) != 3 {
		t.Fatalf("Expected 3 reviews, got %d", len(reviews))
	}

	want := model.Review{Comment: "Helped a lot. No side effects.", Effectiveness: 5, EaseOfUse: 4, Satisfaction: 3}
	if reviews[0] != want {
		t.Errorf("Expected %+v, got %+v", want, reviews[0])
	}
	if reviews[1].Comment != "Made me dizzy" {
		t.Errorf("Expected second review in document order, got %q", reviews[1].Comment)
	}

	for i, r := range reviews {
		for _, score := range []int{r.Effectiveness, r.EaseOfUse, r.Satisfaction} {
			if score < model.MinRating || score > model.MaxRating {
				t.Errorf("review %d: rating %d out of range", i, score)
			}
		}
	}
}

func TestReviewExtractor_NoBlocks(t *testing.T) {
	reviews, err := NewReviewExtractor().Extract(parsePage(t, "<p>nothing here</p>"), "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(reviews) != 0 {
		t.Errorf("Expected 0 reviews, got %d", len(reviews))
	}
}

func TestReviewExtractor_ExtraRatingsIgnored(t *testing.T) {
	reviews, err := NewReviewExtractor().Extract(parsePage(t, reviewBlock("fine", "2", "3", "4", "5")), "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if reviews[0].Satisfaction != 4 {
		t.Errorf("Expected ratings read positionally, got %+v", reviews[0])
	}
}

func TestReviewExtractor_MalformedBlockFailsPage(t *testing.T) {
	tests := []struct {
		name  string
		block string
	}{
		{"missing rating", reviewBlock("two ratings only", "4", "5")},
		{"non-integer rating", reviewBlock("bad", "4", "five", "3")},
		{"rating out of range", reviewBlock("bad", "4", "9", "3")},
		{"missing comment", `<div class="userPost"><span class="current-rating">1</span><span class="current-rating">1</span><span class="current-rating">1</span></div>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parsePage(t, reviewBlock("good", "5", "5", "5"), tt.block)

			reviews, err := NewReviewExtractor().Extract(doc, "https://example.com/p")
			if err == nil {
				t.Fatal("Expected error for malformed block, got nil")
			}
			if reviews != nil {
				t.Errorf("Expected no partial reviews, got %d", len(reviews))
			}

			var shapeErr *ShapeError
			if !errors.As(err, &shapeErr) {
				t.Fatalf("Expected ShapeError, got %T", err)
			}
			if shapeErr.Element != "review block 1" {
				t.Errorf("Expected failing block 1, got %q", shapeErr.Element)
			}
			if shapeErr.URL != "https://example.com/p" {
				t.Errorf("Expected page URL on error, got %q", shapeErr.URL)
			}
		})
	}
}

func TestCleanComment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Comment:great", "great"},
		{"line one\nline two", "line one line two"},
		{"a\r\nb\rc", "a b c"},
		{"a\n\nb", "a  b"},
		{"trailing\n", "trailing"},
		{"Hide Full Comment", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := cleanComment(tt.in); got != tt.want {
			t.Errorf("cleanComment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitLines(t *testing.T) {
	got := splitLines("a\u2028b\x0bc\n")
	want := []string{"a", "b", "c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("splitLines mismatch (-want +got):\n%s", diff)
	}
}
