package extract

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/medscrape/internal/markup"
	"github.com/ppiankov/medscrape/internal/model"
)

// ReviewExtractor extracts review records from a listing page
type ReviewExtractor struct{}

// NewReviewExtractor creates a new review extractor
func NewReviewExtractor() *ReviewExtractor {
	return &ReviewExtractor{}
}

// Extract returns the reviews on the page in document order. A malformed
// review block fails the whole page.
func (e *ReviewExtractor) Extract(doc markup.Element, pageURL string) ([]model.Review, error) {
	blocks := doc.FindAll("div", markup.Class(ReviewBlockClass))

	reviews := make([]model.Review, 0, len(blocks))
	for i, block := range blocks {
		review, err := extractReview(block)
		if err != nil {
			return nil, &ShapeError{
				URL:     pageURL,
				Element: fmt.Sprintf("review block %d", i),
				Message: err.Error(),
			}
		}
		reviews = append(reviews, review)
	}

	return reviews, nil
}

func extractReview(block markup.Element) (model.Review, error) {
	comment, ok := block.First("p", markup.AttrPattern("id", commentIDPattern))
	if !ok {
		return model.Review{}, fmt.Errorf("no comment paragraph")
	}

	ratings := block.FindAll("span", markup.Class(RatingClass))
	if len(ratings) < 3 {
		return model.Review{}, fmt.Errorf("expected 3 ratings, found %d", len(ratings))
	}

	var scores [3]int
	for i := range scores {
		score, err := parseRating(ratings[i].Text())
		if err != nil {
			return model.Review{}, err
		}
		scores[i] = score
	}

	return model.Review{
		Comment:       cleanComment(comment.Text()),
		Effectiveness: scores[0],
		EaseOfUse:     scores[1],
		Satisfaction:  scores[2],
	}, nil
}

// parseRating parses the text of one rating indicator
func parseRating(text string) (int, error) {
	raw := strings.TrimSpace(strings.ReplaceAll(text, RatingLabel, ""))
	score, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("rating %q is not an integer", raw)
	}
	if score < model.MinRating || score > model.MaxRating {
		return 0, fmt.Errorf("rating %d outside %d-%d", score, model.MinRating, model.MaxRating)
	}
	return score, nil
}

// cleanComment strips the boilerplate labels and joins the comment's lines with single spaces
func cleanComment(text string) string {
	for _, label := range commentLabels {
		text = strings.ReplaceAll(text, label, "")
	}
	return strings.Join(splitLines(text), " ")
}

// splitLines splits on every line boundary. \r\n counts as one boundary and a
// trailing boundary does not produce an empty final line.
func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isLineBreak(r) {
			i += size
			continue
		}
		lines = append(lines, s[start:i])
		i += size
		if r == '\r' && i < len(s) && s[i] == '\n' {
			i++
		}
		start = i
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
