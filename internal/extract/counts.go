package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/medscrape/internal/markup"
	"github.com/ppiankov/medscrape/internal/model"
)

// NoReviews reports whether the listing heading says the drug has no reviews
func NoReviews(doc markup.Element) bool {
	heading, ok := doc.First("div", markup.ID(HeadingID))
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(heading.Text()), NoReviewsMarker)
}

// ReviewTotal reads the total review count from the listing summary. The
// total is the first token made only of digits.
func ReviewTotal(doc markup.Element, pageURL string) (int, error) {
	node, ok := doc.First("span", markup.Class(TotalReviewsClass))
	if !ok {
		return 0, &ShapeError{URL: pageURL, Element: "span." + TotalReviewsClass, Message: "review total not found"}
	}

	for _, token := range strings.Fields(node.Text()) {
		if !isDigits(token) {
			continue
		}
		total, err := strconv.Atoi(token)
		if err != nil {
			return 0, &ShapeError{URL: pageURL, Element: "span." + TotalReviewsClass, Message: "review total overflows", Cause: err}
		}
		return total, nil
	}

	return 0, &ShapeError{
		URL:     pageURL,
		Element: "span." + TotalReviewsClass,
		Message: fmt.Sprintf("no integer in %q", strings.TrimSpace(node.Text())),
	}
}

// PageCount returns the number of listing pages needed to show total reviews
func PageCount(total int) int {
	pages := total / model.ReviewsPerPage
	if total%model.ReviewsPerPage != 0 {
		pages++
	}
	return pages
}

// VariantReviewCount reads the review count from a variant page's review
// link, e.g. "User Reviews (1,234)"
func VariantReviewCount(doc markup.Element, pageURL string) (int, error) {
	link, ok := doc.First("a", markup.Class(ReviewLinkClass))
	if !ok {
		return 0, &ShapeError{URL: pageURL, Element: "a." + ReviewLinkClass, Message: "review link not found"}
	}

	fields := strings.Fields(link.Text())
	if len(fields) < 3 {
		return 0, &ShapeError{
			URL:     pageURL,
			Element: "a." + ReviewLinkClass,
			Message: fmt.Sprintf("no review count in %q", strings.TrimSpace(link.Text())),
		}
	}

	raw := strings.NewReplacer("(", "", ")", "", ",", "").Replace(fields[2])
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ShapeError{URL: pageURL, Element: "a." + ReviewLinkClass, Message: fmt.Sprintf("review count %q is not an integer", raw), Cause: err}
	}
	return count, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
