package extract

import "regexp"

// Markup landmarks of the review site templates
const (
	ReviewBlockClass  = "userPost"
	RatingClass       = "current-rating"
	RatingLabel       = "Current Rating:"
	HeadingID         = "heading"
	TotalReviewsClass = "totalreviews"

	SearchResultClass = "search-results-doc-title"
	DrugResultsMarker = "Drug Results for"
	ReviewLinkClass   = "drug-review"
	VariantAttr       = "data-metrics-link"
	VariantSlot       = "result_1"

	CommonNameClass   = "common-result-name"
	CommonReviewClass = "common-result-review"
)

// NoReviewsMarker appears in the listing heading when a drug has no reviews yet.
// Compared case-insensitively.
const NoReviewsMarker = "be the first to share your experience"

// commentIDPattern matches the id of the full-comment paragraph in a review block
var commentIDPattern = regexp.MustCompile(`^comFull*`)

// commentLabels is boilerplate rendered inside the comment paragraph
var commentLabels = []string{"Comment:", "Hide Full Comment"}
