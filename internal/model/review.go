package model

// Review is a single drug review harvested from a listing page
type Review struct {
	Comment       string `json:"comment" csv:"comment"`
	Effectiveness int    `json:"effectiveness" csv:"effectiveness"`
	EaseOfUse     int    `json:"ease_of_use" csv:"ease of use"`
	Satisfaction  int    `json:"satisfaction" csv:"satisfaction"`
}

// Rating bounds enforced by the harvester
const (
	MinRating = 1
	MaxRating = 5
)

// ReviewsPerPage is the number of reviews the site renders per listing page
const ReviewsPerPage = 5

// Listing is a review listing and the reviews collected from it
type Listing struct {
	Drug      string   `json:"drug,omitempty"`
	URL       string   `json:"url"`
	PageCount int      `json:"page_count"`
	Reviews   []Review `json:"reviews"`
}

// LabeledReview is a review with a classifier label attached
type LabeledReview struct {
	Review
	Label string `json:"label" csv:"label"`
}
