package model

// Outcome records how far a drug name got through URL resolution
type Outcome string

const (
	OutcomeResolved     Outcome = "resolved"       // Review listing URL found
	OutcomeUnfound      Outcome = "unfound"        // No "Drug Results for" entry in site search
	OutcomeNoInfoPage   Outcome = "no_info_page"   // Results page had no review link and no usable variant
	OutcomeNoReviewLink Outcome = "no_review_link" // Info page had no review link
	OutcomeFailed       Outcome = "failed"         // Fetch or markup error inside the chain
)

// IsGap reports whether the outcome is one the resolver drops silently
// unless strict mode is on
func (o Outcome) IsGap() bool {
	return o == OutcomeNoInfoPage || o == OutcomeNoReviewLink
}

// Resolution is the result of resolving one drug name
type Resolution struct {
	Name    string  `json:"name"`
	URL     string  `json:"url,omitempty"`
	Outcome Outcome `json:"outcome"`
	Err     string  `json:"error,omitempty"`
}

// Variant is a candidate product page considered during disambiguation
type Variant struct {
	URL         string
	ReviewCount int
}

// URLRow is one row of the drug to review-listing URL table
type URLRow struct {
	Drug string `csv:"Drug"`
	URL  string `csv:"URL"`
}

// ResolutionReport collects the resolutions of a batch of names in input order
type ResolutionReport struct {
	Resolutions []Resolution `json:"resolutions"`
}

// URLs returns the name to URL mapping for every resolved name
func (r *ResolutionReport) URLs() map[string]string {
	urls := make(map[string]string)
	for _, res := range r.Resolutions {
		if res.Outcome == OutcomeResolved {
			urls[res.Name] = res.URL
		}
	}
	return urls
}

// Rows returns the resolved names as URL table rows, in input order
func (r *ResolutionReport) Rows() []URLRow {
	var rows []URLRow
	for _, res := range r.Resolutions {
		if res.Outcome == OutcomeResolved {
			rows = append(rows, URLRow{Drug: res.Name, URL: res.URL})
		}
	}
	return rows
}

// Unfound returns the names that failed the search stage
func (r *ResolutionReport) Unfound() []string {
	return r.names(func(o Outcome) bool { return o == OutcomeUnfound })
}

// Gaps returns the resolutions that passed search but produced no URL
func (r *ResolutionReport) Gaps() []Resolution {
	return r.filter(Outcome.IsGap)
}

// Failed returns the resolutions aborted by a fetch or markup error
func (r *ResolutionReport) Failed() []Resolution {
	return r.filter(func(o Outcome) bool { return o == OutcomeFailed })
}

func (r *ResolutionReport) names(match func(Outcome) bool) []string {
	var names []string
	for _, res := range r.filter(match) {
		names = append(names, res.Name)
	}
	return names
}

func (r *ResolutionReport) filter(match func(Outcome) bool) []Resolution {
	var out []Resolution
	for _, res := range r.Resolutions {
		if match(res.Outcome) {
			out = append(out, res)
		}
	}
	return out
}
