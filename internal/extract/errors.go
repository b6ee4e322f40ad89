// Package extract reads review records, review totals and navigation links
// out of parsed review-site pages.
package extract

import "fmt"

// ShapeError reports a page whose markup lacks structure the extractors rely on.
// It is never downgraded: the page (or resolution stage) that produced it fails.
type ShapeError struct {
	URL     string
	Element string
	Message string
	Cause   error
}

func (e *ShapeError) Error() string {
	msg := fmt.Sprintf("unexpected page shape: %s: %s", e.Element, e.Message)
	if e.URL != "" {
		msg = fmt.Sprintf("unexpected page shape at %s: %s: %s", e.URL, e.Element, e.Message)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ShapeError) Unwrap() error {
	return e.Cause
}
