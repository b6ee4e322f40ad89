package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/ppiankov/medscrape/internal/model"
)

// Renderer writes and reads the CSV and JSON files the commands exchange
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// WriteReviewsCSV writes reviews with a header row
func (r *Renderer) WriteReviewsCSV(w io.Writer, reviews []model.Review) error {
	if reviews == nil {
		reviews = []model.Review{}
	}
	if err := gocsv.Marshal(reviews, w); err != nil {
		return fmt.Errorf("write reviews CSV: %w", err)
	}
	return nil
}

// WriteLabeledCSV writes classified reviews with a trailing label column
func (r *Renderer) WriteLabeledCSV(w io.Writer, reviews []model.LabeledReview) error {
	if reviews == nil {
		reviews = []model.LabeledReview{}
	}
	if err := gocsv.Marshal(reviews, w); err != nil {
		return fmt.Errorf("write labeled CSV: %w", err)
	}
	return nil
}

// WriteListingJSON writes a listing with its reviews as indented JSON
func (r *Renderer) WriteListingJSON(w io.Writer, listing *model.Listing) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(listing); err != nil {
		return fmt.Errorf("write listing JSON: %w", err)
	}
	return nil
}

// WriteURLTable writes the {Drug, URL} table
func (r *Renderer) WriteURLTable(w io.Writer, rows []model.URLRow) error {
	if rows == nil {
		rows = []model.URLRow{}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write URL table: %w", err)
	}
	return nil
}

// ReadURLTable reads a {Drug, URL} table written by WriteURLTable
func (r *Renderer) ReadURLTable(rd io.Reader) ([]model.URLRow, error) {
	var rows []model.URLRow
	if err := gocsv.Unmarshal(rd, &rows); err != nil {
		return nil, fmt.Errorf("read URL table: %w", err)
	}
	return rows, nil
}

// ReadReviews reads a reviews CSV written by WriteReviewsCSV
func (r *Renderer) ReadReviews(rd io.Reader) ([]model.Review, error) {
	var reviews []model.Review
	if err := gocsv.Unmarshal(rd, &reviews); err != nil {
		return nil, fmt.Errorf("read reviews CSV: %w", err)
	}
	return reviews, nil
}

// SaveFile hands write a temp file next to path and renames it into place
// once write succeeds. A failed write leaves any existing file untouched.
func (r *Renderer) SaveFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("commit %s: %w", path, err)
	}
	return nil
}

// OpenFile opens path and hands the file to read
func (r *Renderer) OpenFile(path string, read func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return read(f)
}
