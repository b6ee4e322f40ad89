package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ppiankov/medscrape/internal/model"
)

func TestPipeline_ScrapeAndRender(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("pageIndex") == "" {
			_, _ = fmt.Fprint(w, page(`<span class="totalreviews">2 reviews</span>`))
			return
		}
		_, _ = fmt.Fprint(w, page(block("good", 5, 4, 5), block("meh", 3, 3, 2)))
	}))
	defer server.Close()

	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.Dir = ""

	p := NewPipeline(cfg, zerolog.Nop())
	listing, err := p.ScrapeListing(context.Background(), "Citalopram", server.URL+"/drugs/drugreview-1", PageMode{All: true})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if listing.PageCount != 1 || len(listing.Reviews) != 2 {
		t.Fatalf("Unexpected listing: %+v", listing)
	}

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "reviews.csv")
	jsonPath := filepath.Join(dir, "reviews.json")
	if err := p.RenderListing(listing, csvPath, jsonPath); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "good,5,4,5") {
		t.Errorf("Unexpected CSV: %s", data)
	}
	if _, err := os.Stat(jsonPath); err != nil {
		t.Errorf("Expected JSON output: %v", err)
	}

	// Cached pages are not fetched again
	before := hits.Load()
	if _, err := p.ScrapeListing(context.Background(), "Citalopram", server.URL+"/drugs/drugreview-1", PageMode{All: true}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if hits.Load() != before {
		t.Errorf("Expected cached rerun, got %d extra hits", hits.Load()-before)
	}
}

func TestPipeline_ScrapeErrorNamesListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := NewPipeline(model.DefaultConfig(), zerolog.Nop())
	_, err := p.ScrapeListing(context.Background(), "", server.URL+"/missing", PageMode{Pages: 1})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "/missing") || !IsFetchError(err) {
		t.Errorf("Expected wrapped FetchError naming the listing, got %v", err)
	}
}

func TestPipeline_OversizedPageFailsListing(t *testing.T) {
	body := page(block("first", 5, 5, 5), block("second", 1, 1, 1))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, body)
	}))
	defer server.Close()

	cfg := model.DefaultConfig()
	cfg.HTTP.MaxBodyBytes = int64(strings.Index(body, "second"))

	listing, err := NewPipeline(cfg, zerolog.Nop()).ScrapeListing(context.Background(), "", server.URL+"/drugs/drugreview-1", PageMode{Pages: 1})
	if err == nil {
		t.Fatalf("Expected oversized page to fail the listing, got %d reviews", len(listing.Reviews))
	}
	if !IsFetchError(err) {
		t.Errorf("Expected FetchError, got %v", err)
	}
}
