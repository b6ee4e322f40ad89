package extract

import (
	"errors"
	"testing"
)

func TestDrugResultsHref(t *testing.T) {
	doc := parsePage(t, `
		<p class="search-results-doc-title"><a href="/news/1">Citalopram in the news</a></p>
		<p class="search-results-doc-title"><a href="/drugs/search?q=citalopram">Drug Results for citalopram</a></p>
		<p class="search-results-doc-title"><a href="/drugs/search?q=second">Drug Results for citalopram hbr</a></p>`)

	href, found, err := DrugResultsHref(doc, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !found {
		t.Fatal("Expected drug results entry to be found")
	}
	if href != "/drugs/search?q=citalopram" {
		t.Errorf("Expected first matching entry, got %s", href)
	}
}

func TestDrugResultsHref_NotFound(t *testing.T) {
	doc := parsePage(t, `<p class="search-results-doc-title"><a href="/news/1">Nothing relevant</a></p>`)

	_, found, err := DrugResultsHref(doc, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if found {
		t.Error("Expected no drug results entry")
	}
}

func TestDrugResultsHref_NoAnchor(t *testing.T) {
	doc := parsePage(t, `<p class="search-results-doc-title">Drug Results for citalopram</p>`)

	_, _, err := DrugResultsHref(doc, "")
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("Expected ShapeError, got %v", err)
	}
}

func TestReviewLinkHref(t *testing.T) {
	doc := parsePage(t, `<a class="drug-review" href="/drugs/drugreview-1">Reviews (10)</a>`)

	if !HasReviewLink(doc) {
		t.Error("Expected review link")
	}
	href, found, err := ReviewLinkHref(doc, "")
	if err != nil || !found {
		t.Fatalf("Expected review link, got found=%v err=%v", found, err)
	}
	if href != "/drugs/drugreview-1" {
		t.Errorf("Unexpected href: %s", href)
	}

	_, found, err = ReviewLinkHref(parsePage(t, `<a class="other" href="/x">x</a>`), "")
	if err != nil || found {
		t.Errorf("Expected no link and no error, got found=%v err=%v", found, err)
	}
}

func TestVariantHrefs(t *testing.T) {
	doc := parsePage(t, `
		<a data-metrics-link="result_1" href="/drug/oral">Oral</a>
		<a data-metrics-link="result_2" href="/drug/ignored">Ignored</a>
		<a data-metrics-link="result_1" href="/drug/iv">IV</a>`)

	hrefs, err := VariantHrefs(doc, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(hrefs) != 2 || hrefs[0] != "/drug/oral" || hrefs[1] != "/drug/iv" {
		t.Errorf("Unexpected variants: %v", hrefs)
	}
}

func TestCommonDrugs(t *testing.T) {
	doc := parsePage(t, `
		<a class="common-result-name">Header</a><a class="common-result-review" href="/h">h</a>
		<a class="common-result-name">Abilify</a><a class="common-result-review" href="/drugs/abilify/reviews">r</a>
		<a class="common-result-name">Zoloft</a><a class="common-result-review" href="/drugs/zoloft/reviews">r</a>`)

	rows, err := CommonDrugs(doc, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows (first skipped), got %d", len(rows))
	}
	if rows[0].Drug != "Abilify" || rows[0].URL != "/drugs/abilify/reviews" {
		t.Errorf("Unexpected first row: %+v", rows[0])
	}
}

func TestCommonDrugs_MissingReviewLink(t *testing.T) {
	doc := parsePage(t, `
		<a class="common-result-name">Header</a><a class="common-result-review" href="/h">h</a>
		<a class="common-result-name">Abilify</a>`)

	_, err := CommonDrugs(doc, "")
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("Expected ShapeError, got %v", err)
	}
}
