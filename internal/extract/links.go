package extract

import (
	"fmt"

	"github.com/ppiankov/medscrape/internal/markup"
	"github.com/ppiankov/medscrape/internal/model"
)

// DrugResultsHref returns the href of the first search result labelled
// "Drug Results for". found is false when no such result exists.
func DrugResultsHref(doc markup.Element, pageURL string) (href string, found bool, err error) {
	entry, ok := doc.First("p", markup.Class(SearchResultClass), markup.TextContains(DrugResultsMarker))
	if !ok {
		return "", false, nil
	}
	href, err = anchorHref(entry, pageURL, "p."+SearchResultClass+" a")
	if err != nil {
		return "", false, err
	}
	return href, true, nil
}

// ReviewLinkHref returns the href of the page's review link. found is false
// when the page has none.
func ReviewLinkHref(doc markup.Element, pageURL string) (href string, found bool, err error) {
	link, ok := doc.First("a", markup.Class(ReviewLinkClass))
	if !ok {
		return "", false, nil
	}
	href, ok = link.Attr("href")
	if !ok {
		return "", false, &ShapeError{URL: pageURL, Element: "a." + ReviewLinkClass, Message: "link has no href"}
	}
	return href, true, nil
}

// HasReviewLink reports whether the page links straight to its reviews
func HasReviewLink(doc markup.Element) bool {
	_, ok := doc.First("a", markup.Class(ReviewLinkClass))
	return ok
}

// VariantHrefs returns the hrefs of the ranked product variants listed on a
// drug results page, in document order
func VariantHrefs(doc markup.Element, pageURL string) ([]string, error) {
	links := doc.FindAll("a", markup.Attr(VariantAttr, VariantSlot))

	hrefs := make([]string, 0, len(links))
	for i, link := range links {
		href, ok := link.Attr("href")
		if !ok {
			return nil, &ShapeError{
				URL:     pageURL,
				Element: fmt.Sprintf("variant link %d", i),
				Message: "link has no href",
			}
		}
		hrefs = append(hrefs, href)
	}
	return hrefs, nil
}

// CommonDrugs pairs the names and review links of the common-drugs index by
// position. The first pair is a header entry and is skipped. URLs are
// returned as written in the page.
func CommonDrugs(doc markup.Element, pageURL string) ([]model.URLRow, error) {
	names := doc.FindAll("a", markup.Class(CommonNameClass))
	links := doc.FindAll("a", markup.Class(CommonReviewClass))

	var rows []model.URLRow
	for i := 1; i < len(names); i++ {
		if i >= len(links) {
			return nil, &ShapeError{
				URL:     pageURL,
				Element: "a." + CommonReviewClass,
				Message: fmt.Sprintf("%d names but %d review links", len(names), len(links)),
			}
		}
		href, ok := links[i].Attr("href")
		if !ok {
			return nil, &ShapeError{URL: pageURL, Element: fmt.Sprintf("review link %d", i), Message: "link has no href"}
		}
		rows = append(rows, model.URLRow{Drug: names[i].Text(), URL: href})
	}
	return rows, nil
}

func anchorHref(el markup.Element, pageURL, element string) (string, error) {
	anchor, ok := el.First("a")
	if !ok {
		return "", &ShapeError{URL: pageURL, Element: element, Message: "no anchor"}
	}
	href, ok := anchor.Attr("href")
	if !ok {
		return "", &ShapeError{URL: pageURL, Element: element, Message: "anchor has no href"}
	}
	return href, nil
}
