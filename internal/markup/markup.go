// Package markup is the query layer the extractors use to read fetched pages.
// Queries name a tag plus attribute or text filters and return matching
// elements in document order.
package markup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Element is a node of a parsed page that can be queried further
type Element interface {
	// FindAll returns every descendant with the given tag that passes all filters
	FindAll(tag string, filters ...Filter) []Element

	// First returns the first descendant FindAll would return
	First(tag string, filters ...Filter) (Element, bool)

	// Text returns the concatenated text of the element and its descendants
	Text() string

	// Attr returns the value of an attribute
	Attr(key string) (string, bool)
}

// Match selects how a Filter compares its value
type Match int

const (
	MatchExact    Match = iota // Attribute equals value
	MatchWord                  // Attribute contains value as a whitespace-separated token (class semantics)
	MatchPrefix                // Attribute starts with value
	MatchContains              // Attribute contains value as a substring
	MatchPresent               // Attribute exists, value ignored
	MatchPattern               // Attribute matches Pattern
)

// Filter restricts a query. An empty Attr filters on the element text.
type Filter struct {
	Attr    string
	Value   string
	Match   Match
	Pattern *regexp.Regexp
}

// Class matches elements carrying the CSS class name
func Class(name string) Filter {
	return Filter{Attr: "class", Value: name, Match: MatchWord}
}

// ID matches elements with the exact id
func ID(id string) Filter {
	return Filter{Attr: "id", Value: id, Match: MatchExact}
}

// Attr matches elements whose attribute equals value
func Attr(key, value string) Filter {
	return Filter{Attr: key, Value: value, Match: MatchExact}
}

// HasAttr matches elements that carry the attribute
func HasAttr(key string) Filter {
	return Filter{Attr: key, Match: MatchPresent}
}

// AttrPattern matches elements whose attribute matches re anywhere
func AttrPattern(key string, re *regexp.Regexp) Filter {
	return Filter{Attr: key, Match: MatchPattern, Pattern: re}
}

// TextContains matches elements whose text contains s
func TextContains(s string) Filter {
	return Filter{Value: s, Match: MatchContains}
}

// Node is the goquery-backed Element
type Node struct {
	sel *goquery.Selection
}

// Parse parses an HTML document
func Parse(htmlContent string) (*Node, error) {
	root, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Node{sel: goquery.NewDocumentFromNode(root).Selection}, nil
}

// FindAll implements Element
func (n *Node) FindAll(tag string, filters ...Filter) []Element {
	if tag == "" {
		tag = "*"
	}

	var out []Element
	n.sel.Find(tag).Each(func(_ int, s *goquery.Selection) {
		for _, f := range filters {
			if !f.matches(s) {
				return
			}
		}
		out = append(out, &Node{sel: s})
	})
	return out
}

// First implements Element
func (n *Node) First(tag string, filters ...Filter) (Element, bool) {
	all := n.FindAll(tag, filters...)
	if len(all) == 0 {
		return nil, false
	}
	return all[0], true
}

// Text implements Element
func (n *Node) Text() string {
	return n.sel.Text()
}

// Attr implements Element
func (n *Node) Attr(key string) (string, bool) {
	return n.sel.Attr(key)
}

func (f Filter) matches(s *goquery.Selection) bool {
	var val string
	if f.Attr == "" {
		val = s.Text()
	} else {
		v, ok := s.Attr(f.Attr)
		if !ok {
			return false
		}
		val = v
	}

	switch f.Match {
	case MatchExact:
		return val == f.Value
	case MatchWord:
		for _, word := range strings.Fields(val) {
			if word == f.Value {
				return true
			}
		}
		return false
	case MatchPrefix:
		return strings.HasPrefix(val, f.Value)
	case MatchContains:
		return strings.Contains(val, f.Value)
	case MatchPresent:
		return true
	case MatchPattern:
		return f.Pattern != nil && f.Pattern.MatchString(val)
	default:
		return false
	}
}
