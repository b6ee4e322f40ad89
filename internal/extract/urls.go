package extract

import (
	"fmt"
	"net/url"
	"strings"
)

// ResolveHref turns an href found on a page into an absolute http(s) URL.
// Fragments, javascript: and mailto: links are rejected.
func ResolveHref(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", fmt.Errorf("href %q is not a page link", href)
	}
	if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return "", fmt.Errorf("href %q is not a page link", href)
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}

	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", fmt.Errorf("href %q resolves to unsupported scheme %q", href, resolved.Scheme)
	}
	return resolved.String(), nil
}
