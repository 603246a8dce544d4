package filter

import (
	"net/url"
	"strings"
)

// LinkFilter drops search hits whose host is on the exclude list (exact host or
// any subdomain of it) and links already seen earlier in the same result list.
// Matching is case-insensitive. An empty exclude list passes every valid URL.
type LinkFilter struct {
	excludeDomains []string
}

// NewLinkFilter returns a filter excluding the given domains.
func NewLinkFilter(excludeDomains []string) *LinkFilter {
	domains := make([]string, 0, len(excludeDomains))
	for _, d := range excludeDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, "www.")
		if d != "" {
			domains = append(domains, d)
		}
	}
	return &LinkFilter{excludeDomains: domains}
}

// Match returns true if link is an absolute http(s) URL on a host that is not excluded.
func (f *LinkFilter) Match(link string) bool {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range f.excludeDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return false
		}
	}
	return true
}

// Apply keeps matching links in their original order, dropping repeats.
func (f *LinkFilter) Apply(links []string) []string {
	seen := make(map[string]bool, len(links))
	out := make([]string, 0, len(links))
	for _, l := range links {
		if seen[l] || !f.Match(l) {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
