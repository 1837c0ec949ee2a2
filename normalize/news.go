package normalize

import (
	"errors"
	"net/url"
	"strings"

	"github.com/jonwraymond/toolverse/domain"
	"github.com/jonwraymond/toolverse/generate"
)

// ErrNoArticles indicates none of the structured stories matched a
// consulted URL.
var ErrNoArticles = errors.New("normalize: no article matched a grounding url")

// URLs returns the distinct http(s) reference URIs in first-seen order.
// Other schemes and host-less URIs are dropped.
func URLs(refs []generate.Reference) []string {
	out := make([]string, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		uri := strings.TrimSpace(ref.URI)
		if !isWebURL(uri) || seen[uri] {
			continue
		}
		seen[uri] = true
		out = append(out, uri)
	}
	return out
}

func isWebURL(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// AssociateNews keeps the articles whose URL appears in urls, rewritten to
// the list's exact spelling. Matching is exact first, then ignoring a
// trailing slash. Articles with no match or a URL already used are dropped,
// and at most min(limit, len(distinct urls)) articles are returned.
// An empty result is a malformed response.
func AssociateNews(op string, articles []domain.NewsArticle, urls []string, limit int) ([]domain.NewsArticle, error) {
	exact := make(map[string]string, len(urls))
	loose := make(map[string]string, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := exact[u]; !ok {
			exact[u] = u
		}
		if k := trimSlash(u); loose[k] == "" {
			loose[k] = u
		}
	}

	n := len(exact)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]domain.NewsArticle, 0, n)
	used := make(map[string]bool, n)
	for _, a := range articles {
		if len(out) == n {
			break
		}
		candidate := strings.TrimSpace(a.URL)
		match, ok := exact[candidate]
		if !ok {
			match, ok = loose[trimSlash(candidate)]
		}
		if !ok || used[match] {
			continue
		}
		used[match] = true
		a.URL = match
		out = append(out, a)
	}

	if len(out) == 0 {
		return nil, malformed(op, ErrNoArticles)
	}
	return out, nil
}

func trimSlash(u string) string {
	return strings.TrimRight(u, "/")
}
