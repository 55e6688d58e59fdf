package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a project or resource doesn't exist upstream.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with a standard timeout for upstream
// requests. Redirects are followed, which the redirect strategy relies on.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// NormalizePkgName converts a package name to its canonical form.
// Applies lowercase and replaces underscores with hyphens, following PEP 503
// normalization rules used by PyPI and other registries.
func NormalizePkgName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

var repoURLReplacer = strings.NewReplacer(
	"git@github.com:", "https://github.com/",
	"git://github.com/", "https://github.com/",
	"git@gitlab.com:", "https://gitlab.com/",
)

// NormalizeRepoURL converts various repository URL formats to canonical HTTPS form.
// Handles git@, git://, and git+ prefixes, and removes .git suffixes and
// trailing slashes. Returns empty string if raw is empty.
func NormalizeRepoURL(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "git+")
	s = repoURLReplacer.Replace(s)
	s = strings.TrimSuffix(s, "/")
	return strings.TrimSuffix(s, ".git")
}

var linkNextRE = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// NextPageURL extracts the rel="next" target from an RFC 8288 Link header,
// as used by the GitHub and GitLab APIs. Returns "" when there is none.
func NextPageURL(h http.Header) string {
	for _, link := range h.Values("Link") {
		if m := linkNextRE.FindStringSubmatch(link); m != nil {
			return m[1]
		}
	}
	return ""
}

// PathEscape percent-encodes a single path segment, including slashes.
func PathEscape(s string) string { return url.PathEscape(s) }

// UserAgent identifies ent to registries that require one (crates.io).
const UserAgent = "ent (https://github.com/serpent-os/ent)"
