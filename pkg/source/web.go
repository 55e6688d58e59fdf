package source

import (
	"context"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"

	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/integrations"
)

// RedirectChecker resolves a "latest" URL by following redirects and
// observes the basename of the final URL.
type RedirectChecker struct {
	Client *integrations.Client
}

// Check implements Checker.
func (c *RedirectChecker) Check(ctx context.Context, locator string) ([]string, error) {
	if err := errors.ValidateURL(locator); err != nil {
		return nil, err
	}
	final, err := c.Client.Resolve(ctx, locator)
	if err != nil {
		return nil, err
	}
	name := urlBasename(final)
	if name == "" {
		return nil, nil
	}
	return []string{name}, nil
}

// DirectoryChecker fetches an HTML index page and observes the basename of
// every link on it.
type DirectoryChecker struct {
	Client *integrations.Client
}

// Check implements Checker.
func (c *DirectoryChecker) Check(ctx context.Context, locator string) ([]string, error) {
	if err := errors.ValidateURL(locator); err != nil {
		return nil, err
	}
	body, err := c.Client.GetText(ctx, locator)
	if err != nil {
		return nil, err
	}
	return ListingNames(body), nil
}

// ListingNames returns the basenames of all href targets in an HTML
// document, in document order. Parent links, query-only links and
// fragments are ignored.
func ListingNames(document string) []string {
	var names []string
	z := html.NewTokenizer(strings.NewReader(document))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return names
		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := z.TagName()
			if string(tn) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					if name := urlBasename(string(val)); name != "" {
						names = append(names, name)
					}
				}
				if !more {
					break
				}
			}
		}
	}
}

// urlBasename returns the last non-empty path segment of a URL, unescaped.
func urlBasename(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	p := strings.TrimSuffix(u.Path, "/")
	if p == "" || p == "." || p == ".." || strings.HasSuffix(p, "/..") {
		return ""
	}
	base := path.Base(p)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}
