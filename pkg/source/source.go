// Package source dispatches upstream version queries by source kind.
//
// A recipe's upstream is described by a [Descriptor]: a [Kind] selecting the
// strategy, a locator naming the upstream resource, and optional extraction
// and ordering hints. Strategies implement [Checker] and are registered in a
// [Registry]; adding a kind never touches existing strategies.
//
// Checkers return raw observations (tag names, file names, URL basenames).
// [Extract] turns observations into version candidates.
package source

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/version"
)

// Kind selects the strategy used to query an upstream.
type Kind string

const (
	// Unknown means the recipe has no usable upstream. It is a valid state:
	// such recipes are skipped without any network call.
	Unknown Kind = ""

	// Tags lists repository tags (GitHub, GitLab).
	Tags Kind = "tags"

	// Releases reads a release feed (GitHub releases, release-monitoring.org,
	// language registries).
	Releases Kind = "releases"

	// Redirect follows a "latest" URL and observes the final file name.
	Redirect Kind = "redirect"

	// Directory scrapes an HTML index page for file names.
	Directory Kind = "directory"
)

// Kinds lists the built-in kinds.
var Kinds = []Kind{Tags, Releases, Redirect, Directory}

// ParseKind validates a declared kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Tags, Releases, Redirect, Directory:
		return k, nil
	case "tag":
		return Tags, nil
	case "release", "feed":
		return Releases, nil
	}
	return Unknown, fmt.Errorf("unknown source kind %q", s)
}

// Descriptor records how to discover a recipe's latest upstream version.
type Descriptor struct {
	Kind       Kind           `json:"kind,omitempty"`
	Locator    string         `json:"locator,omitempty"`
	Pattern    string         `json:"pattern,omitempty"`
	Scheme     version.Scheme `json:"scheme,omitempty"`
	Prerelease bool           `json:"prerelease,omitempty"`
}

// IsUnknown reports whether d names no upstream.
func (d Descriptor) IsUnknown() bool {
	return d.Kind == Unknown || d.Locator == ""
}

// Key identifies the upstream resource d points at. Two recipes sharing a
// key share one network fetch per run, so spellings of the same forge
// repository ("github:o/r", "https://github.com/o/r") map to one key.
func (d Descriptor) Key() string {
	return string(d.Kind) + ":" + d.CanonicalLocator()
}

// CanonicalLocator returns the locator in its short "scheme:body" form.
// Plain URLs and locators that do not parse are returned trimmed.
func (d Descriptor) CanonicalLocator() string {
	scheme, body, err := SplitLocator(d.Locator)
	if err != nil || scheme == "url" {
		return strings.TrimSpace(d.Locator)
	}
	return scheme + ":" + body
}

// EffectiveScheme returns the declared scheme or the default.
func (d Descriptor) EffectiveScheme() version.Scheme {
	if d.Scheme == "" {
		return version.DefaultScheme
	}
	return d.Scheme
}

// CompilePattern compiles d.Pattern. An empty pattern yields nil.
func (d Descriptor) CompilePattern() (*regexp.Regexp, error) {
	if d.Pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(d.Pattern)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedSource, err, "invalid pattern %q", d.Pattern)
	}
	return re, nil
}

func (d Descriptor) String() string {
	if d.IsUnknown() {
		return "unknown"
	}
	return string(d.Kind) + ":" + d.Locator
}

// ErrNoUpstream is returned by [Registry.Check] for descriptors of kind
// Unknown. No checker is invoked.
var ErrNoUpstream error = errors.New(errors.ErrCodeNoUpstream, "recipe declares no upstream source")

// Checker queries one kind of upstream.
type Checker interface {
	// Check returns the raw observations seen at locator. Implementations
	// must honour ctx cancellation and return coded errors.
	Check(ctx context.Context, locator string) ([]string, error)
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context, locator string) ([]string, error)

// Check calls f.
func (f CheckerFunc) Check(ctx context.Context, locator string) ([]string, error) {
	return f(ctx, locator)
}
