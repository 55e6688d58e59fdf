// Package pypi provides an HTTP client for the PyPI JSON API.
//
// # Usage
//
//	versions, err := pypi.NewClient().FetchVersions(ctx, "Flask")
//
// Names are normalized per PEP 503 before the request. Fully yanked
// releases are excluded.
package pypi
