// Package goproxy provides an HTTP client for the Go module proxy.
//
// # Usage
//
//	versions, err := goproxy.NewClient().FetchVersions(ctx, "github.com/spf13/cobra")
//
// Versions keep their "v" prefix; pair them with the semantic scheme.
package goproxy
