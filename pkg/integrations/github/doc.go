// Package github provides an HTTP client for the GitHub REST API.
//
// # Overview
//
// The client lists two kinds of upstream observations for a repository:
//
//   - [Client.FetchTags]: every tag name (paginated via the Link header)
//   - [Client.FetchReleases]: tag names of published, non-draft releases
//
// # Usage
//
//	client := github.NewClient(token)
//	tags, err := client.FetchTags(ctx, "pallets", "flask")
//
// # Authentication
//
// A GitHub personal access token is optional but recommended to avoid rate
// limits. Without a token, the client is limited to 60 requests/hour.
// With a token, the limit is 5000 requests/hour. An exhausted quota surfaces
// as a RATE_LIMITED error.
//
// # URL Extraction
//
// [ExtractURL] parses repository URLs in the forms found in recipes
// (with/without .git, trailing slashes, git@ remotes).
package github
