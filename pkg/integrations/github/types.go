package github

import "time"

// tagResponse is one entry of GET /repos/{owner}/{repo}/tags.
type tagResponse struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// releaseResponse is one entry of GET /repos/{owner}/{repo}/releases.
type releaseResponse struct {
	TagName     string     `json:"tag_name"`
	Name        string     `json:"name"`
	Draft       bool       `json:"draft"`
	Prerelease  bool       `json:"prerelease"`
	PublishedAt *time.Time `json:"published_at"`
}
