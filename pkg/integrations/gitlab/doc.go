// Package gitlab provides an HTTP client for the GitLab API.
//
// # Overview
//
// The client lists repository tags of a project on gitlab.com or a
// self-hosted instance (GNOME, freedesktop.org, KDE invent ...).
//
// # Usage
//
//	host, project, err := gitlab.ParseProject("gitlab.gnome.org/GNOME/gtk")
//	tags, err := gitlab.NewClient(token).FetchTags(ctx, host, project)
//
// # Authentication
//
// A GitLab personal access token is optional. Without a token, only
// public projects can be accessed.
package gitlab
