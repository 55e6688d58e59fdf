// Package releasemonitoring provides an HTTP client for release-monitoring.org.
//
// release-monitoring.org runs Anitya, which tracks upstream releases of
// thousands of projects by numeric project id. Recipes reference a project
// through the releases.id key of their monitoring.yaml.
//
// # Usage
//
//	v, err := releasemonitoring.NewClient().FetchVersions(ctx, 7968)
//	candidates := v.Preferred()
package releasemonitoring
