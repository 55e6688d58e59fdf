// Package recipe reads packaging recipes and extracts what the update check
// needs: the package name, the packaged version and the upstream source.
//
// # Formats
//
// Three manifest formats are registered by default:
//
//   - package.yml (ypkg): top-level name and version
//   - stone.yaml (stone): top-level name and version, or a nested source mapping
//   - recipe.toml: name, version and an inline [upstream] table
//
// YAML recipes keep their upstream in an adjacent monitoring.yaml or
// monitoring.yml:
//
//	releases:
//	  id: 1234               # release-monitoring.org project
//	  kind: tags             # optional explicit kind
//	  locator: github:owner/repo
//	  pattern: '^v(.*)$'
//	  scheme: semantic
//
// # Diagnostics
//
// Parsing is tolerant. Problems that make a recipe unusable (no name,
// invalid UTF-8, syntax errors, unreadable files) are returned as fatal
// [Diagnostic] values and no [Manifest] is produced. A broken upstream
// declaration is downgraded to an unknown source with a warning attached
// to the manifest.
package recipe
