// Package pkg holds the libraries behind ent, a recipe update checker.
//
// A run flows through these packages:
//
//	recipe tree on disk
//	     ↓
//	[walker]    find package.yml, stone.yaml and recipe.toml manifests
//	     ↓
//	[recipe]    parse name, version and declared upstream
//	     ↓
//	[pipeline]  schedule upstream queries, memoize and cache them
//	     ↓
//	[source]    query tags, release feeds, redirects and directory listings
//	     ↓
//	[version]   pick the best candidate and compare with the packaged version
//	     ↓
//	[report]    deterministic per-recipe outcomes
//
// Supporting packages: [cache] (file, badger, redis backends), [config],
// [history] (run storage), [integrations] (upstream API clients), [httputil]
// (retry), [errors] (coded errors) and [observability] (hooks).
package pkg
