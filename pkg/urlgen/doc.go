// Package urlgen computes canonical route paths for modules, versions and clusters.
//
// Every registry entity selects a Generator. The route walker only calls
// Generate and never inspects which variant is in play:
//
//	uri, err := version.URLGenerator().Generate("/docs", "v1", "")
//	// uri == "/docs/v1"
//
// # Variants
//
//   - Segments: appends the version and cluster segments to the base path
//   - Replace: the cluster segment replaces the version segment
//   - Prefix: ignores the base path and routes under a different prefix
//   - Template: substitutes {base}, {version} and {cluster} placeholders
//   - Func: adapts a plain function
//
// Generated paths always start with a slash, never end with one and never
// contain empty segments.
package urlgen
