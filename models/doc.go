// Package models provides shared data structures for the Converge route server.
//
// This package contains the registry entities that route generation walks and
// the records it produces. They are shared by the server, the registry loaders,
// the CLI and the SDK without creating circular dependencies.
//
// The models in this package represent:
//   - Modules: Top-level content units exposed at a base URL
//   - Versions: Optional pinned release variants of a module
//   - Clusters: Scoped sub-routing variants (region, environment) of a module or version
//   - Links: Reference placeholders inside child collections, never routable
//   - Bindings: The module/version/cluster context a route resolves before its handler runs
//   - RouteDefinitions: Generated route records as listed by the admin API
//
// Registry entities are read-only once loaded. Route generation never creates
// or mutates them.
package models
