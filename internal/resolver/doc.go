// Package resolver turns a declarative publication description into one
// fully-resolved, self-consistent build plan.
//
// Resolution is a multi-source merge: defaults, the project file, per-entry
// overrides, CLI flags, package metadata, and inferred front matter all feed
// a single TaskConfig. The resolver classifies entries, normalizes output
// targets, deduplicates themes, and records source→target aliases so staging
// never overwrites a user manuscript.
//
// Key responsibilities:
//   - Compose the plan in one of two modes (project file, single input)
//     that both produce the identical TaskConfig shape
//   - Classify each declared entry (manuscript, contents, cover) with
//     per-kind defaulting rules
//   - Compute canonical output paths and resolve source=target collisions
//     via temporary staging aliases
//
// Resolution is synchronous and performs only local filesystem reads plus
// placeholder touches under the workspace directory. It either returns a
// complete plan or fails with a typed configuration error; a half-resolved
// plan is never returned.
package resolver
