// Package preflight provides readiness checks for the filesystem paths,
// external binaries and remote credentials reelharvest depends on.
//
// These checks run in two contexts:
//   - "reelharvest run" calls RunAll before touching the manifest tree and
//     refuses to start when a required check fails, so an unwritable
//     destination is fatal at process start rather than per entry.
//   - "reelharvest check" prints every result as a table.
//
// Media checks are gated by their config toggle; disabled features are skipped.
package preflight
