// Package preflight provides readiness checks for the external tools and
// filesystem paths that sfmbundle depends on.
//
// These checks run in two contexts:
//   - The pipeline runner calls CheckTools before a full run so a missing
//     executable fails fast instead of after minutes of extraction.
//   - The CLI "sfmbundle doctor" command uses RunAll to display every check.
package preflight
