// Package preflight provides readiness checks for the external services
// and filesystem paths the video pipeline depends on.
//
// These checks run in two contexts:
//   - The "shortreel preflight" command runs everything before a batch.
//   - The CLI "shortreel status" command uses individual check functions
//     (CheckSTT, CheckDirectoryAccess) to display service health.
//
// Checks never mutate state beyond creating the configured directories.
package preflight
