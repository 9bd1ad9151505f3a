// Package main hosts the shortreel CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the whole lifecycle of a narrated
// short: enqueueing scripts, generating a single video end to end, draining
// the queue, serving the status API, and configuration scaffolding. It
// centralizes configuration resolution and structured logging setup so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
