// Package api serves the local read-only HTTP status API.
//
// It translates internal queue models into transport-friendly DTOs and
// exposes them over a small chi-routed server bound to loopback: queue
// listing and lookup, workflow status with stage health, and the stored
// render plan for an item. The API never mutates queue state; all writes
// go through the CLI.
//
// DTOs use camelCase JSON tags. Internal enums (queue.Status) are exposed
// as lowercase strings. Timestamps use RFC3339 with milliseconds.
package api
