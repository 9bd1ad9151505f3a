// Package workflow advances queue items through the video generation
// stages.
//
// The Manager polls the queue, reclaims stale work via heartbeats, and feeds
// items into the registered stage handlers (transcriber, aligner, planner,
// renderer) while capturing progress and failure metadata. It also aggregates
// queue stats and calls stage health checks for diagnostics.
//
// The workflow runs two independent lanes: speech (transcription, alignment)
// and assembly (planning, rendering). Each lane polls for items matching its
// statuses and processes them independently, so item B can be transcribed
// while item A renders. The assembly lane can run multiple workers because
// rendering dominates wall-clock time.
//
// Deterministic failures (empty transcription, degenerate alignment, bad
// inputs) park the item in review; external failures (speech service,
// renderer) leave it failed and eligible for retry.
package workflow
