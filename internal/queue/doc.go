// Package queue persists video generation jobs in SQLite and owns their
// status lifecycle. Each item carries the input references (script, audio,
// asset manifest, music) plus progress and failure state; the workflow
// manager advances items status by status until they complete or land in
// review.
package queue
