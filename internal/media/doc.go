// Package media defines the canonical data model shared by every pipeline
// stage: timed transcription words, canonical script segments, aligned
// words/segments, visual assets, and timeline events.
//
// Values of these types are produced once per generation run and treated as
// immutable afterward; stages communicate exclusively through them rather
// than loosely shaped maps.
package media
