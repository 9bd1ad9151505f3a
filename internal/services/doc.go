// Package services defines the error taxonomy and context plumbing shared
// by the pipeline stages and the external collaborator clients (speech to
// text, renderer, asset fetch).
//
// Errors are tagged with sentinel markers so the workflow manager can
// classify failures into queue statuses without string matching, and
// context carries the item/stage/request identity that the logging package
// folds into every record.
package services
