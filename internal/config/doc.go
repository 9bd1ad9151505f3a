// Package config loads, normalizes, and validates the TOML configuration
// consumed by the shortreel pipeline: directory paths, the speech-to-text
// collaborator, renderer output parameters, alignment thresholds, caption
// styling, composition timing, and workflow intervals.
package config
