// Package pipeline implements the four workflow stages that take a queue
// item from a script and narration recording to a rendered video:
// transcribe, align, plan, render.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"shortreel/internal/config"
)

// StagingPaths names the per-item files produced between stages. The
// layout is an internal convention of the staging directory.
type StagingPaths struct {
	Dir        string
	Transcript string
	Alignment  string
	Plan       string
}

// ItemStaging returns the staging layout for one queue item.
func ItemStaging(cfg *config.Config, itemID int64) StagingPaths {
	dir := filepath.Join(cfg.Paths.StagingDir, fmt.Sprintf("item-%d", itemID))
	return StagingPaths{
		Dir:        dir,
		Transcript: filepath.Join(dir, "transcript.json"),
		Alignment:  filepath.Join(dir, "alignment.json"),
		Plan:       filepath.Join(dir, "plan.json"),
	}
}

// Ensure creates the staging directory.
func (p StagingPaths) Ensure() error {
	return os.MkdirAll(p.Dir, 0o755)
}
