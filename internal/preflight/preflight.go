package preflight

import (
	"context"

	"shortreel/internal/config"
	"shortreel/internal/deps"
)

// minStagingBytes is the free-space floor for the staging volume. Plans and
// transcripts are small but rendered output lands next to them.
const minStagingBytes = 1 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Asset cache directory", cfg.Paths.AssetCacheDir),
		CheckDiskSpace("Staging disk space", cfg.Paths.StagingDir, minStagingBytes),
		CheckSTT(ctx, cfg),
	}

	for _, status := range CheckSystemDeps(cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Optional && !status.Available {
			result.Passed = true
			result.Detail = status.Detail + " (optional)"
		}
		results = append(results, result)
	}

	return results
}

// CheckSystemDeps evaluates the external binaries the pipeline shells out
// to. Both the preflight command and the status command use this to avoid
// duplicating the requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "Renderer",
			Command:     cfg.Render.Binary,
			Description: "Required for compositing the final video",
		},
	}
	return deps.CheckBinaries(requirements)
}

// Passed reports whether every result in the set passed.
func Passed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
