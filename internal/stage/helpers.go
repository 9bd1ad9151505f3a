package stage

import (
	"strings"

	"shortreel/internal/media"
	"shortreel/internal/services"
)

// LoadScript reads the item's script document. On failure it returns a
// services.ErrValidation suitable for stage Execute methods.
func LoadScript(path string) (*media.Script, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrValidation, "stage", "load script",
			"script path missing; re-add the item with a script document", nil)
	}
	script, err := media.LoadScript(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "stage", "load script",
			"script document missing or invalid", err)
	}
	return script, nil
}

// LoadManifest reads the item's asset manifest and resolves its entries.
// A missing manifest path is not an error: the video falls back to the
// placeholder visual.
func LoadManifest(path string) ([]media.VisualAsset, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	manifest, err := media.LoadManifest(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "stage", "load manifest",
			"asset manifest missing or invalid", err)
	}
	resolved, err := manifest.Resolve()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "stage", "load manifest",
			"asset manifest entries invalid", err)
	}
	return resolved, nil
}
