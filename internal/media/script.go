package media

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Script is the canonical script document for one video: ordered segments
// plus the title/description metadata that travels with the plan. The
// script is ground truth; alignment never alters it.
type Script struct {
	Title       string             `yaml:"title"`
	Description string             `yaml:"description"`
	Segments    []CanonicalSegment `yaml:"-"`
}

type scriptDocument struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Segments    []string `yaml:"segments"`
}

// LoadScript reads a script document from a YAML file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes a script document from YAML bytes and assigns
// authoring order to each non-empty segment.
func ParseScript(data []byte) (*Script, error) {
	var doc scriptDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	script := &Script{
		Title:       strings.TrimSpace(doc.Title),
		Description: strings.TrimSpace(doc.Description),
	}
	for _, text := range doc.Segments {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		script.Segments = append(script.Segments, CanonicalSegment{
			Text:  text,
			Order: len(script.Segments),
		})
	}
	if len(script.Segments) == 0 {
		return nil, fmt.Errorf("parse script: no segments")
	}
	return script, nil
}

// Text returns the full script text with segments joined by single spaces.
func (s *Script) Text() string {
	parts := make([]string, 0, len(s.Segments))
	for _, seg := range s.Segments {
		parts = append(parts, seg.Text)
	}
	return strings.Join(parts, " ")
}

// AssetManifest lists the visual assets available for one video, in the
// order the upstream sourcing step produced them.
type AssetManifest struct {
	Assets []ManifestEntry `yaml:"assets"`
}

// ManifestEntry is one sourced asset reference.
type ManifestEntry struct {
	URI         string  `yaml:"uri"`
	Kind        string  `yaml:"kind"`
	AspectRatio float64 `yaml:"aspect_ratio"`
	Seconds     float64 `yaml:"seconds"`
	HasAudio    bool    `yaml:"has_audio"`
}

// LoadManifest reads an asset manifest from a YAML file.
func LoadManifest(path string) (*AssetManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest AssetManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &manifest, nil
}

// Resolve converts manifest entries into typed visual assets. Unknown kinds
// are rejected so bad manifests fail before the timeline is built.
func (m *AssetManifest) Resolve() ([]VisualAsset, error) {
	assets := make([]VisualAsset, 0, len(m.Assets))
	for i, entry := range m.Assets {
		uri := strings.TrimSpace(entry.URI)
		if uri == "" {
			return nil, fmt.Errorf("manifest entry %d: missing uri", i)
		}
		switch strings.ToLower(strings.TrimSpace(entry.Kind)) {
		case "image", "":
			assets = append(assets, StillImage{URI: uri, AspectRatio: entry.AspectRatio})
		case "avatar_clip":
			assets = append(assets, AvatarClip{
				URI:      uri,
				Duration: Seconds(entry.Seconds),
				HasAudio: entry.HasAudio,
			})
		default:
			return nil, fmt.Errorf("manifest entry %d: unknown kind %q", i, entry.Kind)
		}
	}
	return assets, nil
}
