package media

import "time"

// AssetKind discriminates the visual asset payload types.
type AssetKind string

const (
	AssetStillImage  AssetKind = "image"
	AssetAvatarClip  AssetKind = "avatar_clip"
	AssetPlaceholder AssetKind = "placeholder"
)

// VisualAsset is implemented by every visual payload the timeline can show.
// The timeline holds references to asset storage, never ownership; assets
// outlive a single render.
type VisualAsset interface {
	AssetURI() string
	AssetKind() AssetKind
}

// StillImage is a static picture shown for a window of the video.
type StillImage struct {
	URI         string
	AspectRatio float64
}

func (s StillImage) AssetURI() string { return s.URI }
func (s StillImage) AssetKind() AssetKind { return AssetStillImage }

// AvatarClip is a pre-rendered talking-head video. Its own audio track is
// discarded; narration audio is authoritative for sync.
type AvatarClip struct {
	URI      string
	Duration time.Duration
	HasAudio bool
}

func (a AvatarClip) AssetURI() string { return a.URI }
func (a AvatarClip) AssetKind() AssetKind { return AssetAvatarClip }

// BuiltinPlaceholderURI selects the renderer's built-in backdrop. It stands
// in when no placeholder asset is configured so a bare script-plus-narration
// item still yields a full visual track.
const BuiltinPlaceholderURI = "builtin://backdrop"

// PlaceholderAsset fills visual windows left uncovered by missing or failed
// assets so the visual track never has gaps.
type PlaceholderAsset struct {
	URI string
}

func (p PlaceholderAsset) AssetURI() string { return p.URI }
func (p PlaceholderAsset) AssetKind() AssetKind { return AssetPlaceholder }

// FindAvatar returns the first avatar clip in the asset list, if any.
func FindAvatar(assets []VisualAsset) (AvatarClip, bool) {
	for _, asset := range assets {
		if clip, ok := asset.(AvatarClip); ok {
			return clip, true
		}
	}
	return AvatarClip{}, false
}

// StillImages returns the still images from the asset list in order.
func StillImages(assets []VisualAsset) []VisualAsset {
	stills := make([]VisualAsset, 0, len(assets))
	for _, asset := range assets {
		if asset.AssetKind() == AssetStillImage {
			stills = append(stills, asset)
		}
	}
	return stills
}
