package config

import "fmt"

// Style selects how one slide hands off to the next and whether the
// camera moves during the hold.
type Style string

const (
	// StyleCut switches slides with no blended transition region.
	StyleCut Style = "cut"
	// StyleCrossfade blends slides without camera motion.
	StyleCrossfade Style = "crossfade"
	// StyleZoom adds Ken Burns zoom from center (start offset is zero).
	StyleZoom Style = "zoom"
	// StylePanZoom adds randomized pan plus zoom toward a detected face.
	StylePanZoom Style = "panzoom"
)

// ParseStyle maps a CLI/document string to a Style.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case StyleCut, StyleCrossfade, StyleZoom, StylePanZoom:
		return Style(s), nil
	case "":
		return StylePanZoom, nil
	default:
		return "", fmt.Errorf("unknown style: %q (want cut, crossfade, zoom or panzoom)", s)
	}
}

// HasTransition reports whether the style renders a blended transition
// region. A plain cut has none, so its cycle is the hold alone.
func (s Style) HasTransition() bool {
	return s != StyleCut
}

// MovesCamera reports whether slots need pan/zoom offsets computed.
func (s Style) MovesCamera() bool {
	return s == StyleZoom || s == StylePanZoom
}

type Config struct {
	InputPath         string
	DocumentPath      string
	Style             Style
	HoldSeconds       float64
	TransitionSeconds float64
	FPS               int
	Width             int
	Height            int
	Shuffle           bool
	ShuffleSeed       int64
	StartIndex        int
	Muted             bool
	MaxVideoPlayers   int
	PreviewOutput     string
	VideoEncoder      string
	Quality           int
	DPI               int
	ShowStats         bool
	BuildVersion      string
}
