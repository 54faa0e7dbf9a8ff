// Package director decides where the Ken Burns camera starts and ends for
// each slide: a randomized start displacement and an end displacement aimed
// at a detected face.
package director

import (
	"math"
	"math/rand"

	"github.com/ivlev/photoloop/internal/config"
	"github.com/ivlev/photoloop/internal/media"
)

const (
	// MaxOffset is the safe displacement range; offsets are clamped here
	// at computation time and never re-clamped later.
	MaxOffset = 0.25
	// startRange bounds the randomized start displacement.
	startRange = 0.20
	// minStartAxis guarantees visible motion: at least one axis of the
	// start offset has this magnitude.
	minStartAxis = 0.10
)

// StartOffset picks the camera displacement a photo slide opens with.
// Pan & zoom randomizes it; zoom starts centered.
func StartOffset(style config.Style, r *rand.Rand) media.Offset {
	if style != config.StylePanZoom {
		return media.Offset{}
	}

	x := (r.Float64()*2 - 1) * startRange
	y := (r.Float64()*2 - 1) * startRange

	if math.Abs(x) < minStartAxis && math.Abs(y) < minStartAxis {
		// Push the larger axis out to the visible-motion floor,
		// keeping its sign.
		if math.Abs(x) >= math.Abs(y) {
			x = math.Copysign(minStartAxis+r.Float64()*(startRange-minStartAxis), x)
		} else {
			y = math.Copysign(minStartAxis+r.Float64()*(startRange-minStartAxis), y)
		}
	}

	return media.Offset{X: x, Y: y}
}

// EndOffset aims the camera at one randomly chosen detected face, or at
// center when there are none. Face rects arrive in un-rotated image space
// with a bottom-left origin; they are rotated into the displayed bitmap's
// frame first, and the Y term flips the origin to the renderer's top-left
// convention.
func EndOffset(faces []media.Rect, rotation int, r *rand.Rand) media.Offset {
	if len(faces) == 0 {
		return media.Offset{}
	}

	face := faces[r.Intn(len(faces))].Rotate(rotation)
	cx, cy := face.Center()

	return media.Offset{X: 0.5 - cx, Y: cy - 0.5}.Clamp(MaxOffset)
}
