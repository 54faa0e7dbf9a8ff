package renderer

import (
	"github.com/ivlev/photoloop/internal/config"
	"github.com/ivlev/photoloop/internal/media"
)

// CameraState is the camera pose for one slot at one instant: a normalized
// displacement from center plus a zoom factor.
type CameraState struct {
	OffsetX float64
	OffsetY float64
	Zoom    float64
}

const (
	kenBurnsStartZoom = 1.05
	kenBurnsEndZoom   = 1.18
)

// CameraAt interpolates the Ken Burns camera between a slot's start and end
// offsets for progress t in [0,1]. Styles without camera motion pin the
// camera at center.
func CameraAt(style config.Style, start, end media.Offset, t float64) CameraState {
	if !style.MovesCamera() {
		return CameraState{Zoom: 1.0}
	}

	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	eased := easeInOutCubic(t)

	return CameraState{
		OffsetX: lerp(start.X, end.X, eased),
		OffsetY: lerp(start.Y, end.Y, eased),
		Zoom:    lerp(kenBurnsStartZoom, kenBurnsEndZoom, eased),
	}
}

// lerp performs linear interpolation between a and b.
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// easeInOutCubic applies smooth easing.
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}
