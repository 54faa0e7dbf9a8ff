package renderer

import (
	"image"
	"math"
	"testing"

	"github.com/ivlev/photoloop/internal/config"
	"github.com/ivlev/photoloop/internal/engine"
	"github.com/ivlev/photoloop/internal/media"
	"github.com/ivlev/photoloop/internal/system"
)

func TestCameraAtEndpoints(t *testing.T) {
	start := media.Offset{X: -0.15, Y: 0.1}
	end := media.Offset{X: 0.2, Y: -0.05}

	c0 := CameraAt(config.StylePanZoom, start, end, 0)
	if c0.OffsetX != start.X || c0.OffsetY != start.Y {
		t.Errorf("t=0 camera %+v, want start offset %+v", c0, start)
	}
	if c0.Zoom != kenBurnsStartZoom {
		t.Errorf("t=0 zoom = %f, want %f", c0.Zoom, kenBurnsStartZoom)
	}

	c1 := CameraAt(config.StylePanZoom, start, end, 1)
	if c1.OffsetX != end.X || c1.OffsetY != end.Y {
		t.Errorf("t=1 camera %+v, want end offset %+v", c1, end)
	}
	if c1.Zoom != kenBurnsEndZoom {
		t.Errorf("t=1 zoom = %f, want %f", c1.Zoom, kenBurnsEndZoom)
	}
}

func TestCameraAtMidpointEased(t *testing.T) {
	start := media.Offset{X: -0.2}
	end := media.Offset{X: 0.2}

	// easeInOutCubic(0.5) = 0.5, so the midpoint is exact center.
	c := CameraAt(config.StylePanZoom, start, end, 0.5)
	if math.Abs(c.OffsetX) > 1e-12 {
		t.Errorf("midpoint X = %f, want 0", c.OffsetX)
	}

	// Motion is eased: the first quarter covers less ground than linear.
	q := CameraAt(config.StylePanZoom, start, end, 0.25)
	linear := lerp(start.X, end.X, 0.25)
	if q.OffsetX >= linear {
		t.Errorf("quarter-point X = %f, not eased below linear %f", q.OffsetX, linear)
	}
}

func TestCameraAtClampsProgress(t *testing.T) {
	start := media.Offset{X: -0.1}
	end := media.Offset{X: 0.1}

	under := CameraAt(config.StylePanZoom, start, end, -0.5)
	over := CameraAt(config.StylePanZoom, start, end, 1.5)
	if under.OffsetX != start.X || over.OffsetX != end.X {
		t.Errorf("progress not clamped: under %+v over %+v", under, over)
	}
}

func TestCameraAtStaticStyles(t *testing.T) {
	start := media.Offset{X: -0.2, Y: 0.2}
	end := media.Offset{X: 0.2, Y: -0.2}

	for _, style := range []config.Style{config.StyleCut, config.StyleCrossfade} {
		c := CameraAt(style, start, end, 0.5)
		if c.OffsetX != 0 || c.OffsetY != 0 || c.Zoom != 1.0 {
			t.Errorf("style %s moved the camera: %+v", style, c)
		}
	}
}

func TestEaseInOutCubic(t *testing.T) {
	if easeInOutCubic(0) != 0 || easeInOutCubic(1) != 1 {
		t.Error("easing must fix the endpoints")
	}
	if easeInOutCubic(0.5) != 0.5 {
		t.Errorf("easeInOutCubic(0.5) = %f", easeInOutCubic(0.5))
	}
	prev := 0.0
	for i := 1; i <= 100; i++ {
		v := easeInOutCubic(float64(i) / 100)
		if v < prev {
			t.Fatalf("easing not monotonic at %d: %f < %f", i, v, prev)
		}
		prev = v
	}
}

func TestCoverRectCoversFrame(t *testing.T) {
	c := NewCompositor(192, 108, system.NewImagePool())
	frame := image.Rect(0, 0, 192, 108)

	cases := []struct {
		name string
		src  image.Rectangle
		cam  CameraState
	}{
		{"wide source centered", image.Rect(0, 0, 400, 100), CameraState{Zoom: 1.0}},
		{"tall source centered", image.Rect(0, 0, 100, 400), CameraState{Zoom: 1.0}},
		{"zoomed with pan inside margin", image.Rect(0, 0, 200, 200), CameraState{OffsetX: 0.05, OffsetY: -0.05, Zoom: kenBurnsEndZoom}},
	}
	for _, tc := range cases {
		dst := c.coverRect(tc.src, tc.cam)
		if !frame.In(dst) {
			t.Errorf("%s: dst %v does not cover frame %v", tc.name, dst, frame)
		}
	}

	if got := c.coverRect(image.Rectangle{}, CameraState{Zoom: 1}); got != (image.Rectangle{}) {
		t.Errorf("degenerate source: got %v", got)
	}
}

func TestSlotImageSelection(t *testing.T) {
	photo := image.NewRGBA(image.Rect(0, 0, 2, 2))
	poster := image.NewRGBA(image.Rect(0, 0, 4, 4))

	if got := slotImage(&engine.Snapshot{Empty: true}); got != nil {
		t.Error("empty slot must draw nothing")
	}
	if got := slotImage(&engine.Snapshot{Image: photo}); got != image.Image(photo) {
		t.Error("photo slot must draw its decoded image")
	}
	if got := slotImage(&engine.Snapshot{Poster: poster, VideoReady: true}); got != image.Image(poster) {
		t.Error("ready video slot must draw its poster")
	}
	if got := slotImage(&engine.Snapshot{Poster: poster}); got != nil {
		t.Error("not-ready video slot must stay blank")
	}
}
