package media

import (
	"fmt"
	"image"
	"math"
)

// Kind distinguishes the two playable media types.
type Kind int

const (
	Photo Kind = iota
	Video
)

func (k Kind) String() string {
	if k == Video {
		return "video"
	}
	return "photo"
}

// Handle is an opaque reference to one playable item. It is immutable once
// created and owned by the playlist; the engine only borrows it.
type Handle struct {
	Path     string
	Page     int // page index for PDF-backed photos, 0 otherwise
	Kind     Kind
	Rotation int // display rotation in degrees: 0, 90, 180 or 270
}

// ID returns a stable cache key for the handle.
func (h Handle) ID() string {
	return fmt.Sprintf("%s#%d", h.Path, h.Page)
}

// IsZero reports whether the handle references nothing.
func (h Handle) IsZero() bool {
	return h.Path == ""
}

// NormalizeRotation folds an arbitrary degree value onto {0, 90, 180, 270}.
func NormalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return (deg / 90) * 90
}

// Offset is a normalized 2D camera displacement from center. Values are
// clamped into the safe range at computation time and never re-clamped.
type Offset struct {
	X float64
	Y float64
}

// IsZero reports whether the offset is exactly centered.
func (o Offset) IsZero() bool {
	return o.X == 0 && o.Y == 0
}

// Clamp limits both axes to [-limit, limit].
func (o Offset) Clamp(limit float64) Offset {
	return Offset{X: clamp(o.X, limit), Y: clamp(o.Y, limit)}
}

func clamp(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

// Rect is a normalized axis-aligned rectangle in the unit square using the
// detector's bottom-left-origin convention: X,Y is the lower-left corner.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Center returns the rectangle midpoint.
func (r Rect) Center() (float64, float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Rotate maps the rectangle from un-rotated image space into the space of
// the image rotated counterclockwise by deg (a multiple of 90). The result
// is the bounding box of the four rotated corners, which for axis-aligned
// rectangles and 90-degree multiples is exact.
func (r Rect) Rotate(deg int) Rect {
	deg = NormalizeRotation(deg)
	if deg == 0 {
		return r
	}

	corners := [4][2]float64{
		{r.X, r.Y},
		{r.X + r.W, r.Y},
		{r.X, r.Y + r.H},
		{r.X + r.W, r.Y + r.H},
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		x, y := rotatePoint(c[0], c[1], deg)
		minX = math.Min(minX, x)
		maxX = math.Max(maxX, x)
		minY = math.Min(minY, y)
		maxY = math.Max(maxY, y)
	}

	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// rotatePoint rotates a unit-square point counterclockwise about (0.5, 0.5).
func rotatePoint(x, y float64, deg int) (float64, float64) {
	switch deg {
	case 90:
		return 1 - y, x
	case 180:
		return 1 - x, 1 - y
	case 270:
		return y, 1 - x
	default:
		return x, y
	}
}

// NormalizedRect converts a pixel rectangle inside bounds into a normalized
// bottom-left-origin Rect.
func NormalizedRect(px image.Rectangle, bounds image.Rectangle) Rect {
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())
	if w <= 0 || h <= 0 {
		return Rect{}
	}
	return Rect{
		X: float64(px.Min.X-bounds.Min.X) / w,
		Y: 1 - float64(px.Max.Y-bounds.Min.Y)/h,
		W: float64(px.Dx()) / w,
		H: float64(px.Dy()) / h,
	}
}

// RotateImage returns img rotated counterclockwise by deg (a multiple of
// 90). deg 0 returns the input unchanged.
func RotateImage(img image.Image, deg int) image.Image {
	deg = NormalizeRotation(deg)
	if deg == 0 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var dst *image.RGBA
	if deg == 180 {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			switch deg {
			case 90:
				dst.Set(y, w-1-x, c)
			case 180:
				dst.Set(w-1-x, h-1-y, c)
			case 270:
				dst.Set(h-1-y, x, c)
			}
		}
	}
	return dst
}
