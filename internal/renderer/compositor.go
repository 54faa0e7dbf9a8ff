// Package renderer turns engine snapshots into frames: Ken Burns camera
// sampling, crossfade blending and delivery to an encoder sink. It reads
// the engine through its snapshot surface only and never mutates playback
// state.
package renderer

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/photoloop/internal/config"
	"github.com/ivlev/photoloop/internal/engine"
	"github.com/ivlev/photoloop/internal/system"
)

// Compositor composes one output frame per tick from the engine's current
// and next snapshots.
type Compositor struct {
	width  int
	height int
	pool   *system.ImagePool
	scaler xdraw.Scaler
}

func NewCompositor(width, height int, pool *system.ImagePool) *Compositor {
	return &Compositor{
		width:  width,
		height: height,
		pool:   pool,
		scaler: xdraw.ApproxBiLinear,
	}
}

// Compose renders the engine's state this tick. The returned frame comes
// from the buffer pool; hand it back with Release once written out.
func (c *Compositor) Compose(eng *engine.Engine) *image.RGBA {
	cur := eng.CurrentSnapshot()
	next := eng.NextSnapshot()
	style := eng.TransitionStyle()
	progress := eng.Progress()
	blend := eng.TransitionBlend()

	frame := c.pool.Get(image.Rect(0, 0, c.width, c.height))
	clear(frame.Pix)
	setOpaque(frame)

	c.drawSlot(frame, &cur, style, progress, 1.0)

	if blend > 0 {
		// The incoming slide starts its own camera path at the top of
		// its cycle; during the blend it is still at progress 0.
		c.drawSlot(frame, &next, style, 0, easeInOutCubic(blend))
	}

	return frame
}

// Release returns a composed frame to the buffer pool.
func (c *Compositor) Release(frame *image.RGBA) {
	c.pool.Put(frame)
}

// drawSlot paints one slot with its camera pose at the given opacity.
// Blank slots (failed loads, not-yet-ready videos) paint nothing and leave
// black, which is the degraded state playback continues through.
func (c *Compositor) drawSlot(frame *image.RGBA, snap *engine.Snapshot, style config.Style, progress, opacity float64) {
	src := slotImage(snap)
	if src == nil || opacity <= 0 {
		return
	}

	cam := CameraAt(style, snap.StartOffset, snap.EndOffset, progress)
	dst := c.coverRect(src.Bounds(), cam)

	if opacity >= 1.0 {
		c.scaler.Scale(frame, dst, src, src.Bounds(), xdraw.Over, nil)
		return
	}

	layer := c.pool.Get(image.Rect(0, 0, c.width, c.height))
	defer c.pool.Put(layer)
	clear(layer.Pix)
	c.scaler.Scale(layer, dst, src, src.Bounds(), xdraw.Over, nil)

	mask := image.NewUniform(color.Alpha{A: uint8(opacity*254 + 1)})
	draw.DrawMask(frame, frame.Bounds(), layer, image.Point{}, mask, image.Point{}, draw.Over)
}

// slotImage picks what stands in for the slot on screen: the decoded photo,
// or the poster frame once a video is ready.
func slotImage(snap *engine.Snapshot) image.Image {
	if snap.Empty {
		return nil
	}
	if snap.Image != nil {
		return snap.Image
	}
	if snap.VideoReady {
		return snap.Poster
	}
	return nil
}

// coverRect computes where the source lands in the frame: scaled to cover
// the full frame, enlarged by zoom, then displaced by the normalized camera
// offset. Offsets are fractions of the frame dimensions.
func (c *Compositor) coverRect(src image.Rectangle, cam CameraState) image.Rectangle {
	srcW := float64(src.Dx())
	srcH := float64(src.Dy())
	if srcW == 0 || srcH == 0 {
		return image.Rectangle{}
	}

	scale := float64(c.width) / srcW
	if s := float64(c.height) / srcH; s > scale {
		scale = s
	}
	scale *= cam.Zoom

	w := srcW * scale
	h := srcH * scale
	cx := float64(c.width)/2 + cam.OffsetX*float64(c.width)
	cy := float64(c.height)/2 + cam.OffsetY*float64(c.height)

	return image.Rect(
		int(cx-w/2), int(cy-h/2),
		int(cx+w/2), int(cy+h/2),
	)
}

func setOpaque(img *image.RGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
}
