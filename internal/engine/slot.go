package engine

import (
	"image"

	"github.com/ivlev/photoloop/internal/media"
)

// Slot holds the renderable state for one timeline position. Exactly two
// live at any time, tagged current and next; they are moved, never copied,
// across a promotion so a video handle always has a single owner.
type Slot struct {
	Handle      media.Handle
	Kind        media.Kind
	Image       image.Image
	Video       media.VideoHandle
	Faces       []media.Rect
	StartOffset media.Offset
	EndOffset   media.Offset
	Hold        float64 // seconds

	// holdEstimated marks a video slot whose intrinsic duration was not
	// known at population time; the hold is corrected once the probe
	// lands.
	holdEstimated bool
	videoStarted  bool
}

// IsEmpty reports whether the slot has not been populated. An empty slot
// renders blank; it is still a valid slot.
func (s *Slot) IsEmpty() bool {
	return s.Handle.IsZero()
}

// releaseVideo returns the slot's video handle to the pool, if it holds
// one. Safe on empty slots.
func (s *Slot) releaseVideo() {
	if s.Video != nil {
		s.Video.Release()
		s.Video = nil
	}
}

// Snapshot is the immutable per-tick view the renderer consumes. It never
// carries ownership: the video handle stays with the engine, only derived
// render state (poster, readiness) is copied out.
type Snapshot struct {
	Empty       bool
	Handle      media.Handle
	Kind        media.Kind
	Image       image.Image
	Poster      image.Image
	StartOffset media.Offset
	EndOffset   media.Offset
	Hold        float64
	VideoReady  bool
}

func snapshotOf(s *Slot) Snapshot {
	snap := Snapshot{
		Empty:       s.IsEmpty(),
		Handle:      s.Handle,
		Kind:        s.Kind,
		Image:       s.Image,
		StartOffset: s.StartOffset,
		EndOffset:   s.EndOffset,
		Hold:        s.Hold,
	}
	if s.Video != nil {
		snap.VideoReady = s.Video.Ready()
		snap.Poster = s.Video.Poster()
	}
	return snap
}
