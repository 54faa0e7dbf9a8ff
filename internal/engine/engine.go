// Package engine implements the playback timing and slot-promotion core of
// the slideshow. A single clock tick drives all state mutation; when
// progress crosses the end of a cycle the next slot is promoted to current
// synchronously, inside the same tick, so the renderer can never observe
// progress pinned at the terminal value while a handoff is pending.
package engine

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ivlev/photoloop/internal/config"
	"github.com/ivlev/photoloop/internal/director"
	"github.com/ivlev/photoloop/internal/media"
	"github.com/ivlev/photoloop/internal/playlist"
)

var (
	ErrAlreadyStarted = errors.New("engine already started")
	ErrStopped        = errors.New("engine stopped")
	ErrEmptyPlaylist  = errors.New("playlist is empty")
)

// State is the engine's observable lifecycle phase.
type State int

const (
	Idle State = iota
	Holding
	Transitioning
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Holding:
		return "holding"
	case Transitioning:
		return "transitioning"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// slotPos tags which slot a background population commits into.
type slotPos int

const (
	slotCurrent slotPos = iota
	slotNext
)

// Options wires the engine's collaborators. Source latency is unbounded;
// the engine only ever calls it from background population goroutines.
type Options struct {
	Source            media.Source
	Playlist          *playlist.Playlist
	Style             config.Style
	HoldSeconds       float64
	TransitionSeconds float64
	Muted             bool
	Seed              int64
	Logf              func(format string, args ...any)
}

// Engine owns the two slots, the progress scalar and the playlist cursor.
// All writes happen under mu: the tick path (Advance), manual navigation
// and Stop take it directly, and background population results commit
// through it, which serializes them with tick execution.
type Engine struct {
	src        media.Source
	list       *playlist.Playlist
	style      config.Style
	defHold    float64
	transition float64
	muted      bool
	logf       func(string, ...any)

	rngMu sync.Mutex
	rng   *rand.Rand

	mu               sync.Mutex
	state            State
	cur              Slot
	next             Slot
	progress         float64
	cursor           int
	generation       uint64
	startedNextVideo bool
	cancel           context.CancelFunc
	popCtx           context.Context

	loadFailures atomic.Uint64
	videoLoops   atomic.Uint64
}

func New(opts Options) *Engine {
	hold := opts.HoldSeconds
	if hold <= 0 {
		hold = 5.0
	}
	transition := opts.TransitionSeconds
	if transition <= 0 {
		transition = 1.5
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Engine{
		src:        opts.Source,
		list:       opts.Playlist,
		style:      opts.Style,
		defHold:    hold,
		transition: transition,
		muted:      opts.Muted,
		logf:       logf,
		rng:        rand.New(rand.NewSource(seed)),
		state:      Idle,
	}
}

// Start begins playback at startIndex. The current slot is allowed to
// render blank while its population completes; nothing here waits on the
// media source.
func (e *Engine) Start(startIndex int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case Stopped:
		return ErrStopped
	case Holding, Transitioning:
		return ErrAlreadyStarted
	}
	if e.list.Len() == 0 {
		return ErrEmptyPlaylist
	}

	if startIndex < 0 || startIndex >= e.list.Len() {
		startIndex = 0
	}

	e.popCtx, e.cancel = context.WithCancel(context.Background())
	e.cursor = startIndex
	e.progress = 0
	e.startedNextVideo = false
	e.state = Holding
	e.generation++

	gen := e.generation
	go e.populate(gen, e.cursor, slotCurrent)
	go e.populate(gen, e.list.Next(e.cursor), slotNext)
	return nil
}

// Advance moves playback forward by dt. It is called once per clock tick
// and is the only place promotion can happen: if the increment carries
// progress to or past 1.0, the handoff completes before Advance returns,
// and the new progress is the overshoot so no time is lost across cycles.
func (e *Engine) Advance(dt time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Holding && e.state != Transitioning {
		return
	}

	e.progress += dt.Seconds() / e.cycleSecondsLocked()
	e.state = e.phaseForProgressLocked()

	e.pollVideosLocked()

	if e.progress >= 1.0 {
		e.promoteLocked(e.list.Next(e.cursor), e.progress-1.0)
	}
}

// promoteLocked performs the atomic handoff: the caller observes either the
// old (cursor, current, progress) triple or the new one, never a mix.
func (e *Engine) promoteLocked(index int, overshoot float64) {
	if e.cur.Video != nil && e.cur.Video != e.next.Video {
		e.cur.releaseVideo()
	}

	e.cursor = index
	e.cur = e.next
	e.next = Slot{}
	e.progress = overshoot
	e.startedNextVideo = false
	e.generation++
	e.state = e.phaseForProgressLocked()

	gen := e.generation
	go e.populate(gen, e.list.Next(e.cursor), slotNext)
}

// SkipForward jumps to the adjacent item ahead of the cursor.
func (e *Engine) SkipForward() { e.skip(1) }

// SkipBackward jumps to the adjacent item behind the cursor.
func (e *Engine) SkipBackward() { e.skip(-1) }

// skip is a forced promotion with zero overshoot. The natural next slot is
// invalid after a manual jump, so both slots are torn down synchronously
// and repopulated in the background under a fresh generation.
func (e *Engine) skip(dir int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Holding && e.state != Transitioning {
		return
	}

	e.cur.releaseVideo()
	e.next.releaseVideo()

	if dir > 0 {
		e.cursor = e.list.Next(e.cursor)
	} else {
		e.cursor = e.list.Prev(e.cursor)
	}

	e.cur = Slot{}
	e.next = Slot{}
	e.progress = 0
	e.startedNextVideo = false
	e.state = Holding
	e.generation++

	gen := e.generation
	go e.populate(gen, e.cursor, slotCurrent)
	go e.populate(gen, e.list.Next(e.cursor), slotNext)
}

// Stop releases both slots and terminates playback. Idempotent. In-flight
// population work becomes a no-op through the generation check.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Stopped {
		return
	}
	if e.cancel != nil {
		e.cancel()
	}

	e.cur.releaseVideo()
	e.next.releaseVideo()
	e.cur = Slot{}
	e.next = Slot{}
	e.progress = 0
	e.generation++
	e.state = Stopped
}

// pollVideosLocked is the readiness gate. Readiness never pauses progress;
// it only decides when a video begins playing. The next slot's video starts
// at most once per cycle, the first time it is ready during the transition.
func (e *Engine) pollVideosLocked() {
	if e.cur.Kind == media.Video && e.cur.Video != nil {
		if e.cur.holdEstimated {
			if d, ok := e.cur.Video.Duration(); ok {
				e.cur.Hold = d
				e.cur.holdEstimated = false
			}
		}
		if !e.cur.videoStarted && e.cur.Video.Ready() {
			e.startVideoLocked(&e.cur)
		}
	}

	if e.state == Transitioning && !e.startedNextVideo &&
		e.next.Kind == media.Video && e.next.Video != nil && e.next.Video.Ready() {
		e.startVideoLocked(&e.next)
		e.startedNextVideo = true
	}
}

func (e *Engine) startVideoLocked(s *Slot) {
	s.Video.SetOnFinished(func() {
		e.videoLoops.Add(1)
	})
	s.Video.Play()
	s.videoStarted = true
}

// cycleSecondsLocked is the driving denominator: the current slot's hold
// plus the transition region, or the hold alone for a plain cut. An empty
// current slot uses the default hold so timing never stalls on a slow load.
func (e *Engine) cycleSecondsLocked() float64 {
	hold := e.cur.Hold
	if hold <= 0 {
		hold = e.defHold
	}
	if e.style.HasTransition() {
		return hold + e.transition
	}
	return hold
}

// holdFractionLocked is where the hold phase ends and the transition
// begins, as a fraction of the full cycle.
func (e *Engine) holdFractionLocked() float64 {
	if !e.style.HasTransition() {
		return 1.0
	}
	cycle := e.cycleSecondsLocked()
	return (cycle - e.transition) / cycle
}

func (e *Engine) phaseForProgressLocked() State {
	if e.style.HasTransition() && e.progress >= e.holdFractionLocked() {
		return Transitioning
	}
	return Holding
}

// populate builds a slot off the tick path and commits it. Load failures
// leave the slot blank rather than failing the cycle; the show goes on.
func (e *Engine) populate(gen uint64, index int, pos slotPos) {
	item := e.list.Item(index)
	h := item.Handle

	hold := item.Hold
	if hold <= 0 {
		hold = e.defHold
	}

	slot := Slot{Handle: h, Kind: h.Kind, Hold: hold}

	ctx := e.populationContext()
	switch h.Kind {
	case media.Photo:
		img, err := e.src.LoadImage(ctx, h)
		if err != nil {
			e.loadFailures.Add(1)
			e.logf("[!] load %s: %v", h.ID(), err)
			break
		}
		slot.Image = img

		if e.style.MovesCamera() {
			faces, err := e.src.DetectedFaces(ctx, h)
			if err != nil {
				e.logf("[!] faces %s: %v", h.ID(), err)
			}
			slot.Faces = faces
			slot.StartOffset, slot.EndOffset = e.planCamera(faces, h.Rotation)
		}

	case media.Video:
		vh, err := e.src.AcquireVideo(ctx, h, e.muted)
		if err != nil {
			e.loadFailures.Add(1)
			e.logf("[!] acquire %s: %v", h.ID(), err)
			break
		}
		slot.Video = vh

		if item.Hold <= 0 {
			if dur, err := e.src.IntrinsicDuration(ctx, h); err == nil && dur > 0 {
				slot.Hold = dur
			} else {
				// Promotion cannot wait for the probe; carry the
				// default hold and correct it when the duration
				// lands.
				slot.holdEstimated = true
			}
		}
	}

	e.commit(gen, pos, slot)
}

func (e *Engine) populationContext() context.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.popCtx != nil {
		return e.popCtx
	}
	return context.Background()
}

// commit applies a population result, serialized with tick execution. A
// result whose generation has been superseded is discarded, releasing any
// video handle it carried.
func (e *Engine) commit(gen uint64, pos slotPos, slot Slot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.generation || (e.state != Holding && e.state != Transitioning) {
		slot.releaseVideo()
		return
	}

	switch pos {
	case slotCurrent:
		e.cur.releaseVideo()
		e.cur = slot
	case slotNext:
		e.next.releaseVideo()
		e.next = slot
	}
}

// planCamera draws the start and end pan offsets for a photo slot.
func (e *Engine) planCamera(faces []media.Rect, rotation int) (media.Offset, media.Offset) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return director.StartOffset(e.style, e.rng), director.EndOffset(faces, rotation, e.rng)
}

// CurrentSnapshot returns a read-only view of the current slot.
func (e *Engine) CurrentSnapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshotOf(&e.cur)
}

// NextSnapshot returns a read-only view of the next slot.
func (e *Engine) NextSnapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshotOf(&e.next)
}

// Progress returns the normalized position through the current cycle.
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

// IsTransitioning reports whether both slots should be blended this tick.
func (e *Engine) IsTransitioning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == Transitioning
}

// TransitionBlend returns how far through the transition region playback
// is, in [0,1]; 0 while holding.
func (e *Engine) TransitionBlend() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Transitioning {
		return 0
	}
	hf := e.holdFractionLocked()
	if hf >= 1.0 {
		return 0
	}
	b := (e.progress - hf) / (1.0 - hf)
	if b < 0 {
		b = 0
	}
	if b > 1 {
		b = 1
	}
	return b
}

// TransitionStyle returns the configured style.
func (e *Engine) TransitionStyle() config.Style { return e.style }

// State returns the engine's lifecycle phase.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Cursor returns the playlist index of the current slot.
func (e *Engine) Cursor() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// LoadFailures is a diagnostic counter of media that degraded to blank.
func (e *Engine) LoadFailures() uint64 { return e.loadFailures.Load() }
