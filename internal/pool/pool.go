package pool

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ivlev/photoloop/internal/video"
)

var (
	ErrClosed   = errors.New("pool closed")
	ErrReleased = errors.New("lease already released")
)

// probeTimeout bounds the background open (ffprobe + poster extraction) so
// a wedged decoder cannot pin a pool slot forever.
const probeTimeout = 10 * time.Second

// Pool hands out video players with a hard upper bound on how many are
// outstanding at once. The playback engine holds at most two (current and
// next); the bound exists so manual-navigation churn cannot pile up players
// faster than stale leases are released.
type Pool struct {
	sem *semaphore.Weighted

	mu          sync.Mutex
	closed      bool
	outstanding int
}

func NewPool(maxPlayers int64) *Pool {
	if maxPlayers < 1 {
		maxPlayers = 1
	}
	return &Pool{sem: semaphore.NewWeighted(maxPlayers)}
}

// Acquire reserves a pool slot and starts opening a player for path. The
// returned lease is an ownership token: it must be released exactly once.
// Opening (duration probe, poster frame) runs in the background; poll
// Ready() on the lease.
func (p *Pool) Acquire(ctx context.Context, path string, muted bool) (*Lease, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	p.mu.Unlock()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.sem.Release(1)
		return nil, ErrClosed
	}
	p.outstanding++
	p.mu.Unlock()

	pl := &Player{path: path, muted: muted}
	go pl.open()

	return &Lease{pool: p, player: pl}, nil
}

// Outstanding returns the number of unreleased leases.
func (p *Pool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outstanding
}

// Close marks the pool closed. Outstanding leases remain valid and must
// still be released by their owners.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

// Lease is the ownership token for one acquired player. Release consumes
// the token; a second Release is an error and does not free the pool slot
// twice.
type Lease struct {
	pool     *Pool
	player   *Player
	released atomic.Bool
}

// Release stops the player and returns the slot to the pool. Exactly one
// call succeeds.
func (l *Lease) Release() error {
	if !l.released.CompareAndSwap(false, true) {
		return ErrReleased
	}
	l.player.stop()
	l.pool.mu.Lock()
	l.pool.outstanding--
	l.pool.mu.Unlock()
	l.pool.sem.Release(1)
	return nil
}

// Ready reports whether the player can supply a decodable frame.
func (l *Lease) Ready() bool { return l.player.readyNow() }

// Play starts playback timing. Safe to call once per acquired player.
func (l *Lease) Play() { l.player.play() }

// SetOnFinished installs the completion/loop observer. The callback fires
// on the player's own timer goroutine each time the intrinsic duration
// elapses.
func (l *Lease) SetOnFinished(fn func()) { l.player.setOnFinished(fn) }

// Duration returns the probed intrinsic duration, if known yet.
func (l *Lease) Duration() (float64, bool) { return l.player.durationNow() }

// Poster returns the first decoded frame, or nil before the open finishes.
func (l *Lease) Poster() image.Image { return l.player.posterNow() }

// Player wraps one opened media file. All exported access goes through the
// lease that owns it.
type Player struct {
	path  string
	muted bool

	mu         sync.Mutex
	ready      bool
	openErr    error
	duration   float64
	poster     image.Image
	playing    bool
	stopped    bool
	onFinished func()
	timer      *time.Timer
}

func (pl *Player) open() {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	dur, err := video.ProbeDuration(ctx, pl.path)
	if err != nil {
		pl.mu.Lock()
		pl.openErr = err
		pl.mu.Unlock()
		return
	}

	// Poster failure is not fatal: timing still works, the compositor
	// just has nothing to draw for this slot.
	poster, _ := video.ExtractPoster(ctx, pl.path)

	pl.mu.Lock()
	pl.duration = dur
	pl.poster = poster
	pl.ready = !pl.stopped
	pl.mu.Unlock()
}

func (pl *Player) readyNow() bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.ready
}

func (pl *Player) durationNow() (float64, bool) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.duration <= 0 {
		return 0, false
	}
	return pl.duration, true
}

func (pl *Player) posterNow() image.Image {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.poster
}

func (pl *Player) play() {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.playing || pl.stopped || !pl.ready {
		return
	}
	pl.playing = true
	pl.armTimerLocked()
}

func (pl *Player) setOnFinished(fn func()) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.onFinished = fn
}

// armTimerLocked schedules the completion observer one intrinsic duration
// out, re-arming on fire so the video loops.
func (pl *Player) armTimerLocked() {
	d := time.Duration(pl.duration * float64(time.Second))
	if d <= 0 {
		return
	}
	pl.timer = time.AfterFunc(d, func() {
		pl.mu.Lock()
		fn := pl.onFinished
		if pl.playing && !pl.stopped {
			pl.armTimerLocked()
		}
		pl.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
}

func (pl *Player) stop() {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.stopped = true
	pl.playing = false
	pl.ready = false
	if pl.timer != nil {
		pl.timer.Stop()
		pl.timer = nil
	}
}
