package media

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"

	"github.com/ivlev/photoloop/internal/analyzer"
	"github.com/ivlev/photoloop/internal/pool"
	"github.com/ivlev/photoloop/internal/video"
)

// VideoHandle is the engine-facing view of an acquired, pooled video
// player. Release consumes the handle exactly once.
type VideoHandle interface {
	Ready() bool
	Play()
	SetOnFinished(fn func())
	Duration() (float64, bool)
	Poster() image.Image
	Release() error
}

// Source produces decoded media and auxiliary metadata. Calls may take
// arbitrarily long and must only run on background population paths, never
// on the playback tick.
type Source interface {
	LoadImage(ctx context.Context, h Handle) (image.Image, error)
	AcquireVideo(ctx context.Context, h Handle, muted bool) (VideoHandle, error)
	DetectedFaces(ctx context.Context, h Handle) ([]Rect, error)
	IntrinsicDuration(ctx context.Context, h Handle) (float64, error)
}

// FileSource implements Source over local files: stdlib decoding for
// photos, go-fitz for PDF pages, the analyzer for the face-rect cache and
// the shared player pool for videos.
type FileSource struct {
	detector analyzer.Detector
	videos   *pool.Pool
	dpi      int

	mu    sync.Mutex
	faces map[string][]Rect
}

func NewFileSource(det analyzer.Detector, videos *pool.Pool, dpi int) *FileSource {
	if dpi <= 0 {
		dpi = 150
	}
	return &FileSource{
		detector: det,
		videos:   videos,
		dpi:      dpi,
		faces:    make(map[string][]Rect),
	}
}

// LoadImage decodes a photo handle and orients it for display.
func (s *FileSource) LoadImage(ctx context.Context, h Handle) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.Kind != Photo {
		return nil, fmt.Errorf("not a photo: %s", h.ID())
	}
	img, err := s.decode(h)
	if err != nil {
		return nil, err
	}
	return RotateImage(img, h.Rotation), nil
}

// decode renders the un-rotated bitmap for a photo handle.
func (s *FileSource) decode(h Handle) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(h.Path), ".pdf") {
		// Opening a fresh document per render keeps concurrent page
		// loads off a shared fitz handle.
		doc, err := fitz.New(h.Path)
		if err != nil {
			return nil, fmt.Errorf("open pdf %s: %w", h.Path, err)
		}
		defer doc.Close()
		return doc.ImageDPI(h.Page, float64(s.dpi))
	}

	f, err := os.Open(h.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", h.Path, err)
	}
	return img, nil
}

// AcquireVideo borrows a player from the pool.
func (s *FileSource) AcquireVideo(ctx context.Context, h Handle, muted bool) (VideoHandle, error) {
	if h.Kind != Video {
		return nil, fmt.Errorf("not a video: %s", h.ID())
	}
	return s.videos.Acquire(ctx, h.Path, muted)
}

// DetectedFaces returns cached focus rectangles for a photo handle,
// running the detector at most once per handle. Rects are normalized,
// bottom-left origin, in un-rotated image space.
func (s *FileSource) DetectedFaces(ctx context.Context, h Handle) ([]Rect, error) {
	if h.Kind != Photo {
		return nil, nil
	}

	s.mu.Lock()
	cached, ok := s.faces[h.ID()]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := s.decode(h)
	if err != nil {
		return nil, err
	}

	regions, err := s.detector.Detect(img)
	if err != nil {
		return nil, err
	}

	rects := make([]Rect, 0, len(regions))
	for _, reg := range regions {
		rects = append(rects, NormalizedRect(reg.Rect, img.Bounds()))
	}

	s.mu.Lock()
	s.faces[h.ID()] = rects
	s.mu.Unlock()
	return rects, nil
}

// IntrinsicDuration probes the play duration of a video handle.
func (s *FileSource) IntrinsicDuration(ctx context.Context, h Handle) (float64, error) {
	if h.Kind != Video {
		return 0, fmt.Errorf("not a video: %s", h.ID())
	}
	return video.ProbeDuration(ctx, h.Path)
}
