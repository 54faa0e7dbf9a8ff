package playlist

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/ivlev/photoloop/internal/media"
)

// Item is one playlist entry: a media handle plus an optional per-item
// hold override (0 means use the slideshow default).
type Item struct {
	Handle media.Handle
	Hold   float64
}

// Playlist is the externally-owned ordered sequence the engine's cursor
// walks. It never changes while playback is running.
type Playlist struct {
	items []Item
}

func New(items []Item) *Playlist {
	return &Playlist{items: items}
}

func (p *Playlist) Len() int {
	return len(p.items)
}

func (p *Playlist) Item(i int) Item {
	return p.items[i]
}

// Next returns the index following i, wrapping for indefinite looping.
func (p *Playlist) Next(i int) int {
	if len(p.items) == 0 {
		return 0
	}
	return (i + 1) % len(p.items)
}

// Prev returns the index preceding i, wrapping.
func (p *Playlist) Prev(i int) int {
	if len(p.items) == 0 {
		return 0
	}
	return (i - 1 + len(p.items)) % len(p.items)
}

// Shuffle permutes the playlist in place with a seeded source, so a given
// seed replays the same order.
func (p *Playlist) Shuffle(seed int64) {
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(p.items), func(i, j int) {
		p.items[i], p.items[j] = p.items[j], p.items[i]
	})
}

var (
	photoExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
	videoExts = map[string]bool{".mp4": true, ".mov": true, ".m4v": true, ".webm": true, ".mkv": true}
)

// KindForPath classifies a file by extension. PDF pages count as photos.
func KindForPath(path string) (media.Kind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if photoExts[ext] || ext == ".pdf" {
		return media.Photo, true
	}
	if videoExts[ext] {
		return media.Video, true
	}
	return media.Photo, false
}

// FromDir builds a playlist from every playable file in dir, sorted by
// name. Each PDF contributes one photo item per page.
func FromDir(dir string) (*Playlist, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := KindForPath(entry.Name()); ok {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	var items []Item
	for _, path := range paths {
		expanded, err := expandPath(path, 0, 0)
		if err != nil {
			return nil, err
		}
		items = append(items, expanded...)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no playable media in %s", dir)
	}
	return New(items), nil
}

// expandPath turns one file into its playlist items, expanding PDFs to one
// item per page.
func expandPath(path string, rotation int, hold float64) ([]Item, error) {
	kind, ok := KindForPath(path)
	if !ok {
		return nil, fmt.Errorf("unsupported media file: %s", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		doc, err := fitz.New(path)
		if err != nil {
			return nil, fmt.Errorf("open pdf %s: %w", path, err)
		}
		defer doc.Close()

		items := make([]Item, 0, doc.NumPage())
		for page := 0; page < doc.NumPage(); page++ {
			items = append(items, Item{
				Handle: media.Handle{
					Path:     path,
					Page:     page,
					Kind:     media.Photo,
					Rotation: media.NormalizeRotation(rotation),
				},
				Hold: hold,
			})
		}
		return items, nil
	}

	return []Item{{
		Handle: media.Handle{
			Path:     path,
			Kind:     kind,
			Rotation: media.NormalizeRotation(rotation),
		},
		Hold: hold,
	}}, nil
}
