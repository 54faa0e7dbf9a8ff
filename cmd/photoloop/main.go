package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ivlev/photoloop/internal/analyzer"
	"github.com/ivlev/photoloop/internal/clock"
	"github.com/ivlev/photoloop/internal/config"
	"github.com/ivlev/photoloop/internal/engine"
	"github.com/ivlev/photoloop/internal/media"
	"github.com/ivlev/photoloop/internal/playlist"
	"github.com/ivlev/photoloop/internal/pool"
	"github.com/ivlev/photoloop/internal/renderer"
	"github.com/ivlev/photoloop/internal/system"
	"github.com/ivlev/photoloop/internal/video"
)

func main() {
	system.InitResourceLimits()

	inputPtr := flag.String("input", "input/media", "Directory of photos, videos and PDFs to play")
	docPtr := flag.String("doc", "", "Slideshow document (YAML); overrides -input when set")
	stylePtr := flag.String("style", "panzoom", "Transition style: cut, crossfade, zoom, panzoom")
	holdPtr := flag.Float64("hold", 5.0, "Seconds each photo is held")
	fadePtr := flag.Float64("fade", 1.5, "Transition duration in seconds")
	shufflePtr := flag.Bool("shuffle", false, "Shuffle playback order")
	seedPtr := flag.Int64("seed", 0, "Shuffle/camera seed (0 = time-based)")
	startPtr := flag.Int("start", 0, "Playlist index to start at (ignored with -shuffle)")
	fpsPtr := flag.Int("fps", 60, "Playback tick rate")
	widthPtr := flag.Int("width", 1280, "Frame width")
	heightPtr := flag.Int("height", 720, "Frame height")
	presetPtr := flag.String("preset", "", "Frame preset: 16:9, 9:16, 4:5")
	outPtr := flag.String("out", "", "Capture the live frames to this file (empty = headless)")
	forPtr := flag.Duration("for", 0, "Stop automatically after this long (0 = run until quit)")
	qualityPtr := flag.Int("quality", 0, "Capture quality (0 = auto per encoder)")
	dpiPtr := flag.Int("dpi", 150, "Render DPI for PDF pages")
	mutePtr := flag.Bool("mute", true, "Acquire videos muted")
	maxVideosPtr := flag.Int("max-videos", 3, "Upper bound on concurrently open video players")
	detectorPtr := flag.String("detector", "contrast", "Focus detector: contrast, none")
	statsPtr := flag.Bool("stats", false, "Log process CPU/RSS periodically")

	flag.Parse()

	width, height := *widthPtr, *heightPtr
	switch *presetPtr {
	case "16:9":
		width, height = 1280, 720
	case "9:16":
		width, height = 720, 1280
	case "4:5":
		width, height = 1080, 1350
	}

	style, err := config.ParseStyle(*stylePtr)
	if err != nil {
		log.Fatalf("[-] %v", err)
	}

	cfg := &config.Config{
		InputPath:         *inputPtr,
		DocumentPath:      *docPtr,
		Style:             style,
		HoldSeconds:       *holdPtr,
		TransitionSeconds: *fadePtr,
		FPS:               *fpsPtr,
		Width:             width,
		Height:            height,
		Shuffle:           *shufflePtr,
		ShuffleSeed:       *seedPtr,
		StartIndex:        *startPtr,
		Muted:             *mutePtr,
		MaxVideoPlayers:   *maxVideosPtr,
		PreviewOutput:     *outPtr,
		Quality:           *qualityPtr,
		DPI:               *dpiPtr,
		ShowStats:         *statsPtr,
	}
	if cfg.ShuffleSeed == 0 {
		cfg.ShuffleSeed = time.Now().UnixNano()
	}

	list, err := buildPlaylist(cfg)
	if err != nil {
		standby(cfg, err)
		return
	}

	det, err := analyzer.NewDetector(*detectorPtr)
	if err != nil {
		log.Fatalf("[-] %v", err)
	}

	players := pool.NewPool(int64(cfg.MaxVideoPlayers))
	src := media.NewFileSource(det, players, cfg.DPI)

	startIndex := cfg.StartIndex
	if cfg.Shuffle {
		list.Shuffle(cfg.ShuffleSeed)
		startIndex = rand.New(rand.NewSource(cfg.ShuffleSeed)).Intn(list.Len())
	}

	eng := engine.New(engine.Options{
		Source:            src,
		Playlist:          list,
		Style:             cfg.Style,
		HoldSeconds:       cfg.HoldSeconds,
		TransitionSeconds: cfg.TransitionSeconds,
		Muted:             cfg.Muted,
		Seed:              cfg.ShuffleSeed,
		Logf:              log.Printf,
	})

	sink, err := buildSink(cfg)
	if err != nil {
		log.Fatalf("[-] sink init error: %v", err)
	}

	comp := renderer.NewCompositor(cfg.Width, cfg.Height, system.NewImagePool())

	fmt.Println("--- [PHOTOLOOP] ---")
	fmt.Printf("[*] Items: %d | Style: %s | Hold: %.1fs | Fade: %.1fs\n",
		list.Len(), cfg.Style, cfg.HoldSeconds, cfg.TransitionSeconds)
	fmt.Printf("[*] Frame: %dx%d @ %d Hz\n", cfg.Width, cfg.Height, cfg.FPS)
	fmt.Println("[*] Controls: n = next, p = previous, q = quit")
	fmt.Println("-------------------")

	if err := eng.Start(startIndex); err != nil {
		log.Fatalf("[-] start error: %v", err)
	}

	quit := make(chan error, 1)

	tick := clock.New(time.Second/time.Duration(cfg.FPS), func(dt time.Duration) {
		eng.Advance(dt)
		frame := comp.Compose(eng)
		err := sink.WriteFrame(frame)
		comp.Release(frame)
		if err != nil {
			select {
			case quit <- fmt.Errorf("sink: %w", err):
			default:
			}
		}
	})
	if err := tick.Start(context.Background()); err != nil {
		log.Fatalf("[-] clock error: %v", err)
	}

	var monitor *system.Monitor
	if cfg.ShowStats {
		monitor, err = system.StartMonitor(10*time.Second, log.Printf)
		if err != nil {
			log.Printf("[!] stats monitor unavailable: %v", err)
		}
	}

	go readControls(eng, quit)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	var timeout <-chan time.Time
	if *forPtr > 0 {
		timeout = time.After(*forPtr)
	}

	select {
	case <-sigs:
		fmt.Println("\n[*] Interrupted")
	case <-timeout:
		fmt.Printf("[*] Ran for %s\n", *forPtr)
	case err := <-quit:
		if err != nil {
			log.Printf("[!] %v", err)
		}
	}

	tick.Stop()
	eng.Stop()
	players.Close()
	if monitor != nil {
		monitor.Stop()
	}
	if err := sink.Close(); err != nil {
		log.Printf("[!] sink close: %v", err)
	}

	if failures := eng.LoadFailures(); failures > 0 {
		fmt.Printf("[!] %d media items degraded to blank during playback\n", failures)
	}
	fmt.Println("[+++] Done")
}

// buildPlaylist loads the slideshow document when given, otherwise scans
// the input directory. Document-level settings win over flag defaults.
func buildPlaylist(cfg *config.Config) (*playlist.Playlist, error) {
	if cfg.DocumentPath == "" {
		return playlist.FromDir(cfg.InputPath)
	}

	doc, err := playlist.ReadDocument(cfg.DocumentPath)
	if err != nil {
		return nil, err
	}
	fmt.Printf("[*] Using document: %s\n", cfg.DocumentPath)

	if doc.Style != "" {
		style, err := config.ParseStyle(doc.Style)
		if err != nil {
			return nil, err
		}
		cfg.Style = style
	}
	if doc.HoldSeconds > 0 {
		cfg.HoldSeconds = doc.HoldSeconds
	}
	if doc.TransitionSeconds > 0 {
		cfg.TransitionSeconds = doc.TransitionSeconds
	}
	if doc.Shuffle {
		cfg.Shuffle = true
	}

	return doc.Build()
}

// buildSink opens the capture encoder, or a null sink for headless runs.
func buildSink(cfg *config.Config) (video.Sink, error) {
	if cfg.PreviewOutput == "" {
		return video.NullSink{}, nil
	}

	encoderName := system.BestH264Encoder()
	if encoderName != "libx264" {
		fmt.Printf("[*] Hardware encoder: %s\n", encoderName)
	}

	quality := cfg.Quality
	if quality == 0 {
		switch encoderName {
		case "h264_videotoolbox":
			quality = 75
		case "h264_nvenc":
			quality = 28
		default:
			quality = 23
		}
	}

	return video.NewFFmpegSink(context.Background(), cfg.PreviewOutput,
		cfg.Width, cfg.Height, cfg.FPS, encoderName, quality)
}

// standby writes the nothing-to-play card when a capture target exists,
// then exits. An unattended display beats a crash loop.
func standby(cfg *config.Config, cause error) {
	log.Printf("[!] no playlist: %v", cause)

	if cfg.PreviewOutput == "" {
		log.Fatalf("[-] add media to %s and restart", cfg.InputPath)
	}

	card, err := media.StandbyCard(cfg.Width, cfg.Height, "file://"+cfg.InputPath)
	if err != nil {
		log.Fatalf("[-] standby card: %v", err)
	}

	sink, err := buildSink(cfg)
	if err != nil {
		log.Fatalf("[-] sink init error: %v", err)
	}
	defer sink.Close()

	// A few seconds of card is enough for the capture to be visible.
	for i := 0; i < cfg.FPS*3; i++ {
		if err := sink.WriteFrame(card); err != nil {
			break
		}
	}
	fmt.Printf("[*] Standby card written; add media to %s\n", cfg.InputPath)
}

// readControls maps stdin lines to manual navigation.
func readControls(eng *engine.Engine, quit chan<- error) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch scanner.Text() {
		case "n":
			eng.SkipForward()
		case "p":
			eng.SkipBackward()
		case "q":
			select {
			case quit <- nil:
			default:
			}
			return
		}
	}
}
