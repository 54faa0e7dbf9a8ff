package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os/exec"
	"strings"
)

// ProbeDuration returns the intrinsic play duration of a media file in
// seconds, via ffprobe.
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var duration float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &duration)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration parse %s: %w", path, err)
	}
	return duration, nil
}

// ExtractPoster decodes the first frame of a video file. The preview
// compositor uses it to stand in for live video frames.
func ExtractPoster(ctx context.Context, path string) (image.Image, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-v", "error",
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1",
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg poster %s: %w", path, err)
	}

	img, err := png.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("poster decode %s: %w", path, err)
	}
	return img, nil
}

// Sink consumes composed frames at the playback cadence.
type Sink interface {
	WriteFrame(img *image.RGBA) error
	Close() error
}

// NullSink discards frames. Used for headless runs and tests.
type NullSink struct{}

func (NullSink) WriteFrame(*image.RGBA) error { return nil }
func (NullSink) Close() error                 { return nil }

// FFmpegSink encodes the live frame stream into a file by piping raw RGBA
// frames to a long-lived ffmpeg process on stdin.
type FFmpegSink struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	width  int
	height int
}

// NewFFmpegSink starts the encoder process. encoderName selects the H264
// implementation (libx264, h264_nvenc, h264_videotoolbox); quality follows
// the encoder's native scale.
func NewFFmpegSink(ctx context.Context, outPath string, width, height, fps int, encoderName string, quality int) (*FFmpegSink, error) {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", encoderName,
	}

	switch encoderName {
	case "h264_videotoolbox":
		args = append(args, "-b:v", fmt.Sprintf("%dk", quality*100))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", quality), "-preset", "veryfast")
	}
	args = append(args, outPath)

	s := &FFmpegSink{width: width, height: height}
	s.cmd = exec.CommandContext(ctx, "ffmpeg", args...)
	s.cmd.Stderr = &s.stderr

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	s.stdin = stdin

	if err := s.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return s, nil
}

// WriteFrame pushes one RGBA frame to the encoder. The frame must match the
// sink dimensions and have a packed stride.
func (s *FFmpegSink) WriteFrame(img *image.RGBA) error {
	bounds := img.Bounds()
	if bounds.Dx() != s.width || bounds.Dy() != s.height {
		return fmt.Errorf("frame size %dx%d does not match sink %dx%d",
			bounds.Dx(), bounds.Dy(), s.width, s.height)
	}

	frame := img
	if frame.Stride != bounds.Dx()*4 || frame.Rect.Min.X != 0 || frame.Rect.Min.Y != 0 {
		frame = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(frame, frame.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := s.stdin.Write(frame.Pix)
	return err
}

// Close flushes the stream and waits for the encoder to finish.
func (s *FFmpegSink) Close() error {
	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %v, output: %s", err, s.stderr.String())
	}
	return nil
}
