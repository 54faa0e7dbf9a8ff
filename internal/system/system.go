package system

import (
	"log"
	"os/exec"
	"strings"
	"syscall"
)

// InitResourceLimits raises the open-file limit. Long unattended runs keep
// decoder pipes, media files and the preview sink open at once.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] could not read open-file limit: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] could not raise open-file limit: %v", err)
	}
}

// BestH264Encoder picks the fastest available H264 encoder for the preview
// sink: VideoToolbox on macOS, NVENC on NVIDIA, software x264 otherwise.
func BestH264Encoder() string {
	hardware := []string{"h264_videotoolbox", "h264_nvenc"}

	out, err := exec.Command("ffmpeg", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, enc := range hardware {
		if strings.Contains(string(out), enc) {
			return enc
		}
	}
	return "libx264"
}
