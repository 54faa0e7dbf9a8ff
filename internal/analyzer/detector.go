package analyzer

import (
	"fmt"
	"image"
)

// Region is a detected focus region (a face or face-like salient area) in
// pixel coordinates of the analyzed image.
type Region struct {
	Rect       image.Rectangle
	Confidence float64 // 0.0-1.0
}

// Detector is the interface for focus detection strategies.
type Detector interface {
	Detect(img image.Image) ([]Region, error)
}

// NullDetector reports no regions; camera motion falls back to center.
type NullDetector struct{}

func (NullDetector) Detect(image.Image) ([]Region, error) { return nil, nil }

// NewDetector creates a detector based on the specified variant.
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "contrast", "":
		return NewContrastDetector(), nil
	case "none":
		return NullDetector{}, nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}
