package analyzer

import (
	"image"
	"image/color"
	"math"
	"sort"
)

// ContrastDetector finds face-like focus regions using Sobel edge detection
// and morphology. Detail-dense, roughly face-proportioned areas (portraits,
// subjects against plain backgrounds) score highest.
type ContrastDetector struct {
	MinRegionArea float64 // minimum region area as a fraction of the image
	EdgeThreshold float64 // gradient magnitude threshold
	MaxRegions    int     // cap on returned regions, best confidence first
	analyzeWidth  int     // images are downscaled to this width before analysis
}

// NewContrastDetector creates a contrast-based detector with defaults tuned
// for photos rather than documents: small regions are kept (a face can be a
// few percent of the frame) and extreme aspect ratios are rejected.
func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinRegionArea: 0.005,
		EdgeThreshold: 30.0,
		MaxRegions:    8,
		analyzeWidth:  320,
	}
}

// Detect finds focus regions. Returned rectangles are in the coordinate
// space of the input image.
func (d *ContrastDetector) Detect(img image.Image) ([]Region, error) {
	gray, scale := d.downscaleGray(img)
	bounds := gray.Bounds()
	imgArea := float64(bounds.Dx() * bounds.Dy())
	if imgArea == 0 {
		return nil, nil
	}

	edges := sobelEdges(gray, d.EdgeThreshold)
	dilated := dilate(edges, 5, 2)
	components := findComponents(dilated)

	regions := make([]Region, 0, len(components))
	for _, c := range components {
		area := float64(c.rect.Dx() * c.rect.Dy())
		if area/imgArea < d.MinRegionArea {
			continue
		}

		// Faces are roughly square; skip banners and thin strips.
		aspect := float64(c.rect.Dx()) / float64(c.rect.Dy())
		if aspect < 0.4 || aspect > 2.5 {
			continue
		}

		// Confidence from edge density inside the bounding box.
		density := float64(c.pixels) / area
		conf := math.Min(1.0, 0.3+density)

		regions = append(regions, Region{
			Rect:       scaleRect(c.rect, scale),
			Confidence: conf,
		})
	}

	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Confidence > regions[j].Confidence
	})
	if d.MaxRegions > 0 && len(regions) > d.MaxRegions {
		regions = regions[:d.MaxRegions]
	}
	return regions, nil
}

// downscaleGray converts to grayscale, subsampling large images so the
// Sobel pass stays cheap. Returns the factor mapping analysis coordinates
// back to input coordinates.
func (d *ContrastDetector) downscaleGray(img image.Image) (*image.Gray, float64) {
	bounds := img.Bounds()
	step := 1
	if d.analyzeWidth > 0 && bounds.Dx() > d.analyzeWidth {
		step = bounds.Dx() / d.analyzeWidth
	}

	w := bounds.Dx() / step
	h := bounds.Dy() / step
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	gray := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := img.At(bounds.Min.X+x*step, bounds.Min.Y+y*step)
			gray.Set(x, y, color.GrayModel.Convert(src))
		}
	}
	return gray, float64(step)
}

func scaleRect(r image.Rectangle, scale float64) image.Rectangle {
	return image.Rect(
		int(float64(r.Min.X)*scale),
		int(float64(r.Min.Y)*scale),
		int(float64(r.Max.X)*scale),
		int(float64(r.Max.Y)*scale),
	)
}

// sobelEdges applies the Sobel operator and thresholds gradient magnitude
// into a binary edge map.
func sobelEdges(gray *image.Gray, threshold float64) *image.Gray {
	bounds := gray.Bounds()
	edges := image.NewGray(bounds)

	gx := [3][3]int{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	gy := [3][3]int{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			var sumX, sumY float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					pixel := float64(gray.GrayAt(x+kx, y+ky).Y)
					sumX += pixel * float64(gx[ky+1][kx+1])
					sumY += pixel * float64(gy[ky+1][kx+1])
				}
			}

			magnitude := math.Sqrt(sumX*sumX + sumY*sumY)
			if magnitude > threshold {
				edges.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	return edges
}

// dilate performs morphological dilation to connect nearby edges.
func dilate(img *image.Gray, kernelSize, iterations int) *image.Gray {
	bounds := img.Bounds()
	result := image.NewGray(bounds)
	copy(result.Pix, img.Pix)

	half := kernelSize / 2

	for iter := 0; iter < iterations; iter++ {
		temp := image.NewGray(bounds)
		for y := bounds.Min.Y + half; y < bounds.Max.Y-half; y++ {
			for x := bounds.Min.X + half; x < bounds.Max.X-half; x++ {
				maxVal := uint8(0)
				for ky := -half; ky <= half; ky++ {
					for kx := -half; kx <= half; kx++ {
						val := result.GrayAt(x+kx, y+ky).Y
						if val > maxVal {
							maxVal = val
						}
					}
				}
				temp.SetGray(x, y, color.Gray{Y: maxVal})
			}
		}
		result = temp
	}

	return result
}

type component struct {
	rect   image.Rectangle
	pixels int
}

// findComponents finds bounding boxes of connected white regions.
func findComponents(img *image.Gray) []component {
	bounds := img.Bounds()
	visited := make([][]bool, bounds.Dy())
	for i := range visited {
		visited[i] = make([]bool, bounds.Dx())
	}

	var components []component
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.GrayAt(x, y).Y > 128 && !visited[y-bounds.Min.Y][x-bounds.Min.X] {
				components = append(components, floodFill(img, visited, x, y))
			}
		}
	}
	return components
}

// floodFill walks one connected component and returns its bounding box and
// filled pixel count.
func floodFill(img *image.Gray, visited [][]bool, startX, startY int) component {
	bounds := img.Bounds()
	minX, minY := startX, startY
	maxX, maxY := startX, startY
	pixels := 0

	stack := []image.Point{{X: startX, Y: startY}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		x, y := p.X, p.Y
		if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		if visited[y-bounds.Min.Y][x-bounds.Min.X] || img.GrayAt(x, y).Y <= 128 {
			continue
		}
		visited[y-bounds.Min.Y][x-bounds.Min.X] = true
		pixels++

		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}

		stack = append(stack,
			image.Point{X: x + 1, Y: y},
			image.Point{X: x - 1, Y: y},
			image.Point{X: x, Y: y + 1},
			image.Point{X: x, Y: y - 1},
		)
	}

	return component{rect: image.Rect(minX, minY, maxX+1, maxY+1), pixels: pixels}
}
