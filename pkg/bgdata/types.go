// Package bgdata holds background samples (image, depth, segmentation), and the
// stores they are loaded from.
package bgdata

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/bmharper/cimg/v2"
)

var ErrNotFound = errors.New("not found")
var ErrBadDimensions = errors.New("bad dimensions")

// DepthMap is a per-pixel depth estimate, stored row-major with interleaved channels (HWC).
// Our depth estimator produces more than one estimate per pixel, which is why there can be
// more than one channel.
type DepthMap struct {
	Width    int
	Height   int
	Channels int
	Data     []float32
}

func NewDepthMap(width, height, channels int) *DepthMap {
	return &DepthMap{
		Width:    width,
		Height:   height,
		Channels: channels,
		Data:     make([]float32, width*height*channels),
	}
}

func (d *DepthMap) At(x, y, c int) float32 {
	return d.Data[(y*d.Width+x)*d.Channels+c]
}

func (d *DepthMap) Set(x, y, c int, v float32) {
	d.Data[(y*d.Width+x)*d.Channels+c] = v
}

func (d *DepthMap) Validate() error {
	if d.Width <= 0 || d.Height <= 0 || d.Channels <= 0 || len(d.Data) != d.Width*d.Height*d.Channels {
		return fmt.Errorf("%w: depth %vx%vx%v with %v values", ErrBadDimensions, d.Width, d.Height, d.Channels, len(d.Data))
	}
	return nil
}

// Channel extracts a single channel into a new one-channel depth map
func (d *DepthMap) Channel(c int) (*DepthMap, error) {
	if c < 0 || c >= d.Channels {
		return nil, fmt.Errorf("depth channel %v out of range (map has %v channels)", c, d.Channels)
	}
	if d.Channels == 1 {
		return d, nil
	}
	out := NewDepthMap(d.Width, d.Height, 1)
	for i := 0; i < d.Width*d.Height; i++ {
		out.Data[i] = d.Data[i*d.Channels+c]
	}
	return out, nil
}

// SegMap is a region labelling of a background image.
// Every pixel of Mask holds a region id. Area and Label are per-region attributes that
// are produced by the segmentation tool, and passed through to the renderer untouched.
type SegMap struct {
	Mask  *image.Gray16
	Area  []int64
	Label []int32
}

func (s *SegMap) Width() int {
	return s.Mask.Rect.Dx()
}

func (s *SegMap) Height() int {
	return s.Mask.Rect.Dy()
}

// SegFromMask builds a SegMap whose Label is the sorted list of distinct region ids in mask,
// and whose Area is the pixel count of each of those regions.
func SegFromMask(mask *image.Gray16) *SegMap {
	counts := map[int32]int64{}
	b := mask.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			counts[int32(mask.Gray16At(x, y).Y)]++
		}
	}
	seg := &SegMap{Mask: mask}
	for label := range counts {
		seg.Label = append(seg.Label, label)
	}
	slices.Sort(seg.Label)
	for _, label := range seg.Label {
		seg.Area = append(seg.Area, counts[label])
	}
	return seg
}

// Sample is one background image, before alignment
type Sample struct {
	Name  string
	Image *cimg.Image // RGB
	Depth *DepthMap
	Seg   *SegMap
}
