// Package align brings a background image, its depth map, and its segmentation onto one pixel grid.
package align

import (
	"errors"
	"fmt"
	"image"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/synthtext/pkg/bgdata"
	"golang.org/x/image/draw"
)

var ErrEmptyInput = errors.New("empty alignment input")
var ErrBadDepthChannel = errors.New("bad depth channel")

// Aligned is a background sample where the image, depth and segmentation all have
// the same width and height, which is the resolution of the depth map.
type Aligned struct {
	Name  string
	Image *cimg.Image      // RGB
	Depth *bgdata.DepthMap // Single channel
	Seg   *image.Gray16    // Region ids
	Area  []int64          // Passed through from the segmentation, unchanged
	Label []int32          // Passed through from the segmentation, unchanged
}

func (a *Aligned) Width() int {
	return a.Depth.Width
}

func (a *Aligned) Height() int {
	return a.Depth.Height
}

type Options struct {
	DepthChannel int               // Which depth estimate to keep
	ImageFilter  cimg.ResizeFilter // Filter for resampling the photograph
}

func DefaultOptions() Options {
	return Options{
		DepthChannel: 0,
		// Of all the stbir filters, CatmullRom is the sharpest, and it is appropriate for
		// photographic downsampling.
		ImageFilter: cimg.ResizeFilterCatmullRom,
	}
}

// Align reduces the depth to one channel, and resamples the image and segmentation to
// the depth resolution.
// The image uses a smoothing filter. The segmentation uses nearest neighbour, because
// interpolating region ids would invent labels that don't exist.
func Align(sample *bgdata.Sample, opts Options) (*Aligned, error) {
	if sample.Image == nil || sample.Depth == nil || sample.Seg == nil || sample.Seg.Mask == nil {
		return nil, fmt.Errorf("%w: %v is missing image, depth or segmentation", ErrEmptyInput, sample.Name)
	}
	if err := sample.Depth.Validate(); err != nil {
		return nil, err
	}
	if sample.Image.Width <= 0 || sample.Image.Height <= 0 || sample.Seg.Width() <= 0 || sample.Seg.Height() <= 0 {
		return nil, fmt.Errorf("%w: %v has a zero sized image or segmentation", ErrEmptyInput, sample.Name)
	}

	depth, err := sample.Depth.Channel(opts.DepthChannel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDepthChannel, err)
	}
	width, height := depth.Width, depth.Height

	return &Aligned{
		Name:  sample.Name,
		Image: ResizeImage(sample.Image, width, height, opts.ImageFilter),
		Depth: depth,
		Seg:   ResizeLabels(sample.Seg.Mask, width, height),
		Area:  sample.Seg.Area,
		Label: sample.Seg.Label,
	}, nil
}

// ResizeImage resamples an RGB image. If the size already matches, the source is returned.
func ResizeImage(src *cimg.Image, width, height int, filter cimg.ResizeFilter) *cimg.Image {
	if src.Width == width && src.Height == height {
		return src
	}
	return cimg.ResizeNew(src, width, height, &cimg.ResizeParams{Filter: filter})
}

// ResizeLabels resamples a label mask with nearest neighbour, so every output value
// is a value that exists in the input.
func ResizeLabels(src *image.Gray16, width, height int) *image.Gray16 {
	if src.Rect.Dx() == width && src.Rect.Dy() == height && src.Rect.Min == (image.Point{}) {
		return src
	}
	dst := image.NewGray16(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)
	return dst
}
