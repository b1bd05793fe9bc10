package bgdata

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/bmharper/cimg/v2"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LoadImage reads the background image 'name' from 'dir', and returns it as RGB.
func LoadImage(dir, name string) (*cimg.Image, error) {
	src, err := decodeFile(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	return ImageToRGB(src), nil
}

// ImageToRGB converts any Go image into a packed RGB cimg.Image.
// Alpha is discarded.
func ImageToRGB(src image.Image) *cimg.Image {
	b := src.Bounds()
	rgba, ok := src.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Rect, src, b.Min, draw.Src)
	}
	dst := cimg.NewImage(b.Dx(), b.Dy(), cimg.PixelFormatRGB)
	for y := 0; y < dst.Height; y++ {
		srcRow := rgba.Pix[y*rgba.Stride:]
		dstRow := dst.Pixels[y*dst.Stride:]
		for x := 0; x < dst.Width; x++ {
			dstRow[x*3] = srcRow[x*4]
			dstRow[x*3+1] = srcRow[x*4+1]
			dstRow[x*3+2] = srcRow[x*4+2]
		}
	}
	return dst
}

// RGBToImage converts a packed RGB cimg.Image into an opaque *image.RGBA
func RGBToImage(src *cimg.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, src.Width, src.Height))
	for y := 0; y < src.Height; y++ {
		srcRow := src.Pixels[y*src.Stride:]
		dstRow := dst.Pix[y*dst.Stride:]
		for x := 0; x < src.Width; x++ {
			dstRow[x*4] = srcRow[x*3]
			dstRow[x*4+1] = srcRow[x*3+1]
			dstRow[x*4+2] = srcRow[x*3+2]
			dstRow[x*4+3] = 255
		}
	}
	return dst
}

// ImageToGray16 converts a label image into a 16-bit mask.
// 8-bit gray images keep their values (they are not scaled up to 16 bits), because
// the values are region ids, not intensities.
func ImageToGray16(src image.Image) *image.Gray16 {
	b := src.Bounds()
	dst := image.NewGray16(image.Rect(0, 0, b.Dx(), b.Dy()))
	switch s := src.(type) {
	case *image.Gray16:
		for y := 0; y < b.Dy(); y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+2*b.Dx()], s.Pix[s.PixOffset(b.Min.X, b.Min.Y+y):])
		}
	case *image.Gray:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				v := s.Pix[s.PixOffset(b.Min.X+x, b.Min.Y+y)]
				dst.Pix[y*dst.Stride+x*2] = 0
				dst.Pix[y*dst.Stride+x*2+1] = v
			}
		}
	case *image.Paletted:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				v := s.ColorIndexAt(b.Min.X+x, b.Min.Y+y)
				dst.Pix[y*dst.Stride+x*2+1] = v
			}
		}
	default:
		draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	}
	return dst
}

// DepthFromImage converts a depth image into a DepthMap.
// Gray images produce one channel. Color images produce three channels, which is how
// we store several depth estimates in one file. Values are not rescaled: an 8-bit image
// gives depths in [0,255], and a 16-bit image gives depths in [0,65535].
func DepthFromImage(src image.Image) *DepthMap {
	b := src.Bounds()
	switch s := src.(type) {
	case *image.Gray:
		d := NewDepthMap(b.Dx(), b.Dy(), 1)
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				d.Data[y*d.Width+x] = float32(s.Pix[s.PixOffset(b.Min.X+x, b.Min.Y+y)])
			}
		}
		return d
	case *image.Gray16:
		d := NewDepthMap(b.Dx(), b.Dy(), 1)
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				d.Data[y*d.Width+x] = float32(s.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
		return d
	}
	// RGBA() gives us 16 bits per channel, so we scale 8-bit sources back down
	div := float32(1)
	switch src.(type) {
	case *image.RGBA, *image.NRGBA, *image.YCbCr, *image.Paletted:
		div = 257
	}
	d := NewDepthMap(b.Dx(), b.Dy(), 3)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			d.Set(x, y, 0, float32(r)/div)
			d.Set(x, y, 1, float32(g)/div)
			d.Set(x, y, 2, float32(bl)/div)
		}
	}
	return d
}

// LoadDepthImage reads a depth image file. See DepthFromImage.
func LoadDepthImage(filename string) (*DepthMap, error) {
	src, err := decodeFile(filename)
	if err != nil {
		return nil, err
	}
	return DepthFromImage(src), nil
}

// LoadSegImage reads a label image file, and derives its region labels and areas.
func LoadSegImage(filename string) (*SegMap, error) {
	src, err := decodeFile(filename)
	if err != nil {
		return nil, err
	}
	return SegFromMask(ImageToGray16(src)), nil
}

func decodeFile(filename string) (image.Image, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("Failed to decode image %v: %w", filename, err)
	}
	return src, nil
}
