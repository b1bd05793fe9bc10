// Package viz draws rendered instances with their word and character boxes, for a human to inspect.
package viz

import (
	"fmt"
	"path/filepath"

	"github.com/cyclopcam/synthtext/pkg/bgdata"
	"github.com/cyclopcam/synthtext/pkg/geom"
	"github.com/cyclopcam/synthtext/pkg/render"
	"github.com/fogleman/gg"
)

type Options struct {
	WordBoxes bool    // Draw wordBB in green
	CharBoxes bool    // Draw charBB in red
	LineWidth float64 // In pixels
}

func DefaultOptions() Options {
	return Options{
		WordBoxes: true,
		CharBoxes: true,
		LineWidth: 1,
	}
}

// Draw returns a drawing context holding the instance image with its boxes on top
func Draw(inst *render.Instance, opts Options) *gg.Context {
	dc := gg.NewContextForImage(bgdata.RGBToImage(inst.Image))
	dc.SetLineWidth(opts.LineWidth)
	if opts.CharBoxes {
		dc.SetRGB(1, 0, 0)
		for _, q := range inst.CharBB {
			strokeQuad(dc, q)
		}
	}
	// Words go on top, because they're easier to read
	if opts.WordBoxes {
		dc.SetRGB(0, 1, 0)
		for _, q := range inst.WordBB {
			strokeQuad(dc, q)
		}
	}
	return dc
}

// SaveInstances writes <dir>/<name>_<i>.png for every instance, and returns the filenames
func SaveInstances(dir, name string, instances []render.Instance, opts Options) ([]string, error) {
	files := []string{}
	for i := range instances {
		fn := filepath.Join(dir, fmt.Sprintf("%v_%v.png", name, i))
		if err := Draw(&instances[i], opts).SavePNG(fn); err != nil {
			return files, fmt.Errorf("Failed to save %v: %w", fn, err)
		}
		files = append(files, fn)
	}
	return files, nil
}

func strokeQuad(dc *gg.Context, q geom.Quad) {
	dc.MoveTo(float64(q[0].X), float64(q[0].Y))
	for _, p := range q[1:] {
		dc.LineTo(float64(p.X), float64(p.Y))
	}
	dc.ClosePath()
	dc.Stroke()
}
