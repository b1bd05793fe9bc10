// Package render is the boundary to the text renderer, which places text onto an aligned
// background image.
package render

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cyclopcam/synthtext/pkg/align"
)

var ErrRendererPanic = errors.New("renderer panic")

// Params are passed through to the renderer for every image
type Params struct {
	Instances int           // Maximum number of instances to produce
	MaxTime   time.Duration // Wall-clock budget per image. Zero means no budget.
	Viz       bool          // Ask the renderer to produce its own debug visualizations
	Lang      string        // Language selector, eg "JPN"
}

// Renderer places text onto an aligned background.
// It may return fewer than Params.Instances instances (including zero) if it could not
// find enough valid placements, or if it ran out of time. Zero instances is not an error.
type Renderer interface {
	Render(ctx context.Context, bg *align.Aligned, params Params) ([]Instance, error)
}

// RendererFunc adapts a plain function to the Renderer interface
type RendererFunc func(ctx context.Context, bg *align.Aligned, params Params) ([]Instance, error)

func (f RendererFunc) Render(ctx context.Context, bg *align.Aligned, params Params) ([]Instance, error) {
	return f(ctx, bg, params)
}

// Invoke calls the renderer, and checks its output.
// A panic inside the renderer is returned as an error, as is any instance that breaks
// the box/text cardinality rules. Surplus instances beyond params.Instances are dropped.
func Invoke(ctx context.Context, r Renderer, bg *align.Aligned, params Params) (instances []Instance, err error) {
	defer func() {
		if p := recover(); p != nil {
			instances = nil
			err = fmt.Errorf("%w: %v\n%s", ErrRendererPanic, p, debug.Stack())
		}
	}()

	instances, err = r.Render(ctx, bg, params)
	if err != nil {
		return nil, err
	}
	if params.Instances >= 0 && len(instances) > params.Instances {
		instances = instances[:params.Instances]
	}
	for i := range instances {
		if err := instances[i].Validate(); err != nil {
			return nil, fmt.Errorf("instance %v: %w", i, err)
		}
	}
	return instances, nil
}
