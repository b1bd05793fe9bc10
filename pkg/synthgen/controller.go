// Package synthgen runs a generation pass over a list of background images: load, align,
// render and persist each one in turn, skipping any image that fails.
package synthgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/synthtext/pkg/align"
	"github.com/cyclopcam/synthtext/pkg/bgdata"
	"github.com/cyclopcam/synthtext/pkg/dataset"
	"github.com/cyclopcam/synthtext/pkg/logx"
	"github.com/cyclopcam/synthtext/pkg/perfstats"
	"github.com/cyclopcam/synthtext/pkg/render"
	"github.com/cyclopcam/synthtext/pkg/viz"
)

// SampleLoader loads a raw background sample by name
type SampleLoader interface {
	Load(name string) (*bgdata.Sample, error)
}

// Output receives the instances of each background image.
// It must write all of them or none of them.
type Output interface {
	AddInstances(bgName string, instances []render.Instance) error
}

// Resources are the collaborators of a Controller
type Resources struct {
	Names    []string // Background images, in processing order
	Samples  SampleLoader
	Output   Output
	Renderer render.Renderer
}

type Controller struct {
	// OnItem, if set, is called after every item
	OnItem func(result *ItemResult)

	log        logs.Log
	cfg        Config
	res        Resources
	checkpoint Checkpoint
	closers    []func() error // Released in reverse order by Close
	timing     perfstats.TimeAccumulator
}

// New creates a controller over resources that the caller owns.
// checkpoint may be nil.
func New(log logs.Log, cfg Config, res Resources, checkpoint Checkpoint) *Controller {
	return &Controller{
		log:        logx.NewPrefixLogger(log, "SynthGen"),
		cfg:        cfg,
		res:        res,
		checkpoint: checkpoint,
	}
}

// Open acquires the depth store, the segmentation store, and the output dataset, as
// described by cfg. Failure to open any of them is fatal, and whatever was already
// opened is released before returning.
// The returned controller owns the stores, so you must call Close.
func Open(log logs.Log, cfg Config, renderer render.Renderer, checkpoint Checkpoint) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := New(log, cfg, Resources{Renderer: renderer}, checkpoint)
	if err := c.open(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Controller) open() error {
	depth, err := bgdata.OpenDepthStore(c.log, c.cfg.DepthFile, bgdata.OpenExisting)
	if err != nil {
		return err
	}
	c.closers = append(c.closers, depth.Close)

	seg, err := bgdata.OpenSegStore(c.log, c.cfg.SegFile, bgdata.OpenExisting)
	if err != nil {
		return err
	}
	c.closers = append(c.closers, seg.Close)

	// The persisted name list is the source of truth. We only fall back to the depth
	// store's listing when there is no list.
	var names []string
	if c.cfg.NamesFile != "" {
		names, err = bgdata.LoadNames(c.cfg.NamesFile)
	} else {
		names, err = depth.Names()
	}
	if err != nil {
		return fmt.Errorf("Failed to read background names: %w", err)
	}

	if c.cfg.Viz && c.cfg.OutputDir != "" {
		if err := os.MkdirAll(c.cfg.OutputDir, 0770); err != nil {
			return fmt.Errorf("Failed to create output directory '%v': %w", c.cfg.OutputDir, err)
		}
	}

	out, err := dataset.Create(c.log, c.cfg.OutputFile, dataset.Options{JPEGQuality: c.cfg.JPEGQuality}, &c.cfg)
	if err != nil {
		return err
	}
	c.closers = append(c.closers, out.Close)

	c.res.Names = names
	c.res.Samples = &bgdata.Source{ImageDir: c.cfg.ImageDir, Depth: depth, Seg: seg}
	c.res.Output = out
	return nil
}

// Close releases everything acquired by Open. It is safe to call more than once.
func (c *Controller) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// Run processes the configured slice of the names list.
// Failures of individual items are logged and counted in the summary, but never returned.
// An error is only returned if the run could not start.
// Run returns early if the checkpoint asks to abort, or if ctx is cancelled.
func (c *Controller) Run(ctx context.Context) (*Summary, error) {
	if c.res.Samples == nil || c.res.Output == nil || c.res.Renderer == nil {
		return nil, errors.New("controller is missing a sample loader, output, or renderer")
	}
	c.timing.Reset()
	start, end := c.cfg.Slice(len(c.res.Names))
	c.log.Infof("Processing background images %v to %v, of %v", start, end, len(c.res.Names))

	summary := &Summary{}
	for i := start; i < end; i++ {
		if ctx.Err() != nil {
			c.log.Warnf("Cancelled before %v", c.res.Names[i])
			summary.Aborted = true
			break
		}
		result, instances := c.processItem(ctx, i, c.res.Names[i])
		summary.add(result)
		c.report(result, i-start+1, end-start)
		if c.OnItem != nil {
			c.OnItem(result)
		}
		if c.cfg.Viz && len(instances) != 0 {
			c.saveViz(result.Name, instances)
		}
		if c.checkpoint != nil && c.checkpoint(result) == Abort {
			c.log.Infof("Aborted by operator after %v", result.Name)
			summary.Aborted = true
			break
		}
	}
	summary.MeanTime = c.timing.Average()
	c.log.Infof("Done. %v attempted, %v persisted, %v empty, %v failed, %v instances. Timing: %v",
		summary.Attempted, summary.Persisted, summary.Empty, summary.Failed, summary.Instances, c.timing.String())
	return summary, nil
}

// processItem never panics, and never returns an error. Everything is in the result.
// The instances are only returned if they were persisted.
func (c *Controller) processItem(ctx context.Context, index int, name string) (result *ItemResult, persisted []render.Instance) {
	start := time.Now()
	result = &ItemResult{Index: index, Name: name, State: ItemPending}
	fail := func(err error) {
		result.Stage = result.State
		result.State = ItemFailed
		result.Err = err
		result.Instances = 0
		persisted = nil
	}
	defer func() {
		if p := recover(); p != nil {
			fail(fmt.Errorf("%w %v: %v\n%s", ErrItemPanic, name, p, debug.Stack()))
		}
		result.Elapsed = time.Since(start)
		if result.State != ItemFailed {
			c.timing.AddSample(result.Elapsed)
		}
	}()

	sample, err := c.res.Samples.Load(name)
	if err != nil {
		fail(fmt.Errorf("load: %w", err))
		return
	}

	aligned, err := align.Align(sample, align.Options{
		DepthChannel: c.cfg.DepthChannel,
		ImageFilter:  align.DefaultOptions().ImageFilter,
	})
	if err != nil {
		fail(fmt.Errorf("align: %w", err))
		return
	}
	result.State = ItemAligned

	instances, err := render.Invoke(ctx, c.res.Renderer, aligned, render.Params{
		Instances: c.cfg.InstancesPerImage,
		MaxTime:   c.cfg.MaxTime(),
		Viz:       c.cfg.Viz,
		Lang:      c.cfg.Lang,
	})
	if err != nil {
		fail(fmt.Errorf("render: %w", err))
		return
	}
	result.State = ItemRendered
	if len(instances) == 0 {
		return
	}

	if err := c.res.Output.AddInstances(name, instances); err != nil {
		fail(fmt.Errorf("persist: %w", err))
		return
	}
	result.State = ItemPersisted
	result.Instances = len(instances)
	persisted = instances
	return
}

func (c *Controller) report(r *ItemResult, n, total int) {
	if r.Failed() {
		c.log.Errorf("%v/%v %v failed after %v: %v", n, total, r.Name, r.Stage, r.Err)
		return
	}
	c.log.Infof("%v/%v %v: %v instances in %.2f seconds (mean %.2f)", n, total, r.Name, r.Instances, r.Elapsed.Seconds(), c.timing.Average().Seconds())
}

func (c *Controller) saveViz(name string, instances []render.Instance) {
	files, err := viz.SaveInstances(c.cfg.OutputDir, name, instances, viz.DefaultOptions())
	if err != nil {
		c.log.Warnf("Failed to save visualization of %v: %v", name, err)
		return
	}
	for _, fn := range files {
		c.log.Infof("Saved %v", fn)
	}
}
