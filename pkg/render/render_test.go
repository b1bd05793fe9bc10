package render

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/synthtext/pkg/align"
	"github.com/cyclopcam/synthtext/pkg/bgdata"
	"github.com/cyclopcam/synthtext/pkg/geom"
	"github.com/cyclopcam/synthtext/pkg/tempfiles"
	"github.com/stretchr/testify/require"
)

func box(x, y, w, h float32) geom.Quad {
	return geom.Quad{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
}

func makeAligned(name string, width, height int) *align.Aligned {
	img := cimg.NewImage(width, height, cimg.PixelFormatRGB)
	for i := range img.Pixels {
		img.Pixels[i] = byte(i * 7)
	}
	depth := bgdata.NewDepthMap(width, height, 1)
	for i := range depth.Data {
		depth.Data[i] = float32(i) * 0.5
	}
	seg := image.NewGray16(image.Rect(0, 0, width, height))
	for i := range seg.Pix {
		seg.Pix[i] = byte(i % 3)
	}
	return &align.Aligned{
		Name:  name,
		Image: img,
		Depth: depth,
		Seg:   seg,
		Area:  []int64{10, 20},
		Label: []int32{1, 2},
	}
}

// An instance with the words "ab" and "c d", so 4 characters
func makeInstance(bg *align.Aligned) Instance {
	return Instance{
		Image:  bg.Image.Clone(),
		CharBB: []geom.Quad{box(0, 0, 1, 1), box(1, 0, 1, 1), box(0, 2, 1, 1), box(2, 2, 1, 1)},
		WordBB: []geom.Quad{box(0, 0, 2, 1), box(0, 2, 3, 1)},
		Text:   []string{"ab", "c d"},
	}
}

func TestInstanceValidate(t *testing.T) {
	bg := makeAligned("bg", 8, 6)
	inst := makeInstance(bg)
	require.Equal(t, 4, inst.CharCount())
	require.NoError(t, inst.Validate())

	bad := inst
	bad.WordBB = bad.WordBB[:1]
	require.ErrorIs(t, bad.Validate(), ErrInvalidInstance)

	bad = inst
	bad.CharBB = bad.CharBB[:3]
	require.ErrorIs(t, bad.Validate(), ErrInvalidInstance)

	bad = inst
	bad.Image = nil
	require.ErrorIs(t, bad.Validate(), ErrInvalidInstance)

	// Packed RGB only. A 4 channel image would be unreadable once persisted.
	bad = inst
	bad.Image = cimg.NewImage(8, 6, cimg.PixelFormatRGBA)
	require.Equal(t, 4, bad.Image.NChan())
	require.ErrorIs(t, bad.Validate(), ErrInvalidInstance)

	// Japanese text has no spaces, but every rune still gets a box
	jp := Instance{
		Image:  inst.Image,
		CharBB: []geom.Quad{box(0, 0, 1, 1), box(1, 0, 1, 1), box(2, 0, 1, 1)},
		WordBB: []geom.Quad{box(0, 0, 3, 1)},
		Text:   []string{"日本語"},
	}
	require.NoError(t, jp.Validate())
}

func TestInvoke(t *testing.T) {
	bg := makeAligned("bg", 8, 6)
	params := Params{Instances: 2}

	// Surplus instances are dropped
	r := RendererFunc(func(ctx context.Context, bg *align.Aligned, params Params) ([]Instance, error) {
		return []Instance{makeInstance(bg), makeInstance(bg), makeInstance(bg)}, nil
	})
	out, err := Invoke(context.Background(), r, bg, params)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Zero instances is fine
	r = RendererFunc(func(ctx context.Context, bg *align.Aligned, params Params) ([]Instance, error) {
		return nil, nil
	})
	out, err = Invoke(context.Background(), r, bg, params)
	require.NoError(t, err)
	require.Len(t, out, 0)

	// Panics become errors
	r = RendererFunc(func(ctx context.Context, bg *align.Aligned, params Params) ([]Instance, error) {
		panic("no placement regions")
	})
	out, err = Invoke(context.Background(), r, bg, params)
	require.ErrorIs(t, err, ErrRendererPanic)
	require.Nil(t, out)

	// Broken instances are rejected
	r = RendererFunc(func(ctx context.Context, bg *align.Aligned, params Params) ([]Instance, error) {
		inst := makeInstance(bg)
		inst.Text = inst.Text[:1]
		return []Instance{inst}, nil
	})
	_, err = Invoke(context.Background(), r, bg, params)
	require.ErrorIs(t, err, ErrInvalidInstance)

	r = RendererFunc(func(ctx context.Context, bg *align.Aligned, params Params) ([]Instance, error) {
		inst := makeInstance(bg)
		inst.Image = cimg.NewImage(bg.Width(), bg.Height(), cimg.PixelFormatRGBA)
		return []Instance{inst}, nil
	})
	_, err = Invoke(context.Background(), r, bg, params)
	require.ErrorIs(t, err, ErrInvalidInstance)
}

func TestRequestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	bg := makeAligned("bg", 9, 5)
	require.NoError(t, WriteRequest(dir, bg, Params{Instances: 3, MaxTime: 1500 * time.Millisecond, Lang: "JPN"}))

	req, err := ReadRequest(dir)
	require.NoError(t, err)
	require.Equal(t, "bg", req.Name)
	require.Equal(t, 9, req.Width)
	require.Equal(t, 5, req.Height)
	require.Equal(t, 3, req.Instances)
	require.Equal(t, 1.5, req.MaxSeconds)
	require.Equal(t, "JPN", req.Lang)
	require.Equal(t, bg.Area, req.Area)
	require.Equal(t, bg.Label, req.Label)

	depth, err := ReadDepth(filepath.Join(dir, req.Depth), req.Width, req.Height)
	require.NoError(t, err)
	require.Equal(t, bg.Depth.Data, depth.Data)

	img, err := bgdata.LoadImage(dir, req.Image)
	require.NoError(t, err)
	require.Equal(t, bg.Image.Pixels, img.Pixels)
}

func TestReadResponseRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ResponseFile), []byte(`{"instances":[{"image":"../x.png"}]}`), 0644))
	_, err := ReadResponse(dir)
	require.Error(t, err)
}

// TestHelperRenderer is not a real test. It is the external renderer process for TestExecRenderer.
// It writes back one instance per requested instance, each with the background image and
// a single word.
func TestHelperRenderer(t *testing.T) {
	if os.Getenv("SYNTHTEXT_HELPER_RENDERER") != "1" {
		return
	}
	dir := os.Args[len(os.Args)-1]
	req, err := ReadRequest(dir)
	if err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(2)
	}
	if req.Name == "broken" {
		os.Stderr.WriteString("cannot render broken")
		os.Exit(3)
	}
	img, err := bgdata.LoadImage(dir, req.Image)
	if err != nil {
		os.Exit(2)
	}
	instances := []Instance{}
	for i := 0; i < req.Instances; i++ {
		instances = append(instances, Instance{
			Image:  img,
			CharBB: []geom.Quad{box(1, 1, 1, 1), box(2, 1, 1, 1)},
			WordBB: []geom.Quad{box(1, 1, 2, 1)},
			Text:   []string{"ok"},
		})
	}
	if err := WriteResponse(dir, instances); err != nil {
		os.Exit(2)
	}
	os.Exit(0)
}

func TestExecRenderer(t *testing.T) {
	log := logs.NewTestingLog(t)
	temp, err := tempfiles.NewTempDirs(filepath.Join(t.TempDir(), "render"), time.Hour)
	require.NoError(t, err)

	r := NewExecRenderer(log, temp, os.Args[0], "-test.run=^TestHelperRenderer$", "--")
	r.Env = []string{"SYNTHTEXT_HELPER_RENDERER=1"}

	bg := makeAligned("bg012", 12, 7)
	instances, err := Invoke(context.Background(), r, bg, Params{Instances: 3})
	require.NoError(t, err)
	require.Len(t, instances, 3)
	for _, inst := range instances {
		require.Equal(t, bg.Image.Pixels, inst.Image.Pixels)
		require.Equal(t, []string{"ok"}, inst.Text)
	}

	// Request directories are cleaned up
	left, _ := filepath.Glob(filepath.Join(temp.Root, "*"))
	require.Len(t, left, 0)

	// stderr is surfaced when the renderer fails
	_, err = Invoke(context.Background(), r, makeAligned("broken", 4, 4), Params{Instances: 1})
	require.ErrorContains(t, err, "cannot render broken")
}
