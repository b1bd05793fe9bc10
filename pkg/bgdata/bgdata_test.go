package bgdata

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func TestDepthChannel(t *testing.T) {
	d := NewDepthMap(3, 2, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			d.Set(x, y, 0, float32(x+y*10))
			d.Set(x, y, 1, float32(-(x + y*10)))
		}
	}
	require.NoError(t, d.Validate())
	c1, err := d.Channel(1)
	require.NoError(t, err)
	require.Equal(t, 1, c1.Channels)
	require.Equal(t, float32(-12), c1.At(2, 1, 0))
	_, err = d.Channel(2)
	require.Error(t, err)

	bad := &DepthMap{Width: 2, Height: 2, Channels: 1, Data: make([]float32, 3)}
	require.ErrorIs(t, bad.Validate(), ErrBadDimensions)
}

func TestSegFromMask(t *testing.T) {
	mask := image.NewGray16(image.Rect(0, 0, 4, 2))
	mask.SetGray16(0, 0, color.Gray16{Y: 7})
	mask.SetGray16(1, 0, color.Gray16{Y: 7})
	mask.SetGray16(2, 1, color.Gray16{Y: 300})
	seg := SegFromMask(mask)
	require.Equal(t, []int32{0, 7, 300}, seg.Label)
	require.Equal(t, []int64{5, 2, 1}, seg.Area)
	require.Equal(t, 4, seg.Width())
	require.Equal(t, 2, seg.Height())
}

func TestStores(t *testing.T) {
	dir := t.TempDir()
	log := logs.NewTestingLog(t)

	_, err := OpenDepthStore(log, filepath.Join(dir, "missing.sqlite"), OpenExisting)
	require.Error(t, err)

	depthFile := filepath.Join(dir, "depth.sqlite")
	depthStore, err := OpenDepthStore(log, depthFile, OpenOrCreate)
	require.NoError(t, err)
	d := NewDepthMap(4, 3, 2)
	for i := range d.Data {
		d.Data[i] = float32(i) * 0.5
	}
	require.NoError(t, depthStore.Put("b.jpg", d))
	require.NoError(t, depthStore.Put("a.jpg", d))
	require.NoError(t, depthStore.Put("a.jpg", d)) // replace
	names, err := depthStore.Names()
	require.NoError(t, err)
	require.Equal(t, []string{"a.jpg", "b.jpg"}, names)
	got, err := depthStore.Get("a.jpg")
	require.NoError(t, err)
	require.Equal(t, d, got)
	_, err = depthStore.Get("nope.jpg")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, depthStore.Close())

	// Reopen as an input store
	depthStore, err = OpenDepthStore(log, depthFile, OpenExisting)
	require.NoError(t, err)
	got, err = depthStore.Get("b.jpg")
	require.NoError(t, err)
	require.Equal(t, d.Data, got.Data)
	require.NoError(t, depthStore.Close())

	segStore, err := OpenSegStore(log, filepath.Join(dir, "seg.sqlite"), OpenOrCreate)
	require.NoError(t, err)
	mask := image.NewGray16(image.Rect(0, 0, 4, 3))
	mask.SetGray16(3, 2, color.Gray16{Y: 1000})
	seg := SegFromMask(mask)
	require.NoError(t, segStore.Put("a.jpg", seg))
	gotSeg, err := segStore.Get("a.jpg")
	require.NoError(t, err)
	require.Equal(t, seg.Label, gotSeg.Label)
	require.Equal(t, seg.Area, gotSeg.Area)
	require.Equal(t, mask.Pix, gotSeg.Mask.Pix)
	require.Equal(t, uint16(1000), gotSeg.Mask.Gray16At(3, 2).Y)
	_, err = segStore.Get("nope.jpg")
	require.ErrorIs(t, err, ErrNotFound)

	require.Error(t, segStore.Put("bad", &SegMap{Mask: mask, Area: []int64{1}}))
	require.NoError(t, segStore.Close())
}

func TestNames(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "imnames.json")
	require.NoError(t, os.WriteFile(filename, []byte(`["c.jpg","a.jpg","c.jpg","","b.jpg","a.jpg"]`), 0644))
	names, err := LoadNames(filename)
	require.NoError(t, err)
	require.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, names)

	require.NoError(t, SaveNames(filename, []string{"z", "y", "z"}))
	names, err = LoadNames(filename)
	require.NoError(t, err)
	require.Equal(t, []string{"y", "z"}, names)
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	src := image.NewNRGBA(image.Rect(0, 0, 5, 4))
	src.Set(1, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	f, err := os.Create(filepath.Join(dir, "bg.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, src))
	require.NoError(t, f.Close())

	img, err := LoadImage(dir, "bg.png")
	require.NoError(t, err)
	require.Equal(t, 5, img.Width)
	require.Equal(t, 4, img.Height)
	p := img.Pixels[2*img.Stride+1*3:]
	require.Equal(t, []byte{10, 20, 30}, p[:3])

	rgba := RGBToImage(img)
	require.Equal(t, color.RGBA{10, 20, 30, 255}, rgba.RGBAAt(1, 2))

	_, err = LoadImage(dir, "missing.png")
	require.Error(t, err)
}

func TestImageToGray16(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 2, 2))
	g.SetGray(1, 1, color.Gray{Y: 9})
	m := ImageToGray16(g)
	require.Equal(t, uint16(9), m.Gray16At(1, 1).Y)

	g16 := image.NewGray16(image.Rect(0, 0, 2, 2))
	g16.SetGray16(0, 1, color.Gray16{Y: 4000})
	m = ImageToGray16(g16)
	require.Equal(t, uint16(4000), m.Gray16At(0, 1).Y)
}

func TestSourceLoad(t *testing.T) {
	dir := t.TempDir()
	log := logs.NewTestingLog(t)
	src := image.NewRGBA(image.Rect(0, 0, 8, 6))
	f, err := os.Create(filepath.Join(dir, "bg.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, src))
	require.NoError(t, f.Close())

	depthStore, err := OpenDepthStore(log, filepath.Join(dir, "depth.sqlite"), OpenOrCreate)
	require.NoError(t, err)
	defer depthStore.Close()
	segStore, err := OpenSegStore(log, filepath.Join(dir, "seg.sqlite"), OpenOrCreate)
	require.NoError(t, err)
	defer segStore.Close()

	require.NoError(t, depthStore.Put("bg.png", NewDepthMap(4, 3, 2)))
	require.NoError(t, segStore.Put("bg.png", SegFromMask(image.NewGray16(image.Rect(0, 0, 2, 1)))))

	source := &Source{ImageDir: dir, Depth: depthStore, Seg: segStore}
	sample, err := source.Load("bg.png")
	require.NoError(t, err)
	require.Equal(t, "bg.png", sample.Name)
	require.Equal(t, 8, sample.Image.Width)
	require.Equal(t, 4, sample.Depth.Width)
	require.Equal(t, 2, sample.Seg.Width())

	_, err = source.Load("other.png")
	require.Error(t, err)
}

func writePNG(t *testing.T, filename string, img image.Image) {
	f, err := os.Create(filename)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestDepthFromImage(t *testing.T) {
	dir := t.TempDir()

	g16 := image.NewGray16(image.Rect(0, 0, 4, 3))
	g16.SetGray16(2, 1, color.Gray16{Y: 40000})
	writePNG(t, filepath.Join(dir, "d16.png"), g16)
	d, err := LoadDepthImage(filepath.Join(dir, "d16.png"))
	require.NoError(t, err)
	require.Equal(t, 1, d.Channels)
	require.Equal(t, float32(40000), d.At(2, 1, 0))

	g8 := image.NewGray(image.Rect(0, 0, 4, 3))
	g8.SetGray(3, 2, color.Gray{Y: 200})
	d = DepthFromImage(g8)
	require.Equal(t, float32(200), d.At(3, 2, 0))

	rgb := image.NewRGBA(image.Rect(0, 0, 2, 2))
	rgb.Set(1, 1, color.RGBA{10, 20, 30, 255})
	d = DepthFromImage(rgb)
	require.Equal(t, 3, d.Channels)
	require.Equal(t, float32(10), d.At(1, 1, 0))
	require.Equal(t, float32(20), d.At(1, 1, 1))
	require.Equal(t, float32(30), d.At(1, 1, 2))
}

func TestLoadSegImage(t *testing.T) {
	dir := t.TempDir()
	mask := image.NewGray(image.Rect(0, 0, 3, 2))
	mask.SetGray(0, 0, color.Gray{Y: 7})
	mask.SetGray(1, 0, color.Gray{Y: 7})
	writePNG(t, filepath.Join(dir, "seg.png"), mask)
	seg, err := LoadSegImage(filepath.Join(dir, "seg.png"))
	require.NoError(t, err)
	require.Equal(t, []int32{0, 7}, seg.Label)
	require.Equal(t, []int64{4, 2}, seg.Area)
}
