package viz

import (
	"bytes"
	"os"
	"testing"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/synthtext/pkg/bgdata"
	"github.com/cyclopcam/synthtext/pkg/geom"
	"github.com/cyclopcam/synthtext/pkg/render"
	"github.com/stretchr/testify/require"
)

func makeInstance() render.Instance {
	img := cimg.NewImage(40, 30, cimg.PixelFormatRGB)
	// Solid blue, so that red and green lines are easy to find
	for i := 0; i < len(img.Pixels); i += 3 {
		img.Pixels[i+2] = 255
	}
	return render.Instance{
		Image:  img,
		CharBB: []geom.Quad{{{X: 5, Y: 5}, {X: 15, Y: 5}, {X: 15, Y: 15}, {X: 5, Y: 15}}},
		WordBB: []geom.Quad{{{X: 20, Y: 10}, {X: 35, Y: 10}, {X: 35, Y: 25}, {X: 20, Y: 25}}},
		Text:   []string{"a"},
	}
}

func TestDraw(t *testing.T) {
	inst := makeInstance()
	out := Draw(&inst, DefaultOptions()).Image()
	r, g, b, _ := out.At(10, 5).RGBA()
	require.Greater(t, r, g)
	require.Greater(t, r, b/2)
	r, g, _, _ = out.At(27, 10).RGBA()
	require.Greater(t, g, r)
	// Interior untouched
	r, g, b, _ = out.At(27, 17).RGBA()
	require.Equal(t, uint32(0), r)
	require.Equal(t, uint32(0), g)
	require.Equal(t, uint32(0xffff), b)
}

func TestSaveInstances(t *testing.T) {
	dir := t.TempDir()
	instances := []render.Instance{makeInstance(), makeInstance()}
	files, err := SaveInstances(dir, "bg003", instances, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, fn := range files {
		_, err := os.Stat(fn)
		require.NoError(t, err)
	}
	img, err := bgdata.LoadImage(dir, "bg003_1.png")
	require.NoError(t, err)
	require.Equal(t, 40, img.Width)
	require.Equal(t, 30, img.Height)
}

func TestWritePDF(t *testing.T) {
	a := makeInstance()
	b := makeInstance()
	buf := bytes.Buffer{}
	require.NoError(t, WritePDF(&buf, []Page{{Title: "bg_0", Instance: &a}, {Title: "bg_1", Instance: &b}}, DefaultOptions()))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	require.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("/Type /Page\n")))
}
