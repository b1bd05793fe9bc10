package render

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/synthtext/pkg/align"
	"github.com/cyclopcam/synthtext/pkg/bgdata"
	"github.com/cyclopcam/synthtext/pkg/geom"
	"github.com/cyclopcam/synthtext/pkg/logx"
	"github.com/cyclopcam/synthtext/pkg/shell"
	"github.com/cyclopcam/synthtext/pkg/tempfiles"
)

// Filenames inside a request directory
const (
	RequestFile  = "request.json"
	ResponseFile = "response.json"
	ImageFile    = "image.png"
	DepthFile    = "depth.f32"
	SegFile      = "seg.png"
)

// Request is written to RequestFile, for the external renderer to read
type Request struct {
	Name       string  `json:"name"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Image      string  `json:"image"` // 8-bit RGB PNG
	Depth      string  `json:"depth"` // Raw little endian float32, row major
	Seg        string  `json:"seg"`   // 16-bit gray PNG of region ids
	Area       []int64 `json:"area"`
	Label      []int32 `json:"label"`
	Instances  int     `json:"instances"`
	MaxSeconds float64 `json:"maxSeconds,omitempty"`
	Viz        bool    `json:"viz,omitempty"`
	Lang       string  `json:"lang,omitempty"`
	Response   string  `json:"response"`
}

// Response is written by the external renderer to ResponseFile
type Response struct {
	Instances []ResponseInstance `json:"instances"`
}

type ResponseInstance struct {
	Image  string      `json:"image"` // Relative to the request directory
	CharBB []geom.Quad `json:"charBB"`
	WordBB []geom.Quad `json:"wordBB"`
	Text   []string    `json:"txt"`
}

// ExecRenderer runs an external program for every image.
// The program is invoked as Command Args... <request directory>.
// It must read RequestFile from that directory, and write ResponseFile (and the
// instance images that the response refers to) into the same directory.
type ExecRenderer struct {
	Command   string
	Args      []string
	Env       []string      // Extra environment variables, in KEY=VALUE form
	KillAfter time.Duration // Hard limit on the process lifetime, on top of MaxTime. Zero means no limit.

	log  logs.Log
	temp *tempfiles.TempDirs
}

func NewExecRenderer(log logs.Log, temp *tempfiles.TempDirs, command string, args ...string) *ExecRenderer {
	return &ExecRenderer{
		Command: command,
		Args:    args,
		log:     logx.NewPrefixLogger(log, "Renderer"),
		temp:    temp,
	}
}

func (r *ExecRenderer) Render(ctx context.Context, bg *align.Aligned, params Params) ([]Instance, error) {
	dir, err := r.temp.Get()
	if err != nil {
		return nil, err
	}
	defer r.temp.Release(dir)

	if err := WriteRequest(dir, bg, params); err != nil {
		return nil, fmt.Errorf("Failed to write render request: %w", err)
	}

	if params.MaxTime > 0 && r.KillAfter > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.MaxTime+r.KillAfter)
		defer cancel()
	}

	start := time.Now()
	args := append(append([]string{}, r.Args...), dir)
	out, err := shell.RunContextEnv(ctx, "", r.Env, r.Command, args...)
	if err != nil {
		return nil, fmt.Errorf("Renderer failed on %v: %w", bg.Name, err)
	}
	if out != "" {
		r.log.Debugf("%v: %v", bg.Name, out)
	}
	r.log.Debugf("%v rendered in %.2f seconds", bg.Name, time.Since(start).Seconds())

	return ReadResponse(dir)
}

// WriteRequest writes the aligned background and the render parameters into dir
func WriteRequest(dir string, bg *align.Aligned, params Params) error {
	if err := writePNG(filepath.Join(dir, ImageFile), bgdata.RGBToImage(bg.Image)); err != nil {
		return err
	}
	if err := writePNG(filepath.Join(dir, SegFile), bg.Seg); err != nil {
		return err
	}
	if err := writeFloat32(filepath.Join(dir, DepthFile), bg.Depth.Data); err != nil {
		return err
	}
	req := Request{
		Name:       bg.Name,
		Width:      bg.Width(),
		Height:     bg.Height(),
		Image:      ImageFile,
		Depth:      DepthFile,
		Seg:        SegFile,
		Area:       bg.Area,
		Label:      bg.Label,
		Instances:  params.Instances,
		MaxSeconds: params.MaxTime.Seconds(),
		Viz:        params.Viz,
		Lang:       params.Lang,
		Response:   ResponseFile,
	}
	return writeJSON(filepath.Join(dir, RequestFile), &req)
}

// ReadRequest is the renderer side of WriteRequest
func ReadRequest(dir string) (*Request, error) {
	raw, err := os.ReadFile(filepath.Join(dir, RequestFile))
	if err != nil {
		return nil, err
	}
	req := Request{}
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("Failed to decode %v: %w", RequestFile, err)
	}
	return &req, nil
}

// ReadResponse reads the renderer output from dir
func ReadResponse(dir string) ([]Instance, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ResponseFile))
	if err != nil {
		return nil, fmt.Errorf("Renderer produced no response: %w", err)
	}
	resp := Response{}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("Failed to decode %v: %w", ResponseFile, err)
	}
	instances := make([]Instance, 0, len(resp.Instances))
	for i, ri := range resp.Instances {
		if !filepath.IsLocal(ri.Image) {
			return nil, fmt.Errorf("Instance %v image '%v' is outside of the request directory", i, ri.Image)
		}
		img, err := bgdata.LoadImage(dir, ri.Image)
		if err != nil {
			return nil, err
		}
		instances = append(instances, Instance{
			Image:  img,
			CharBB: ri.CharBB,
			WordBB: ri.WordBB,
			Text:   ri.Text,
		})
	}
	return instances, nil
}

// WriteResponse is the renderer side of ReadResponse.
// Instance images are saved as PNG files next to the response.
func WriteResponse(dir string, instances []Instance) error {
	resp := Response{Instances: []ResponseInstance{}}
	for i, inst := range instances {
		name := fmt.Sprintf("instance-%d.png", i)
		if err := writePNG(filepath.Join(dir, name), bgdata.RGBToImage(inst.Image)); err != nil {
			return err
		}
		resp.Instances = append(resp.Instances, ResponseInstance{
			Image:  name,
			CharBB: inst.CharBB,
			WordBB: inst.WordBB,
			Text:   inst.Text,
		})
	}
	return writeJSON(filepath.Join(dir, ResponseFile), &resp)
}

// ReadDepth reads a depth file written by WriteRequest
func ReadDepth(filename string, width, height int) (*bgdata.DepthMap, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d := bgdata.NewDepthMap(width, height, 1)
	if err := binary.Read(bufio.NewReader(f), binary.LittleEndian, d.Data); err != nil {
		return nil, fmt.Errorf("Failed to read depth %v: %w", filename, err)
	}
	return d, nil
}

func writePNG(filename string, img image.Image) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeFloat32(filename string, data []float32) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, data); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(filename string, v any) error {
	raw, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, raw, 0644)
}
