package synthgen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RendererConfig describes the external renderer program
type RendererConfig struct {
	Command       string   `json:"command" yaml:"command"`             // Program to run for every image
	Args          []string `json:"args" yaml:"args"`                   // Arguments before the request directory
	KillAfterSecs float64  `json:"killAfterSecs" yaml:"killAfterSecs"` // Hard kill this long after the per-image budget. Zero disables.
}

// Config for one generation run
type Config struct {
	ImageDir          string         `json:"imageDir" yaml:"imageDir"`                   // Directory of background images
	DepthFile         string         `json:"depthFile" yaml:"depthFile"`                 // Depth map store
	SegFile           string         `json:"segFile" yaml:"segFile"`                     // Segmentation store
	NamesFile         string         `json:"namesFile" yaml:"namesFile"`                 // JSON list of background names. If empty, all names in the depth store are used.
	OutputFile        string         `json:"outputFile" yaml:"outputFile"`               // Dataset that we create
	OutputDir         string         `json:"outputDir" yaml:"outputDir"`                 // Visualizations are written here
	TempDir           string         `json:"tempDir" yaml:"tempDir"`                     // Scratch space for renderer requests
	InstancesPerImage int            `json:"instancesPerImage" yaml:"instancesPerImage"` // Number of instances to ask the renderer for
	Start             int            `json:"start" yaml:"start"`                         // Index of the first background image
	NumImages         int            `json:"numImages" yaml:"numImages"`                 // -1 = all
	SecsPerImage      float64        `json:"secsPerImage" yaml:"secsPerImage"`           // Renderer time budget per image. Zero = unbounded.
	DepthChannel      int            `json:"depthChannel" yaml:"depthChannel"`           // Which depth estimate to use
	Lang              string         `json:"lang" yaml:"lang"`                           // Passed through to the renderer
	Viz               bool           `json:"viz" yaml:"viz"`                             // Write out visualizations of every image, and ask the renderer for its own
	JPEGQuality       int            `json:"jpegQuality" yaml:"jpegQuality"`             // Store dataset images as JPEG. Zero = raw RGB.
	Renderer          RendererConfig `json:"renderer" yaml:"renderer"`
}

func DefaultConfig() Config {
	return Config{
		ImageDir:          "data/bg_img",
		DepthFile:         "data/depth.sqlite",
		SegFile:           "data/seg.sqlite",
		NamesFile:         "data/imnames.json",
		OutputFile:        "results/synthtext.sqlite",
		OutputDir:         "results",
		TempDir:           filepath.Join(os.TempDir(), "synthtext"),
		InstancesPerImage: 5,
		NumImages:         -1,
		Lang:              "JPN",
	}
}

// LoadConfig reads a JSON or YAML config file (chosen by extension).
// Fields that are missing from the file keep their default values.
func LoadConfig(filename string) (*Config, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("Error loading %v: %w", filename, err)
	}
	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("Error loading as YAML %v: %w", filename, err)
		}
	default:
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("Error loading as JSON %v: %w", filename, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Invalid config %v: %w", filename, err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.InstancesPerImage < 1 {
		return fmt.Errorf("instancesPerImage must be at least 1")
	}
	if c.Start < 0 {
		return fmt.Errorf("start may not be negative")
	}
	if c.NumImages < -1 {
		return fmt.Errorf("numImages must be -1 (all) or a count")
	}
	if c.SecsPerImage < 0 || c.Renderer.KillAfterSecs < 0 {
		return fmt.Errorf("time limits may not be negative")
	}
	if c.DepthChannel < 0 {
		return fmt.Errorf("depthChannel may not be negative")
	}
	return nil
}

// MaxTime is the renderer budget per image
func (c *Config) MaxTime() time.Duration {
	return time.Duration(c.SecsPerImage * float64(time.Second))
}

// Slice returns the half open range [start, end) of the names list that this run processes
func (c *Config) Slice(numNames int) (start, end int) {
	start = min(c.Start, numNames)
	end = numNames
	if c.NumImages >= 0 {
		end = min(start+c.NumImages, numNames)
	}
	return
}
