package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/synthtext/pkg/bgdata"
	"golang.org/x/sync/errgroup"
)

type item struct {
	name  string
	depth *bgdata.DepthMap
	seg   *bgdata.SegMap
}

func main() {
	parser := argparse.NewParser("bgimport", "Build the depth and segmentation stores from per-image files")
	imageDir := parser.String("i", "images", &argparse.Options{Help: "Directory of background images", Required: true})
	depthDir := parser.String("d", "depth-dir", &argparse.Options{Help: "Directory of depth images, one per background image, with the same base name", Required: true})
	segDir := parser.String("s", "seg-dir", &argparse.Options{Help: "Directory of label images, one per background image, with the same base name", Required: true})
	ext := parser.String("e", "ext", &argparse.Options{Help: "File extension of depth and label images", Default: ".png"})
	depthOut := parser.String("", "depth-out", &argparse.Options{Help: "Depth store to write", Default: "depth.sqlite"})
	segOut := parser.String("", "seg-out", &argparse.Options{Help: "Segmentation store to write", Default: "seg.sqlite"})
	namesOut := parser.String("", "names-out", &argparse.Options{Help: "Name list to write", Default: "imnames.json"})
	workers := parser.Int("w", "workers", &argparse.Options{Help: "Number of decoding threads", Default: runtime.NumCPU()})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		panic(err)
	}
	if err := run(logger, *imageDir, *depthDir, *segDir, *ext, *depthOut, *segOut, *namesOut, *workers); err != nil {
		logger.Criticalf("%v", err)
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}

func run(log logs.Log, imageDir, depthDir, segDir, ext, depthOut, segOut, namesOut string, workers int) error {
	entries, err := os.ReadDir(imageDir)
	if err != nil {
		return err
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	log.Infof("Found %v background images in %v", len(names), imageDir)

	depthStore, err := bgdata.OpenDepthStore(log, depthOut, bgdata.OpenOrCreate)
	if err != nil {
		return err
	}
	defer depthStore.Close()
	segStore, err := bgdata.OpenSegStore(log, segOut, bgdata.OpenOrCreate)
	if err != nil {
		return err
	}
	defer segStore.Close()

	// Decode in parallel, and write from a single goroutine, because SQLite has a single writer
	g, ctx := errgroup.WithContext(context.Background())
	decoded := make(chan item)
	imported := []string{}
	g.Go(func() error {
		for it := range decoded {
			if err := depthStore.Put(it.name, it.depth); err != nil {
				return err
			}
			if err := segStore.Put(it.name, it.seg); err != nil {
				return err
			}
			imported = append(imported, it.name)
		}
		return nil
	})

	decoders := errgroup.Group{}
	decoders.SetLimit(max(workers, 1))
	for _, name := range names {
		decoders.Go(func() error {
			base := strings.TrimSuffix(name, filepath.Ext(name))
			depth, err := bgdata.LoadDepthImage(filepath.Join(depthDir, base+ext))
			if err != nil {
				log.Warnf("Skipping %v: %v", name, err)
				return nil
			}
			seg, err := bgdata.LoadSegImage(filepath.Join(segDir, base+ext))
			if err != nil {
				log.Warnf("Skipping %v: %v", name, err)
				return nil
			}
			select {
			case decoded <- item{name: name, depth: depth, seg: seg}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	decodeErr := decoders.Wait()
	close(decoded)
	if err := g.Wait(); err != nil {
		return err
	}
	if decodeErr != nil {
		return decodeErr
	}

	if err := bgdata.SaveNames(namesOut, imported); err != nil {
		return err
	}
	log.Infof("Imported %v of %v images", len(imported), len(names))
	return nil
}
