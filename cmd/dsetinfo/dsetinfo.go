package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/akamensky/argparse"
	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/synthtext/pkg/dataset"
	"github.com/cyclopcam/synthtext/pkg/geom"
	"github.com/cyclopcam/synthtext/pkg/viz"
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	parser := argparse.NewParser("dsetinfo", "Inspect a synthetic text dataset")
	filename := parser.String("d", "dataset", &argparse.Options{Help: "Dataset file", Required: true})
	exportDir := parser.String("e", "export", &argparse.Options{Help: "Export every record as a JPEG, plus a PNG with boxes, into this directory"})
	overlaps := parser.Flag("", "overlaps", &argparse.Options{Help: "Report overlapping word boxes"})
	pdfFile := parser.String("p", "pdf", &argparse.Options{Help: "Write a PDF review sheet, with one page per record"})
	pdfLimit := parser.Int("", "pdf-limit", &argparse.Options{Help: "Maximum number of pages in the review sheet", Default: 200})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	check(err)
	defer logger.Close()

	d, err := dataset.Open(logger, *filename)
	if err != nil {
		logger.Criticalf("%v", err)
		logger.Close()
		os.Exit(1)
	}
	defer d.Close()

	runs, err := d.Runs()
	check(err)
	for _, r := range runs {
		fmt.Printf("Run %v started %v\n", r.UUID, r.Started.Get().Format(time.RFC3339))
	}

	keys, err := d.Keys(dataset.DataGroup)
	check(err)
	if *exportDir != "" {
		check(os.MkdirAll(*exportDir, 0755))
	}

	nWords, nChars, nInvalid, nOverlap := 0, 0, 0, 0
	pages := []viz.Page{}
	for _, key := range keys {
		inst, err := d.Get(dataset.DataGroup, key)
		if err != nil {
			logger.Errorf("%v: %v", key, err)
			nInvalid++
			continue
		}
		valid := true
		if err := inst.Validate(); err != nil {
			logger.Errorf("%v: %v", key, err)
			nInvalid++
			valid = false
		}
		for i, q := range inst.WordBB {
			if !q.IsFinite() || !q.Inside(inst.Image.Width, inst.Image.Height) {
				logger.Warnf("%v: word %v box lies outside the image", key, i)
			}
		}
		nWords += len(inst.WordBB)
		nChars += len(inst.CharBB)
		if *overlaps && valid {
			for _, pair := range geom.Overlaps(inst.WordBB) {
				fmt.Printf("%v: words %v (%q) and %v (%q) overlap\n", key, pair[0], inst.Text[pair[0]], pair[1], inst.Text[pair[1]])
				nOverlap++
			}
		}
		if *exportDir != "" {
			check(inst.Image.WriteJPEG(filepath.Join(*exportDir, key+".jpg"), cimg.MakeCompressParams(cimg.Sampling444, 95, 0), 0644))
			check(viz.Draw(inst, viz.DefaultOptions()).SavePNG(filepath.Join(*exportDir, key+"_boxes.png")))
		}
		if *pdfFile != "" && len(pages) < *pdfLimit {
			pages = append(pages, viz.Page{Title: key, Instance: inst})
		}
	}

	if *pdfFile != "" {
		f, err := os.Create(*pdfFile)
		check(err)
		check(viz.WritePDF(f, pages, viz.DefaultOptions()))
		check(f.Close())
		logger.Infof("Wrote %v pages to %v", len(pages), *pdfFile)
	}

	fmt.Printf("%v records, %v words, %v characters, %v invalid\n", len(keys), nWords, nChars, nInvalid)
	if *overlaps {
		fmt.Printf("%v overlapping word pairs\n", nOverlap)
	}
}
