package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/synthtext/pkg/corpus"
)

func main() {
	parser := argparse.NewParser("gencorpus", "Generate a corpus of random multi-script text lines")
	output := parser.String("o", "output", &argparse.Options{Help: "Output text file", Required: true})
	numLines := parser.Int("n", "lines", &argparse.Options{Help: "Number of lines to generate", Default: 1000000})
	workers := parser.Int("w", "workers", &argparse.Options{Help: "Number of worker threads", Default: runtime.NumCPU()})
	seed := parser.Int("", "seed", &argparse.Options{Help: "Random seed. 0 = random", Default: 0})
	minLength := parser.Int("", "minlen", &argparse.Options{Help: "Minimum line length", Default: 10})
	maxLength := parser.Int("", "maxlen", &argparse.Options{Help: "Maximum line length", Default: 50})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	seedValue, err := parseSeed(*seed)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		panic(err)
	}
	defer logger.Close()

	opts := corpus.DefaultOptions()
	opts.Seed = seedValue
	opts.MinLength = *minLength
	opts.MaxLength = *maxLength

	if err := corpus.WriteCorpus(context.Background(), logger, *output, *numLines, *workers, opts); err != nil {
		logger.Criticalf("%v", err)
		logger.Close()
		os.Exit(1)
	}
}

var errNegativeSeed = errors.New("--seed must not be negative")

func parseSeed(seed int) (uint64, error) {
	if seed < 0 {
		return 0, errNegativeSeed
	}
	return uint64(seed), nil
}
