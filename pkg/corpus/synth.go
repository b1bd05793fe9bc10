package corpus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/cyclopcam/logs"
	"golang.org/x/sync/errgroup"
)

var ErrUnwritable = errors.New("corpus destination is not writable")
var ErrBadOptions = errors.New("invalid corpus options")

// Options control the shape of generated corpus lines
type Options struct {
	Inventory Inventory // Characters to draw from. Nil means DefaultInventory.
	MinLength int       // Minimum line length in characters (inclusive)
	MaxLength int       // Maximum line length in characters (inclusive)
	Seed      uint64    // Zero picks a random seed
}

func DefaultOptions() Options {
	return Options{
		Inventory: NewInventory(DefaultInventory),
		MinLength: 10,
		MaxLength: 50,
	}
}

func (o *Options) validate() error {
	if len(o.Inventory) == 0 {
		o.Inventory = NewInventory(DefaultInventory)
	}
	if o.MinLength <= 0 || o.MaxLength < o.MinLength {
		return fmt.Errorf("%w: line length range [%v,%v]", ErrBadOptions, o.MinLength, o.MaxLength)
	}
	return nil
}

// GenerateLine draws one corpus line. The length is uniform in [MinLength, MaxLength],
// and every character is drawn uniformly, with replacement, from the inventory.
func GenerateLine(rng *rand.Rand, inv Inventory, minLength, maxLength int) string {
	n := minLength + rng.IntN(maxLength-minLength+1)
	b := strings.Builder{}
	b.Grow(n * 3)
	for i := 0; i < n; i++ {
		b.WriteRune(inv[rng.IntN(len(inv))])
	}
	return b.String()
}

// Stream generates n lines on 'workers' goroutines, and hands each line to sink in completion order.
// sink is only ever called from a single goroutine.
// Every worker owns its own random source, so no state is shared between draws.
func Stream(ctx context.Context, n, workers int, opts Options, sink func(line string) error) error {
	if n < 0 {
		return fmt.Errorf("%w: line count %v", ErrBadOptions, n)
	}
	if err := opts.validate(); err != nil {
		return err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = max(1, min(workers, n))
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	g, gctx := errgroup.WithContext(ctx)
	lines := make(chan string, workers*64)
	generators := sync.WaitGroup{}

	for i := 0; i < workers; i++ {
		quota := n / workers
		if i < n%workers {
			quota++
		}
		rng := rand.New(rand.NewPCG(seed, uint64(i)))
		generators.Add(1)
		g.Go(func() error {
			defer generators.Done()
			for j := 0; j < quota; j++ {
				line := GenerateLine(rng, opts.Inventory, opts.MinLength, opts.MaxLength)
				select {
				case lines <- line:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		generators.Wait()
		close(lines)
	}()

	g.Go(func() error {
		for line := range lines {
			if err := sink(line); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}

// Generate returns n lines in memory
func Generate(ctx context.Context, n, workers int, opts Options) ([]string, error) {
	all := make([]string, 0, max(n, 0))
	err := Stream(ctx, n, workers, opts, func(line string) error {
		all = append(all, line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// WriteCorpus generates n lines and writes them to 'path', one per line, newline terminated.
// The destination is opened before any work starts, so an unwritable path fails fast.
// If generation fails halfway, a partial file may be left behind, but an error is returned.
func WriteCorpus(ctx context.Context, log logs.Log, path string, n, workers int, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnwritable, err)
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, 1024*1024)
	written := 0
	nextReport := max(n/10, 1)
	log.Infof("Generating %v lines on %v workers into %v", n, workers, path)

	err = Stream(ctx, n, workers, opts, func(line string) error {
		if _, err := w.WriteString(line); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
		written++
		if written%nextReport == 0 {
			log.Infof("Generated %v / %v lines", written, n)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnwritable, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnwritable, err)
	}
	log.Infof("Dumped %v lines to %v", written, path)
	return nil
}
