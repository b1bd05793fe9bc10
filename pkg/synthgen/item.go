package synthgen

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var ErrItemPanic = errors.New("panic while processing background image")

// ItemState is the progress of a single background image through the pipeline
type ItemState int

const (
	ItemPending   ItemState = iota // Not yet processed, or the sample is being loaded
	ItemAligned                    // Image and segmentation resampled to the depth grid
	ItemRendered                   // Renderer returned (possibly zero instances)
	ItemPersisted                  // Instances written to the dataset
	ItemFailed                     // Gave up. There is no retry.
)

func (s ItemState) String() string {
	switch s {
	case ItemPending:
		return "pending"
	case ItemAligned:
		return "aligned"
	case ItemRendered:
		return "rendered"
	case ItemPersisted:
		return "persisted"
	case ItemFailed:
		return "failed"
	}
	return fmt.Sprintf("ItemState(%d)", int(s))
}

// ItemResult is the outcome of processing one background image
type ItemResult struct {
	Index     int           // Position in the names list
	Name      string        // Background image name
	State     ItemState     // Final state
	Stage     ItemState     // If Failed, the last state that was reached before the failure
	Instances int           // Number of instances written to the dataset
	Elapsed   time.Duration // Wall time
	Err       error         // Populated if State is Failed
}

func (r *ItemResult) Failed() bool {
	return r.State == ItemFailed
}

// Summary of a run
type Summary struct {
	Attempted int           // Items that we started processing
	Persisted int           // Items that wrote one or more instances
	Empty     int           // Items where the renderer found no placements
	Failed    int           // Items that failed, and were skipped
	Instances int           // Total records written
	Aborted   bool          // Stopped early by the checkpoint, or by context cancellation
	MeanTime  time.Duration // Mean wall time of the items that did not fail
}

func (s *Summary) add(r *ItemResult) {
	s.Attempted++
	switch r.State {
	case ItemPersisted:
		s.Persisted++
		s.Instances += r.Instances
	case ItemFailed:
		s.Failed++
	default:
		s.Empty++
	}
}

type Decision int

const (
	Continue Decision = iota
	Abort
)

// Checkpoint is consulted between items. Returning Abort ends the run after the current item.
type Checkpoint func(result *ItemResult) Decision

// ConsoleCheckpoint asks an operator on the console whether to carry on.
// Any answer containing a 'q' aborts, as does end of input.
func ConsoleCheckpoint(r io.Reader, w io.Writer) Checkpoint {
	scanner := bufio.NewScanner(r)
	return func(result *ItemResult) Decision {
		if result.Failed() {
			fmt.Fprintf(w, "%v failed: %v\n", result.Name, result.Err)
		} else {
			fmt.Fprintf(w, "%v: %v instances\n", result.Name, result.Instances)
		}
		fmt.Fprintf(w, "Press enter to continue, or q to exit: ")
		if !scanner.Scan() {
			return Abort
		}
		if strings.ContainsAny(scanner.Text(), "qQ") {
			return Abort
		}
		return Continue
	}
}
