package perfstats

import (
	"fmt"
	"time"
)

// TimeAccumulator accumulates samples of how long something took,
// and keeps enough state to report a running mean, minimum and maximum.
type TimeAccumulator struct {
	Samples int64
	Total   time.Duration
	Min     time.Duration
	Max     time.Duration
}

func (a *TimeAccumulator) Reset() {
	*a = TimeAccumulator{}
}

func (a *TimeAccumulator) AddSample(v time.Duration) {
	if a.Samples == 0 || v < a.Min {
		a.Min = v
	}
	if v > a.Max {
		a.Max = v
	}
	a.Samples++
	a.Total += v
}

// Average returns the running mean, or zero if there are no samples
func (a *TimeAccumulator) Average() time.Duration {
	if a.Samples == 0 {
		return 0
	}
	return time.Duration(a.Total.Nanoseconds() / a.Samples)
}

// Seconds-based summary, suitable for progress lines
func (a *TimeAccumulator) String() string {
	if a.Samples == 0 {
		return "no samples"
	}
	return fmt.Sprintf("n=%v avg=%.2fs min=%.2fs max=%.2fs", a.Samples, a.Average().Seconds(), a.Min.Seconds(), a.Max.Seconds())
}
