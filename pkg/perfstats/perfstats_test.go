package perfstats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimeAccumulator(t *testing.T) {
	a := TimeAccumulator{}
	require.Equal(t, time.Duration(0), a.Average())
	require.Equal(t, "no samples", a.String())

	a.AddSample(2 * time.Second)
	a.AddSample(4 * time.Second)
	a.AddSample(3 * time.Second)
	require.Equal(t, int64(3), a.Samples)
	require.Equal(t, 3*time.Second, a.Average())
	require.Equal(t, 2*time.Second, a.Min)
	require.Equal(t, 4*time.Second, a.Max)
	require.Equal(t, "n=3 avg=3.00s min=2.00s max=4.00s", a.String())

	a.Reset()
	require.Equal(t, int64(0), a.Samples)
	a.AddSample(time.Second)
	require.Equal(t, time.Second, a.Min)
}
