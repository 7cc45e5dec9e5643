package resolver

import (
	"fmt"
	"sync/atomic"

	"github.com/vivliostyle/viola-savepdf/internal/clock"
)

// stagingSeq is the process-wide sequence behind staging prefixes. It is
// seeded from the clock and strictly increases, so concurrent resolutions
// never stage files at the same path.
var stagingSeq atomic.Int64

// nextStagingSeq returns a sequence value that is at least the current
// clock reading in milliseconds and strictly greater than every value
// returned before it.
func nextStagingSeq(clk clock.Clock) int64 {
	now := clk.Now().UnixMilli()
	for {
		last := stagingSeq.Load()
		id := now
		if id <= last {
			id = last + 1
		}
		if stagingSeq.CompareAndSwap(last, id) {
			return id
		}
	}
}

// stagingPrefix returns the filename prefix for one resolution run's
// temporary staging files.
func stagingPrefix(clk clock.Clock) string {
	return fmt.Sprintf(".viola-%d.", nextStagingSeq(clk))
}
