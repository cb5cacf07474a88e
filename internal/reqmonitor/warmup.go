package reqmonitor

import (
	"sync/atomic"
	"time"
)

// warmup tracks the initial period during which requests are not
// measured, to exclude JIT/cache cold-start skew (spec §3, §4.D).
//
// isWarmedUp increments noOfRequests as a side effect of being checked.
// noOfRequests does not decide firstRequest: Monitor keeps its own
// requestCounter for that, incremented atomically, so exactly one
// request is marked as the first.
type warmup struct {
	warmupRequests int64
	warmedUp       atomic.Bool
	noOfRequests   atomic.Int64
	endOfWarmup    time.Time
}

func newWarmup(warmupRequests int64, warmupDuration time.Duration, now time.Time) *warmup {
	return &warmup{
		warmupRequests: warmupRequests,
		endOfWarmup:    now.Add(warmupDuration),
	}
}

// isWarmedUp reports whether both the request-count threshold and the
// time deadline have passed. Once true, it stays true; the call
// itself is what advances noOfRequests.
func (w *warmup) isWarmedUp(now time.Time) bool {
	if w.warmedUp.Load() {
		return true
	}
	n := w.noOfRequests.Add(1)
	done := n > w.warmupRequests && now.After(w.endOfWarmup)
	if done {
		w.warmedUp.Store(true)
	}
	return done
}

// requestCount returns the number of times isWarmedUp has been
// invoked. Not a reliable request total (spec §4.D warm-up note): it
// keeps incrementing only on the path that calls isWarmedUp.
func (w *warmup) requestCount() int64 {
	return w.noOfRequests.Load()
}
