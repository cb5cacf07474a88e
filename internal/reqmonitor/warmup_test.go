package reqmonitor

import (
	"testing"
	"time"
)

func TestWarmupSuppressesUntilRequestCountThreshold(t *testing.T) {
	now := time.Now()
	w := newWarmup(3, 0, now)

	for i := 0; i < 3; i++ {
		if w.isWarmedUp(now) {
			t.Fatalf("call %d: expected warm-up still in progress", i)
		}
	}
	if !w.isWarmedUp(now.Add(time.Nanosecond)) {
		t.Fatalf("expected warm-up to complete once the count threshold is exceeded")
	}
}

func TestWarmupSuppressesUntilTimeThreshold(t *testing.T) {
	now := time.Now()
	w := newWarmup(0, time.Hour, now)

	if w.isWarmedUp(now) {
		t.Fatalf("expected warm-up still in progress before the duration elapses")
	}
	if !w.isWarmedUp(now.Add(2 * time.Hour)) {
		t.Fatalf("expected warm-up to complete once the duration elapses")
	}
}

func TestWarmupStaysTrueOnceComplete(t *testing.T) {
	now := time.Now()
	w := newWarmup(0, 0, now)

	if !w.isWarmedUp(now.Add(time.Second)) {
		t.Fatalf("expected immediate warm-up with zero thresholds")
	}
	if !w.isWarmedUp(time.Time{}) {
		t.Fatalf("expected warmedUp latch to stay true regardless of the time passed in later")
	}
}

func TestWarmupRequestCountTracksCalls(t *testing.T) {
	now := time.Now()
	w := newWarmup(100, time.Hour, now)

	for i := 1; i <= 5; i++ {
		w.isWarmedUp(now)
		if got := w.requestCount(); got != int64(i) {
			t.Fatalf("after %d calls, requestCount() = %d, want %d", i, got, i)
		}
	}
}
