package clock

import (
	"testing"
	"time"
)

func TestVideoClockTicksAtTargetRate(t *testing.T) {
	c := NewVideoClock(100) // fast enough not to slow down the test suite
	defer c.Stop()

	const ticks = 5
	start := time.Now()
	for n := int64(1); n <= ticks; n++ {
		if _, ok := c.Next(n); !ok {
			t.Fatalf("tick %d: clock stopped unexpectedly", n)
		}
	}
	elapsed := time.Since(start)
	want := time.Duration(ticks) * (time.Second / 100)
	if elapsed < want-5*time.Millisecond {
		t.Errorf("ticked too fast: elapsed %v, want at least %v", elapsed, want)
	}
}

func TestStopUnblocksNext(t *testing.T) {
	c := New(time.Hour) // would never fire on its own within the test
	done := make(chan struct{})
	go func() {
		if _, ok := c.Next(1); ok {
			t.Error("expected Next to report not-ok after Stop")
		}
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	c.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not unblock Next")
	}
}

func TestDeadlinesDoNotAccumulateDrift(t *testing.T) {
	c := New(10 * time.Millisecond)
	defer c.Stop()

	// simulate the caller being slow on tick 1; tick 2's deadline must still
	// be start+2*interval, not (late wake time)+interval.
	if _, ok := c.Next(1); !ok {
		t.Fatal("tick 1 failed")
	}
	time.Sleep(25 * time.Millisecond) // blow past tick 2's deadline entirely

	before := time.Now()
	idx, ok := c.Next(2)
	if !ok || idx != 2 {
		t.Fatalf("tick 2: got idx=%d ok=%v", idx, ok)
	}
	if time.Since(before) > 2*time.Millisecond {
		t.Errorf("tick 2 should have returned immediately since its deadline already passed")
	}
}
