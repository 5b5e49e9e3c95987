package bridge

import (
	"context"
	"testing"
	"time"
)

func TestBackoffSeqDoublesUpToMax(t *testing.T) {
	next := backoffSeq(100*time.Millisecond, 500*time.Millisecond)
	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		500 * time.Millisecond,
		500 * time.Millisecond,
	}
	for i, w := range want {
		if got := next(); got != w {
			t.Errorf("call %d: got %v, want %v", i, got, w)
		}
	}
}

func TestBackoffSeqAppliesFloorsAndMinGreaterThanMax(t *testing.T) {
	next := backoffSeq(0, 0)
	if got := next(); got != 100*time.Millisecond {
		t.Errorf("zero min floors to 100ms, got %v", got)
	}

	next2 := backoffSeq(time.Second, 100*time.Millisecond)
	if got := next2(); got != time.Second {
		t.Errorf("max below min clamps to min, got %v", got)
	}
}

func TestSleepReturnsTrueOnTimerFire(t *testing.T) {
	if !sleep(context.Background(), time.Millisecond) {
		t.Error("sleep returned false, want true")
	}
}

func TestSleepReturnsFalseOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if sleep(ctx, time.Hour) {
		t.Error("sleep returned true after context cancellation, want false")
	}
}
