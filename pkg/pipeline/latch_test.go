package pipeline

import (
	"sync"
	"testing"
	"time"
)

func TestLatchDepthNeverExceedsOne(t *testing.T) {
	l := NewLatch[int]()
	for i := 0; i < 1000; i++ {
		l.Set(i)
		if d := l.Pending(); d > 1 {
			t.Fatalf("pending depth %d after %d sets", d, i+1)
		}
	}
	v, ok := l.TryTake()
	if !ok || v != 999 {
		t.Errorf("expected the newest value 999, got %v (ok=%v)", v, ok)
	}
	if l.Dropped() != 999 {
		t.Errorf("expected 999 drops, got %d", l.Dropped())
	}
}

func TestLatchSlowConsumerGetsNewest(t *testing.T) {
	l := NewLatch[int]()
	cancel := make(chan struct{})
	defer close(cancel)

	var got []int
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			v, ok := l.Take(cancel)
			if !ok {
				return
			}
			got = append(got, v)
			// artificially slow consumer
			time.Sleep(5 * time.Millisecond)
			if v == 99 {
				return
			}
		}
	}()

	for i := 0; i < 100; i++ {
		l.Set(i)
		time.Sleep(time.Millisecond)
	}
	wg.Wait()

	if len(got) == 0 || len(got) >= 100 {
		t.Fatalf("expected some but not all values delivered, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Errorf("order violated: %v before %v", got[i-1], got[i])
		}
	}
}

func TestLatchTakeUnblocksOnCancel(t *testing.T) {
	l := NewLatch[int]()
	cancel := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_, ok := l.Take(cancel)
		if ok {
			t.Error("take should fail on cancel")
		}
		close(done)
	}()
	close(cancel)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("take did not unblock")
	}
}
