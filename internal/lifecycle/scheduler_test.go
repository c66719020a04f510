package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"
)

type capture struct {
	mu    sync.Mutex
	fired []int
	ch    chan struct{}
}

func newCapture() *capture { return &capture{ch: make(chan struct{}, 8)} }

func (c *capture) resolve(_ context.Context, _ string, turn int) error {
	c.mu.Lock()
	c.fired = append(c.fired, turn)
	c.mu.Unlock()
	c.ch <- struct{}{}
	return nil
}

func (c *capture) wait(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case <-c.ch:
	case <-time.After(d):
		t.Fatal("deadline never fired")
	}
}

func TestArmFiresAtDeadline(t *testing.T) {
	cap := newCapture()
	s, err := New(cap.resolve)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	s.Arm("m-1", 3, time.Now().Add(50*time.Millisecond))
	cap.wait(t, 3*time.Second)

	cap.mu.Lock()
	defer cap.mu.Unlock()
	if len(cap.fired) != 1 || cap.fired[0] != 3 {
		t.Errorf("fired = %v, want [3]", cap.fired)
	}
}

func TestFiredDeadlinesAreRemoved(t *testing.T) {
	cap := newCapture()
	s, err := New(cap.resolve)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	for i := 0; i < 5; i++ {
		s.Arm("m-1", i, time.Now().Add(20*time.Millisecond))
	}
	for i := 0; i < 5; i++ {
		cap.wait(t, 3*time.Second)
	}

	// Removal happens in an after-run listener, so give it a moment.
	deadline := time.Now().Add(3 * time.Second)
	for s.PendingJobs() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("%d jobs still registered after firing", s.PendingJobs())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestArmPastDeadlineFiresImmediately(t *testing.T) {
	cap := newCapture()
	s, err := New(cap.resolve)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	s.Arm("m-1", 0, time.Now().Add(-time.Minute))
	cap.wait(t, time.Second)
}
