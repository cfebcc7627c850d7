package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestCollectorEmpty(t *testing.T) {
	c := NewCollector()
	snap := c.Snapshot()
	if snap.StatusFetch != nil || snap.PercentFetch != nil {
		t.Errorf("expected nil operation snapshots, got %+v", snap)
	}
	if snap.UptimeSeconds < 0 {
		t.Errorf("uptime should not be negative")
	}
}

func TestCollectorRecordTiming(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpStatusFetch, 10*time.Millisecond)
	c.RecordTiming(OpStatusFetch, 30*time.Millisecond)
	c.RecordFailure(OpStatusFetch)

	s := c.Snapshot().StatusFetch
	if s == nil {
		t.Fatalf("expected status fetch snapshot")
	}
	if s.Count != 2 || s.Failures != 1 {
		t.Errorf("count=%d failures=%d, want 2 and 1", s.Count, s.Failures)
	}
	if s.MinTimeMs != 10 || s.MaxTimeMs != 30 {
		t.Errorf("min=%d max=%d, want 10 and 30", s.MinTimeMs, s.MaxTimeMs)
	}
	if s.AvgTimeMs != 20 {
		t.Errorf("avg=%v, want 20", s.AvgTimeMs)
	}
}

func TestCollectorFailuresOnly(t *testing.T) {
	c := NewCollector()
	c.RecordFailure(OpPercentFetch)

	s := c.Snapshot().PercentFetch
	if s == nil {
		t.Fatalf("expected percent fetch snapshot")
	}
	if s.Count != 0 || s.Failures != 1 || s.MinTimeMs != 0 {
		t.Errorf("unexpected snapshot %+v", s)
	}
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordTiming(OpPercentFetch, time.Millisecond)
			c.RecordFailure(OpPercentFetch)
		}()
	}
	wg.Wait()

	s := c.Snapshot().PercentFetch
	if s.Count != 50 || s.Failures != 50 {
		t.Errorf("count=%d failures=%d, want 50 and 50", s.Count, s.Failures)
	}
}
