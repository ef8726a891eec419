package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRecordTiming(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpUpsert, 10*time.Millisecond)
	c.RecordTiming(OpUpsert, 30*time.Millisecond)
	c.RecordTiming(OpUpsert, 20*time.Millisecond)

	snap := c.Snapshot()
	if snap.Upsert == nil {
		t.Fatal("expected upsert snapshot")
	}
	if snap.Upsert.Count != 3 {
		t.Errorf("Count = %d, want 3", snap.Upsert.Count)
	}
	if snap.Upsert.MinTimeMs != 10 {
		t.Errorf("MinTimeMs = %d, want 10", snap.Upsert.MinTimeMs)
	}
	if snap.Upsert.MaxTimeMs != 30 {
		t.Errorf("MaxTimeMs = %d, want 30", snap.Upsert.MaxTimeMs)
	}
	if snap.Upsert.AvgTimeMs != 20 {
		t.Errorf("AvgTimeMs = %v, want 20", snap.Upsert.AvgTimeMs)
	}
}

func TestRecordFailure(t *testing.T) {
	c := NewCollector()

	c.RecordFailure(OpEmbedding)
	c.RecordFailure(OpEmbedding)

	snap := c.Snapshot()
	if snap.Embedding == nil {
		t.Fatal("expected embedding snapshot")
	}
	if snap.Embedding.Failures != 2 {
		t.Errorf("Failures = %d, want 2", snap.Embedding.Failures)
	}
	if snap.Embedding.Count != 0 {
		t.Errorf("Count = %d, want 0", snap.Embedding.Count)
	}
	if snap.Embedding.MinTimeMs != 0 {
		t.Errorf("MinTimeMs = %d, want 0 with no successes", snap.Embedding.MinTimeMs)
	}
}

func TestSnapshotOmitsUnusedOps(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpSemantic, time.Millisecond)

	snap := c.Snapshot()
	if snap.Semantic == nil {
		t.Error("expected semantic snapshot")
	}
	if snap.Upsert != nil || snap.TimeRange != nil || snap.Embedding != nil {
		t.Error("expected nil snapshots for unused operations")
	}
	if snap.UptimeSeconds < 0 {
		t.Errorf("UptimeSeconds = %v", snap.UptimeSeconds)
	}
}

func TestCollectorConcurrency(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordTiming(OpTimeRange, time.Millisecond)
				c.RecordFailure(OpTimeRange)
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.TimeRange.Count != 1000 {
		t.Errorf("Count = %d, want 1000", snap.TimeRange.Count)
	}
	if snap.TimeRange.Failures != 1000 {
		t.Errorf("Failures = %d, want 1000", snap.TimeRange.Failures)
	}
}
