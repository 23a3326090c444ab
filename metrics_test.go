package reactfs

import (
	"testing"
)

func TestMetricsRecordCounts(t *testing.T) {
	m := NewMetrics()

	m.RecordRead(1024, 1_000_000, true)
	m.RecordRead(512, 500_000, false)
	m.RecordWrite(2048, 2_000_000, true)
	m.RecordFlush(100_000, true)
	m.RecordInsert(50_000, true)
	m.RecordInsert(20_000, false)
	m.RecordGet(10_000, true)
	m.RecordGet(10_000, false)
	m.RecordDelete(30_000, true)
	m.RecordCommit(60_000, true)

	snap := m.Snapshot()

	if snap.ReadOps != 2 {
		t.Errorf("ReadOps = %d, want 2", snap.ReadOps)
	}
	if snap.ReadErrors != 1 {
		t.Errorf("ReadErrors = %d, want 1", snap.ReadErrors)
	}
	if snap.ReadBytes != 1024 {
		t.Errorf("ReadBytes = %d, want 1024 (failed read should not count bytes)", snap.ReadBytes)
	}
	if snap.WriteOps != 1 || snap.WriteBytes != 2048 {
		t.Errorf("WriteOps/WriteBytes = %d/%d, want 1/2048", snap.WriteOps, snap.WriteBytes)
	}
	if snap.InsertOps != 2 || snap.Splits != 1 {
		t.Errorf("InsertOps/Splits = %d/%d, want 2/1", snap.InsertOps, snap.Splits)
	}
	if snap.GetOps != 2 || snap.GetHits != 1 || snap.GetMisses != 1 {
		t.Errorf("GetOps/GetHits/GetMisses = %d/%d/%d, want 2/1/1", snap.GetOps, snap.GetHits, snap.GetMisses)
	}
	if snap.DeleteOps != 1 || snap.Merges != 1 {
		t.Errorf("DeleteOps/Merges = %d/%d, want 1/1", snap.DeleteOps, snap.Merges)
	}
	if snap.CommitOps != 1 {
		t.Errorf("CommitOps = %d, want 1", snap.CommitOps)
	}
	if snap.FlushOps != 1 {
		t.Errorf("FlushOps = %d, want 1", snap.FlushOps)
	}
}

func TestMetricsErrorRate(t *testing.T) {
	m := NewMetrics()
	m.RecordRead(100, 1000, true)
	m.RecordRead(100, 1000, false)
	m.RecordWrite(100, 1000, true)
	m.RecordWrite(100, 1000, false)

	snap := m.Snapshot()
	if snap.TotalOps != 4 {
		t.Fatalf("TotalOps = %d, want 4", snap.TotalOps)
	}
	if snap.ErrorRate != 50.0 {
		t.Errorf("ErrorRate = %v, want 50.0", snap.ErrorRate)
	}
}

func TestMetricsPercentilesMonotonic(t *testing.T) {
	m := NewMetrics()
	latencies := []uint64{1_000, 5_000, 20_000, 200_000, 2_000_000, 2_000_000, 2_000_000, 2_000_000}
	for _, l := range latencies {
		m.RecordGet(l, true)
	}

	snap := m.Snapshot()
	if snap.LatencyP50Ns > snap.LatencyP99Ns {
		t.Errorf("P50 (%d) > P99 (%d)", snap.LatencyP50Ns, snap.LatencyP99Ns)
	}
	if snap.LatencyP99Ns > snap.LatencyP999Ns {
		t.Errorf("P99 (%d) > P999 (%d)", snap.LatencyP99Ns, snap.LatencyP999Ns)
	}
}

func TestMetricsObserverImplementsInterface(t *testing.T) {
	m := NewMetrics()
	obs := NewMetricsObserver(m)
	obs.ObserveGet(1000, true)
	obs.ObserveInsert(2000, false)

	snap := m.Snapshot()
	if snap.GetOps != 1 || snap.InsertOps != 1 {
		t.Errorf("observer did not forward to metrics: GetOps=%d InsertOps=%d", snap.GetOps, snap.InsertOps)
	}
}

func TestNoOpObserverDoesNothing(t *testing.T) {
	var obs NoOpObserver
	obs.ObserveRead(1, 1, true)
	obs.ObserveWrite(1, 1, true)
	obs.ObserveFlush(1, true)
	obs.ObserveInsert(1, true)
	obs.ObserveGet(1, true)
	obs.ObserveDelete(1, true)
	obs.ObserveCommit(1, true)
}
