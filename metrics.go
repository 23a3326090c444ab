package reactfs

import (
	"sync/atomic"
	"time"

	"github.com/reactfs/reactfs/internal/interfaces"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds,
// from 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,
	10_000,
	100_000,
	1_000_000,
	10_000_000,
	100_000_000,
	1_000_000_000,
	10_000_000_000,
}

const numLatencyBuckets = 8

// Metrics tracks performance and operational statistics for an Engine.
type Metrics struct {
	ReadOps   atomic.Uint64
	WriteOps  atomic.Uint64
	FlushOps  atomic.Uint64
	InsertOps atomic.Uint64
	GetOps    atomic.Uint64
	DeleteOps atomic.Uint64
	CommitOps atomic.Uint64

	ReadBytes  atomic.Uint64
	WriteBytes atomic.Uint64

	ReadErrors   atomic.Uint64
	WriteErrors  atomic.Uint64
	FlushErrors  atomic.Uint64
	CommitErrors atomic.Uint64

	Splits      atomic.Uint64
	Merges      atomic.Uint64
	GetHits     atomic.Uint64
	GetMisses   atomic.Uint64

	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a new metrics instance with its clock started.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

func (m *Metrics) RecordRead(bytes, latencyNs uint64, success bool) {
	m.ReadOps.Add(1)
	if success {
		m.ReadBytes.Add(bytes)
	} else {
		m.ReadErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

func (m *Metrics) RecordWrite(bytes, latencyNs uint64, success bool) {
	m.WriteOps.Add(1)
	if success {
		m.WriteBytes.Add(bytes)
	} else {
		m.WriteErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

func (m *Metrics) RecordFlush(latencyNs uint64, success bool) {
	m.FlushOps.Add(1)
	if !success {
		m.FlushErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

func (m *Metrics) RecordInsert(latencyNs uint64, split bool) {
	m.InsertOps.Add(1)
	if split {
		m.Splits.Add(1)
	}
	m.recordLatency(latencyNs)
}

func (m *Metrics) RecordGet(latencyNs uint64, found bool) {
	m.GetOps.Add(1)
	if found {
		m.GetHits.Add(1)
	} else {
		m.GetMisses.Add(1)
	}
	m.recordLatency(latencyNs)
}

func (m *Metrics) RecordDelete(latencyNs uint64, merge bool) {
	m.DeleteOps.Add(1)
	if merge {
		m.Merges.Add(1)
	}
	m.recordLatency(latencyNs)
}

func (m *Metrics) RecordCommit(latencyNs uint64, success bool) {
	m.CommitOps.Add(1)
	if !success {
		m.CommitErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// Stop marks the engine as stopped, fixing the uptime used in Snapshot.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time copy of Metrics with derived rates.
type MetricsSnapshot struct {
	ReadOps, WriteOps, FlushOps             uint64
	InsertOps, GetOps, DeleteOps, CommitOps uint64
	ReadBytes, WriteBytes                   uint64
	ReadErrors, WriteErrors, FlushErrors    uint64
	CommitErrors                            uint64
	Splits, Merges, GetHits, GetMisses      uint64

	AvgLatencyNs  uint64
	UptimeNs      uint64
	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	ReadIOPS, WriteIOPS         float64
	ReadBandwidth, WriteBandwidth float64
	TotalOps, TotalBytes        uint64
	ErrorRate                   float64
}

// Snapshot creates a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		ReadOps:      m.ReadOps.Load(),
		WriteOps:     m.WriteOps.Load(),
		FlushOps:     m.FlushOps.Load(),
		InsertOps:    m.InsertOps.Load(),
		GetOps:       m.GetOps.Load(),
		DeleteOps:    m.DeleteOps.Load(),
		CommitOps:    m.CommitOps.Load(),
		ReadBytes:    m.ReadBytes.Load(),
		WriteBytes:   m.WriteBytes.Load(),
		ReadErrors:   m.ReadErrors.Load(),
		WriteErrors:  m.WriteErrors.Load(),
		FlushErrors:  m.FlushErrors.Load(),
		CommitErrors: m.CommitErrors.Load(),
		Splits:       m.Splits.Load(),
		Merges:       m.Merges.Load(),
		GetHits:      m.GetHits.Load(),
		GetMisses:    m.GetMisses.Load(),
	}

	snap.TotalOps = snap.ReadOps + snap.WriteOps + snap.FlushOps
	snap.TotalBytes = snap.ReadBytes + snap.WriteBytes

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.UptimeNs > 0 {
		uptimeSeconds := float64(snap.UptimeNs) / 1e9
		snap.ReadIOPS = float64(snap.ReadOps) / uptimeSeconds
		snap.WriteIOPS = float64(snap.WriteOps) / uptimeSeconds
		snap.ReadBandwidth = float64(snap.ReadBytes) / uptimeSeconds
		snap.WriteBandwidth = float64(snap.WriteBytes) / uptimeSeconds
	}

	totalErrors := snap.ReadErrors + snap.WriteErrors + snap.FlushErrors
	if snap.TotalOps > 0 {
		snap.ErrorRate = float64(totalErrors) / float64(snap.TotalOps) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}
	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile
// (0.0-1.0) using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}
	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}
	return LatencyBuckets[numLatencyBuckets-1]
}

// MetricsObserver adapts Metrics to interfaces.Observer.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveRead(bytes, latencyNs uint64, success bool)  { o.metrics.RecordRead(bytes, latencyNs, success) }
func (o *MetricsObserver) ObserveWrite(bytes, latencyNs uint64, success bool) { o.metrics.RecordWrite(bytes, latencyNs, success) }
func (o *MetricsObserver) ObserveFlush(latencyNs uint64, success bool)        { o.metrics.RecordFlush(latencyNs, success) }
func (o *MetricsObserver) ObserveInsert(latencyNs uint64, split bool)         { o.metrics.RecordInsert(latencyNs, split) }
func (o *MetricsObserver) ObserveGet(latencyNs uint64, found bool)            { o.metrics.RecordGet(latencyNs, found) }
func (o *MetricsObserver) ObserveDelete(latencyNs uint64, merge bool)         { o.metrics.RecordDelete(latencyNs, merge) }
func (o *MetricsObserver) ObserveCommit(latencyNs uint64, success bool)       { o.metrics.RecordCommit(latencyNs, success) }

var _ interfaces.Observer = (*MetricsObserver)(nil)

// NoOpObserver discards every signal; it is the default when a caller
// does not supply one.
type NoOpObserver struct{}

func (NoOpObserver) ObserveRead(uint64, uint64, bool)  {}
func (NoOpObserver) ObserveWrite(uint64, uint64, bool) {}
func (NoOpObserver) ObserveFlush(uint64, bool)         {}
func (NoOpObserver) ObserveInsert(uint64, bool)        {}
func (NoOpObserver) ObserveGet(uint64, bool)           {}
func (NoOpObserver) ObserveDelete(uint64, bool)        {}
func (NoOpObserver) ObserveCommit(uint64, bool)        {}

var _ interfaces.Observer = NoOpObserver{}
