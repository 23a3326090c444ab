package backend

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/reactfs/reactfs/internal/protocol"
)

// benchHarness drives a backend's Run loop over real channels so the
// benchmarks measure the same request/completion path production code
// takes, not a direct method call.
type benchHarness struct {
	requests    chan protocol.Request
	completions chan protocol.Completion
	cancel      context.CancelFunc
	nextEvent   uint64
}

func newBenchHarness(b *testing.B, m *Memory) *benchHarness {
	ctx, cancel := context.WithCancel(context.Background())
	h := &benchHarness{
		requests:    make(chan protocol.Request),
		completions: make(chan protocol.Completion),
		cancel:      cancel,
	}
	go func() {
		if err := m.Run(ctx, h.requests, h.completions); err != nil && err != context.Canceled {
			b.Logf("backend run exited: %v", err)
		}
	}()
	b.Cleanup(cancel)
	return h
}

func (h *benchHarness) read(buf []byte, offset int64) {
	h.nextEvent++
	h.requests <- protocol.Request{EventID: protocol.EventID(h.nextEvent), Read: &protocol.ReadParams{Offset: uint64(offset), Length: uint64(len(buf))}}
	c := <-h.completions
	copy(buf, c.Result.ReadData)
}

func (h *benchHarness) write(data []byte, offset int64) {
	h.nextEvent++
	h.requests <- protocol.Request{EventID: protocol.EventID(h.nextEvent), Write: &protocol.WriteParams{Offset: uint64(offset), Data: data}}
	<-h.completions
}

// BenchmarkMemoryBackend measures the request/completion round trip for
// reads and writes of various sizes.
func BenchmarkMemoryBackend(b *testing.B) {
	sizes := []int{
		4 * 1024,    // 4KB
		128 * 1024,  // 128KB
		1024 * 1024, // 1MB
	}

	for _, size := range sizes {
		b.Run(formatSize(size), func(b *testing.B) {
			m := NewMemory(64 << 20) // 64MB backend
			h := newBenchHarness(b, m)
			data := make([]byte, size)
			rand.Read(data)

			b.Run("Read", func(b *testing.B) {
				buf := make([]byte, size)
				b.SetBytes(int64(size))
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					offset := int64(rand.Intn(64<<20 - size))
					h.read(buf, offset)
				}
			})

			b.Run("Write", func(b *testing.B) {
				b.SetBytes(int64(size))
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					offset := int64(rand.Intn(64<<20 - size))
					h.write(data, offset)
				}
			})
		})
	}
}

// BenchmarkMemoryBackendLatency measures operation latency distribution
// through the channel protocol.
func BenchmarkMemoryBackendLatency(b *testing.B) {
	m := NewMemory(64 << 20)
	h := newBenchHarness(b, m)
	blockSize := 4096
	buf := make([]byte, blockSize)
	data := make([]byte, blockSize)
	rand.Read(data)

	b.Run("ReadLatency", func(b *testing.B) {
		latencies := make([]time.Duration, 0, b.N)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			offset := int64(rand.Intn(64<<20 - blockSize))
			start := time.Now()
			h.read(buf, offset)
			latencies = append(latencies, time.Since(start))
		}
		b.StopTimer()
		reportLatencyPercentiles(b, latencies)
	})

	b.Run("WriteLatency", func(b *testing.B) {
		latencies := make([]time.Duration, 0, b.N)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			offset := int64(rand.Intn(64<<20 - blockSize))
			start := time.Now()
			h.write(data, offset)
			latencies = append(latencies, time.Since(start))
		}
		b.StopTimer()
		reportLatencyPercentiles(b, latencies)
	})
}

func formatSize(bytes int) string {
	switch {
	case bytes >= 1<<20:
		return fmt.Sprintf("%dMB", bytes/(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%dKB", bytes/(1<<10))
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

func reportLatencyPercentiles(b *testing.B, latencies []time.Duration) {
	if len(latencies) == 0 {
		return
	}
	for i := 0; i < len(latencies); i++ {
		for j := i + 1; j < len(latencies); j++ {
			if latencies[i] > latencies[j] {
				latencies[i], latencies[j] = latencies[j], latencies[i]
			}
		}
	}
	p50 := latencies[len(latencies)*50/100]
	p90 := latencies[len(latencies)*90/100]
	p99 := latencies[len(latencies)*99/100]
	b.Logf("Latency percentiles: p50=%v, p90=%v, p99=%v", p50, p90, p99)
}
