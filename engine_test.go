package reactfs_test

import (
	"context"
	"testing"
	"time"

	"github.com/reactfs/reactfs"
	"github.com/reactfs/reactfs/backend"
)

func newTestEngine(t *testing.T, size int64) (*reactfs.Engine, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	e, err := reactfs.Format(ctx, reactfs.Options{Backend: backend.NewMemory(size)})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e, ctx
}

func TestEnginePutGetDelete(t *testing.T) {
	e, ctx := newTestEngine(t, 4<<20)

	if _, had, err := e.Put(ctx, 10, 100); err != nil || had {
		t.Fatalf("Put(10): err=%v had=%v", err, had)
	}
	if _, had, err := e.Put(ctx, 20, 200); err != nil || had {
		t.Fatalf("Put(20): err=%v had=%v", err, had)
	}

	v, found, err := e.Get(ctx, 10)
	if err != nil || !found || v != 100 {
		t.Fatalf("Get(10) = (%d, %v, %v), want (100, true, nil)", v, found, err)
	}

	old, had, err := e.Put(ctx, 10, 101)
	if err != nil || !had || old != 100 {
		t.Fatalf("Put(10) replace = (%d, %v, %v), want (100, true, nil)", old, had, err)
	}

	removed, had, err := e.Delete(ctx, 20)
	if err != nil || !had || removed != 200 {
		t.Fatalf("Delete(20) = (%d, %v, %v), want (200, true, nil)", removed, had, err)
	}
	if _, found, err := e.Get(ctx, 20); err != nil || found {
		t.Fatalf("Get(20) after delete: found=%v err=%v", found, err)
	}
}

func TestEngineCommitAdvancesTgx(t *testing.T) {
	e, ctx := newTestEngine(t, 4<<20)

	start := e.Tgx()
	for i := uint64(0); i < 5; i++ {
		if _, _, err := e.Put(ctx, i, i); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
		if want := start + i + 1; e.Tgx() != want {
			t.Fatalf("after Put #%d: Tgx = %d, want %d", i, e.Tgx(), want)
		}
	}
}

func TestEngineClosedRejectsOperations(t *testing.T) {
	e, ctx := newTestEngine(t, 1<<20)
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if _, _, err := e.Get(ctx, 1); !reactfs.IsCode(err, reactfs.ErrCodeClosed) {
		t.Errorf("Get after Close = %v, want ErrCodeClosed", err)
	}
	if _, _, err := e.Put(ctx, 1, 1); !reactfs.IsCode(err, reactfs.ErrCodeClosed) {
		t.Errorf("Put after Close = %v, want ErrCodeClosed", err)
	}
}

func TestFormatRejectsNilBackend(t *testing.T) {
	ctx := context.Background()
	if _, err := reactfs.Format(ctx, reactfs.Options{}); !reactfs.IsCode(err, reactfs.ErrCodeInvalidParameters) {
		t.Errorf("Format with nil backend = %v, want ErrCodeInvalidParameters", err)
	}
}

func TestEngineMetricsObserver(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	metrics := reactfs.NewMetrics()
	e, err := reactfs.Format(ctx, reactfs.Options{
		Backend:  backend.NewMemory(4 << 20),
		Observer: reactfs.NewMetricsObserver(metrics),
	})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	defer e.Close()

	if _, _, err := e.Put(ctx, 1, 1); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, _, err := e.Get(ctx, 1); err != nil {
		t.Fatalf("Get: %v", err)
	}

	snap := metrics.Snapshot()
	if snap.InsertOps != 1 {
		t.Errorf("InsertOps = %d, want 1", snap.InsertOps)
	}
	if snap.GetOps != 1 || snap.GetHits != 1 {
		t.Errorf("GetOps=%d GetHits=%d, want 1,1", snap.GetOps, snap.GetHits)
	}
	if snap.CommitOps != 1 {
		t.Errorf("CommitOps = %d, want 1", snap.CommitOps)
	}
}
