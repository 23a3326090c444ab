package uberblock

import (
	"context"
	"testing"
	"time"

	"github.com/reactfs/reactfs/backend"
	"github.com/reactfs/reactfs/internal/constants"
	"github.com/reactfs/reactfs/internal/ioruntime"
)

func newTestRuntime(t *testing.T, size int64) (*ioruntime.Runtime, context.Context) {
	t.Helper()
	mem := backend.NewMemory(size)
	rt := ioruntime.New(0, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	rt.Start(ctx)
	go mem.Run(ctx, rt.Requests(), rt.Completions())
	t.Cleanup(func() { mem.Close() })
	return rt, ctx
}

func TestFormatWritesTenSlots(t *testing.T) {
	rt, ctx := newTestRuntime(t, 1<<20)

	u, err := Format(ctx, rt)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if u.Tgx != constants.UberblockSlots-1 {
		t.Errorf("Format tgx = %d, want %d", u.Tgx, constants.UberblockSlots-1)
	}
	if u.FreeSpaceOffset != constants.UberblockRegionSize {
		t.Errorf("Format free space offset = %d, want %d", u.FreeSpaceOffset, constants.UberblockRegionSize)
	}

	found, err := FindLatest(ctx, rt)
	if err != nil {
		t.Fatalf("FindLatest: %v", err)
	}
	if found.Tgx != uint64(constants.UberblockSlots-1) {
		t.Errorf("FindLatest tgx = %d, want %d", found.Tgx, constants.UberblockSlots-1)
	}
	if found.Root != u.Root {
		t.Errorf("FindLatest root = %+v, want %+v", found.Root, u.Root)
	}
}

// TestCommitSequenceAdvancesTgx runs 20 commits past a fresh format,
// each incrementing tgx by one, and checks find_latest reflects every
// one of them in turn.
func TestCommitSequenceAdvancesTgx(t *testing.T) {
	rt, ctx := newTestRuntime(t, 1<<20)

	initial, err := Format(ctx, rt)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	current := initial
	for k := 1; k <= 20; k++ {
		next := current
		next.Tgx = current.Tgx + 1
		if err := Commit(ctx, rt, next); err != nil {
			t.Fatalf("Commit #%d: %v", k, err)
		}
		current = next

		found, err := FindLatest(ctx, rt)
		if err != nil {
			t.Fatalf("FindLatest after commit #%d: %v", k, err)
		}
		want := uint64(constants.UberblockSlots-1) + uint64(k)
		if found.Tgx != want {
			t.Fatalf("after commit #%d: FindLatest tgx = %d, want %d", k, found.Tgx, want)
		}
	}
}

// TestCommitOverwritesOldestSlot checks that a single commit leaves
// nine of the ten original slots untouched.
func TestCommitOverwritesOldestSlot(t *testing.T) {
	rt, ctx := newTestRuntime(t, 1<<20)

	initial, err := Format(ctx, rt)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	before := make([][]byte, constants.UberblockSlots)
	for i := range before {
		buf, err := rt.Root().Read(ctx, uint64(i)*constants.BlockSize, constants.UberblockSize)
		if err != nil {
			t.Fatalf("read slot %d before commit: %v", i, err)
		}
		before[i] = append([]byte(nil), buf...)
	}

	next := initial
	next.Tgx = initial.Tgx + 1
	if err := Commit(ctx, rt, next); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	changed := 0
	for i := range before {
		after, err := rt.Root().Read(ctx, uint64(i)*constants.BlockSize, constants.UberblockSize)
		if err != nil {
			t.Fatalf("read slot %d after commit: %v", i, err)
		}
		if string(before[i]) != string(after) {
			changed++
		}
	}
	if changed != 1 {
		t.Errorf("commit changed %d slots, want exactly 1", changed)
	}
}

func TestFindLatestSkipsCorruptSlot(t *testing.T) {
	rt, ctx := newTestRuntime(t, 1<<20)

	u, err := Format(ctx, rt)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	corruptSlot := constants.UberblockSlots - 1
	garbage := make([]byte, 8)
	copy(garbage, []byte("garbage!"))
	if _, err := rt.Root().Write(ctx, garbage, uint64(corruptSlot)*constants.BlockSize); err != nil {
		t.Fatalf("corrupt slot %d: %v", corruptSlot, err)
	}

	found, err := FindLatest(ctx, rt)
	if err != nil {
		t.Fatalf("FindLatest with one corrupt slot: %v", err)
	}
	want := uint64(constants.UberblockSlots - 2)
	if found.Tgx != want {
		t.Fatalf("FindLatest tgx = %d, want %d (slot %d was corrupted)", found.Tgx, want, corruptSlot)
	}
	if found.Root != u.Root {
		t.Errorf("FindLatest root = %+v, want %+v", found.Root, u.Root)
	}
}

func TestFindLatestFailsWhenAllSlotsCorrupt(t *testing.T) {
	rt, ctx := newTestRuntime(t, 1<<20)

	if _, err := Format(ctx, rt); err != nil {
		t.Fatalf("Format: %v", err)
	}

	garbage := []byte("garbage!")
	for i := 0; i < constants.UberblockSlots; i++ {
		if _, err := rt.Root().Write(ctx, garbage, uint64(i)*constants.BlockSize); err != nil {
			t.Fatalf("corrupt slot %d: %v", i, err)
		}
	}

	if _, err := FindLatest(ctx, rt); err == nil {
		t.Fatal("FindLatest succeeded with all ten slots corrupted")
	}
}
