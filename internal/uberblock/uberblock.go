// Package uberblock implements the ten-slot rotating superblock ring
// that anchors the tree: Format lays down the initial empty store,
// FindLatest locates the current root by maximum transaction-group
// number, and Commit overwrites the oldest slot with a new one.
package uberblock

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/reactfs/reactfs/internal/constants"
	"github.com/reactfs/reactfs/internal/ioruntime"
	"github.com/reactfs/reactfs/internal/wire"
)

// NoDecodableSlotError is returned by FindLatest when every one of the
// ten slots failed to decode.
type NoDecodableSlotError struct {
	Slots int
}

func (e *NoDecodableSlotError) Error() string {
	return fmt.Sprintf("uberblock: all %d slots failed to decode", e.Slots)
}

func slotOffset(i int) uint64 {
	return uint64(i) * constants.BlockSize
}

// Format writes an empty leaf as the initial root, then writes all ten
// uberblock slots concurrently, each stamped with tgx=i and pointing at
// that root. The writes are joined with an errgroup: a single slot
// failing to write is a genuine format failure, so the first error
// cancels the rest and is returned.
func Format(ctx context.Context, rt *ioruntime.Runtime) (wire.Uberblock, error) {
	root := wire.ObjectPointer{
		Offset: uint64(constants.UberblockRegionSize),
		Length: 0,
		Kind:   wire.KindLeafNode,
	}
	if _, err := rt.Root().Write(ctx, (&wire.LeafNode{}).Encode(), root.Offset); err != nil {
		return wire.Uberblock{}, fmt.Errorf("uberblock: format root: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < constants.UberblockSlots; i++ {
		i := i
		joiner := rt.Spawn(func(h *ioruntime.Handle) error {
			u := wire.Uberblock{Tgx: uint64(i), FreeSpaceOffset: root.Offset, Root: root}
			_, err := h.Write(gctx, u.Encode(), slotOffset(i))
			return err
		})
		g.Go(func() error { return joiner.Wait(gctx) })
	}
	if err := g.Wait(); err != nil {
		return wire.Uberblock{}, fmt.Errorf("uberblock: format slot write: %w", err)
	}

	return wire.Uberblock{Tgx: uint64(constants.UberblockSlots - 1), FreeSpaceOffset: root.Offset, Root: root}, nil
}

type slotResult struct {
	u   wire.Uberblock
	err error
}

// FindLatest reads all ten slots concurrently and returns the one with
// the highest tgx; ties favor the smallest index. An unparseable slot
// is skipped rather than failing the whole call, and the call only
// fails if every slot is unparseable. Deliberately not an errgroup:
// one bad slot must never cancel its nine siblings' in-flight reads.
func FindLatest(ctx context.Context, rt *ioruntime.Runtime) (wire.Uberblock, error) {
	results := make([]slotResult, constants.UberblockSlots)
	joiners := make([]*ioruntime.Joiner, constants.UberblockSlots)

	for i := 0; i < constants.UberblockSlots; i++ {
		i := i
		joiners[i] = rt.Spawn(func(h *ioruntime.Handle) error {
			buf, err := h.Read(ctx, slotOffset(i), constants.UberblockSize)
			if err != nil {
				results[i] = slotResult{err: err}
				return nil
			}
			u, err := wire.DecodeUberblock(buf)
			results[i] = slotResult{u: u, err: err}
			return nil
		})
	}
	if err := ioruntime.JoinAll(ctx, joiners); err != nil {
		return wire.Uberblock{}, fmt.Errorf("uberblock: find latest: %w", err)
	}

	best := -1
	for i, r := range results {
		if r.err != nil {
			continue
		}
		if best == -1 || r.u.Tgx > results[best].u.Tgx {
			best = i
		}
	}
	if best == -1 {
		return wire.Uberblock{}, &NoDecodableSlotError{Slots: constants.UberblockSlots}
	}
	return results[best].u, nil
}

// Commit writes u into the slot currently holding the smallest tgx,
// leaving the other nine slots untouched. Ties for minimum favor the
// smallest index. An undecodable slot has no tgx to compare and is
// always preferred for overwrite over a decodable one, since repairing
// it costs nothing: it cannot currently be serving as anyone's latest.
func Commit(ctx context.Context, rt *ioruntime.Runtime, u wire.Uberblock) error {
	results := make([]slotResult, constants.UberblockSlots)
	joiners := make([]*ioruntime.Joiner, constants.UberblockSlots)

	for i := 0; i < constants.UberblockSlots; i++ {
		i := i
		joiners[i] = rt.Spawn(func(h *ioruntime.Handle) error {
			buf, err := h.Read(ctx, slotOffset(i), constants.UberblockSize)
			if err != nil {
				results[i] = slotResult{err: err}
				return nil
			}
			decoded, err := wire.DecodeUberblock(buf)
			results[i] = slotResult{u: decoded, err: err}
			return nil
		})
	}
	if err := ioruntime.JoinAll(ctx, joiners); err != nil {
		return fmt.Errorf("uberblock: commit: locate oldest: %w", err)
	}

	oldest := -1
	for i, r := range results {
		if r.err != nil {
			if oldest == -1 || results[oldest].err == nil {
				oldest = i
			}
			continue
		}
		if oldest != -1 && results[oldest].err != nil {
			continue
		}
		if oldest == -1 || r.u.Tgx < results[oldest].u.Tgx {
			oldest = i
		}
	}

	if _, err := rt.Root().Write(ctx, u.Encode(), slotOffset(oldest)); err != nil {
		return fmt.Errorf("uberblock: commit: write slot %d: %w", oldest, err)
	}
	return nil
}
