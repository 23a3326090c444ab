package btree

import (
	"context"

	"github.com/reactfs/reactfs/internal/constants"
	"github.com/reactfs/reactfs/internal/store"
	"github.com/reactfs/reactfs/internal/wire"
)

// Delete applies proactive merging during descent: before entering a
// child holding the minimum number of entries, it is rebalanced against
// a sibling first, so the recursive pass back up never has to cascade a
// merge. A key strictly smaller than the tree's smallest key is known
// absent without a descent. It returns the new root pointer, the value
// previously stored under key (if any), whether one existed, and
// whether any node in the descent had to merge or redistribute.
func Delete(ctx context.Context, s *store.Store, root wire.ObjectPointer, fso *uint64, key uint64) (newRoot wire.ObjectPointer, removedValue uint64, hadValue bool, merged bool, err error) {
	node, err := s.ReadObject(ctx, root)
	if err != nil {
		return wire.ObjectPointer{}, 0, false, false, err
	}
	if min, ok := minKeyOf(node); ok && key < min {
		return root, 0, false, false, nil
	}

	newPtr, removed, hadVal, merged, err := deleteFromNode(ctx, s, node, fso, key)
	if err != nil {
		return wire.ObjectPointer{}, 0, false, false, err
	}
	newPtr, err = maybeCollapseRoot(ctx, s, newPtr)
	if err != nil {
		return wire.ObjectPointer{}, 0, false, false, err
	}
	return newPtr, removed, hadVal, merged, nil
}

// maybeCollapseRoot replaces an internal root holding a single entry
// with that entry's child, shrinking the tree's height by one.
func maybeCollapseRoot(ctx context.Context, s *store.Store, ptr wire.ObjectPointer) (wire.ObjectPointer, error) {
	if ptr.Kind != wire.KindInternalNode || entryCount(ptr) != 1 {
		return ptr, nil
	}
	node, err := s.ReadObject(ctx, ptr)
	if err != nil {
		return wire.ObjectPointer{}, err
	}
	return node.(*wire.InternalNode).Entries[0].Child, nil
}

// deleteAt re-reads ptr and continues the descent into it.
func deleteAt(ctx context.Context, s *store.Store, ptr wire.ObjectPointer, fso *uint64, key uint64) (newPtr wire.ObjectPointer, removedValue uint64, hadValue bool, merged bool, err error) {
	node, err := s.ReadObject(ctx, ptr)
	if err != nil {
		return wire.ObjectPointer{}, 0, false, false, err
	}
	return deleteFromNode(ctx, s, node, fso, key)
}

// deleteFromNode carries out the descent on an already-decoded node.
// Keeping this separate from deleteAt lets a merge or redistribution
// continue the same descent directly into the in-memory result,
// without a wasted cow-then-reread round trip.
func deleteFromNode(ctx context.Context, s *store.Store, node store.Node, fso *uint64, key uint64) (newPtr wire.ObjectPointer, removedValue uint64, hadValue bool, merged bool, err error) {
	switch n := node.(type) {
	case *wire.LeafNode:
		i, found := searchLeaf(n.Entries, key)
		if !found {
			newPtr, err = s.Cow(ctx, n, fso)
			return newPtr, 0, false, false, err
		}
		removedValue = n.Entries[i].Value
		n.Entries = append(n.Entries[:i], n.Entries[i+1:]...)
		newPtr, err = s.Cow(ctx, n, fso)
		return newPtr, removedValue, true, false, err

	case *wire.InternalNode:
		i := descendIndex(n.Entries, key)
		child := n.Entries[i].Child

		if entryCount(child) != constants.BTreeB {
			newChildPtr, removed, hadVal, childMerged, err := deleteAt(ctx, s, child, fso, key)
			if err != nil {
				return wire.ObjectPointer{}, 0, false, false, err
			}
			n.Entries[i].Child = newChildPtr
			newPtr, err = s.Cow(ctx, n, fso)
			return newPtr, removed, hadVal, childMerged, err
		}

		neighborIdx := i - 1
		preferLeft := true
		if neighborIdx < 0 {
			neighborIdx = i + 1
			preferLeft = false
		}
		neighborPtr := n.Entries[neighborIdx].Child

		childNode, err := s.ReadObject(ctx, child)
		if err != nil {
			return wire.ObjectPointer{}, 0, false, false, err
		}
		neighborNode, err := s.ReadObject(ctx, neighborPtr)
		if err != nil {
			return wire.ObjectPointer{}, 0, false, false, err
		}

		if countOf(childNode)+countOf(neighborNode) <= constants.BTreeDegree {
			var destIdx, srcIdx int
			var mergedNode store.Node
			if preferLeft {
				destIdx, srcIdx = neighborIdx, i
				mergedNode = mergeNodes(neighborNode, childNode)
			} else {
				destIdx, srcIdx = i, neighborIdx
				mergedNode = mergeNodes(childNode, neighborNode)
			}

			newDestPtr, removed, hadVal, _, err := deleteFromNode(ctx, s, mergedNode, fso, key)
			if err != nil {
				return wire.ObjectPointer{}, 0, false, false, err
			}

			newEntries := make([]wire.InternalEntry, 0, len(n.Entries)-1)
			for idx, e := range n.Entries {
				if idx == srcIdx {
					continue
				}
				if idx == destIdx {
					e.Child = newDestPtr
				}
				newEntries = append(newEntries, e)
			}
			n.Entries = newEntries
			newPtr, err = s.Cow(ctx, n, fso)
			return newPtr, removed, hadVal, true, err
		}

		moveCount := countOf(neighborNode) / 2
		var newChildPtr, newNeighborPtr wire.ObjectPointer
		var removed uint64
		var hadVal bool
		if preferLeft {
			rebalancedChild, lighterNeighbor, newChildMinKey := redistributeFromLeft(neighborNode, childNode, moveCount)
			newChildPtr, removed, hadVal, _, err = deleteFromNode(ctx, s, rebalancedChild, fso, key)
			if err != nil {
				return wire.ObjectPointer{}, 0, false, false, err
			}
			newNeighborPtr, err = s.Cow(ctx, lighterNeighbor, fso)
			if err != nil {
				return wire.ObjectPointer{}, 0, false, false, err
			}
			n.Entries[neighborIdx].Child = newNeighborPtr
			n.Entries[i].Key = newChildMinKey
			n.Entries[i].Child = newChildPtr
		} else {
			rebalancedChild, lighterNeighbor, newNeighborMinKey := redistributeFromRight(neighborNode, childNode, moveCount)
			newChildPtr, removed, hadVal, _, err = deleteFromNode(ctx, s, rebalancedChild, fso, key)
			if err != nil {
				return wire.ObjectPointer{}, 0, false, false, err
			}
			newNeighborPtr, err = s.Cow(ctx, lighterNeighbor, fso)
			if err != nil {
				return wire.ObjectPointer{}, 0, false, false, err
			}
			n.Entries[i].Child = newChildPtr
			n.Entries[neighborIdx].Key = newNeighborMinKey
			n.Entries[neighborIdx].Child = newNeighborPtr
		}

		newPtr, err = s.Cow(ctx, n, fso)
		return newPtr, removed, hadVal, true, err

	default:
		return wire.ObjectPointer{}, 0, false, false, &wire.UnknownObjectKindError{Got: uint8(0)}
	}
}
