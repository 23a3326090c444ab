package btree

import (
	"context"

	"github.com/reactfs/reactfs/internal/store"
	"github.com/reactfs/reactfs/internal/wire"
)

// Insert applies proactive splitting during descent: a node is never
// entered while full, so the recursive pass back up never has to
// cascade a split. It returns the new root pointer, the value
// previously stored under key (if any), whether one existed, and
// whether any node in the descent had to split.
func Insert(ctx context.Context, s *store.Store, root wire.ObjectPointer, fso *uint64, key, value uint64) (newRoot wire.ObjectPointer, oldValue uint64, hadOld bool, split bool, err error) {
	if !isFull(root) {
		return insertAt(ctx, s, root, fso, key, value)
	}
	split = true

	node, err := s.ReadObject(ctx, root)
	if err != nil {
		return wire.ObjectPointer{}, 0, false, false, err
	}

	var leftKey, medianKey uint64
	var leftPtr, rightPtr wire.ObjectPointer

	switch n := node.(type) {
	case *wire.LeafNode:
		left, right, median := splitLeaf(n)
		medianKey = median
		leftKey = left.Entries[0].Key
		if leftPtr, err = s.Cow(ctx, left, fso); err != nil {
			return wire.ObjectPointer{}, 0, false, false, err
		}
		if rightPtr, err = s.Cow(ctx, right, fso); err != nil {
			return wire.ObjectPointer{}, 0, false, false, err
		}
	case *wire.InternalNode:
		left, right, median := splitInternal(n)
		medianKey = median
		leftKey = left.Entries[0].Key
		if leftPtr, err = s.Cow(ctx, left, fso); err != nil {
			return wire.ObjectPointer{}, 0, false, false, err
		}
		if rightPtr, err = s.Cow(ctx, right, fso); err != nil {
			return wire.ObjectPointer{}, 0, false, false, err
		}
	default:
		return wire.ObjectPointer{}, 0, false, false, &wire.UnknownObjectKindError{Got: uint8(root.Kind)}
	}

	targetIsLeft := key < medianKey
	target := rightPtr
	if targetIsLeft {
		target = leftPtr
	}
	newTarget, old, hadOld, _, err := insertAt(ctx, s, target, fso, key, value)
	if err != nil {
		return wire.ObjectPointer{}, 0, false, false, err
	}
	if targetIsLeft {
		leftPtr = newTarget
		if key < leftKey {
			leftKey = key
		}
	} else {
		rightPtr = newTarget
	}

	newRootNode := &wire.InternalNode{Entries: []wire.InternalEntry{
		{Key: leftKey, Child: leftPtr},
		{Key: medianKey, Child: rightPtr},
	}}
	newRootPtr, err := s.Cow(ctx, newRootNode, fso)
	if err != nil {
		return wire.ObjectPointer{}, 0, false, false, err
	}
	return newRootPtr, old, hadOld, true, nil
}

// insertAt performs the recursive descent for a node that is already
// known not to need splitting itself; it proactively splits whichever
// child it is about to enter if that child is full.
func insertAt(ctx context.Context, s *store.Store, ptr wire.ObjectPointer, fso *uint64, key, value uint64) (newPtr wire.ObjectPointer, oldValue uint64, hadOld bool, split bool, err error) {
	node, err := s.ReadObject(ctx, ptr)
	if err != nil {
		return wire.ObjectPointer{}, 0, false, false, err
	}

	switch n := node.(type) {
	case *wire.LeafNode:
		i, found := searchLeaf(n.Entries, key)
		if found {
			old := n.Entries[i].Value
			n.Entries[i].Value = value
			newPtr, err = s.Cow(ctx, n, fso)
			return newPtr, old, true, false, err
		}
		entries := make([]wire.LeafEntry, 0, len(n.Entries)+1)
		entries = append(entries, n.Entries[:i]...)
		entries = append(entries, wire.LeafEntry{Key: key, Value: value})
		entries = append(entries, n.Entries[i:]...)
		n.Entries = entries
		newPtr, err = s.Cow(ctx, n, fso)
		return newPtr, 0, false, false, err

	case *wire.InternalNode:
		i := descendIndex(n.Entries, key)
		child := n.Entries[i].Child

		targetIdx := i
		childSplit := false
		if isFull(child) {
			childSplit = true
			childNode, err := s.ReadObject(ctx, child)
			if err != nil {
				return wire.ObjectPointer{}, 0, false, false, err
			}
			childInternal, ok := childNode.(*wire.InternalNode)
			var leftPtr, rightPtr wire.ObjectPointer
			var medianKey uint64
			if ok {
				left, right, median := splitInternal(childInternal)
				medianKey = median
				if leftPtr, err = s.Cow(ctx, left, fso); err != nil {
					return wire.ObjectPointer{}, 0, false, false, err
				}
				if rightPtr, err = s.Cow(ctx, right, fso); err != nil {
					return wire.ObjectPointer{}, 0, false, false, err
				}
			} else {
				childLeaf := childNode.(*wire.LeafNode)
				left, right, median := splitLeaf(childLeaf)
				medianKey = median
				if leftPtr, err = s.Cow(ctx, left, fso); err != nil {
					return wire.ObjectPointer{}, 0, false, false, err
				}
				if rightPtr, err = s.Cow(ctx, right, fso); err != nil {
					return wire.ObjectPointer{}, 0, false, false, err
				}
			}

			entries := make([]wire.InternalEntry, 0, len(n.Entries)+1)
			entries = append(entries, n.Entries[:i]...)
			entries = append(entries, wire.InternalEntry{Key: n.Entries[i].Key, Child: leftPtr})
			entries = append(entries, wire.InternalEntry{Key: medianKey, Child: rightPtr})
			entries = append(entries, n.Entries[i+1:]...)
			n.Entries = entries

			targetIdx = i
			if key >= medianKey {
				targetIdx = i + 1
			}
			child = n.Entries[targetIdx].Child
		}
		if key < n.Entries[targetIdx].Key {
			n.Entries[targetIdx].Key = key
		}

		newChildPtr, old, hadOld, grandchildSplit, err := insertAt(ctx, s, child, fso, key, value)
		if err != nil {
			return wire.ObjectPointer{}, 0, false, false, err
		}
		n.Entries[targetIdx].Child = newChildPtr
		newPtr, err = s.Cow(ctx, n, fso)
		return newPtr, old, hadOld, childSplit || grandchildSplit, err

	default:
		return wire.ObjectPointer{}, 0, false, false, &wire.UnknownObjectKindError{Got: uint8(ptr.Kind)}
	}
}
