package btree

import (
	"github.com/reactfs/reactfs/internal/store"
	"github.com/reactfs/reactfs/internal/wire"
)

// countOf returns the number of entries a decoded node holds.
func countOf(n store.Node) int {
	switch v := n.(type) {
	case *wire.LeafNode:
		return len(v.Entries)
	case *wire.InternalNode:
		return len(v.Entries)
	default:
		return 0
	}
}

// minKeyOf returns the smallest key held (directly or transitively) by
// n, and false if n is an empty leaf (only possible for an empty root).
func minKeyOf(n store.Node) (uint64, bool) {
	switch v := n.(type) {
	case *wire.LeafNode:
		if len(v.Entries) == 0 {
			return 0, false
		}
		return v.Entries[0].Key, true
	case *wire.InternalNode:
		return v.Entries[0].Key, true
	default:
		return 0, false
	}
}

// mergeNodes drains a right sibling's entries into a left sibling's,
// preserving sort order; left and right must be the same concrete kind.
func mergeNodes(left, right store.Node) store.Node {
	switch l := left.(type) {
	case *wire.LeafNode:
		r := right.(*wire.LeafNode)
		entries := append(append([]wire.LeafEntry(nil), l.Entries...), r.Entries...)
		return &wire.LeafNode{Entries: entries}
	case *wire.InternalNode:
		r := right.(*wire.InternalNode)
		entries := append(append([]wire.InternalEntry(nil), l.Entries...), r.Entries...)
		return &wire.InternalNode{Entries: entries}
	default:
		return nil
	}
}

// redistributeFromLeft moves the tail moveCount entries of a left
// neighbor onto the front of child (the node being entered), for the
// case a full merge would overflow. Returns the heavier child, the now
// lighter neighbor, and the child's new smallest key.
func redistributeFromLeft(neighbor, child store.Node, moveCount int) (newChild, newNeighbor store.Node, newChildMinKey uint64) {
	switch nb := neighbor.(type) {
	case *wire.LeafNode:
		ch := child.(*wire.LeafNode)
		cut := len(nb.Entries) - moveCount
		moved := nb.Entries[cut:]
		remaining := append([]wire.LeafEntry(nil), nb.Entries[:cut]...)
		merged := append(append([]wire.LeafEntry(nil), moved...), ch.Entries...)
		return &wire.LeafNode{Entries: merged}, &wire.LeafNode{Entries: remaining}, merged[0].Key
	case *wire.InternalNode:
		ch := child.(*wire.InternalNode)
		cut := len(nb.Entries) - moveCount
		moved := nb.Entries[cut:]
		remaining := append([]wire.InternalEntry(nil), nb.Entries[:cut]...)
		merged := append(append([]wire.InternalEntry(nil), moved...), ch.Entries...)
		return &wire.InternalNode{Entries: merged}, &wire.InternalNode{Entries: remaining}, merged[0].Key
	default:
		return nil, nil, 0
	}
}

// redistributeFromRight moves the head moveCount entries of a right
// neighbor onto the back of child. Returns the heavier child, the now
// lighter neighbor, and the neighbor's new smallest key.
func redistributeFromRight(neighbor, child store.Node, moveCount int) (newChild, newNeighbor store.Node, newNeighborMinKey uint64) {
	switch nb := neighbor.(type) {
	case *wire.LeafNode:
		ch := child.(*wire.LeafNode)
		moved := nb.Entries[:moveCount]
		remaining := append([]wire.LeafEntry(nil), nb.Entries[moveCount:]...)
		merged := append(append([]wire.LeafEntry(nil), ch.Entries...), moved...)
		return &wire.LeafNode{Entries: merged}, &wire.LeafNode{Entries: remaining}, remaining[0].Key
	case *wire.InternalNode:
		ch := child.(*wire.InternalNode)
		moved := nb.Entries[:moveCount]
		remaining := append([]wire.InternalEntry(nil), nb.Entries[moveCount:]...)
		merged := append(append([]wire.InternalEntry(nil), ch.Entries...), moved...)
		return &wire.InternalNode{Entries: merged}, &wire.InternalNode{Entries: remaining}, remaining[0].Key
	default:
		return nil, nil, 0
	}
}
