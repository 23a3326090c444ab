package btree

import (
	"github.com/reactfs/reactfs/internal/constants"
	"github.com/reactfs/reactfs/internal/wire"
)

// entryCount returns how many entries ptr's bytes decode into, computed
// from its length alone so a caller can decide whether a child needs to
// be split before paying for a read.
func entryCount(ptr wire.ObjectPointer) int {
	switch ptr.Kind {
	case wire.KindLeafNode:
		return int(ptr.Length) / constants.LeafEntrySize
	default:
		return int(ptr.Length) / constants.InternalEntrySize
	}
}

func isFull(ptr wire.ObjectPointer) bool {
	return entryCount(ptr) >= constants.BTreeDegree
}

// splitLeaf splits a full leaf at constants.BTreeSplitAt: the left half
// keeps the first B+1 entries, the right half gets the remaining B. The
// promoted median key is the right half's smallest key.
func splitLeaf(n *wire.LeafNode) (left, right *wire.LeafNode, medianKey uint64) {
	leftEntries := append([]wire.LeafEntry(nil), n.Entries[:constants.BTreeSplitAt]...)
	rightEntries := append([]wire.LeafEntry(nil), n.Entries[constants.BTreeSplitAt:]...)
	return &wire.LeafNode{Entries: leftEntries}, &wire.LeafNode{Entries: rightEntries}, rightEntries[0].Key
}

// splitInternal is the internal-node analog of splitLeaf.
func splitInternal(n *wire.InternalNode) (left, right *wire.InternalNode, medianKey uint64) {
	leftEntries := append([]wire.InternalEntry(nil), n.Entries[:constants.BTreeSplitAt]...)
	rightEntries := append([]wire.InternalEntry(nil), n.Entries[constants.BTreeSplitAt:]...)
	return &wire.InternalNode{Entries: leftEntries}, &wire.InternalNode{Entries: rightEntries}, rightEntries[0].Key
}
