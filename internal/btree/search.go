// Package btree implements the copy-on-write B-tree: lookup, insert
// with proactive split-on-descent, and delete with proactive
// merge-on-descent. Every operation takes the current root pointer and
// free-space offset and returns fresh ones; no node is ever mutated in
// place.
package btree

import (
	"sort"

	"github.com/reactfs/reactfs/internal/wire"
)

// searchLeaf returns the index of key in entries if present, and
// whether it was found.
func searchLeaf(entries []wire.LeafEntry, key uint64) (int, bool) {
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Key >= key })
	if i < len(entries) && entries[i].Key == key {
		return i, true
	}
	return i, false
}

// descendIndex applies the tie-break rule for internal-node descent:
// Ok(i) -> i; Err(0) -> 0; Err(i) -> i-1. sort.Search finds the first
// entry whose key is strictly greater than key; the entry just before
// it is then either the exact match (Ok) or the largest smaller key
// (Err), and a result of 0 maps to 0.
func descendIndex(entries []wire.InternalEntry, key uint64) int {
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Key > key })
	if i == 0 {
		return 0
	}
	return i - 1
}
