package btree

import (
	"context"

	"github.com/reactfs/reactfs/internal/store"
	"github.com/reactfs/reactfs/internal/wire"
)

// Get descends from root without modification and returns the value
// stored under key, if any.
func Get(ctx context.Context, s *store.Store, root wire.ObjectPointer, key uint64) (value uint64, found bool, err error) {
	node, err := s.ReadObject(ctx, root)
	if err != nil {
		return 0, false, err
	}
	switch n := node.(type) {
	case *wire.LeafNode:
		i, ok := searchLeaf(n.Entries, key)
		if !ok {
			return 0, false, nil
		}
		return n.Entries[i].Value, true, nil
	case *wire.InternalNode:
		i := descendIndex(n.Entries, key)
		return Get(ctx, s, n.Entries[i].Child, key)
	default:
		return 0, false, &wire.UnknownObjectKindError{Got: uint8(root.Kind)}
	}
}
