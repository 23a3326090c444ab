// Package store is the thin layer between the B-tree and the I/O
// runtime: it turns an ObjectPointer into a decoded node, and a decoded
// node into a freshly appended ObjectPointer. cow is the fundamental
// primitive of the whole storage model — every tree mutation ends by
// cowing zero or more nodes and bubbling their new pointers upward.
package store

import (
	"context"
	"fmt"

	"github.com/reactfs/reactfs/internal/ioruntime"
	"github.com/reactfs/reactfs/internal/wire"
)

// Node is satisfied by *wire.LeafNode and *wire.InternalNode. ReadObject
// picks the decoder from the pointer's wire.ObjectKind; code holding a
// decoded Node tells the two apart with a type switch.
type Node interface {
	Kind() wire.ObjectKind
	Encode() []byte
}

// Store reads and writes nodes through a runtime Handle.
type Store struct {
	h *ioruntime.Handle
}

// New wraps the given Handle as an object store.
func New(h *ioruntime.Handle) *Store {
	return &Store{h: h}
}

// ReadObject issues one read for ptr's byte range and decodes it
// according to ptr.Kind.
func (s *Store) ReadObject(ctx context.Context, ptr wire.ObjectPointer) (Node, error) {
	buf, err := s.h.Read(ctx, ptr.Offset, ptr.Length)
	if err != nil {
		return nil, err
	}
	switch ptr.Kind {
	case wire.KindLeafNode:
		return wire.DecodeLeafNode(buf)
	case wire.KindInternalNode:
		return wire.DecodeInternalNode(buf)
	default:
		return nil, &wire.UnknownObjectKindError{Got: uint8(ptr.Kind)}
	}
}

// WriteNodeAt serializes node and writes it at offset, returning the
// number of bytes written.
func (s *Store) WriteNodeAt(ctx context.Context, node Node, offset uint64) (uint64, error) {
	buf := node.Encode()
	n, err := s.h.Write(ctx, buf, offset)
	if err != nil {
		return 0, err
	}
	if int(n) != len(buf) {
		return n, fmt.Errorf("store: short write: wrote %d of %d bytes", n, len(buf))
	}
	return n, nil
}

// Cow appends node at *freeSpaceOffset, advances the cell by the
// written length, and returns a pointer to it with the correct kind.
// Every COW write in the tree goes through this one function.
func (s *Store) Cow(ctx context.Context, node Node, freeSpaceOffset *uint64) (wire.ObjectPointer, error) {
	offset := *freeSpaceOffset
	n, err := s.WriteNodeAt(ctx, node, offset)
	if err != nil {
		return wire.ObjectPointer{}, err
	}
	*freeSpaceOffset = offset + n
	return wire.ObjectPointer{Offset: offset, Length: n, Kind: node.Kind()}, nil
}
