package wire

import (
	"fmt"

	"github.com/reactfs/reactfs/internal/constants"
)

// ShortReadError is returned when a node's encoded length leaves a
// remainder that doesn't divide evenly into one more entry.
type ShortReadError struct {
	EntrySize int
	Remaining int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("wire: short read decoding node: %d bytes left over, entry size %d", e.Remaining, e.EntrySize)
}

// LeafNode is a sorted, homogeneous run of LeafEntry values. Nodes carry
// no on-disk header; the referring pointer's length tells the reader
// how many bytes (and hence entries) to decode.
type LeafNode struct {
	Entries []LeafEntry
}

func (*LeafNode) Kind() ObjectKind { return KindLeafNode }

// Encode concatenates every entry in order.
func (n *LeafNode) Encode() []byte {
	buf := make([]byte, len(n.Entries)*constants.LeafEntrySize)
	for i, e := range n.Entries {
		PutLeafEntry(buf[i*constants.LeafEntrySize:], e)
	}
	return buf
}

// DecodeLeafNode decodes entries until buf is exhausted.
func DecodeLeafNode(buf []byte) (*LeafNode, error) {
	if len(buf)%constants.LeafEntrySize != 0 {
		return nil, &ShortReadError{EntrySize: constants.LeafEntrySize, Remaining: len(buf) % constants.LeafEntrySize}
	}
	n := len(buf) / constants.LeafEntrySize
	entries := make([]LeafEntry, n)
	for i := 0; i < n; i++ {
		entries[i] = DecodeLeafEntry(buf[i*constants.LeafEntrySize:])
	}
	return &LeafNode{Entries: entries}, nil
}

// InternalNode is a sorted, homogeneous run of InternalEntry values.
type InternalNode struct {
	Entries []InternalEntry
}

func (*InternalNode) Kind() ObjectKind { return KindInternalNode }

// Encode concatenates every entry in order.
func (n *InternalNode) Encode() []byte {
	buf := make([]byte, len(n.Entries)*constants.InternalEntrySize)
	for i, e := range n.Entries {
		PutInternalEntry(buf[i*constants.InternalEntrySize:], e)
	}
	return buf
}

// DecodeInternalNode decodes entries until buf is exhausted.
func DecodeInternalNode(buf []byte) (*InternalNode, error) {
	if len(buf)%constants.InternalEntrySize != 0 {
		return nil, &ShortReadError{EntrySize: constants.InternalEntrySize, Remaining: len(buf) % constants.InternalEntrySize}
	}
	n := len(buf) / constants.InternalEntrySize
	entries := make([]InternalEntry, n)
	for i := 0; i < n; i++ {
		e, err := DecodeInternalEntry(buf[i*constants.InternalEntrySize:])
		if err != nil {
			return nil, err
		}
		entries[i] = e
	}
	return &InternalNode{Entries: entries}, nil
}
