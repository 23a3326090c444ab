package wire

import (
	"encoding/binary"

	"github.com/reactfs/reactfs/internal/constants"
)

// LeafEntry is a (key, value) pair stored in a leaf node.
type LeafEntry struct {
	Key   uint64
	Value uint64
}

// PutLeafEntry encodes e into buf[0:constants.LeafEntrySize].
func PutLeafEntry(buf []byte, e LeafEntry) {
	_ = buf[constants.LeafEntrySize-1]
	binary.LittleEndian.PutUint64(buf[0:8], e.Key)
	binary.LittleEndian.PutUint64(buf[8:16], e.Value)
}

// DecodeLeafEntry decodes a LeafEntry from the front of buf.
func DecodeLeafEntry(buf []byte) LeafEntry {
	return LeafEntry{
		Key:   binary.LittleEndian.Uint64(buf[0:8]),
		Value: binary.LittleEndian.Uint64(buf[8:16]),
	}
}

// InternalEntry is a (key, child pointer) pair stored in an internal
// node. Key equals the smallest key reachable through Child.
type InternalEntry struct {
	Key   uint64
	Child ObjectPointer
}

// PutInternalEntry encodes e into buf[0:constants.InternalEntrySize].
func PutInternalEntry(buf []byte, e InternalEntry) {
	_ = buf[constants.InternalEntrySize-1]
	binary.LittleEndian.PutUint64(buf[0:8], e.Key)
	PutObjectPointer(buf[8:], e.Child)
}

// DecodeInternalEntry decodes an InternalEntry from the front of buf.
func DecodeInternalEntry(buf []byte) (InternalEntry, error) {
	child, err := DecodeObjectPointer(buf[8:])
	if err != nil {
		return InternalEntry{}, err
	}
	return InternalEntry{
		Key:   binary.LittleEndian.Uint64(buf[0:8]),
		Child: child,
	}, nil
}
