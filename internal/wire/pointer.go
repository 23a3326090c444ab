// Package wire implements the bit-exact, little-endian fixed-width
// encoding of every on-disk shape: object pointers, leaf and internal
// entries, nodes, and uberblocks. Node encoding is just concatenated
// entries; the decoder consumes entries until the buffer is exhausted.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/reactfs/reactfs/internal/constants"
)

// ObjectKind identifies what a pointer's bytes decode into.
type ObjectKind uint8

const (
	KindInternalNode ObjectKind = constants.KindInternalNode
	KindLeafNode      ObjectKind = constants.KindLeafNode
)

func (k ObjectKind) String() string {
	switch k {
	case KindInternalNode:
		return "internal"
	case KindLeafNode:
		return "leaf"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// UnknownObjectKindError is returned when a pointer's kind byte is
// outside {0,1}.
type UnknownObjectKindError struct {
	Got uint8
}

func (e *UnknownObjectKindError) Error() string {
	return fmt.Sprintf("wire: unknown object kind byte %d", e.Got)
}

// ObjectPointer addresses an immutable serialized node: its byte offset
// on the device, its encoded length, and the kind of node it decodes
// into. Pure value, freely cloneable.
type ObjectPointer struct {
	Offset uint64
	Length uint64
	Kind   ObjectKind
}

// PutObjectPointer encodes p into buf[0:constants.ObjectPointerSize].
// Panics if buf is too short, matching the teacher's marshal style of
// asserting capacity rather than returning an error on programmer bugs.
func PutObjectPointer(buf []byte, p ObjectPointer) {
	_ = buf[constants.ObjectPointerSize-1]
	binary.LittleEndian.PutUint64(buf[0:8], p.Offset)
	binary.LittleEndian.PutUint64(buf[8:16], p.Length)
	buf[16] = uint8(p.Kind)
}

// DecodeObjectPointer decodes an ObjectPointer from the front of buf.
func DecodeObjectPointer(buf []byte) (ObjectPointer, error) {
	if len(buf) < constants.ObjectPointerSize {
		return ObjectPointer{}, fmt.Errorf("wire: short object pointer: %d bytes", len(buf))
	}
	kind := buf[16]
	if kind != constants.KindInternalNode && kind != constants.KindLeafNode {
		return ObjectPointer{}, &UnknownObjectKindError{Got: kind}
	}
	return ObjectPointer{
		Offset: binary.LittleEndian.Uint64(buf[0:8]),
		Length: binary.LittleEndian.Uint64(buf[8:16]),
		Kind:   ObjectKind(kind),
	}, nil
}
