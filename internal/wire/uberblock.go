package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/reactfs/reactfs/internal/constants"
)

// CorruptMagicError is returned when a slot's leading 8 bytes do not
// match the expected magic.
type CorruptMagicError struct {
	Got [8]byte
}

func (e *CorruptMagicError) Error() string {
	return fmt.Sprintf("wire: corrupt uberblock magic: got %q, want %q", e.Got[:], constants.Magic[:])
}

// Uberblock is the crash-safe root record: a transaction-group index, the
// free-space watermark at the time of commit, and the tree root pointer.
// It occupies exactly one BlockSize slot; only the first UberblockSize
// bytes are meaningful.
type Uberblock struct {
	Tgx             uint64
	FreeSpaceOffset uint64
	Root            ObjectPointer
}

// Encode writes the meaningful prefix of a slot and zero-pads the rest
// to constants.BlockSize.
func (u Uberblock) Encode() []byte {
	slot := make([]byte, constants.BlockSize)
	copy(slot[0:8], constants.Magic[:])
	binary.LittleEndian.PutUint64(slot[8:16], u.Tgx)
	binary.LittleEndian.PutUint64(slot[16:24], u.FreeSpaceOffset)
	PutObjectPointer(slot[24:], u.Root)
	return slot
}

// DecodeUberblock reads only the leading constants.UberblockSize bytes of
// buf; the remainder of the slot is don't-care padding.
func DecodeUberblock(buf []byte) (Uberblock, error) {
	if len(buf) < constants.UberblockSize {
		return Uberblock{}, fmt.Errorf("wire: short uberblock: %d bytes", len(buf))
	}
	var magic [8]byte
	copy(magic[:], buf[0:8])
	if magic != constants.Magic {
		return Uberblock{}, &CorruptMagicError{Got: magic}
	}
	root, err := DecodeObjectPointer(buf[24:])
	if err != nil {
		return Uberblock{}, err
	}
	return Uberblock{
		Tgx:             binary.LittleEndian.Uint64(buf[8:16]),
		FreeSpaceOffset: binary.LittleEndian.Uint64(buf[16:24]),
		Root:            root,
	}, nil
}
