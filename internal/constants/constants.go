// Package constants holds the fixed numeric parameters of the on-disk
// format. They are constants, not configuration: changing any of them
// changes the wire format.
package constants

// Block and tree layout.
const (
	// BlockSize is the size in bytes of one uberblock slot, and the unit
	// the uberblock ring is addressed in.
	BlockSize = 4096

	// BTreeB is the branching constant B. A node holds between B and
	// 2B+1 entries, except the root.
	BTreeB = 2

	// BTreeDegree is the maximum number of entries a node may hold
	// (2B+1).
	BTreeDegree = 2*BTreeB + 1

	// BTreeSplitAt is the index an overflowed node is split at (B+1).
	// The right half ends up with B entries, the left with B+1.
	BTreeSplitAt = BTreeB + 1

	// UberblockSlots is the number of rotating superblocks in the ring.
	UberblockSlots = 10

	// UberblockRegionSize is the byte extent reserved for the ring at
	// the start of the device. User data never lives below this offset.
	UberblockRegionSize = UberblockSlots * BlockSize
)

// Magic is the 8-byte uberblock signature. Any slot not beginning with
// this is corrupt.
var Magic = [8]byte{'R', 'e', 'a', 'c', 't', 'F', 'S', '0'}

// Object kind byte values, matching the original source's ObjectType
// numbering bit for bit so the wire format lines up with it.
const (
	KindInternalNode = 0
	KindLeafNode     = 1
)

// Serialized sizes, in bytes.
const (
	ObjectPointerSize = 8 + 8 + 1  // offset, length, kind
	LeafEntrySize     = 8 + 8      // key, value
	InternalEntrySize = 8 + ObjectPointerSize // key, child pointer
	UberblockSize     = 8 + 8 + 8 + ObjectPointerSize // magic, tgx, free_space_offset, root
)

// RootTaskID is the reserved task identifier for the runtime's root task;
// every spawned task gets an id greater than this.
const RootTaskID = 0
