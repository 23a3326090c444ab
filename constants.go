package reactfs

import "github.com/reactfs/reactfs/internal/constants"

// Re-exported for callers who want the on-disk layout constants
// without reaching into internal/constants.
const (
	BlockSize    = constants.BlockSize
	BTreeDegree  = constants.BTreeDegree
	UberblockSlots      = constants.UberblockSlots
	UberblockRegionSize = constants.UberblockRegionSize
)
