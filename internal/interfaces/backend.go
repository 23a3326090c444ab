// Package interfaces provides internal interface definitions shared
// across packages. They live here, separate from the public package,
// to avoid import cycles between the root package and internal packages.
package interfaces

import (
	"context"

	"github.com/reactfs/reactfs/internal/protocol"
)

// Backend defines the contract every block-device backend must satisfy:
// drain requests off a channel and publish exactly one completion per
// request, preserving EventID/TaskID verbatim. Run blocks until ctx is
// canceled or requests is closed.
type Backend interface {
	Run(ctx context.Context, requests <-chan protocol.Request, completions chan<- protocol.Completion) error
	Size() int64
	Close() error
}

// Logger is the contract the runtime and store code log through. It is
// satisfied by *logging.Logger without that package needing to import
// this one.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Observer receives timing and outcome signals for I/O and tree
// operations. The engine reports each Get, Insert, Delete, commit
// flush and Commit; the runtime does not report individual node reads
// or writes, so ObserveRead and ObserveWrite are not called by it.
// Implementations must be safe for concurrent use, since multiple
// tasks may be in flight.
type Observer interface {
	ObserveRead(bytes uint64, latencyNs uint64, success bool)
	ObserveWrite(bytes uint64, latencyNs uint64, success bool)
	ObserveFlush(latencyNs uint64, success bool)
	ObserveInsert(latencyNs uint64, split bool)
	ObserveGet(latencyNs uint64, found bool)
	ObserveDelete(latencyNs uint64, merge bool)
	ObserveCommit(latencyNs uint64, success bool)
}
