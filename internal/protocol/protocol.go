// Package protocol defines the block-device request/response message
// shapes that cross from the I/O runtime to a backend and back. It is
// the Go shape of the original source's BDRequest/Event::ToFuture
// channel protocol: every request carries an EventID and TaskID that
// the backend must echo back verbatim in exactly one completion.
package protocol

// EventID tags one in-flight request/completion pair.
type EventID uint64

// TaskID identifies the task a completion must be routed back to.
// TaskID 0 is reserved for the runtime's root task.
type TaskID uint64

// Request is issued by the runtime on behalf of a suspended task. Each
// concrete type below is one of the three request shapes a backend must
// handle.
type Request struct {
	EventID EventID
	TaskID  TaskID

	// Exactly one of Read, Write, Flush is set.
	Read  *ReadParams
	Write *WriteParams
	Flush *FlushParams
}

// ReadParams is the payload of a read request: an absolute byte offset
// and length on the backend's flat address space.
type ReadParams struct {
	Offset uint64
	Length uint64
}

// WriteParams is the payload of a write request.
type WriteParams struct {
	Offset uint64
	Data   []byte
}

// FlushParams carries no payload; a flush has no arguments beyond its
// envelope.
type FlushParams struct{}

// Completion is sent back from the backend to the runtime. It carries
// the EventID/TaskID from the originating Request unchanged, and either
// a Result or an Err, never both.
type Completion struct {
	EventID EventID
	TaskID  TaskID
	Result  Result
	Err     error
}

// Result is the successful payload of a completion. Exactly one field
// is meaningful, matching whichever Request kind produced it.
type Result struct {
	ReadData  []byte // valid for Read
	WrittenN  uint64 // valid for Write
}
