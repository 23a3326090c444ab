package ioruntime

import (
	"context"

	"github.com/reactfs/reactfs/internal/protocol"
)

// Handle is the per-task capability to issue read/write/flush requests
// and suspend until their completion arrives. It is the direct analog
// of the original reactor's Handle::read/write/flush, minus the
// hand-rolled poll() state machine: suspension here is a real blocking
// channel receive.
type Handle struct {
	rt     *Runtime
	taskID protocol.TaskID
}

// TaskID returns the task this handle suspends on behalf of.
func (h *Handle) TaskID() protocol.TaskID { return h.taskID }

// Read issues a read request for [offset, offset+length) and suspends
// until its completion arrives.
func (h *Handle) Read(ctx context.Context, offset, length uint64) ([]byte, error) {
	eventID := h.rt.ids.newEventID()
	ch := h.rt.register(eventID)
	req := protocol.Request{
		EventID: eventID,
		TaskID:  h.taskID,
		Read:    &protocol.ReadParams{Offset: offset, Length: length},
	}
	if err := h.rt.send(ctx, req); err != nil {
		h.rt.unregister(eventID)
		return nil, err
	}
	select {
	case c, ok := <-ch:
		if !ok {
			return nil, errUnexpectedClose
		}
		if c.Err != nil {
			return nil, c.Err
		}
		return c.Result.ReadData, nil
	case <-ctx.Done():
		h.rt.unregister(eventID)
		return nil, ctx.Err()
	}
}

// Write issues a write request and suspends until its completion
// arrives, returning the number of bytes the backend reports written.
func (h *Handle) Write(ctx context.Context, data []byte, offset uint64) (uint64, error) {
	eventID := h.rt.ids.newEventID()
	ch := h.rt.register(eventID)
	req := protocol.Request{
		EventID: eventID,
		TaskID:  h.taskID,
		Write:   &protocol.WriteParams{Offset: offset, Data: data},
	}
	if err := h.rt.send(ctx, req); err != nil {
		h.rt.unregister(eventID)
		return 0, err
	}
	select {
	case c, ok := <-ch:
		if !ok {
			return 0, errUnexpectedClose
		}
		if c.Err != nil {
			return 0, c.Err
		}
		return c.Result.WrittenN, nil
	case <-ctx.Done():
		h.rt.unregister(eventID)
		return 0, ctx.Err()
	}
}

// Flush issues a flush request and suspends until it completes.
func (h *Handle) Flush(ctx context.Context) error {
	eventID := h.rt.ids.newEventID()
	ch := h.rt.register(eventID)
	req := protocol.Request{
		EventID: eventID,
		TaskID:  h.taskID,
		Flush:   &protocol.FlushParams{},
	}
	if err := h.rt.send(ctx, req); err != nil {
		h.rt.unregister(eventID)
		return err
	}
	select {
	case c, ok := <-ch:
		if !ok {
			return errUnexpectedClose
		}
		return c.Err
	case <-ctx.Done():
		h.rt.unregister(eventID)
		return ctx.Err()
	}
}
