package ioruntime

import (
	"sync/atomic"

	"github.com/reactfs/reactfs/internal/constants"
	"github.com/reactfs/reactfs/internal/protocol"
)

// idCounters issues monotonically increasing EventIDs and TaskIDs. Task
// id 0 is reserved for the runtime's root task, matching the original
// reactor's "0 reserved for main task" rule.
type idCounters struct {
	nextEvent atomic.Uint64
	nextTask  atomic.Uint64
}

func newIDCounters() *idCounters {
	c := &idCounters{}
	c.nextTask.Store(constants.RootTaskID + 1)
	return c
}

func (c *idCounters) newEventID() protocol.EventID {
	return protocol.EventID(c.nextEvent.Add(1))
}

func (c *idCounters) newTaskID() protocol.TaskID {
	return protocol.TaskID(c.nextTask.Add(1) - 1)
}
