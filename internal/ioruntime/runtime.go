// Package ioruntime is the single-writer asynchronous I/O runtime that
// every tree, serialization, and uberblock operation suspends on. It is
// the Go translation of a single-threaded, poll-based cooperative
// reactor: instead of hand-rolled Future::poll state machines driven by
// one event loop, tasks are goroutines that block on a channel, and a
// dispatcher goroutine routes each backend completion to the pending
// call that is waiting for its EventID.
//
// Per-task request ordering falls out of the translation for free: a
// single goroutine's sends to the shared request channel happen in the
// order it issues them, so "requests issued by one task reach the
// backend in program order" needs no extra bookkeeping.
package ioruntime

import (
	"context"
	"fmt"
	"sync"

	"github.com/reactfs/reactfs/internal/interfaces"
	"github.com/reactfs/reactfs/internal/protocol"
)

// Runtime owns the outbound request channel and routes inbound
// completions back to whichever Handle is awaiting them.
type Runtime struct {
	ids *idCounters

	requests    chan protocol.Request
	completions chan protocol.Completion

	mu      sync.Mutex
	pending map[protocol.EventID]chan protocol.Completion
	closed  bool

	log interfaces.Logger
	obs interfaces.Observer

	wg sync.WaitGroup
}

// New creates a Runtime. requestBuffer sizes the outbound request
// channel; 0 is a valid, fully synchronous choice.
func New(requestBuffer int, log interfaces.Logger, obs interfaces.Observer) *Runtime {
	return &Runtime{
		ids:         newIDCounters(),
		requests:    make(chan protocol.Request, requestBuffer),
		completions: make(chan protocol.Completion, requestBuffer),
		pending:     make(map[protocol.EventID]chan protocol.Completion),
		log:         log,
		obs:         obs,
	}
}

// Requests is the channel a Backend's Run loop consumes from.
func (rt *Runtime) Requests() <-chan protocol.Request { return rt.requests }

// Completions is the channel a Backend's Run loop publishes to.
func (rt *Runtime) Completions() chan<- protocol.Completion { return rt.completions }

// Start launches the dispatcher goroutine that routes completions to
// pending callers. It must be called once, before any Handle issues a
// request.
func (rt *Runtime) Start(ctx context.Context) {
	rt.wg.Add(1)
	go rt.dispatch(ctx)
}

// Close closes the request channel, terminating any backend reading
// from it, and then waits for the dispatcher to exit. The dispatcher
// exits only once the context given to Start is canceled, so Close
// blocks until that happens. Later calls return at once.
func (rt *Runtime) Close() {
	rt.mu.Lock()
	if rt.closed {
		rt.mu.Unlock()
		return
	}
	rt.closed = true
	rt.mu.Unlock()
	close(rt.requests)
	rt.wg.Wait()
}

func (rt *Runtime) dispatch(ctx context.Context) {
	defer rt.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-rt.completions:
			if !ok {
				return
			}
			rt.mu.Lock()
			ch, found := rt.pending[c.EventID]
			if found {
				delete(rt.pending, c.EventID)
			}
			rt.mu.Unlock()
			if !found {
				if rt.log != nil {
					rt.log.Warn("ioruntime: completion for unknown event", "event_id", c.EventID, "task_id", c.TaskID)
				}
				continue
			}
			ch <- c
		}
	}
}

func (rt *Runtime) register(eventID protocol.EventID) chan protocol.Completion {
	ch := make(chan protocol.Completion, 1)
	rt.mu.Lock()
	rt.pending[eventID] = ch
	rt.mu.Unlock()
	return ch
}

func (rt *Runtime) unregister(eventID protocol.EventID) {
	rt.mu.Lock()
	delete(rt.pending, eventID)
	rt.mu.Unlock()
}

// send issues req on the shared request channel, honoring cancellation.
func (rt *Runtime) send(ctx context.Context, req protocol.Request) error {
	select {
	case rt.requests <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Root returns the Handle for the reserved root task (id 0), the entry
// point a caller drives a top-level transaction through.
func (rt *Runtime) Root() *Handle {
	return &Handle{rt: rt, taskID: 0}
}

// Spawn launches fn as a new task under a freshly issued TaskID and
// returns a Joiner that resolves once fn returns. Concurrent fan-out
// (used by the uberblock ring's parallel slot writes) is built on this,
// not on any implicit concurrency in the runtime itself.
func (rt *Runtime) Spawn(fn func(h *Handle) error) *Joiner {
	taskID := rt.ids.newTaskID()
	j := &Joiner{done: make(chan struct{})}
	go func() {
		defer close(j.done)
		j.err = fn(&Handle{rt: rt, taskID: taskID})
	}()
	return j
}

// Joiner is the result of Spawn; call Wait to block until the task
// finishes and retrieve its error.
type Joiner struct {
	done chan struct{}
	err  error
}

// Wait blocks until the spawned task resolves, or ctx is canceled.
func (j *Joiner) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// JoinAll calls Wait on every Joiner in js in order and returns the
// first non-nil error. Once ctx is canceled each Wait returns ctx.Err()
// at once, without waiting for its task to finish.
func JoinAll(ctx context.Context, js []*Joiner) error {
	var firstErr error
	for _, j := range js {
		if err := j.Wait(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// errUnexpectedClose is surfaced when a Handle's await loses its
// completion channel because the runtime shut down mid-request.
var errUnexpectedClose = fmt.Errorf("ioruntime: runtime closed while a request was in flight")
