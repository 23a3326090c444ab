// Package reactfs is the public entry point: Open or Format an Engine
// over a Backend and drive Get/Put/Delete against it. Everything below
// this layer — the I/O runtime, the object store, the B-tree, the
// uberblock ring — is an internal implementation detail.
package reactfs

import (
	"context"
	"sync"
	"time"

	"github.com/reactfs/reactfs/internal/btree"
	"github.com/reactfs/reactfs/internal/interfaces"
	"github.com/reactfs/reactfs/internal/ioruntime"
	"github.com/reactfs/reactfs/internal/store"
	"github.com/reactfs/reactfs/internal/uberblock"
	"github.com/reactfs/reactfs/internal/wire"
)

// Options configures an Engine. Backend is required; Logger and
// Observer default to no-ops when nil.
type Options struct {
	Backend interfaces.Backend

	// RequestBuffer sizes the runtime's outbound request channel; 0 is
	// a valid, fully synchronous choice.
	RequestBuffer int

	Logger   interfaces.Logger
	Observer interfaces.Observer
}

// Engine is an open key/value store: a runtime driving a backend, an
// object store layered over it, and the current committed root and
// free-space watermark. Get may run from any number of goroutines; Put
// and Delete are serialized internally, since each one both reads and
// advances the single current transaction.
type Engine struct {
	opts    Options
	backend interfaces.Backend
	rt      *ioruntime.Runtime
	store   *store.Store
	obs     interfaces.Observer

	runCtx    context.Context
	runCancel context.CancelFunc
	runDone   chan struct{}

	mu     sync.Mutex
	root   wire.ObjectPointer
	fso    uint64
	tgx    uint64
	closed bool
}

func observerOrNoOp(o interfaces.Observer) interfaces.Observer {
	if o == nil {
		return NoOpObserver{}
	}
	return o
}

func newEngine(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Backend == nil {
		return nil, NewError("open", ErrCodeInvalidParameters, "Options.Backend is required")
	}
	runCtx, cancel := context.WithCancel(ctx)
	rt := ioruntime.New(opts.RequestBuffer, opts.Logger, opts.Observer)
	rt.Start(runCtx)

	e := &Engine{
		opts:      opts,
		backend:   opts.Backend,
		rt:        rt,
		store:     store.New(rt.Root()),
		obs:       observerOrNoOp(opts.Observer),
		runCtx:    runCtx,
		runCancel: cancel,
		runDone:   make(chan struct{}),
	}
	go func() {
		_ = opts.Backend.Run(runCtx, rt.Requests(), rt.Completions())
		close(e.runDone)
	}()
	return e, nil
}

// Format initializes a fresh store on opts.Backend: an empty leaf root
// and ten freshly stamped uberblocks, then returns an Engine open on
// it.
func Format(ctx context.Context, opts Options) (*Engine, error) {
	e, err := newEngine(ctx, opts)
	if err != nil {
		return nil, err
	}
	u, err := uberblock.Format(ctx, e.rt)
	if err != nil {
		e.shutdown()
		return nil, WrapError("format", ErrCodeIOError, err)
	}
	e.root = u.Root
	e.fso = u.FreeSpaceOffset
	e.tgx = u.Tgx
	return e, nil
}

// Open locates the latest uberblock on opts.Backend and returns an
// Engine positioned at that root.
func Open(ctx context.Context, opts Options) (*Engine, error) {
	e, err := newEngine(ctx, opts)
	if err != nil {
		return nil, err
	}
	u, err := uberblock.FindLatest(ctx, e.rt)
	if err != nil {
		e.shutdown()
		return nil, WrapError("open", ErrCodeCorrupt, err)
	}
	e.root = u.Root
	e.fso = u.FreeSpaceOffset
	e.tgx = u.Tgx
	return e, nil
}

// Get returns the value stored under key, if any. Safe to call
// concurrently with other Gets and with Put/Delete: it reads a
// consistent snapshot of the currently committed root.
func (e *Engine) Get(ctx context.Context, key uint64) (value uint64, found bool, err error) {
	e.mu.Lock()
	root := e.root
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return 0, false, NewError("get", ErrCodeClosed, "engine is closed")
	}

	start := time.Now()
	value, found, err = btree.Get(ctx, e.store, root, key)
	e.obs.ObserveGet(uint64(time.Since(start).Nanoseconds()), found)
	if err != nil {
		return 0, false, WrapError("get", ErrCodeIOError, err)
	}
	return value, found, nil
}

// Put inserts or replaces the value stored under key and commits a new
// uberblock reflecting it, returning the value key previously held, if
// any.
func (e *Engine) Put(ctx context.Context, key, value uint64) (oldValue uint64, hadOld bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, false, NewError("put", ErrCodeClosed, "engine is closed")
	}

	start := time.Now()
	fso := e.fso
	newRoot, old, had, split, err := btree.Insert(ctx, e.store, e.root, &fso, key, value)
	e.obs.ObserveInsert(uint64(time.Since(start).Nanoseconds()), split)
	if err != nil {
		return 0, false, WrapError("put", ErrCodeIOError, err)
	}
	if err := e.commitLocked(ctx, newRoot, fso); err != nil {
		return 0, false, err
	}
	return old, had, nil
}

// Delete removes key if present and commits a new uberblock reflecting
// it, returning the value it held.
func (e *Engine) Delete(ctx context.Context, key uint64) (removedValue uint64, hadValue bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, false, NewError("delete", ErrCodeClosed, "engine is closed")
	}

	start := time.Now()
	fso := e.fso
	newRoot, removed, had, merged, err := btree.Delete(ctx, e.store, e.root, &fso, key)
	e.obs.ObserveDelete(uint64(time.Since(start).Nanoseconds()), merged)
	if err != nil {
		return 0, false, WrapError("delete", ErrCodeIOError, err)
	}
	if err := e.commitLocked(ctx, newRoot, fso); err != nil {
		return 0, false, err
	}
	return removed, had, nil
}

// commitLocked flushes the backend and stamps a fresh uberblock with
// the new root and free-space offset, per the durability note that a
// flush should precede the uberblock write to make the new state
// actually durable. e.mu must be held.
func (e *Engine) commitLocked(ctx context.Context, newRoot wire.ObjectPointer, fso uint64) error {
	start := time.Now()

	flushErr := e.rt.Root().Flush(ctx)
	e.obs.ObserveFlush(uint64(time.Since(start).Nanoseconds()), flushErr == nil)
	if flushErr != nil {
		e.obs.ObserveCommit(uint64(time.Since(start).Nanoseconds()), false)
		return WrapError("commit", ErrCodeIOError, flushErr)
	}

	next := wire.Uberblock{Tgx: e.tgx + 1, FreeSpaceOffset: fso, Root: newRoot}
	err := uberblock.Commit(ctx, e.rt, next)
	e.obs.ObserveCommit(uint64(time.Since(start).Nanoseconds()), err == nil)
	if err != nil {
		return WrapError("commit", ErrCodeIOError, err)
	}

	e.root = newRoot
	e.fso = fso
	e.tgx = next.Tgx
	return nil
}

// Tgx returns the transaction-group number of the last committed
// uberblock.
func (e *Engine) Tgx() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tgx
}

func (e *Engine) shutdown() {
	e.runCancel()
	e.rt.Close()
	<-e.runDone
	_ = e.backend.Close()
}

// Close stops the engine's runtime and closes its backend. Safe to
// call once.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.shutdown()
	return nil
}
