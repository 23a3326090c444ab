//go:build linux

package backend

import (
	"context"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/pawelgaczynski/giouring"

	"github.com/reactfs/reactfs/internal/protocol"
)

// uringQueueDepth is the submission/completion queue depth for the
// ring backing a URing backend. One request is in flight at a time, so
// this only needs to be large enough to avoid ever blocking on space.
const uringQueueDepth = 64

// URing is a file backend that issues reads, writes, and fsyncs through
// io_uring instead of pread/pwrite. Unlike the ublk queues this library
// was originally written for, each backend request here is a plain
// fixed-offset read/write against a file descriptor, so one submission
// queue entry fully describes it; there is no batching across requests.
type URing struct {
	f    *os.File
	fd   int
	size int64

	mu   sync.Mutex
	ring *giouring.Ring
}

// OpenURing opens or creates path, truncates/extends it to size, and
// returns a URing backend driving it with a private io_uring instance.
func OpenURing(path string, size int64) (*URing, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("backend: open %s: %w", path, err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("backend: truncate %s to %d: %w", path, size, err)
	}
	ring, err := giouring.CreateRing(uringQueueDepth)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("backend: create io_uring: %w", err)
	}
	return &URing{f: f, fd: int(f.Fd()), size: size, ring: ring}, nil
}

func (b *URing) Size() int64 { return b.size }

func (b *URing) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ring != nil {
		b.ring.QueueExit()
		b.ring = nil
	}
	return b.f.Close()
}

// submit prepares one SQE via prep, submits it, and waits for its
// single completion. The ring is single-issue: only one SQE is ever
// outstanding, so a plain mutex is enough to keep concurrent backend
// requests from racing on the same ring.
func (b *URing) submit(prep func(sqe *giouring.SubmissionQueueEntry)) (int32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sqe := b.ring.GetSQE()
	if sqe == nil {
		return 0, fmt.Errorf("backend: io_uring submission queue unexpectedly full")
	}
	prep(sqe)
	sqe.UserData = 1

	if _, err := b.ring.SubmitAndWait(1); err != nil {
		return 0, fmt.Errorf("backend: io_uring submit: %w", err)
	}
	cqe, err := b.ring.WaitCQE()
	if err != nil {
		return 0, fmt.Errorf("backend: io_uring wait: %w", err)
	}
	res := cqe.Res
	b.ring.SeenCQE(cqe)
	if res < 0 {
		return 0, fmt.Errorf("backend: io_uring op failed: errno %d", -res)
	}
	return res, nil
}

func (b *URing) readAt(offset, length uint64) ([]byte, error) {
	if offset+length > uint64(b.size) {
		return nil, &OutOfRangeError{Offset: offset, Length: length, Size: b.size}
	}
	buf := make([]byte, length)
	n, err := b.submit(func(sqe *giouring.SubmissionQueueEntry) {
		sqe.PrepareRead(b.fd, uintptr(unsafe.Pointer(&buf[0])), uint32(length), offset)
	})
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (b *URing) writeAt(data []byte, offset uint64) (uint64, error) {
	if offset+uint64(len(data)) > uint64(b.size) {
		return 0, &OutOfRangeError{Offset: offset, Length: uint64(len(data)), Size: b.size}
	}
	n, err := b.submit(func(sqe *giouring.SubmissionQueueEntry) {
		sqe.PrepareWrite(b.fd, uintptr(unsafe.Pointer(&data[0])), uint32(len(data)), offset)
	})
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}

func (b *URing) flush() error {
	_, err := b.submit(func(sqe *giouring.SubmissionQueueEntry) {
		sqe.PrepareFsync(b.fd, 0)
	})
	return err
}

// Run drains requests until ctx is canceled or requests is closed.
func (b *URing) Run(ctx context.Context, requests <-chan protocol.Request, completions chan<- protocol.Completion) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req, ok := <-requests:
			if !ok {
				return nil
			}
			completions <- b.handle(req)
		}
	}
}

func (b *URing) handle(req protocol.Request) protocol.Completion {
	c := protocol.Completion{EventID: req.EventID, TaskID: req.TaskID}
	switch {
	case req.Read != nil:
		data, err := b.readAt(req.Read.Offset, req.Read.Length)
		if err != nil {
			c.Err = err
			return c
		}
		c.Result.ReadData = data
	case req.Write != nil:
		n, err := b.writeAt(req.Write.Data, req.Write.Offset)
		if err != nil {
			c.Err = err
			return c
		}
		c.Result.WrittenN = n
	case req.Flush != nil:
		if err := b.flush(); err != nil {
			c.Err = err
		}
	}
	return c
}
