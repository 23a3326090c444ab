//go:build !linux

package backend

import (
	"context"
	"fmt"
	"os"

	"github.com/reactfs/reactfs/internal/protocol"
)

// File is a backend over an ordinary file. Off Linux it falls back to
// os.File's portable ReadAt/WriteAt/Sync instead of pread/pwrite/
// fdatasync directly.
type File struct {
	f    *os.File
	size int64
}

// OpenFile opens or creates path and truncates/extends it to size,
// returning a File backend over it.
func OpenFile(path string, size int64) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("backend: open %s: %w", path, err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("backend: truncate %s to %d: %w", path, size, err)
	}
	return &File{f: f, size: size}, nil
}

func (b *File) Size() int64 { return b.size }

func (b *File) Close() error {
	return b.f.Close()
}

func (b *File) readAt(offset, length uint64) ([]byte, error) {
	if offset+length > uint64(b.size) {
		return nil, &OutOfRangeError{Offset: offset, Length: length, Size: b.size}
	}
	buf := make([]byte, length)
	n, err := b.f.ReadAt(buf, int64(offset))
	if err != nil {
		return nil, fmt.Errorf("backend: read at %d: %w", offset, err)
	}
	return buf[:n], nil
}

func (b *File) writeAt(data []byte, offset uint64) (uint64, error) {
	if offset+uint64(len(data)) > uint64(b.size) {
		return 0, &OutOfRangeError{Offset: offset, Length: uint64(len(data)), Size: b.size}
	}
	n, err := b.f.WriteAt(data, int64(offset))
	if err != nil {
		return 0, fmt.Errorf("backend: write at %d: %w", offset, err)
	}
	return uint64(n), nil
}

func (b *File) flush() error {
	return b.f.Sync()
}

// Run drains requests until ctx is canceled or requests is closed.
func (b *File) Run(ctx context.Context, requests <-chan protocol.Request, completions chan<- protocol.Completion) error {
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

func (b *File) handle(req protocol.Request) protocol.Completion {
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
