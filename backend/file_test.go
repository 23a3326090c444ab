package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/reactfs/reactfs/internal/protocol"
)

func newTestFile(t *testing.T, size int64) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reactfs.img")
	f, err := OpenFile(path, size)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func startFile(t *testing.T, f *File) (chan protocol.Request, chan protocol.Completion) {
	ctx, cancel := context.WithCancel(context.Background())
	requests := make(chan protocol.Request)
	completions := make(chan protocol.Completion)
	go f.Run(ctx, requests, completions)
	t.Cleanup(cancel)
	return requests, completions
}

func TestOpenFileCreatesAndSizesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reactfs.img")
	f, err := OpenFile(path, 4096)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	if f.Size() != 4096 {
		t.Errorf("Size() = %d, want 4096", f.Size())
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != 4096 {
		t.Errorf("file size on disk = %d, want 4096", info.Size())
	}
}

func TestFileReadWrite(t *testing.T) {
	f := newTestFile(t, 1024)
	requests, completions := startFile(t, f)

	data := []byte("hello, reactfs file backend")
	requests <- protocol.Request{EventID: 1, Write: &protocol.WriteParams{Offset: 10, Data: data}}
	wc := <-completions
	if wc.Err != nil {
		t.Fatalf("write: %v", wc.Err)
	}
	if wc.Result.WrittenN != uint64(len(data)) {
		t.Errorf("wrote %d bytes, want %d", wc.Result.WrittenN, len(data))
	}

	requests <- protocol.Request{EventID: 2, Read: &protocol.ReadParams{Offset: 10, Length: uint64(len(data))}}
	rc := <-completions
	if rc.Err != nil {
		t.Fatalf("read: %v", rc.Err)
	}
	if string(rc.Result.ReadData) != string(data) {
		t.Errorf("read %q, want %q", rc.Result.ReadData, data)
	}
}

func TestFileOutOfRange(t *testing.T) {
	f := newTestFile(t, 100)
	requests, completions := startFile(t, f)

	requests <- protocol.Request{EventID: 1, Read: &protocol.ReadParams{Offset: 80, Length: 50}}
	rc := <-completions
	var oor *OutOfRangeError
	if !errors.As(rc.Err, &oor) {
		t.Fatalf("expected OutOfRangeError, got %v", rc.Err)
	}
}

func TestFileFlush(t *testing.T) {
	f := newTestFile(t, 64)
	requests, completions := startFile(t, f)

	requests <- protocol.Request{EventID: 1, Flush: &protocol.FlushParams{}}
	select {
	case c := <-completions:
		if c.Err != nil {
			t.Fatalf("flush: %v", c.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("flush never completed")
	}
}

func TestFileDataSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reactfs.img")
	f, err := OpenFile(path, 512)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	requests, completions := startFile(t, f)
	requests <- protocol.Request{EventID: 1, Write: &protocol.WriteParams{Offset: 0, Data: []byte("durable")}}
	<-completions
	f.Close()

	f2, err := OpenFile(path, 512)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f2.Close()
	requests2, completions2 := startFile(t, f2)
	requests2 <- protocol.Request{EventID: 2, Read: &protocol.ReadParams{Offset: 0, Length: 7}}
	rc := <-completions2
	if string(rc.Result.ReadData) != "durable" {
		t.Errorf("reopened read = %q, want %q", rc.Result.ReadData, "durable")
	}
}
