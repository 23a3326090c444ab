// Command reactfsctl formats and inspects a reactfs store backed by a
// plain file, for manual testing and scripting.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/reactfs/reactfs"
	"github.com/reactfs/reactfs/backend"
	"github.com/reactfs/reactfs/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	logger := logging.Default()

	var err error
	switch cmd {
	case "format":
		err = runFormat(args)
	case "put":
		err = runPut(args)
	case "get":
		err = runGet(args)
	case "delete":
		err = runDelete(args)
	case "stat":
		err = runStat(args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", "cmd", cmd, "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `reactfsctl: inspect and drive a reactfs store backed by a file

Usage:
  reactfsctl format -file PATH -size SIZE
  reactfsctl put    -file PATH KEY VALUE
  reactfsctl get    -file PATH KEY
  reactfsctl delete -file PATH KEY
  reactfsctl stat   -file PATH

SIZE accepts a plain byte count or a K/M/G suffix, e.g. 64M.`)
}

func runFormat(args []string) error {
	fs := flag.NewFlagSet("format", flag.ExitOnError)
	path := fs.String("file", "", "path to the store file")
	sizeStr := fs.String("size", "64M", "store size")
	fs.Parse(args)
	if *path == "" {
		return fmt.Errorf("format: -file is required")
	}
	size, err := parseSize(*sizeStr)
	if err != nil {
		return fmt.Errorf("format: invalid -size %q: %w", *sizeStr, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	be, err := backend.OpenFile(*path, size)
	if err != nil {
		return err
	}
	e, err := reactfs.Format(ctx, reactfs.Options{Backend: be})
	if err != nil {
		return err
	}
	defer e.Close()

	fmt.Printf("formatted %s: %s (%d bytes)\n", *path, formatSize(size), size)
	return nil
}

func runPut(args []string) error {
	fs := flag.NewFlagSet("put", flag.ExitOnError)
	path := fs.String("file", "", "path to the store file")
	fs.Parse(args)
	rest := fs.Args()
	if *path == "" || len(rest) != 2 {
		return fmt.Errorf("put: usage: reactfsctl put -file PATH KEY VALUE")
	}
	key, err := strconv.ParseUint(rest[0], 10, 64)
	if err != nil {
		return fmt.Errorf("put: invalid key %q: %w", rest[0], err)
	}
	value, err := strconv.ParseUint(rest[1], 10, 64)
	if err != nil {
		return fmt.Errorf("put: invalid value %q: %w", rest[1], err)
	}

	return withEngine(*path, func(ctx context.Context, e *reactfs.Engine) error {
		old, had, err := e.Put(ctx, key, value)
		if err != nil {
			return err
		}
		if had {
			fmt.Printf("put %d=%d (previously %d)\n", key, value, old)
		} else {
			fmt.Printf("put %d=%d\n", key, value)
		}
		return nil
	})
}

func runGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	path := fs.String("file", "", "path to the store file")
	fs.Parse(args)
	rest := fs.Args()
	if *path == "" || len(rest) != 1 {
		return fmt.Errorf("get: usage: reactfsctl get -file PATH KEY")
	}
	key, err := strconv.ParseUint(rest[0], 10, 64)
	if err != nil {
		return fmt.Errorf("get: invalid key %q: %w", rest[0], err)
	}

	return withEngine(*path, func(ctx context.Context, e *reactfs.Engine) error {
		value, found, err := e.Get(ctx, key)
		if err != nil {
			return err
		}
		if !found {
			fmt.Printf("%d: not found\n", key)
			return nil
		}
		fmt.Printf("%d=%d\n", key, value)
		return nil
	})
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	path := fs.String("file", "", "path to the store file")
	fs.Parse(args)
	rest := fs.Args()
	if *path == "" || len(rest) != 1 {
		return fmt.Errorf("delete: usage: reactfsctl delete -file PATH KEY")
	}
	key, err := strconv.ParseUint(rest[0], 10, 64)
	if err != nil {
		return fmt.Errorf("delete: invalid key %q: %w", rest[0], err)
	}

	return withEngine(*path, func(ctx context.Context, e *reactfs.Engine) error {
		removed, had, err := e.Delete(ctx, key)
		if err != nil {
			return err
		}
		if !had {
			fmt.Printf("%d: not found\n", key)
			return nil
		}
		fmt.Printf("deleted %d (was %d)\n", key, removed)
		return nil
	})
}

func runStat(args []string) error {
	fs := flag.NewFlagSet("stat", flag.ExitOnError)
	path := fs.String("file", "", "path to the store file")
	fs.Parse(args)
	if *path == "" {
		return fmt.Errorf("stat: -file is required")
	}

	return withEngine(*path, func(ctx context.Context, e *reactfs.Engine) error {
		fmt.Printf("%s: tgx=%d\n", *path, e.Tgx())
		return nil
	})
}

// withEngine opens an existing store at path, runs fn, and always
// closes the engine afterward.
func withEngine(path string, fn func(ctx context.Context, e *reactfs.Engine) error) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	be, err := backend.OpenFile(path, info.Size())
	if err != nil {
		return err
	}
	e, err := reactfs.Open(ctx, reactfs.Options{Backend: be})
	if err != nil {
		return err
	}
	defer e.Close()

	return fn(ctx, e)
}

// parseSize parses a size string like "64M", "1G", "512K".
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(s)

	var multiplier int64 = 1
	var numStr string
	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "G")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}
	return num * multiplier, nil
}

// formatSize formats a byte count as a human-readable string.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	units := []string{"K", "M", "G", "T"}
	return fmt.Sprintf("%.1f %sB", float64(bytes)/float64(div), units[exp])
}
