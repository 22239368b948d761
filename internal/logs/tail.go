package logs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// pollInterval is how often a follow read re-checks the file for growth.
const pollInterval = 250 * time.Millisecond

// chunkSize is the block size used when scanning backwards for line breaks.
const chunkSize = 32 * 1024

// TailOptions selects where reading starts. A negative Offset returns the
// last Limit lines; otherwise reading resumes at Offset. With Follow set, a
// read that finds nothing waits up to Wait for new lines.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailResult carries complete lines and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads complete lines from the log file at path. A missing file yields
// no lines and offset zero. A trailing line without a newline is left for
// the next call.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	if opts.Wait < 0 {
		opts.Wait = 0
	}
	size, err := fileSize(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{Offset: opts.Offset}, err
	}

	var res TailResult
	if opts.Offset < 0 {
		res, err = lastLines(path, size, opts.Limit)
	} else {
		if opts.Offset > size {
			// Truncated or rotated; restart from the end.
			opts.Offset = size
		}
		res, err = linesFrom(path, opts.Offset)
	}
	if err != nil || len(res.Lines) > 0 || !opts.Follow || opts.Wait == 0 {
		return res, err
	}
	return follow(ctx, path, res.Offset, opts.Wait)
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, err
		}
		return 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("log path %q is a directory", path)
	}
	return info.Size(), nil
}

// lastLines scans backwards from the last newline so memory stays bounded by
// the lines returned.
func lastLines(path string, size int64, limit int) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return TailResult{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	end, err := lastNewline(file, size)
	if err != nil {
		return TailResult{}, err
	}
	if limit <= 0 || end == 0 {
		return TailResult{Offset: end}, nil
	}

	var (
		buf   []byte
		pos   = end
		count = 0
	)
	for pos > 0 && count <= limit {
		n := int64(chunkSize)
		if pos < n {
			n = pos
		}
		pos -= n
		chunk := make([]byte, n)
		if _, err := file.ReadAt(chunk, pos); err != nil && !errors.Is(err, io.EOF) {
			return TailResult{}, fmt.Errorf("read log file: %w", err)
		}
		count += bytes.Count(chunk, []byte{'\n'})
		buf = append(chunk, buf...)
	}

	lines := splitLines(buf)
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return TailResult{Lines: lines, Offset: end}, nil
}

// lastNewline returns the offset just past the final newline in the file.
func lastNewline(file *os.File, size int64) (int64, error) {
	pos := size
	for pos > 0 {
		n := int64(chunkSize)
		if pos < n {
			n = pos
		}
		chunk := make([]byte, n)
		if _, err := file.ReadAt(chunk, pos-n); err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("read log file: %w", err)
		}
		if i := bytes.LastIndexByte(chunk, '\n'); i >= 0 {
			return pos - n + int64(i) + 1, nil
		}
		pos -= n
	}
	return 0, nil
}

func linesFrom(path string, offset int64) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{Offset: offset}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.NewSectionReader(file, offset, 1<<62))
	if err != nil {
		return TailResult{Offset: offset}, fmt.Errorf("read log file: %w", err)
	}
	cut := bytes.LastIndexByte(data, '\n')
	if cut < 0 {
		return TailResult{Offset: offset}, nil
	}
	return TailResult{Lines: splitLines(data[:cut+1]), Offset: offset + int64(cut) + 1}, nil
}

func follow(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return TailResult{Offset: offset}, ctx.Err()
		case <-timer.C:
			return TailResult{Offset: offset}, nil
		case <-ticker.C:
		}
		res, err := linesFrom(path, offset)
		if err != nil || len(res.Lines) > 0 {
			return res, err
		}
	}
}

// splitLines splits newline-terminated data, dropping carriage returns.
func splitLines(data []byte) []string {
	data = bytes.TrimSuffix(data, []byte{'\n'})
	if len(data) == 0 {
		return nil
	}
	parts := bytes.Split(data, []byte{'\n'})
	lines := make([]string, len(parts))
	for i, p := range parts {
		lines[i] = string(bytes.TrimSuffix(p, []byte{'\r'}))
	}
	return lines
}
