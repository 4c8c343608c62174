package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const maxLineBytes = 1024 * 1024

// Query selects log lines.
type Query struct {
	// Offset is the byte position to read from. A negative offset reads the
	// last Limit lines instead.
	Offset int64
	Limit  int
	// Component keeps only lines logged by this component.
	Component string
}

// Page is a batch of lines and the offset just past them.
type Page struct {
	Lines  []string
	Offset int64
}

// Read returns the lines selected by q. A missing file yields an empty page.
func Read(path string, q Query) (Page, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Page{}, nil
		}
		return Page{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Page{}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return Page{}, fmt.Errorf("log path %q is a directory", path)
	}

	if q.Offset < 0 {
		return readLast(file, q.Limit, q.Component)
	}
	offset := q.Offset
	if offset > info.Size() {
		// Truncated or rotated; start over.
		offset = 0
	}
	return readFrom(file, offset, q.Component)
}

// Follow emits lines appended after offset, polling every interval until ctx
// is done. A nil return from ctx cancellation is reported as nil.
func Follow(ctx context.Context, path string, offset int64, component string, interval time.Duration, emit func([]string) error) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		page, err := Read(path, Query{Offset: offset, Component: component})
		if err != nil {
			return err
		}
		offset = page.Offset
		if len(page.Lines) > 0 {
			if err := emit(page.Lines); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func readLast(file *os.File, limit int, component string) (Page, error) {
	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return Page{}, fmt.Errorf("seek log file: %w", err)
		}
		return Page{Offset: end}, nil
	}

	ring := make([]string, limit)
	count, next := 0, 0
	offset, err := scan(file, component, func(line string) {
		ring[next] = line
		next = (next + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return Page{}, err
	}

	lines := make([]string, count)
	for i := range count {
		lines[i] = ring[(next-count+i+limit)%limit]
	}
	return Page{Lines: lines, Offset: offset}, nil
}

func readFrom(file *os.File, offset int64, component string) (Page, error) {
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return Page{}, fmt.Errorf("seek log file: %w", err)
	}
	var lines []string
	end, err := scan(file, component, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		return Page{}, err
	}
	return Page{Lines: lines, Offset: end}, nil
}

// scan feeds complete matching lines to fn and returns the offset after the
// last complete line. A trailing partial line is left for the next read.
func scan(file *os.File, component string, fn func(string)) (int64, error) {
	start, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("determine log offset: %w", err)
	}
	reader := bufio.NewReaderSize(file, 64*1024)
	offset := start
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			return offset, nil
		}
		if err != nil {
			return 0, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		if len(line) > maxLineBytes {
			continue
		}
		line = strings.TrimRight(line, "\r\n")
		if matchesComponent(line, component) {
			fn(line)
		}
	}
}

// matchesComponent recognises both the console form ("INFO pending: msg")
// and the JSON form ("component":"pending").
func matchesComponent(line, component string) bool {
	component = strings.TrimSpace(component)
	if component == "" {
		return true
	}
	return strings.Contains(line, " "+component+": ") ||
		strings.Contains(line, `"component":"`+component+`"`)
}
