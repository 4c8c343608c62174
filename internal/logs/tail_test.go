package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"crate/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crate.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestReadLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	page, err := logs.Read(path, logs.Query{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(page.Lines) != 2 || page.Lines[0] != "b" || page.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", page.Lines)
	}
	if page.Offset != 6 {
		t.Fatalf("expected offset 6, got %d", page.Offset)
	}
}

func TestReadFiltersComponent(t *testing.T) {
	path := writeLog(t, ""+
		"2026-03-14 12:00:00 INFO pending: reconciled inserted=1\n"+
		"2026-03-14 12:00:01 INFO notifications: sent\n"+
		`{"ts":"2026-03-14T12:00:02Z","level":"info","component":"pending","msg":"projected"}`+"\n")

	page, err := logs.Read(path, logs.Query{Offset: -1, Limit: 10, Component: "pending"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(page.Lines) != 2 {
		t.Fatalf("expected two pending lines, got %#v", page.Lines)
	}
}

func TestReadFromOffsetHoldsPartialLine(t *testing.T) {
	path := writeLog(t, "first\nsecond\npart")

	page, err := logs.Read(path, logs.Query{Offset: 6})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(page.Lines) != 1 || page.Lines[0] != "second" {
		t.Fatalf("unexpected lines: %#v", page.Lines)
	}
	if page.Offset != 13 {
		t.Fatalf("expected offset before partial line, got %d", page.Offset)
	}
}

func TestReadMissingFile(t *testing.T) {
	page, err := logs.Read(filepath.Join(t.TempDir(), "absent.log"), logs.Query{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(page.Lines) != 0 || page.Offset != 0 {
		t.Fatalf("expected empty page, got %#v", page)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := writeLog(t, "start\n")
	page, err := logs.Read(path, logs.Query{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, page.Offset, "", 10*time.Millisecond, func(lines []string) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, lines...)
			if len(got) > 0 {
				cancel()
			}
			return nil
		})
	}()

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	if _, err := file.WriteString("later\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = file.Close()

	if err := <-done; err != nil {
		t.Fatalf("follow: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "later" {
		t.Fatalf("unexpected followed lines: %#v", got)
	}
}
