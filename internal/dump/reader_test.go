package dump

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func writeRaw(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func writeGzip(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatalf("write gzip: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}
	return path
}

func collect(t *testing.T, r *Reader) []string {
	t.Helper()
	var lines []string
	for {
		line, ok := r.Next()
		if !ok {
			break
		}
		lines = append(lines, string(line))
	}
	if r.Err() != nil {
		t.Fatalf("read error: %v", r.Err())
	}
	return lines
}

func TestOpen_MissingFile(t *testing.T) {
	if _, err := Open("/nonexistent/dump.json.bz2"); err == nil {
		t.Fatal("expected error for missing archive")
	}
}

func TestReader_StripsSeparators(t *testing.T) {
	content := "[\n{\"id\":\"Q1\"},\n{\"id\":\"Q2\"},\n\n{\"id\":\"Q3\"}\n]\n"
	r, err := Open(writeRaw(t, "dump.json", content))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	lines := collect(t, r)
	want := []string{"[", `{"id":"Q1"}`, `{"id":"Q2"}`, `{"id":"Q3"}`, "]"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(lines), lines)
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d: expected %q, got %q", i, w, lines[i])
		}
	}
}

func TestReader_Gzip(t *testing.T) {
	content := "{\"id\":\"Q1\"},\n{\"id\":\"Q2\"}\n"
	r, err := Open(writeGzip(t, "dump.json.gz", content))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	lines := collect(t, r)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != `{"id":"Q1"}` {
		t.Errorf("unexpected first line: %q", lines[0])
	}
}

func TestReader_EstimateRefines(t *testing.T) {
	// 3 lines of 10 bytes each (9 chars + newline).
	content := "aaaaaaaaa\nbbbbbbbbb\nccccccccc\n"
	r, err := Open(writeRaw(t, "dump.json", content))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	// Before any line the estimate uses the seed average.
	initial := r.EstimatedTotal()
	if initial != int64(len(content))/initialAverageLineSize {
		t.Errorf("expected seeded estimate %d, got %d", int64(len(content))/initialAverageLineSize, initial)
	}

	if _, ok := r.Next(); !ok {
		t.Fatal("expected a line")
	}
	// One 10-byte line observed over a 30-byte archive: estimate 3.
	if got := r.EstimatedTotal(); got != 3 {
		t.Errorf("expected refined estimate 3, got %d", got)
	}

	collect(t, r)
	if r.Lines() != 3 {
		t.Errorf("expected 3 consumed lines, got %d", r.Lines())
	}
	if got := r.EstimatedTotal(); got != 3 {
		t.Errorf("expected final estimate 3, got %d", got)
	}
}
