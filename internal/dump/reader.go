package dump

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// initialAverageLineSize seeds the total-lines estimate before any line has
// been observed. Wikidata entity lines average well under a kilobyte
// compressed.
const initialAverageLineSize = 800

// maxLineSize bounds a single entity document. Heavily-claimed entities
// exceed bufio's 64 KiB default by a wide margin.
const maxLineSize = 64 * 1024 * 1024

// Reader streams raw entity lines out of a compressed dump archive. The
// sequence is lazy, finite and non-restartable. Alongside the lines it keeps
// a running mean of line size, which drives the total-count estimate used
// for progress reporting; the estimate never affects correctness.
type Reader struct {
	file        *os.File
	scanner     *bufio.Scanner
	archiveSize int64

	totalBytes int64
	lines      int64
	err        error
}

// Open opens a dump archive for streaming. Decompression is picked by
// extension: .bz2 and .gz are handled, anything else is read as-is.
// An unreadable archive is a fatal error for the whole run.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat dump: %w", err)
	}

	var stream io.Reader
	switch {
	case strings.HasSuffix(path, ".bz2"):
		stream = bzip2.NewReader(file)
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		stream = gz
	default:
		stream = file
	}

	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 1024*1024), maxLineSize)

	return &Reader{
		file:        file,
		scanner:     scanner,
		archiveSize: info.Size(),
	}, nil
}

// Next yields the next raw line, with the dump's array separator (a trailing
// comma) stripped. Returns false at end of stream or on a read error; line
// content is never validated here.
func (r *Reader) Next() ([]byte, bool) {
	for r.scanner.Scan() {
		raw := r.scanner.Bytes()
		r.totalBytes += int64(len(raw)) + 1 // account for the newline
		r.lines++

		line := bytes.TrimSpace(raw)
		line = bytes.TrimSuffix(line, []byte(","))
		if len(line) == 0 {
			continue
		}

		// Scanner reuses its buffer between calls.
		out := make([]byte, len(line))
		copy(out, line)
		return out, true
	}
	r.err = r.scanner.Err()
	return nil, false
}

// Lines reports how many lines have been consumed so far.
func (r *Reader) Lines() int64 {
	return r.lines
}

// EstimatedTotal republishes the current estimate of total lines in the
// archive: archive size over the running mean observed line size. It refines
// as more lines stream through.
func (r *Reader) EstimatedTotal() int64 {
	mean := float64(initialAverageLineSize)
	if r.lines > 0 {
		mean = float64(r.totalBytes) / float64(r.lines)
	}
	return int64(float64(r.archiveSize) / mean)
}

// Err reports the first read error encountered by Next, if any.
func (r *Reader) Err() error {
	return r.err
}

// Close releases the underlying archive.
func (r *Reader) Close() error {
	return r.file.Close()
}
