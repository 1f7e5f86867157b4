// Package buffer windows large log streams. Workflow job logs routinely run
// to hundreds of thousands of lines; callers only ever want the tail, so the
// stream is read once through a fixed-size ring and never fully buffered.
package buffer

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// maxLineBytes caps a single line at 10MB. Job logs can contain base64
// blobs and minified bundles on one line.
const maxLineBytes = 10 * 1024 * 1024

// maxWindowLines is the hard ceiling on how many tail lines a caller may
// request.
const maxWindowLines = 100_000

// truncatedDisplayBytes is how much of an over-long line is kept.
const truncatedDisplayBytes = 1000

const readChunkBytes = 64 * 1024

// TailLines reads r to the end and returns the last max lines joined by
// newlines, along with the total number of lines seen. Lines longer than
// maxLineBytes are cut down to their first kilobyte and marked.
func TailLines(r io.Reader, max int) (string, int, error) {
	if max <= 0 {
		return "", 0, fmt.Errorf("line window must be positive, got %d", max)
	}
	if max > maxWindowLines {
		max = maxWindowLines
	}

	ring := newLineRing(max)
	chunk := make([]byte, readChunkBytes)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			ring.feed(chunk[:n])
		}
		if err == io.EOF {
			ring.flush()
			break
		}
		if err != nil {
			return "", 0, fmt.Errorf("failed to read log content: %w", err)
		}
	}

	return ring.join(), ring.total, nil
}

// lineRing accumulates newline-delimited lines into a sliding window of the
// most recent size entries.
type lineRing struct {
	lines []string
	size  int
	next  int
	total int

	current   strings.Builder
	truncated bool
}

func newLineRing(size int) *lineRing {
	return &lineRing{lines: make([]string, size), size: size}
}

func (lr *lineRing) feed(data []byte) {
	for len(data) > 0 {
		nl := bytes.IndexByte(data, '\n')
		if nl < 0 {
			lr.grow(data)
			return
		}
		lr.grow(data[:nl])
		lr.commit()
		data = data[nl+1:]
	}
}

// flush commits a trailing line that was not newline-terminated.
func (lr *lineRing) flush() {
	if lr.current.Len() > 0 {
		lr.commit()
	}
}

func (lr *lineRing) grow(data []byte) {
	if lr.truncated {
		return
	}
	room := maxLineBytes - lr.current.Len()
	if room <= 0 {
		lr.truncated = true
		return
	}
	if room < len(data) {
		data = data[:room]
	}
	lr.current.Write(data)
	if lr.current.Len() >= maxLineBytes {
		lr.truncated = true
	}
}

func (lr *lineRing) commit() {
	line := lr.current.String()
	if lr.truncated {
		if len(line) > truncatedDisplayBytes {
			line = line[:truncatedDisplayBytes]
		}
		line += "... [TRUNCATED]"
	}
	lr.lines[lr.next] = line
	lr.next = (lr.next + 1) % lr.size
	lr.total++
	lr.current.Reset()
	lr.truncated = false
}

func (lr *lineRing) join() string {
	count := lr.total
	if count > lr.size {
		count = lr.size
	}
	start := 0
	if lr.total > lr.size {
		start = lr.next
	}

	out := make([]string, 0, count)
	for i := range count {
		out = append(out, lr.lines[(start+i)%lr.size])
	}
	return strings.Join(out, "\n")
}
