package protocol

import (
	"io"
)

// SliceReader serves lines from memory. Handy for tests and for replaying
// a turn that was captured elsewhere.
type SliceReader struct {
	lines []string
	pos   int
}

func NewSliceReader(lines ...string) *SliceReader {
	return &SliceReader{lines: lines}
}

func (r *SliceReader) ReadLine() (string, error) {
	if r.pos >= len(r.lines) {
		return "", io.EOF
	}
	line := r.lines[r.pos]
	r.pos++
	return TrimEOL(line), nil
}

// Remaining reports how many lines have not been consumed yet.
func (r *SliceReader) Remaining() int {
	return len(r.lines) - r.pos
}

// CollectWriter keeps every written line.
type CollectWriter struct {
	Lines []string
}

func (w *CollectWriter) WriteLine(line string) error {
	w.Lines = append(w.Lines, line)
	return nil
}
