// Package transport moves protocol lines between the agent and a referee.
//
// Three sources are supported: plain streams (stdin/stdout), a WebSocket
// connection carrying lines in text frames, and a zstd transcript of a
// previous game's input.
package transport

import (
	"bufio"
	"errors"
	"io"

	"github.com/brensch/pacpellet/protocol"
)

// StreamReader reads newline-terminated lines from r.
type StreamReader struct {
	r *bufio.Reader
}

func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// ReadLine returns the next line without its terminator. A final line with
// no trailing newline is still returned; io.EOF follows it.
func (s *StreamReader) ReadLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return protocol.TrimEOL(line), nil
		}
		return "", err
	}
	return protocol.TrimEOL(line), nil
}

// StreamWriter writes one line per call and flushes immediately; the
// referee will not see a buffered answer.
type StreamWriter struct {
	w *bufio.Writer
}

func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: bufio.NewWriter(w)}
}

func (s *StreamWriter) WriteLine(line string) error {
	if _, err := s.w.WriteString(line); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	return s.w.Flush()
}
