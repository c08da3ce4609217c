package transport

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/brensch/pacpellet/protocol"
)

// Recorder passes lines through from src and appends each one to a zstd
// compressed transcript. Feeding the transcript back through
// OpenTranscript reproduces the game input exactly.
type Recorder struct {
	src protocol.LineReader

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewRecorder(src protocol.LineReader, path string) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	return &Recorder{src: src, f: f, enc: enc, w: bufio.NewWriterSize(enc, 32*1024)}, nil
}

func (r *Recorder) ReadLine() (string, error) {
	line, err := r.src.ReadLine()
	if err != nil {
		return line, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return line, errors.New("transcript is closed")
	}
	if _, err := r.w.WriteString(line); err != nil {
		return line, fmt.Errorf("append transcript: %w", err)
	}
	if err := r.w.WriteByte('\n'); err != nil {
		return line, fmt.Errorf("append transcript: %w", err)
	}
	return line, nil
}

// Flush pushes buffered lines into a complete zstd block so a crash after a
// turn still leaves that turn readable.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return nil
	}
	if err := r.w.Flush(); err != nil {
		return err
	}
	return r.enc.Flush()
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return nil
	}
	flushErr := r.w.Flush()
	encErr := r.enc.Close()
	fileErr := r.f.Close()
	r.w, r.enc, r.f = nil, nil, nil
	return errors.Join(flushErr, encErr, fileErr)
}

// TranscriptReader replays a transcript written by Recorder.
type TranscriptReader struct {
	f   *os.File
	dec *zstd.Decoder
	*StreamReader
}

func OpenTranscript(path string) (*TranscriptReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	return &TranscriptReader{f: f, dec: dec, StreamReader: NewStreamReader(dec)}, nil
}

func (t *TranscriptReader) Close() error {
	t.dec.Close()
	return t.f.Close()
}
