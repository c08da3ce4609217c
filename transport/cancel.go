package transport

import (
	"context"
	"sync"

	"github.com/brensch/pacpellet/protocol"
)

type lineResult struct {
	line string
	err  error
}

// ContextReader makes ReadLine on a blocking source return ctx.Err() once
// ctx is done. Reads happen on one background goroutine; a source that
// never returns keeps that goroutine parked until the process exits.
type ContextReader struct {
	ctx   context.Context
	src   protocol.LineReader
	start sync.Once
	lines chan lineResult
	err   error
}

func NewContextReader(ctx context.Context, src protocol.LineReader) *ContextReader {
	return &ContextReader{ctx: ctx, src: src, lines: make(chan lineResult)}
}

func (c *ContextReader) pump() {
	for {
		line, err := c.src.ReadLine()
		select {
		case c.lines <- lineResult{line: line, err: err}:
		case <-c.ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// ReadLine is not safe for concurrent use. After the source fails, the same
// error is returned on every later call.
func (c *ContextReader) ReadLine() (string, error) {
	if c.err != nil {
		return "", c.err
	}
	if err := c.ctx.Err(); err != nil {
		return "", err
	}
	c.start.Do(func() { go c.pump() })

	select {
	case res := <-c.lines:
		if res.err != nil {
			c.err = res.err
		}
		return res.line, res.err
	case <-c.ctx.Done():
		return "", c.ctx.Err()
	}
}
