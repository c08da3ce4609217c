// Package protocol holds the line-oriented plumbing shared by the world
// parser, the agent output and the transports.
//
// The referee speaks one record per line with space separated fields.
// Nothing here knows about pacs or pellets; it only moves lines and turns
// fields into integers with errors that say which field was bad.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// LineReader yields one input line at a time without its terminator.
// ReadLine returns io.EOF once the stream is exhausted.
type LineReader interface {
	ReadLine() (string, error)
}

// LineWriter emits one complete output line.
type LineWriter interface {
	WriteLine(line string) error
}

var (
	// ErrFieldCount is returned when a record has more or fewer fields than
	// its kind requires.
	ErrFieldCount = errors.New("wrong field count")
	// ErrCountRange is returned for a record count below zero or above the
	// caller's limit.
	ErrCountRange = errors.New("count out of range")
)

// Fields splits a record on single spaces, ignoring empty fields caused by
// repeated or trailing separators.
func Fields(line string) []string {
	return strings.Fields(line)
}

// RequireFields splits line and checks it carries exactly n fields.
func RequireFields(line string, n int) ([]string, error) {
	f := Fields(line)
	if len(f) != n {
		return nil, fmt.Errorf("%w: want %d, got %d in %q", ErrFieldCount, n, len(f), line)
	}
	return f, nil
}

// Int parses a signed integer field. name is used in the error only.
func Int(name, field string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", name, field, err)
	}
	return v, nil
}

// Int32 is Int narrowed to 32 bits.
func Int32(name, field string) (int32, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(field), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", name, field, err)
	}
	return int32(v), nil
}

// ReadInt reads a line holding a single integer, e.g. an entity count.
func ReadInt(r LineReader, name string) (int, error) {
	line, err := r.ReadLine()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", name, err)
	}
	f, err := RequireFields(line, 1)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", name, err)
	}
	return Int(name, f[0])
}

// ReadCount is ReadInt for the number of records that follow. The value
// must lie in [0, max].
func ReadCount(r LineReader, name string, max int) (int, error) {
	n, err := ReadInt(r, name)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > max {
		return 0, fmt.Errorf("%w: %s %d not in [0, %d]", ErrCountRange, name, n, max)
	}
	return n, nil
}

// TrimEOL strips a trailing "\n" or "\r\n". Interior and trailing spaces are
// kept because a space is a floor cell in grid rows.
func TrimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
