package sse

import (
	"bytes"
	"errors"
	"strings"
)

const (
	frameSeparator = "\n\n"
	dataField      = "data:"
)

// DefaultMaxFrameSize bounds the bytes held for one incomplete frame.
const DefaultMaxFrameSize = 1 << 20

// ErrFrameTooLarge is returned by Feed when a frame outgrows the limit. The
// frame is discarded up to its terminating blank line.
var ErrFrameTooLarge = errors.New("sse: frame exceeds maximum size")

var separator = []byte(frameSeparator)

// Buffer accumulates stream bytes and yields complete frames. It holds at
// most one incomplete trailing frame. The zero value is ready to use.
//
// A Buffer is not safe for concurrent use; one reader goroutine owns it.
type Buffer struct {
	// MaxFrameSize caps an incomplete frame. Zero means DefaultMaxFrameSize.
	MaxFrameSize int

	pending  []byte
	heldCR   bool // chunk ended in CR; its LF may start the next chunk
	skipping bool // discarding an oversized frame
}

// Feed appends chunk and returns every frame completed by it, in order.
// Frames are returned without their terminating blank line. Only the newly
// appended bytes are scanned. ErrFrameTooLarge is returned alongside the
// frames that were not oversized.
func (b *Buffer) Feed(chunk []byte) ([]string, error) {
	if len(chunk) == 0 {
		return nil, nil
	}

	// A separator may straddle the old tail and the new bytes.
	scan := len(b.pending) - 1
	if scan < 0 {
		scan = 0
	}
	b.pending = b.appendNormalized(b.pending, chunk)

	var (
		frames []string
		err    error
	)
	from := 0
	for {
		i := bytes.Index(b.pending[scan:], separator)
		if i < 0 {
			break
		}
		end := scan + i
		switch {
		case b.skipping:
			b.skipping = false
		case end-from > b.maxFrameSize():
			err = ErrFrameTooLarge
		default:
			frames = append(frames, string(b.pending[from:end]))
		}
		from = end + len(separator)
		scan = from
	}
	if from > 0 {
		n := copy(b.pending, b.pending[from:])
		b.pending = b.pending[:n]
	}

	if !b.skipping && len(b.pending) > b.maxFrameSize() {
		b.skipping = true
		err = ErrFrameTooLarge
	}
	if b.skipping && len(b.pending) > 1 {
		// Keep the last byte so a separator split across chunks is found.
		b.pending[0] = b.pending[len(b.pending)-1]
		b.pending = b.pending[:1]
	}
	return frames, err
}

// appendNormalized appends chunk to dst with CRLF folded to LF, including a
// CR and LF that arrive in different chunks.
func (b *Buffer) appendNormalized(dst, chunk []byte) []byte {
	if b.heldCR {
		b.heldCR = false
		if chunk[0] == '\n' {
			dst = append(dst, '\n')
			chunk = chunk[1:]
		} else {
			dst = append(dst, '\r')
		}
	}
	if n := len(chunk); n > 0 && chunk[n-1] == '\r' {
		b.heldCR = true
		chunk = chunk[:n-1]
	}
	for {
		i := bytes.Index(chunk, []byte("\r\n"))
		if i < 0 {
			return append(dst, chunk...)
		}
		dst = append(dst, chunk[:i]...)
		dst = append(dst, '\n')
		chunk = chunk[i+2:]
	}
}

func (b *Buffer) maxFrameSize() int {
	if b.MaxFrameSize > 0 {
		return b.MaxFrameSize
	}
	return DefaultMaxFrameSize
}

// Len returns the number of buffered bytes awaiting a frame terminator.
func (b *Buffer) Len() int {
	n := len(b.pending)
	if b.heldCR {
		n++
	}
	return n
}

// Reset discards any buffered partial frame.
func (b *Buffer) Reset() {
	b.pending = b.pending[:0]
	b.heldCR = false
	b.skipping = false
}

// Data concatenates the values of the frame's "data:" lines in order, with
// the prefix and at most one leading space removed. Other lines are ignored.
// An empty result means the frame carries no payload.
func Data(frame string) string {
	var sb strings.Builder
	for _, line := range strings.Split(frame, "\n") {
		value, ok := strings.CutPrefix(line, dataField)
		if !ok {
			continue
		}
		sb.WriteString(strings.TrimPrefix(value, " "))
	}
	return sb.String()
}
