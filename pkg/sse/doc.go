// Package sse splits an arbitrarily chunked Server-Sent Events byte stream
// into complete frames and extracts each frame's data payload.
//
// Unlike a blocking scanner over an io.Reader, a Buffer is fed chunks as
// they arrive and returns only frames whose terminating blank line has been
// seen. The trailing partial frame is held back until more bytes arrive, so
// the result never depends on where chunk boundaries fall.
//
//	var buf sse.Buffer
//	frames, err := buf.Feed(chunk)
//	for _, frame := range frames {
//	    payload := sse.Data(frame)
//	    ...
//	}
//	if errors.Is(err, sse.ErrFrameTooLarge) {
//	    // an oversized frame was discarded
//	}
//
// Only newly fed bytes are scanned for a frame boundary, and an incomplete
// frame is held up to MaxFrameSize bytes.
//
// # Version
//
// Current version: 2.0.0
// Minimum compatible version: 2.0.0
package sse
