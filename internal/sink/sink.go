// Package sink writes stream events to an output for the CLI.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bft-labs/missionfeed/pkg/event"
	"github.com/bft-labs/missionfeed/pkg/log"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// line is the JSON form of one event.
type line struct {
	Type   string        `json:"type"`
	ID     string        `json:"id"`
	Record *event.Record `json:"record,omitempty"`
}

// Writer renders events as JSON lines or text lines.
type Writer struct {
	out    io.Writer
	format string
	logger log.Logger
	count  int
}

// NewWriter returns a Writer for format. An unknown format is an error.
func NewWriter(out io.Writer, format string, logger log.Logger) (*Writer, error) {
	switch format {
	case FormatJSON, FormatText:
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	return &Writer{out: out, format: format, logger: log.OrNoop(logger)}, nil
}

// Run writes every event from sub until the subscription closes or ctx is
// done. It closes sub before returning.
func (w *Writer) Run(ctx context.Context, sub *event.Subscription) error {
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := w.Write(ev); err != nil {
				return err
			}
		}
	}
}

// Write renders a single event.
func (w *Writer) Write(ev event.StreamEvent) error {
	var err error
	switch w.format {
	case FormatText:
		_, err = fmt.Fprintf(w.out, "%s %s\n", ev.Kind, ev.ID())
	default:
		var b []byte
		b, err = json.Marshal(line{Type: ev.Kind.String(), ID: ev.ID(), Record: ev.Record})
		if err == nil {
			b = append(b, '\n')
			_, err = w.out.Write(b)
		}
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", ev, err)
	}

	w.count++
	w.logger.Debug("event written", log.String("event", ev.String()), log.Int("total", w.count))
	return nil
}

// Count returns the number of events written.
func (w *Writer) Count() int {
	return w.count
}
