package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Wire type vocabulary.
const (
	TypeCreated = "created"
	TypeUpdated = "updated"
	TypeDeleted = "deleted"
)

// Reasons a frame payload does not produce an event. All of them mean
// "drop this frame"; they exist for diagnostics only.
var (
	ErrNoPayload        = errors.New("event: frame has no data payload")
	ErrMalformedPayload = errors.New("event: malformed payload")
	ErrUnknownType      = errors.New("event: unknown event type")
	ErrMissingField     = errors.New("event: required field missing")
	ErrInvalidRecord    = errors.New("event: invalid record")
)

// WirePayload mirrors one stream message before classification.
type WirePayload struct {
	Type     string          `json:"type"`
	Record   json.RawMessage `json:"record,omitempty"`
	RecordID *string         `json:"recordId,omitempty"`
}

// Decoder turns frame payloads into StreamEvents.
type Decoder struct {
	decodeRecord RecordDecoder
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithRecordDecoder replaces DecodeRecord.
func WithRecordDecoder(fn RecordDecoder) DecoderOption {
	return func(d *Decoder) {
		if fn != nil {
			d.decodeRecord = fn
		}
	}
}

// NewDecoder creates a Decoder.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{decodeRecord: DecodeRecord}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode parses payload as a WirePayload and classifies it.
func (d *Decoder) Decode(payload string) (StreamEvent, error) {
	if payload == "" {
		return StreamEvent{}, ErrNoPayload
	}

	var wp WirePayload
	if err := json.Unmarshal([]byte(payload), &wp); err != nil {
		return StreamEvent{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return d.Classify(wp)
}

// Classify maps a decoded WirePayload to a StreamEvent. The type and the
// populated fields must agree: created/updated need a record, deleted needs
// a recordId.
func (d *Decoder) Classify(wp WirePayload) (StreamEvent, error) {
	switch wp.Type {
	case TypeCreated, TypeUpdated:
		if isAbsent(wp.Record) {
			return StreamEvent{}, fmt.Errorf("%w: %s without record", ErrMissingField, wp.Type)
		}
		rec, err := d.decodeRecord(wp.Record)
		if err != nil {
			return StreamEvent{}, err
		}
		if wp.Type == TypeCreated {
			return Created(rec), nil
		}
		return Updated(rec), nil

	case TypeDeleted:
		if wp.RecordID == nil || *wp.RecordID == "" {
			return StreamEvent{}, fmt.Errorf("%w: deleted without recordId", ErrMissingField)
		}
		return Deleted(*wp.RecordID), nil

	default:
		return StreamEvent{}, fmt.Errorf("%w: %q", ErrUnknownType, wp.Type)
	}
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
