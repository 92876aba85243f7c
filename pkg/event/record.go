package event

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is an opaque mission record. Only its id is interpreted; the full
// JSON object is kept in Payload for consumers that decode it further.
type Record struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"-"`
}

// MarshalJSON writes the original payload.
func (r Record) MarshalJSON() ([]byte, error) {
	if len(r.Payload) == 0 {
		return json.Marshal(struct {
			ID string `json:"id"`
		}{r.ID})
	}
	return r.Payload, nil
}

// RecordDecoder converts the raw "record" member of a wire payload into a
// Record. A non-nil error rejects the whole frame.
type RecordDecoder func(raw json.RawMessage) (Record, error)

// DecodeRecord is the default RecordDecoder. It accepts a JSON object with
// a non-empty string "id".
func DecodeRecord(raw json.RawMessage) (Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Record{}, fmt.Errorf("%w: record is not an object", ErrInvalidRecord)
	}

	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(trimmed, &head); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if head.ID == "" {
		return Record{}, fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}

	payload := make(json.RawMessage, len(trimmed))
	copy(payload, trimmed)
	return Record{ID: head.ID, Payload: payload}, nil
}
