package event

import "fmt"

// Kind discriminates the variants of StreamEvent.
type Kind int

const (
	KindCreated Kind = iota + 1
	KindUpdated
	KindDeleted
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCreated:
		return TypeCreated
	case KindUpdated:
		return TypeUpdated
	case KindDeleted:
		return TypeDeleted
	default:
		return "unknown"
	}
}

// StreamEvent is a decoded mission change. Record is set for KindCreated
// and KindUpdated, RecordID for KindDeleted. Use the constructors so that
// exactly one variant is populated.
type StreamEvent struct {
	Kind     Kind
	Record   *Record
	RecordID string
}

// Created returns a KindCreated event for r.
func Created(r Record) StreamEvent {
	return StreamEvent{Kind: KindCreated, Record: &r}
}

// Updated returns a KindUpdated event for r.
func Updated(r Record) StreamEvent {
	return StreamEvent{Kind: KindUpdated, Record: &r}
}

// Deleted returns a KindDeleted event for the record id.
func Deleted(id string) StreamEvent {
	return StreamEvent{Kind: KindDeleted, RecordID: id}
}

// ID returns the id of the affected record for any variant.
func (e StreamEvent) ID() string {
	if e.Record != nil {
		return e.Record.ID
	}
	return e.RecordID
}

func (e StreamEvent) String() string {
	return fmt.Sprintf("%s(%s)", e.Kind, e.ID())
}
