// Package event defines the mission stream's domain events, decodes them
// from wire payloads, and fans them out to subscribers.
//
// A [StreamEvent] is one of Created, Updated or Deleted. [Decoder] turns the
// data payload of one stream frame into a StreamEvent, reporting why a
// payload was rejected through sentinel errors. [Publisher] is a volatile
// broadcast: events published with no subscribers are dropped, and a new
// subscriber only sees events published after it subscribed.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package event
