// Package log provides the structured logging abstraction used by missionfeed.
//
// The Logger interface decouples the stream client from any particular
// logging library. A zerolog-backed adapter is provided for applications
// and a no-op logger is the library default.
//
// # Usage
//
//	logger := log.NewZerologAdapter(log.Options{Level: "debug"})
//	logger.Info("connected", log.String("attempt", id))
//
// Library code should never construct its own logger; accept a Logger and
// fall back to NewNoopLogger when none is supplied.
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
package log
