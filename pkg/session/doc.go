// Package session supplies the authentication state the stream client
// polls before connecting.
//
// The client only reads a [Snapshot]; it never refreshes or mutates a
// session. [Static] is an in-memory provider for embedding applications
// and tests. [FileProvider] reads a bearer token from a file and watches it
// with fsnotify, so writing a token acts as a login and emptying or
// removing the file acts as a logout.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package session
