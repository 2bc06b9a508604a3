// Package server implements the HTTP and WebSocket transport for the chat relay.
//
// The implementation is organized into specialized files for configuration, the
// hub event loop, clients, routing, and HTTP handlers. All relay state lives in
// a relay.Engine owned by the Hub; every other goroutine talks to it by posting
// events.
package server
