// Package relay implements the connection registry and broadcast engine of the
// chat relay.
//
// The package is transport agnostic: connections are anything satisfying Conn.
// None of the types here are safe for concurrent use. A single event loop
// (see the server package) owns the Engine and feeds it connect, message,
// error and close events one at a time.
package relay
