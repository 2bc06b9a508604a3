//go:generate go run go.uber.org/mock/mockgen -source=conn.go -destination=../mocks/mock_conn.go -package=mocks

package relay

// Conn is a non-owning handle to one open bidirectional channel.
// Implementations are compared by identity, so they must be pointer types.
type Conn interface {
	// Send queues payload for delivery without waiting for it to be written.
	Send(payload []byte) error
	// IsOpen reports whether the underlying channel still accepts frames.
	IsOpen() bool
}
