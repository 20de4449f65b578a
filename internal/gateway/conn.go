package gateway

// Conn is the slice of a transport connection the gateway core needs. The
// websocket delivery layer implements it; tests use in-memory fakes so the
// protocol state machine runs without a live transport.
type Conn interface {
	// ID identifies the connection for logging. Not the user identity.
	ID() string
	// WriteText queues one UTF-8 text frame. Implementations must preserve
	// per-connection write order.
	WriteText(data string) error
	// Ping sends a transport-level liveness probe.
	Ping() error
	Close() error
}
