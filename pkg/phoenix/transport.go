package phoenix

// TransportState describes the lifecycle state a transport reports.
type TransportState int

const (
	TransportConnecting TransportState = iota
	TransportOpen
	TransportClosing
	TransportClosed
)

// String returns the state name for logging.
func (s TransportState) String() string {
	switch s {
	case TransportConnecting:
		return "connecting"
	case TransportOpen:
		return "open"
	case TransportClosing:
		return "closing"
	case TransportClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// TransportDelegate receives transport events. Calls arrive on arbitrary
// goroutines owned by the transport; implementations must hand real work off
// and return quickly.
type TransportDelegate interface {
	TransportDidOpen()
	TransportDidReceive(message string)
	TransportDidError(errMsg string)
	TransportDidClose(code int, reason string, wasClean bool)
}

// Transport abstracts the raw bidirectional connection the socket runs over.
// A transport carries exactly one connection; the socket creates a fresh
// transport for every connect/reconnect and releases it on disconnect.
type Transport interface {
	// SetURL sets the endpoint the next Open dials.
	SetURL(url string)

	// SetDelegate registers the event receiver. Passing nil silences any
	// late events from a transport that is being discarded.
	SetDelegate(delegate TransportDelegate)

	// Open starts connecting in the background. The outcome is reported
	// through the delegate as an open or error event.
	Open()

	// Close tears the connection down without reporting a close event.
	Close()

	// Send writes one text frame. It fails with ErrTransportClosed when the
	// transport is not open.
	Send(message string) error

	// State reports the current connection state.
	State() TransportState
}
