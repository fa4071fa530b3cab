package phoenix

import "errors"

// Common error variables returned by the socket and transports.
var (
	// ErrNotConnected is returned when an operation requires a live transport
	// and the socket has none.
	ErrNotConnected = errors.New("socket has no live transport")

	// ErrAlreadyConnected is returned when Connect is called while a live
	// transport already reports itself open.
	ErrAlreadyConnected = errors.New("socket is already connected")

	// ErrTransportClosed is returned when sending on a transport that is not
	// in the open state.
	ErrTransportClosed = errors.New("transport is not open")

	// ErrInvalidEnvelope is returned when an incoming message cannot be
	// decoded as a protocol envelope.
	ErrInvalidEnvelope = errors.New("invalid protocol envelope")
)
