package phoenix

import "sync"

// MockTransport implements Transport for testing. Tests drive it by
// simulating delegate events and inspect what the socket asked it to do.
type MockTransport struct {
	mu sync.Mutex

	url      string
	delegate TransportDelegate
	state    TransportState

	// AutoOpen makes Open report the transport open immediately, without a
	// SimulateOpen call. Set it before handing the transport to a socket.
	AutoOpen bool

	openCalls  int
	closeCalls int
	sent       []string

	sendError error
}

// NewMockTransport creates a mock transport in the closed state.
func NewMockTransport() *MockTransport {
	return &MockTransport{state: TransportClosed}
}

// SetURL implements Transport.
func (m *MockTransport) SetURL(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.url = url
}

// SetDelegate implements Transport.
func (m *MockTransport) SetDelegate(delegate TransportDelegate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delegate = delegate
}

// Open implements Transport.
func (m *MockTransport) Open() {
	m.mu.Lock()
	m.openCalls++
	auto := m.AutoOpen
	if auto {
		m.state = TransportOpen
	} else {
		m.state = TransportConnecting
	}
	delegate := m.delegate
	m.mu.Unlock()

	if auto && delegate != nil {
		delegate.TransportDidOpen()
	}
}

// Close implements Transport.
func (m *MockTransport) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalls++
	m.state = TransportClosed
}

// Send implements Transport.
func (m *MockTransport) Send(message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendError != nil {
		return m.sendError
	}
	if m.state != TransportOpen {
		return ErrTransportClosed
	}
	m.sent = append(m.sent, message)
	return nil
}

// State implements Transport.
func (m *MockTransport) State() TransportState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SimulateOpen flips the transport open and reports the event.
func (m *MockTransport) SimulateOpen() {
	m.mu.Lock()
	m.state = TransportOpen
	delegate := m.delegate
	m.mu.Unlock()

	if delegate != nil {
		delegate.TransportDidOpen()
	}
}

// SimulateMessage reports an inbound text frame.
func (m *MockTransport) SimulateMessage(message string) {
	m.mu.Lock()
	delegate := m.delegate
	m.mu.Unlock()

	if delegate != nil {
		delegate.TransportDidReceive(message)
	}
}

// SimulateError flips the transport closed and reports a transport error.
func (m *MockTransport) SimulateError(errMsg string) {
	m.mu.Lock()
	m.state = TransportClosed
	delegate := m.delegate
	m.mu.Unlock()

	if delegate != nil {
		delegate.TransportDidError(errMsg)
	}
}

// SimulateClose flips the transport closed and reports a close event.
func (m *MockTransport) SimulateClose(code int, reason string, wasClean bool) {
	m.mu.Lock()
	m.state = TransportClosed
	delegate := m.delegate
	m.mu.Unlock()

	if delegate != nil {
		delegate.TransportDidClose(code, reason, wasClean)
	}
}

// SetSendError makes subsequent Send calls fail with err.
func (m *MockTransport) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendError = err
}

// URL returns the last URL set on the transport.
func (m *MockTransport) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url
}

// Delegate returns the currently registered delegate.
func (m *MockTransport) Delegate() TransportDelegate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.delegate
}

// SentMessages returns a copy of everything sent on the transport.
func (m *MockTransport) SentMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

// OpenCalls returns how many times Open was called.
func (m *MockTransport) OpenCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openCalls
}

// CloseCalls returns how many times Close was called.
func (m *MockTransport) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}
