package phoenix

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// MockServer is an httptest-backed websocket server for exercising the
// default transport against a real connection.
type MockServer struct {
	server *httptest.Server
	url    string

	mu       sync.Mutex
	conns    map[*websocket.Conn]bool
	received [][]byte
	reject   bool
}

// NewMockServer starts a mock websocket server. Close it when done.
func NewMockServer() *MockServer {
	m := &MockServer{conns: make(map[*websocket.Conn]bool)}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	m.url = "ws" + strings.TrimPrefix(m.server.URL, "http")
	return m
}

// URL returns the websocket URL of the server.
func (m *MockServer) URL() string {
	return m.url
}

// Close shuts the server down.
func (m *MockServer) Close() {
	m.server.Close()
}

// SetReject makes the server refuse new connections.
func (m *MockServer) SetReject(reject bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reject = reject
}

// Broadcast sends a text frame to every connected client.
func (m *MockServer) Broadcast(message []byte) {
	m.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(m.conns))
	for conn := range m.conns {
		conns = append(conns, conn)
	}
	m.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			m.drop(conn)
		}
	}
}

// DropConnections abruptly closes every live connection, without a close
// handshake, simulating a network-level loss.
func (m *MockServer) DropConnections() {
	m.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(m.conns))
	for conn := range m.conns {
		conns = append(conns, conn)
	}
	m.mu.Unlock()

	for _, conn := range conns {
		_ = conn.UnderlyingConn().Close()
	}
}

// ConnectionCount returns the number of live connections.
func (m *MockServer) ConnectionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// Received returns a copy of every text frame the server has read.
func (m *MockServer) Received() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	messages := make([][]byte, len(m.received))
	copy(messages, m.received)
	return messages
}

func (m *MockServer) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	reject := m.reject
	m.mu.Unlock()
	if reject {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	m.mu.Lock()
	m.conns[conn] = true
	m.mu.Unlock()

	defer func() {
		m.drop(conn)
		_ = conn.Close()
	}()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType == websocket.TextMessage {
			m.mu.Lock()
			m.received = append(m.received, message)
			m.mu.Unlock()
		}
	}
}

func (m *MockServer) drop(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, conn)
}

// setupMockServer creates a MockServer scoped to a test.
func setupMockServer(t *testing.T) *MockServer {
	t.Helper()
	m := NewMockServer()
	t.Cleanup(m.Close)
	return m
}
