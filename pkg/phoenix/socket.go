// Package phoenix implements a client for Phoenix Channels-style servers:
// many logical topics multiplexed over one persistent transport connection,
// kept alive with heartbeats and reconnected automatically on loss.
package phoenix

import (
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/veiloq/phoenix-connector/pkg/logging"
)

// DefaultReconnectDelay is the fixed pause before an automatic reconnect
// attempt after an unplanned close.
const DefaultReconnectDelay = 5 * time.Second

// Callback types for socket lifecycle observation. Callbacks are invoked in
// registration order, on the socket's serialized worker.
type (
	OpenCallback    func()
	CloseCallback   func(reason string)
	ErrorCallback   func(errMsg string)
	MessageCallback func(envelope Envelope)
)

// SocketDelegate receives socket lifecycle notifications. The socket keeps a
// non-owning reference; pass nil to SetDelegate to stop notifications.
type SocketDelegate interface {
	SocketDidOpen()
	SocketDidClose(reason string)
	SocketDidReceiveError(errMsg string)
}

// Config holds socket configuration.
type Config struct {
	// URL is the websocket endpoint, e.g. "ws://localhost:4000/socket/websocket".
	URL string

	// HeartbeatInterval is the cadence of heartbeat envelopes while the
	// connection is open. Zero disables heartbeating.
	HeartbeatInterval time.Duration

	// ReconnectDelay is the fixed pause before an automatic reconnect
	// attempt. Defaults to DefaultReconnectDelay.
	ReconnectDelay time.Duration

	// Transport, when set, is used for the first connection instead of the
	// default websocket transport. Once released by Disconnect, later
	// connects fall back to TransportFactory.
	Transport Transport

	// TransportFactory builds the transport for each connect when none is
	// live. Defaults to NewWebsocketTransport with TransportConfig.
	TransportFactory func() Transport

	// TransportConfig tunes the default websocket transport. Ignored when
	// TransportFactory is set.
	TransportConfig TransportConfig

	// Logger defaults to a nop logger.
	Logger logging.Logger
}

// Socket multiplexes logical channels over one persistent transport
// connection and owns the connection lifecycle: opening and tearing down the
// transport, heartbeating, loss detection, and automatic reconnection.
//
// All state mutation and callback delivery happen on a single worker
// goroutine, in event order. Registration methods (OnOpen, AddChannel, ...)
// are safe to call from any goroutine at any time.
type Socket struct {
	url               string
	heartbeatInterval time.Duration
	reconnectDelay    time.Duration
	reconnectOnError  bool

	executor     *executor
	newTransport func() Transport
	logger       logging.Logger

	ref              atomic.Int64
	canSendHeartbeat atomic.Bool
	canReconnect     atomic.Bool
	reconnecting     atomic.Bool

	mu               sync.Mutex
	transport        Transport
	params           map[string]string
	delegate         SocketDelegate
	channels         []Channel
	openCallbacks    []OpenCallback
	closeCallbacks   []CloseCallback
	errorCallbacks   []ErrorCallback
	messageCallbacks []MessageCallback
}

// NewSocket creates a socket for the given endpoint. The socket is created
// once per logical server URL and persists for the application's session;
// transports come and go underneath it.
func NewSocket(config Config) *Socket {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	reconnectDelay := config.ReconnectDelay
	if reconnectDelay <= 0 {
		reconnectDelay = DefaultReconnectDelay
	}

	factory := config.TransportFactory
	if factory == nil {
		transportConfig := config.TransportConfig
		if transportConfig.Logger == nil {
			transportConfig.Logger = logger
		}
		factory = func() Transport { return NewWebsocketTransport(transportConfig) }
	}

	return &Socket{
		url:               config.URL,
		heartbeatInterval: config.HeartbeatInterval,
		reconnectDelay:    reconnectDelay,
		reconnectOnError:  true,
		executor:          newExecutor(),
		newTransport:      factory,
		logger:            logger,
		transport:         config.Transport,
	}
}

// Connect establishes the transport connection. params are recorded for
// future reconnects and merged into the endpoint query string. Connecting
// while a live transport reports open returns ErrAlreadyConnected; call
// Disconnect first to change parameters on a connected socket.
func (s *Socket) Connect(params map[string]string) error {
	if s.IsConnected() {
		return ErrAlreadyConnected
	}

	endpoint, err := buildURL(s.url, params)
	if err != nil {
		return fmt.Errorf("invalid socket URL: %w", err)
	}

	// A pending reconnect attempt must not race a caller-driven connect.
	s.canReconnect.Store(false)

	s.mu.Lock()
	s.params = params
	if s.transport == nil {
		s.transport = s.newTransport()
	}
	transport := s.transport
	s.mu.Unlock()

	transport.SetDelegate(s)
	transport.SetURL(endpoint)

	s.logger.Info("connecting", logging.String("url", endpoint))
	transport.Open()
	return nil
}

// Disconnect stops heartbeating, cancels any pending reconnect attempt, and
// tears the transport down. A subsequent Connect creates a fresh transport.
func (s *Socket) Disconnect() {
	s.canSendHeartbeat.Store(false)
	s.canReconnect.Store(false)
	s.releaseTransport()
}

// Reconnect tears down the current transport and connects again with the
// last-used params. The automatic reconnect path uses it too.
func (s *Socket) Reconnect() error {
	s.releaseTransport()

	s.mu.Lock()
	params := s.params
	s.mu.Unlock()

	return s.Connect(params)
}

// Shutdown disconnects and stops the serialized worker, releasing the
// socket's background goroutines. The socket must not be used afterwards.
func (s *Socket) Shutdown() {
	s.Disconnect()
	s.executor.stop()
}

// IsConnected reports whether a live transport currently reports itself open.
func (s *Socket) IsConnected() bool {
	s.mu.Lock()
	transport := s.transport
	s.mu.Unlock()
	return transport != nil && transport.State() == TransportOpen
}

// Push serializes the envelope and sends it on the current transport. The
// caller is responsible for the connection being up: pushing with no live
// transport returns ErrNotConnected rather than silently dropping.
func (s *Socket) Push(envelope Envelope) error {
	s.mu.Lock()
	transport := s.transport
	s.mu.Unlock()

	if transport == nil {
		return ErrNotConnected
	}

	data, err := envelope.Encode()
	if err != nil {
		return err
	}
	return transport.Send(string(data))
}

// MakeRef returns the next reference value. Refs start at 0, increase
// monotonically for the socket's lifetime, and never repeat.
func (s *Socket) MakeRef() int64 {
	return s.ref.Add(1) - 1
}

// OnOpen registers a callback invoked after the transport reports open.
func (s *Socket) OnOpen(callback OpenCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openCallbacks = append(s.openCallbacks, callback)
}

// OnClose registers a callback invoked with the close reason.
func (s *Socket) OnClose(callback CloseCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCallbacks = append(s.closeCallbacks, callback)
}

// OnError registers a callback invoked with transport error messages.
func (s *Socket) OnError(callback ErrorCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorCallbacks = append(s.errorCallbacks, callback)
}

// OnMessage registers a callback invoked with every parsed inbound envelope,
// independently of channel delivery.
func (s *Socket) OnMessage(callback MessageCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageCallbacks = append(s.messageCallbacks, callback)
}

// AddChannel registers a channel for envelope delivery. The socket holds the
// channel by reference; channels outlive individual transports.
func (s *Socket) AddChannel(channel Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = append(s.channels, channel)
}

// RemoveChannel unregisters a channel by identity. A removed channel receives
// no further envelopes.
func (s *Socket) RemoveChannel(channel Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.channels {
		if c == channel {
			s.channels = append(s.channels[:i], s.channels[i+1:]...)
			return
		}
	}
}

// SetDelegate replaces the non-owning lifecycle observer. Pass nil to clear.
func (s *Socket) SetDelegate(delegate SocketDelegate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delegate = delegate
}

// TransportDelegate
//
// The transport reports events on its own goroutines; each handler enqueues
// the real work on the serialized worker and returns.

// TransportDidOpen implements TransportDelegate.
func (s *Socket) TransportDidOpen() {
	s.executor.submit(s.handleOpen)
}

// TransportDidReceive implements TransportDelegate.
func (s *Socket) TransportDidReceive(message string) {
	s.executor.submit(func() { s.handleMessage(message) })
}

// TransportDidError implements TransportDelegate.
func (s *Socket) TransportDidError(errMsg string) {
	s.executor.submit(func() { s.handleError(errMsg) })
}

// TransportDidClose implements TransportDelegate.
func (s *Socket) TransportDidClose(code int, reason string, wasClean bool) {
	s.executor.submit(func() { s.handleClose(reason) })
}

// handleOpen runs on the serialized worker.
func (s *Socket) handleOpen() {
	s.canReconnect.Store(false)

	if s.heartbeatInterval > 0 {
		s.canSendHeartbeat.Store(true)
		go s.heartbeatLoop()
	}

	s.mu.Lock()
	callbacks := append([]OpenCallback(nil), s.openCallbacks...)
	delegate := s.delegate
	s.mu.Unlock()

	s.logger.Info("socket opened")
	for _, callback := range callbacks {
		callback()
	}
	if delegate != nil {
		delegate.SocketDidOpen()
	}
}

// heartbeatLoop sleeps off the worker and submits one send task per interval.
// It exits the first time heartbeating has been disabled, so cancellation
// latency is at most one interval.
func (s *Socket) heartbeatLoop() {
	for {
		time.Sleep(s.heartbeatInterval)
		if !s.canSendHeartbeat.Load() {
			return
		}
		s.executor.submit(s.sendHeartbeat)
	}
}

// sendHeartbeat runs on the serialized worker. Heartbeats are only sent while
// heartbeating is enabled and the transport reports itself open.
func (s *Socket) sendHeartbeat() {
	if !s.canSendHeartbeat.Load() || !s.IsConnected() {
		return
	}

	envelope := NewEnvelope(TopicPhoenix, EventHeartbeat, map[string]interface{}{}, s.MakeRef())
	s.logger.Debug("sending heartbeat", logging.Int64("ref", envelope.RefValue()))
	if err := s.Push(envelope); err != nil {
		s.logger.Warn("heartbeat send failed", logging.Error(err))
	}
}

// handleClose runs on the serialized worker. The reason doubles as the
// payload of the synthetic phx_error broadcast to every registered channel,
// so channels can react to the drop before the socket-level close callbacks.
func (s *Socket) handleClose(reason string) {
	s.triggerChanError(reason)

	if s.reconnectOnError {
		// At most one reconnect attempt per disconnect; a close arriving
		// while an attempt is in flight does not schedule another.
		if s.reconnecting.CompareAndSwap(false, true) {
			s.canReconnect.Store(true)
			go s.reconnectTimer()
		}
	}

	s.canSendHeartbeat.Store(false)

	s.mu.Lock()
	callbacks := append([]CloseCallback(nil), s.closeCallbacks...)
	delegate := s.delegate
	s.mu.Unlock()

	s.logger.Info("socket closed", logging.String("reason", reason))
	for _, callback := range callbacks {
		callback(reason)
	}
	if delegate != nil {
		delegate.SocketDidClose(reason)
	}
}

// reconnectTimer sleeps off the worker, then fires at most once. Clearing
// canReconnect before the timer fires cancels the attempt; the stale timer
// is then a no-op.
func (s *Socket) reconnectTimer() {
	time.Sleep(s.reconnectDelay)
	s.executor.submit(func() {
		if s.canReconnect.Load() {
			s.canReconnect.Store(false)
			s.logger.Info("attempting reconnect", logging.String("url", s.url))
			if err := s.Reconnect(); err != nil {
				s.logger.Warn("reconnect attempt failed", logging.Error(err))
			}
		}
		s.reconnecting.Store(false)
	})
}

// handleError runs on the serialized worker. A transport error always implies
// connection loss, so it funnels into the close path with the error message
// as the close reason.
func (s *Socket) handleError(errMsg string) {
	s.canSendHeartbeat.Store(false)

	s.mu.Lock()
	callbacks := append([]ErrorCallback(nil), s.errorCallbacks...)
	delegate := s.delegate
	s.mu.Unlock()

	s.logger.Warn("socket error", logging.String("error", errMsg))
	for _, callback := range callbacks {
		callback(errMsg)
	}
	if delegate != nil {
		delegate.SocketDidReceiveError(errMsg)
	}

	s.handleClose(errMsg)
}

// handleMessage runs on the serialized worker. A malformed envelope fails
// only this task; queued work is unaffected.
func (s *Socket) handleMessage(raw string) {
	envelope, err := ParseEnvelope([]byte(raw))
	if err != nil {
		s.logger.Warn("dropping malformed envelope", logging.Error(err))
		return
	}

	ref := envelope.RefValue()

	s.mu.Lock()
	channels := append([]Channel(nil), s.channels...)
	callbacks := append([]MessageCallback(nil), s.messageCallbacks...)
	s.mu.Unlock()

	for _, channel := range channels {
		if channel.Topic() == envelope.Topic {
			channel.TriggerEvent(envelope.Event, envelope.Payload, ref)
		}
	}
	for _, callback := range callbacks {
		callback(envelope)
	}
}

// triggerChanError broadcasts a synthetic phx_error to every registered
// channel with the loss reason as payload and ref 0.
func (s *Socket) triggerChanError(reason string) {
	s.mu.Lock()
	channels := append([]Channel(nil), s.channels...)
	s.mu.Unlock()

	for _, channel := range channels {
		channel.TriggerEvent(EventError, reason, 0)
	}
}

// releaseTransport clears the transport delegate to suppress late events,
// closes the transport, and drops the reference so the next connect creates
// a fresh one.
func (s *Socket) releaseTransport() {
	s.mu.Lock()
	transport := s.transport
	s.transport = nil
	s.mu.Unlock()

	if transport != nil {
		transport.SetDelegate(nil)
		transport.Close()
	}
}

// buildURL merges connection params into the endpoint query string.
func buildURL(endpoint string, params map[string]string) (string, error) {
	if len(params) == 0 {
		if _, err := url.Parse(endpoint); err != nil {
			return "", err
		}
		return endpoint, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	query := u.Query()
	for key, value := range params {
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}
