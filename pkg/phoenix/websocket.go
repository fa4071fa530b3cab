package phoenix

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/gorilla/websocket"

	"github.com/veiloq/phoenix-connector/pkg/logging"
	"github.com/veiloq/phoenix-connector/pkg/ratelimit"
)

// Defaults for the websocket transport.
const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultDialAttempts     = 3
	defaultDialDelay        = time.Second
)

// TransportConfig tunes the default websocket transport.
type TransportConfig struct {
	// HandshakeTimeout bounds the websocket handshake. Defaults to 10s.
	HandshakeTimeout time.Duration

	// DialAttempts is how many times Open retries the dial before reporting
	// a transport error. Defaults to 3.
	DialAttempts uint

	// DialDelay is the fixed pause between dial attempts. Defaults to 1s.
	DialDelay time.Duration

	// SendRate paces outbound frames when set. The zero value disables
	// pacing.
	SendRate ratelimit.Rate

	// Logger defaults to a nop logger.
	Logger logging.Logger
}

// websocketTransport is the default Transport, backed by gorilla/websocket.
type websocketTransport struct {
	config  TransportConfig
	logger  logging.Logger
	limiter ratelimit.RateLimiter

	mu            sync.Mutex
	url           string
	delegate      TransportDelegate
	conn          *websocket.Conn
	state         TransportState
	closedLocally bool

	writeMu sync.Mutex
}

// NewWebsocketTransport creates the default websocket Transport.
func NewWebsocketTransport(config TransportConfig) Transport {
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = defaultHandshakeTimeout
	}
	if config.DialAttempts == 0 {
		config.DialAttempts = defaultDialAttempts
	}
	if config.DialDelay <= 0 {
		config.DialDelay = defaultDialDelay
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	var limiter ratelimit.RateLimiter
	if !config.SendRate.IsZero() {
		l, err := ratelimit.NewTokenBucketLimiter(config.SendRate)
		if err != nil {
			logger.Warn("invalid send rate, outbound pacing disabled", logging.Error(err))
		} else {
			limiter = l
		}
	}

	return &websocketTransport{
		config:  config,
		logger:  logger,
		limiter: limiter,
		state:   TransportClosed,
	}
}

// SetURL implements Transport.
func (t *websocketTransport) SetURL(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.url = url
}

// SetDelegate implements Transport.
func (t *websocketTransport) SetDelegate(delegate TransportDelegate) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delegate = delegate
}

// State implements Transport.
func (t *websocketTransport) State() TransportState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Open implements Transport. The dial happens on a background goroutine; the
// outcome arrives through the delegate.
func (t *websocketTransport) Open() {
	t.mu.Lock()
	if t.state == TransportConnecting || t.state == TransportOpen {
		t.mu.Unlock()
		return
	}
	t.state = TransportConnecting
	t.closedLocally = false
	url := t.url
	t.mu.Unlock()

	go t.dial(url)
}

func (t *websocketTransport) dial(url string) {
	dialer := websocket.Dialer{HandshakeTimeout: t.config.HandshakeTimeout}

	var conn *websocket.Conn
	err := retry.Do(
		func() error {
			c, _, err := dialer.Dial(url, nil)
			if err != nil {
				return err
			}
			conn = c
			return nil
		},
		retry.Attempts(t.config.DialAttempts),
		retry.Delay(t.config.DialDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		t.mu.Lock()
		t.state = TransportClosed
		t.mu.Unlock()

		t.logger.Warn("websocket dial failed",
			logging.String("url", url),
			logging.Error(err),
		)
		if d := t.currentDelegate(); d != nil {
			d.TransportDidError(err.Error())
		}
		return
	}

	t.mu.Lock()
	t.conn = conn
	t.state = TransportOpen
	t.mu.Unlock()

	t.logger.Info("websocket connected", logging.String("url", url))
	if d := t.currentDelegate(); d != nil {
		d.TransportDidOpen()
	}

	go t.readPump(conn)
}

// readPump reads frames until the connection is lost and reports the loss to
// the delegate. A loss caused by a local Close is not reported.
func (t *websocketTransport) readPump(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err == nil {
			if d := t.currentDelegate(); d != nil {
				d.TransportDidReceive(string(message))
			}
			continue
		}

		t.mu.Lock()
		local := t.closedLocally
		t.state = TransportClosed
		t.conn = nil
		t.mu.Unlock()

		if local {
			return
		}

		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) {
			clean := closeErr.Code == websocket.CloseNormalClosure ||
				closeErr.Code == websocket.CloseGoingAway
			t.logger.Info("websocket closed by peer",
				logging.Int("code", closeErr.Code),
				logging.String("reason", closeErr.Text),
			)
			if d := t.currentDelegate(); d != nil {
				d.TransportDidClose(closeErr.Code, closeErr.Text, clean)
			}
			return
		}

		t.logger.Warn("websocket read failed", logging.Error(err))
		if d := t.currentDelegate(); d != nil {
			d.TransportDidError(err.Error())
		}
		return
	}
}

// Close implements Transport.
func (t *websocketTransport) Close() {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.closedLocally = true
	t.state = TransportClosed
	t.mu.Unlock()

	if conn == nil {
		return
	}

	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closed connection"),
		deadline)
	_ = conn.Close()
}

// Send implements Transport.
func (t *websocketTransport) Send(message string) error {
	t.mu.Lock()
	conn := t.conn
	open := t.state == TransportOpen
	t.mu.Unlock()

	if !open || conn == nil {
		return ErrTransportClosed
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(context.Background()); err != nil {
			return err
		}
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, []byte(message))
}

func (t *websocketTransport) currentDelegate() TransportDelegate {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.delegate
}
