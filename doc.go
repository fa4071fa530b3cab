// Package phoenix-connector provides a client for Phoenix Channels-style servers:
// many logical topics multiplexed over a single persistent websocket connection,
// kept alive with periodic heartbeats and reconnected automatically on loss.
//
// The library centres on the phoenix.Socket, which owns the connection
// lifecycle. Callers register channels and callbacks up front; the socket
// serializes every state change and every callback invocation onto a single
// worker goroutine, so observers never race each other or the socket's own
// timers.
//
// Core features:
//
//   - One websocket connection carrying any number of logical topics
//   - Periodic heartbeat envelopes to keep intermediaries from idling the
//     connection out
//   - Automatic reconnection after an unplanned close, with a fixed delay and
//     at most one attempt in flight
//   - Envelope routing to registered channels by topic, plus raw message
//     observers
//   - Pluggable transports: the default is backed by gorilla/websocket, and
//     tests can inject their own
//
// # Standard Errors
//
// The phoenix package defines standardized errors for consistent handling:
//
//   - ErrNotConnected: an operation needed a live transport and the socket
//     has none (e.g. Push after Disconnect)
//
//   - ErrAlreadyConnected: Connect was called while a live transport already
//     reports itself open; call Disconnect first
//
//   - ErrTransportClosed: a send was attempted on a transport that is not in
//     the open state
//
//   - ErrInvalidEnvelope: an inbound message could not be decoded as a
//     protocol envelope
//
// # Examples
//
// Basic usage:
//
//	socket := phoenix.NewSocket(phoenix.Config{
//	    URL:               "ws://localhost:4000/socket/websocket",
//	    HeartbeatInterval: 30 * time.Second,
//	})
//	defer socket.Shutdown()
//
//	lobby := phoenix.NewTopicChannel("room:lobby")
//	lobby.On("new_msg", func(payload interface{}, ref int64) {
//	    log.Printf("message: %v", payload)
//	})
//	socket.AddChannel(lobby)
//
//	if err := socket.Connect(map[string]string{"token": token}); err != nil {
//	    log.Fatalf("connect: %v", err)
//	}
//
// Pushing an envelope:
//
//	join := phoenix.NewEnvelope("room:lobby", phoenix.EventJoin, map[string]interface{}{}, socket.MakeRef())
//	if err := socket.Push(join); err != nil {
//	    log.Printf("push: %v", err)
//	}
//
// See cmd/examples for a runnable client.
package phoenixconnector
