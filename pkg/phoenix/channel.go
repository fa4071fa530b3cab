package phoenix

import "sync"

// Channel is a logical topic endpoint multiplexed over the socket's single
// transport connection. The socket enumerates registered channels and
// delivers every envelope whose topic matches.
type Channel interface {
	// Topic returns the string identifying this channel on the wire.
	Topic() string

	// TriggerEvent delivers a dispatched envelope to the channel. ref is
	// NoRef when the inbound envelope carried no ref.
	TriggerEvent(event string, payload interface{}, ref int64)
}

// EventHandler handles one event delivered to a TopicChannel.
type EventHandler func(payload interface{}, ref int64)

// TopicChannel is a basic Channel implementation that dispatches delivered
// events to handlers bound with On. Handlers for an event run in binding
// order, on the socket's serialized worker.
type TopicChannel struct {
	topic string

	mu       sync.Mutex
	bindings map[string][]EventHandler
}

// NewTopicChannel creates a channel for the given topic.
func NewTopicChannel(topic string) *TopicChannel {
	return &TopicChannel{
		topic:    topic,
		bindings: make(map[string][]EventHandler),
	}
}

// Topic implements Channel.
func (c *TopicChannel) Topic() string {
	return c.topic
}

// On binds a handler to an event name. Binding the same event again appends;
// existing handlers are kept.
func (c *TopicChannel) On(event string, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[event] = append(c.bindings[event], handler)
}

// TriggerEvent implements Channel.
func (c *TopicChannel) TriggerEvent(event string, payload interface{}, ref int64) {
	c.mu.Lock()
	handlers := append([]EventHandler(nil), c.bindings[event]...)
	c.mu.Unlock()

	for _, handler := range handlers {
		handler(payload, ref)
	}
}
