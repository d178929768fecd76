package eventbus

import (
	evbus "github.com/asaskevich/EventBus"
)

// Topics published by the domain services. The services only publish; any
// interested caller subscribes. Nothing in the core depends on a subscriber
// being present.
const (
	TopicAuthLogin          = "auth.login"
	TopicAuthLogout         = "auth.logout"
	TopicAuthSessionExpired = "auth.session_expired"
	TopicAuthLockout        = "auth.lockout"
	TopicContentUpdated     = "content.updated"
	TopicContentReset       = "content.reset"
)

// Bus wraps the underlying event bus so services receive an injected instance
// instead of reaching for a process-wide singleton.
type Bus struct {
	bus evbus.Bus
}

// New creates an event bus.
func New() *Bus {
	return &Bus{bus: evbus.New()}
}

// Publish emits an event. Safe to call on a nil bus.
func (b *Bus) Publish(topic string, args ...interface{}) {
	if b == nil {
		return
	}
	b.bus.Publish(topic, args...)
}

// Subscribe registers a handler for the topic.
func (b *Bus) Subscribe(topic string, fn interface{}) error {
	return b.bus.Subscribe(topic, fn)
}

// SubscribeAsync registers a handler invoked on its own goroutine.
func (b *Bus) SubscribeAsync(topic string, fn interface{}) error {
	return b.bus.SubscribeAsync(topic, fn, false)
}

// Unsubscribe removes a previously registered handler.
func (b *Bus) Unsubscribe(topic string, fn interface{}) error {
	return b.bus.Unsubscribe(topic, fn)
}

// WaitAsync blocks until all async handlers have completed.
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}
