// Package hooks is a minimal synchronous event bus for host lifecycle events.
package hooks

// Events emitted by the application.
const (
	// Ready fires once after settings are loaded and before any command runs.
	Ready = "ready"
	// RenderRoster fires while the roster view is being built; handlers may
	// decorate the roster before it is shown.
	RenderRoster = "renderRoster"
)

// Handler receives the payload passed to Emit.
type Handler func(payload any)

// Bus dispatches named events to handlers in registration order.
type Bus struct {
	handlers map[string][]Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// On registers h for event.
func (b *Bus) On(event string, h Handler) {
	b.handlers[event] = append(b.handlers[event], h)
}

// Emit calls every handler registered for event, in order, and returns the
// number of handlers run. An event with no handlers is a no-op.
func (b *Bus) Emit(event string, payload any) int {
	hs := b.handlers[event]
	for _, h := range hs {
		h(payload)
	}
	return len(hs)
}
