package websocket

// EventPublisher is the port services use to announce ledger changes
type EventPublisher interface {
	Publish(event Event)
}

var _ EventPublisher = (*Hub)(nil)

// Publish broadcasts event to every connected dashboard
func (h *Hub) Publish(event Event) {
	h.Broadcast(event)
}
