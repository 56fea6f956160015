package service

// Broadcaster pushes run lifecycle events to connected watchers. The
// WebSocket hub implements this; services depend only on the interface so
// transports stay swappable.
type Broadcaster interface {
	BroadcastRunEvent(runID string, msgType string, payload interface{})
}

// noopBroadcaster stands in until a real broadcaster is injected
type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastRunEvent(runID string, msgType string, payload interface{}) {}
