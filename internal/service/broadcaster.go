package service

// Broadcaster is the live-update fan-out the services push record
// changes through. *websocket.Hub satisfies it; tests substitute a
// recording fake.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{})
}
