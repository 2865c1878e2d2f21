package domain

import "encoding/json"

// GatewayEvent is a deferred-work notification emitted by a gateway plugin,
// e.g. the audioroom plugin reporting a finished recording.
type GatewayEvent struct {
	Plugin string          `json:"plugin"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

// Key is the dispatch key of the event.
func (e GatewayEvent) Key() EventKey {
	return EventKey{Plugin: e.Plugin, Event: e.Event}
}

type EventKey struct {
	Plugin string
	Event  string
}

func (k EventKey) String() string { return k.Plugin + "/" + k.Event }
