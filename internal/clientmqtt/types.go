package clientmqtt

import (
	"context"

	"stagelights/internal/engine"
)

// Change is the payload published for one changed channel.
type Change struct {
	Channel int `json:"channel"` // Channel - 1-based DMX address.
	Value   int `json:"value"`   // Value - 0..255.
}

// Commander applies fixture commands received on the control topic.
type Commander interface {
	Apply(name string, cmd engine.Command) error
}

// MQTTClient is the part of the client the daemon drives.
type MQTTClient interface {
	Start(ctx context.Context, commands Commander) error
	Stop() error
	SendChange(address int, value byte) error
}
