// Package osc sends DMX channel changes as OSC messages, one message per
// changed channel.
package osc

import (
	"fmt"

	"github.com/hypebeast/go-osc/osc"

	"stagelights/internal/config"
	"stagelights/internal/logger"
)

const (
	// DefaultHost and DefaultPort are where the lighting daemon listens.
	DefaultHost = "localhost"
	DefaultPort = 7770
)

type packetSender interface {
	Send(packet osc.Packet) error
}

// Sender writes "/dmx/universe/<n> <channel> <value>" messages.
type Sender struct {
	log     *logger.Log
	client  packetSender
	address string
}

// NewSender returns a sender for universe.
func NewSender(log *logger.Log, cfg config.OSCConf, universe int) *Sender {
	host, port := cfg.Host, cfg.Port
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}
	log = log.Module("osc")
	log.Infof("sending channel changes to %s:%d", host, port)

	return &Sender{
		log:     log,
		client:  osc.NewClient(host, port),
		address: Address(universe),
	}
}

// Address is the OSC address of a universe.
func Address(universe int) string {
	return fmt.Sprintf("/dmx/universe/%d", universe)
}

// SendChange sends one channel value.
func (s *Sender) SendChange(address int, value byte) error {
	msg := osc.NewMessage(s.address)
	msg.Append(int32(address))
	msg.Append(int32(value))
	if err := s.client.Send(msg); err != nil {
		return fmt.Errorf("osc send %s: %w", s.address, err)
	}
	s.log.Debugf("%s %d %d", s.address, address, value)
	return nil
}
