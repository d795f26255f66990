// Package artnet sends DMX frames as Art-Net, either through a node
// controller that discovers the nodes on the lighting network or as plain
// ArtDmx packets to a single host.
package artnet

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Haba1234/go-artnet"

	"stagelights/internal/config"
	"stagelights/internal/dmx"
	"stagelights/internal/logger"
)

// MaxUniverse is the highest 15-bit Art-Net port address.
const MaxUniverse = 0x7fff

var (
	// ErrNotStarted is returned when frames are sent before Start.
	ErrNotStarted = errors.New("art-net controller not started")
	// ErrInvalidUniverse is returned for universes outside 0..MaxUniverse.
	ErrInvalidUniverse = errors.New("invalid art-net universe")
)

// nodeReportInterval is how often the discovered nodes are logged.
const nodeReportInterval = 30 * time.Second

type nodeController interface {
	Start() error
	Stop()
	SendDMXToAddress(dmx [512]byte, address artnet.Address)
}

// Controller sends frames through a go-artnet node controller.
type Controller struct {
	log     *logger.Log
	sender  nodeController
	nodes   func() []*artnet.ControlledNode
	started atomic.Bool
}

// NewController binds a node controller to the first local interface
// inside cfg.Network.
func NewController(log *logger.Log, cfg config.ArtNetConf) (*Controller, error) {
	ip, err := FindArtNetIP(cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("failed to find the art-net IP: %w", err)
	}

	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hostname: %w", err)
	}
	host = strings.ToLower(strings.Split(host, ".")[0])

	log = log.Module("art-net")
	log.Infof("Using ArtNet IP %s and hostname %s", ip.String(), host)

	level := "info"
	if log.GetLevel() == "debug" {
		level = "debug"
	}
	ctrl := artnet.NewController(host, ip, artnet.NewDefaultLogger(level), artnet.MaxFPS(cfg.MaxFPS))

	return &Controller{
		log:    log,
		sender: ctrl,
		nodes:  func() []*artnet.ControlledNode { return ctrl.Nodes },
	}, nil
}

// Start starts node discovery. Nodes are logged at debug level until ctx
// is done.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.sender.Start(); err != nil {
		return fmt.Errorf("failed to start Controller: %w", err)
	}
	c.started.Store(true)
	go c.reportNodes(ctx)
	return nil
}

// Stop stops the controller. Later frames fail with ErrNotStarted.
func (c *Controller) Stop() {
	if c.started.Swap(false) {
		c.sender.Stop()
	}
}

// SendFrame hands frame to the controller for the given universe.
func (c *Controller) SendFrame(universe int, frame *dmx.Universe) error {
	if !c.started.Load() {
		return ErrNotStarted
	}
	addr, err := universeToAddress(universe)
	if err != nil {
		return err
	}
	c.sender.SendDMXToAddress([512]byte(*frame), addr)
	return nil
}

// Nodes describes the nodes discovered so far.
func (c *Controller) Nodes() []Node {
	if c.nodes == nil {
		return nil
	}
	controlled := c.nodes()
	out := make([]Node, 0, len(controlled))
	for _, n := range controlled {
		out = append(out, describe(n))
	}
	return out
}

func (c *Controller) reportNodes(ctx context.Context) {
	t := time.NewTicker(nodeReportInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			nodes := c.Nodes()
			c.log.Debugf("Currently %d devices are registered", len(nodes))
			for _, n := range nodes {
				c.log.Debug(n.String())
			}
		}
	}
}

// universeToAddress converts a 15-bit port address: the high byte is the
// Net, the low byte the Sub-Net and Universe.
func universeToAddress(universe int) (artnet.Address, error) {
	if universe < 0 || universe > MaxUniverse {
		return artnet.Address{}, fmt.Errorf("%w: %d", ErrInvalidUniverse, universe)
	}
	v := make([]uint8, 2)
	binary.BigEndian.PutUint16(v, uint16(universe))

	return artnet.Address{
		Net:    v[0],
		SubUni: v[1],
	}, nil
}
