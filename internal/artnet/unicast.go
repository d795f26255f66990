package artnet

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"sync"

	"stagelights/internal/dmx"
	"stagelights/internal/logger"
)

const (
	// OpCodeDMX is the ArtDmx operation code.
	OpCodeDMX uint16 = 0x5000
	// ProtocolVersion is the Art-Net protocol revision.
	ProtocolVersion uint16 = 14
	// DefaultPort is the Art-Net UDP port.
	DefaultPort = 6454

	headerSize = 18
	// PacketSize is the size of an ArtDmx packet carrying a full universe.
	PacketSize = headerSize + dmx.UniverseSize
)

var packetID = []byte{'A', 'r', 't', '-', 'N', 'e', 't', 0x00}

// BuildDMXPacket encodes frame as an ArtDmx packet for the 15-bit port
// address universe. The sequence lets receivers reorder packets; zero
// disables reordering.
func BuildDMXPacket(universe int, frame *dmx.Universe, sequence byte) ([]byte, error) {
	if universe < 0 || universe > MaxUniverse {
		return nil, fmt.Errorf("%w: %d", ErrInvalidUniverse, universe)
	}
	packet := make([]byte, PacketSize)

	copy(packet[0:8], packetID)
	binary.LittleEndian.PutUint16(packet[8:10], OpCodeDMX)
	binary.BigEndian.PutUint16(packet[10:12], ProtocolVersion)
	packet[12] = sequence
	packet[13] = 0 // physical port
	binary.LittleEndian.PutUint16(packet[14:16], uint16(universe))
	binary.BigEndian.PutUint16(packet[16:18], dmx.UniverseSize)
	copy(packet[headerSize:], frame[:])

	return packet, nil
}

// UnicastSender writes ArtDmx packets to a single node.
type UnicastSender struct {
	log  *logger.Log
	mu   sync.Mutex
	conn *net.UDPConn
	seq  byte
}

// DialUnicast opens a UDP socket to host:port. A zero port means DefaultPort.
func DialUnicast(log *logger.Log, host string, port int) (*UnicastSender, error) {
	if port == 0 {
		port = DefaultPort
	}
	addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("resolve art-net target: %w", err)
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial art-net target: %w", err)
	}

	log = log.Module("art-net")
	log.Infof("sending ArtDmx to %s", addr.String())
	return &UnicastSender{log: log, conn: conn}, nil
}

// SendFrame writes one packet. The sequence advances on every call and
// skips zero.
func (s *UnicastSender) SendFrame(universe int, frame *dmx.Universe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if s.seq == 0 {
		s.seq = 1
	}
	packet, err := BuildDMXPacket(universe, frame, s.seq)
	if err != nil {
		return err
	}
	if _, err := s.conn.Write(packet); err != nil {
		return fmt.Errorf("write ArtDmx: %w", err)
	}
	return nil
}

// Close closes the socket.
func (s *UnicastSender) Close() error {
	return s.conn.Close()
}
