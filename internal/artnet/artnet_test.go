package artnet

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/Haba1234/go-artnet"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagelights/internal/dmx"
	"stagelights/internal/logger"
)

type fakeController struct {
	started bool
	stopped bool
	frames  [][512]byte
	addrs   []artnet.Address
}

func (f *fakeController) Start() error { f.started = true; return nil }
func (f *fakeController) Stop()        { f.stopped = true }
func (f *fakeController) SendDMXToAddress(d [512]byte, a artnet.Address) {
	f.frames = append(f.frames, d)
	f.addrs = append(f.addrs, a)
}

func testLog() *logger.Log {
	l, _ := test.NewNullLogger()
	return logger.Wrap(l)
}

func TestUniverseToAddress(t *testing.T) {
	tests := []struct {
		universe int
		want     artnet.Address
		err      bool
	}{
		{universe: 0, want: artnet.Address{}},
		{universe: 1, want: artnet.Address{SubUni: 1}},
		{universe: 0x0102, want: artnet.Address{Net: 1, SubUni: 2}},
		{universe: MaxUniverse, want: artnet.Address{Net: 0x7f, SubUni: 0xff}},
		{universe: MaxUniverse + 1, err: true},
		{universe: -1, err: true},
	}
	for _, tt := range tests {
		got, err := universeToAddress(tt.universe)
		if tt.err {
			assert.True(t, errors.Is(err, ErrInvalidUniverse), "universe %d", tt.universe)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "universe %d", tt.universe)
	}
}

func TestController_SendFrame(t *testing.T) {
	fake := &fakeController{}
	c := &Controller{log: testLog(), sender: fake}

	var frame dmx.Universe
	require.NoError(t, frame.Set(1, 200))

	assert.True(t, errors.Is(c.SendFrame(0, &frame), ErrNotStarted))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Start(ctx))
	assert.True(t, fake.started)

	require.NoError(t, c.SendFrame(2, &frame))
	require.Len(t, fake.frames, 1)
	assert.Equal(t, byte(200), fake.frames[0][0])
	assert.Equal(t, artnet.Address{SubUni: 2}, fake.addrs[0])

	assert.Error(t, c.SendFrame(MaxUniverse+1, &frame))

	c.Stop()
	assert.True(t, fake.stopped)
	assert.True(t, errors.Is(c.SendFrame(0, &frame), ErrNotStarted))
}

func TestController_NoNodes(t *testing.T) {
	c := &Controller{log: testLog(), sender: &fakeController{}}
	assert.Empty(t, c.Nodes())

	c.nodes = func() []*artnet.ControlledNode { return nil }
	assert.Empty(t, c.Nodes())
}

func TestMatchIP(t *testing.T) {
	addrs := []net.Addr{
		&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
		&net.IPNet{IP: net.ParseIP("10.0.0.5").To4(), Mask: net.CIDRMask(8, 32)},
		&net.IPNet{IP: net.ParseIP("192.168.6.20").To4(), Mask: net.CIDRMask(24, 32)},
	}

	ip, err := matchIP("192.168.6.0/24", addrs)
	require.NoError(t, err)
	assert.Equal(t, "192.168.6.20", ip.String())

	_, err = matchIP("2.0.0.0/8", addrs)
	assert.True(t, errors.Is(err, ErrNoInterface))

	_, err = matchIP("not-a-cidr", addrs)
	assert.Error(t, err)
}

func TestBuildDMXPacket(t *testing.T) {
	var frame dmx.Universe
	require.NoError(t, frame.Set(1, 255))
	require.NoError(t, frame.Set(101, 128))
	require.NoError(t, frame.Set(512, 64))

	packet, err := BuildDMXPacket(0x0103, &frame, 123)
	require.NoError(t, err)

	require.Len(t, packet, PacketSize)
	assert.Equal(t, "Art-Net\x00", string(packet[0:8]))
	assert.Equal(t, OpCodeDMX, binary.LittleEndian.Uint16(packet[8:10]))
	assert.Equal(t, ProtocolVersion, binary.BigEndian.Uint16(packet[10:12]))
	assert.Equal(t, byte(123), packet[12])
	assert.Equal(t, byte(0), packet[13])
	assert.Equal(t, uint16(0x0103), binary.LittleEndian.Uint16(packet[14:16]))
	assert.Equal(t, uint16(512), binary.BigEndian.Uint16(packet[16:18]))
	assert.Equal(t, byte(255), packet[18])
	assert.Equal(t, byte(128), packet[18+100])
	assert.Equal(t, byte(64), packet[18+511])

	_, err = BuildDMXPacket(-1, &frame, 0)
	assert.True(t, errors.Is(err, ErrInvalidUniverse))
}

func TestUnicastSender(t *testing.T) {
	listener, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer listener.Close()

	port := listener.LocalAddr().(*net.UDPAddr).Port
	s, err := DialUnicast(testLog(), "127.0.0.1", port)
	require.NoError(t, err)
	defer s.Close()

	var frame dmx.Universe
	require.NoError(t, frame.Set(3, 33))

	buf := make([]byte, 1024)
	for want := byte(1); want <= 2; want++ {
		require.NoError(t, s.SendFrame(0, &frame))

		require.NoError(t, listener.SetReadDeadline(time.Now().Add(2*time.Second)))
		n, _, err := listener.ReadFromUDP(buf)
		require.NoError(t, err)
		require.Equal(t, PacketSize, n)
		assert.Equal(t, want, buf[12], "sequence")
		assert.Equal(t, byte(33), buf[18+2])
	}
}
