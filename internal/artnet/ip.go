package artnet

import (
	"errors"
	"fmt"
	"net"
)

// ErrNoInterface is returned when no local address is inside the network.
var ErrNoInterface = errors.New("no interface found")

// FindArtNetIP returns the first local IPv4 address inside the CIDR network.
func FindArtNetIP(network string) (net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("error getting ips: %w", err)
	}
	return matchIP(network, addrs)
}

func matchIP(network string, addrs []net.Addr) (net.IP, error) {
	_, cidrNet, err := net.ParseCIDR(network)
	if err != nil {
		return nil, fmt.Errorf("art-net network %q: %w", network, err)
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil {
			continue
		}
		if cidrNet.Contains(ip) {
			return ip, nil
		}
	}

	return nil, fmt.Errorf("%w in %s", ErrNoInterface, network)
}
