package handshake

import (
	"errors"
	"fmt"
	"net"

	"github.com/luserv/luserv/internal/packets"
)

// ErrNoIPv4Equivalent is returned for IPv6 addresses other than loopback, which have
// no slot in the IPv4-only SystemAddress.
var ErrNoIPv4Equivalent = errors.New("address has no IPv4 equivalent")

// IPv4 returns the 4-byte form of ip. IPv4 and IPv4-mapped addresses are returned
// unchanged, the IPv6 loopback maps to 127.0.0.1.
func IPv4(ip net.IP) (net.IP, error) {
	if v4 := ip.To4(); v4 != nil {
		return v4, nil
	}
	if ip.Equal(net.IPv6loopback) {
		return net.IPv4(127, 0, 0, 1).To4(), nil
	}
	return nil, fmt.Errorf("%v: %w", ip, ErrNoIPv4Equivalent)
}

// SystemAddress converts a socket address to its wire form. The port is kept as is.
func SystemAddress(addr net.Addr) (packets.SystemAddress, error) {
	var (
		ip   net.IP
		port int
	)
	switch a := addr.(type) {
	case *net.TCPAddr:
		ip, port = a.IP, a.Port
	case *net.UDPAddr:
		ip, port = a.IP, a.Port
	default:
		return packets.SystemAddress{}, fmt.Errorf("unsupported address type %T", addr)
	}

	v4, err := IPv4(ip)
	if err != nil {
		return packets.SystemAddress{}, err
	}
	return packets.NewSystemAddress(v4, uint16(port)), nil
}
