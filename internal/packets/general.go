package packets

import (
	"fmt"
	"strings"
)

// RemoteConnectionType selects the family of an LU packet.
type RemoteConnectionType uint16

const (
	GeneralConnection RemoteConnectionType = 0x00
	AuthConnection    RemoteConnectionType = 0x01
	ChatConnection    RemoteConnectionType = 0x02
	WorldConnection   RemoteConnectionType = 0x04
	ClientConnection  RemoteConnectionType = 0x05
)

// GeneralPacketID identifies a packet within the general family.
type GeneralPacketID uint32

const (
	HandshakePacketID GeneralPacketID = 0x00
)

// NetworkVersion is the only protocol version the server speaks.
const NetworkVersion uint32 = 171022

// ServiceID names the logical service a peer is (or claims to be).
type ServiceID uint32

const (
	ServiceGeneral ServiceID = 0
	ServiceAuth    ServiceID = 1
	ServiceChat    ServiceID = 2
	ServiceWorld   ServiceID = 4
	ServiceClient  ServiceID = 5
)

var serviceNames = map[ServiceID]string{
	ServiceGeneral: "General",
	ServiceAuth:    "Auth",
	ServiceChat:    "Chat",
	ServiceWorld:   "World",
	ServiceClient:  "Client",
}

func (s ServiceID) String() string {
	if name, ok := serviceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ServiceID(%d)", uint32(s))
}

// ParseServiceID maps a case-insensitive service name from the config to its ServiceID.
func ParseServiceID(name string) (ServiceID, error) {
	for id, n := range serviceNames {
		if strings.EqualFold(n, name) {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown service %q", name)
}

// GeneralHeader follows the UserPacketType byte on every LU packet.
type GeneralHeader struct {
	ConnectionType RemoteConnectionType
	PacketID       GeneralPacketID
	Padding        uint8
}

// Handshake is exchanged in both directions to agree on the protocol version and to
// declare which service each side is.
type Handshake struct {
	NetworkVersion uint32
	ServiceID      ServiceID
	ProcessID      uint32
	Port           uint16
}

func (Handshake) MessageID() MessageID { return UserPacketType }

const (
	handshakeMinSize = 7 + 4 + 4 + 4
	handshakeSize    = handshakeMinSize + 2 + 4 + 2 + 33
)

// handshakeLayout is the on-the-wire form of Handshake, header included.
type handshakeLayout struct {
	Header         GeneralHeader
	NetworkVersion uint32
	Padding1       [4]byte
	ServiceID      ServiceID
	Padding2       [2]byte
	ProcessID      uint32
	Port           uint16
	Padding3       [33]byte
}
