// Package packets defines the messages exchanged while a client connects and their
// little-endian wire layout.
package packets

import (
	"fmt"
	"net"
)

// MessageID is the first byte of every message payload.
type MessageID uint8

// RakNet message identifiers used during connection establishment.
const (
	InternalPingType              MessageID = 0x00
	ConnectedPongType             MessageID = 0x03
	ConnectionRequestType         MessageID = 0x04
	ConnectionRequestAcceptedType MessageID = 0x0e
	NewIncomingConnectionType     MessageID = 0x11
	DisconnectionNotificationType MessageID = 0x13
	// UserPacketType prefixes every LU (application) packet.
	UserPacketType MessageID = 0x53
)

var messageNames = map[MessageID]string{
	InternalPingType:              "InternalPing",
	ConnectedPongType:             "ConnectedPong",
	ConnectionRequestType:         "ConnectionRequest",
	ConnectionRequestAcceptedType: "ConnectionRequestAccepted",
	NewIncomingConnectionType:     "NewIncomingConnection",
	DisconnectionNotificationType: "DisconnectionNotification",
	UserPacketType:                "UserPacket",
}

func (id MessageID) String() string {
	if name, ok := messageNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%02x)", uint8(id))
}

// Message is implemented by every value Decode can produce and Encode can serialize.
type Message interface {
	MessageID() MessageID
}

// SystemAddress is the wire form of an IPv4 endpoint.
type SystemAddress struct {
	IP   [4]byte
	Port uint16
}

// NewSystemAddress builds a SystemAddress from a 4-byte IP. Callers are expected to have
// normalized ip to IPv4 already; anything else yields 0.0.0.0.
func NewSystemAddress(ip net.IP, port uint16) SystemAddress {
	var addr SystemAddress
	if v4 := ip.To4(); v4 != nil {
		copy(addr.IP[:], v4)
	}
	addr.Port = port
	return addr
}

func (a SystemAddress) String() string {
	return fmt.Sprintf("%d.%d.%d.%d:%d", a.IP[0], a.IP[1], a.IP[2], a.IP[3], a.Port)
}

// InternalPing is the client's liveness probe. SendTime is opaque to the server.
type InternalPing struct {
	SendTime uint64
}

func (InternalPing) MessageID() MessageID { return InternalPingType }

// ConnectedPong answers an InternalPing, echoing its timestamp.
type ConnectedPong struct {
	PingSendTime uint64
}

func (ConnectedPong) MessageID() MessageID { return ConnectedPongType }

// ConnectionRequest asks the server to accept the connection.
type ConnectionRequest struct {
	Password []byte
}

func (ConnectionRequest) MessageID() MessageID { return ConnectionRequestType }

// ConnectionRequestAccepted reports the addresses the server observed for the connection.
type ConnectionRequestAccepted struct {
	PeerAddr SystemAddress
	// Index of the peer in the server's system list; always 0.
	SystemIndex uint16
	LocalAddr   SystemAddress
}

func (ConnectionRequestAccepted) MessageID() MessageID { return ConnectionRequestAcceptedType }

// NewIncomingConnection is sent by the client once it has processed ConnectionRequestAccepted.
type NewIncomingConnection struct {
	PeerAddr  SystemAddress
	LocalAddr SystemAddress
}

func (NewIncomingConnection) MessageID() MessageID { return NewIncomingConnectionType }

// DisconnectionNotification announces that the sender is closing the connection.
type DisconnectionNotification struct{}

func (DisconnectionNotification) MessageID() MessageID { return DisconnectionNotificationType }

// Unknown carries any message this package has no type for.
type Unknown struct {
	ID      MessageID
	Payload []byte
}

func (u Unknown) MessageID() MessageID { return u.ID }

// Name returns a human readable name for msg, resolving LU packets to their own type.
func Name(msg Message) string {
	switch msg.(type) {
	case Handshake, *Handshake:
		return "Handshake"
	}
	return msg.MessageID().String()
}
