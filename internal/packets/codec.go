package packets

import (
	"errors"
	"fmt"

	"github.com/luserv/luserv/internal/core/bytes"
)

// ErrShortPacket is returned when a payload ends before its fixed-size fields do.
var ErrShortPacket = errors.New("packet too short")

// Encode serializes msg into a payload beginning with its MessageID.
func Encode(msg Message) ([]byte, error) {
	switch m := msg.(type) {
	case Handshake:
		return encodeHandshake(m)
	case *Handshake:
		return encodeHandshake(*m)
	case ConnectionRequest:
		return append([]byte{byte(ConnectionRequestType)}, m.Password...), nil
	case *ConnectionRequest:
		return append([]byte{byte(ConnectionRequestType)}, m.Password...), nil
	case Unknown:
		return append([]byte{byte(m.ID)}, m.Payload...), nil
	case *Unknown:
		return append([]byte{byte(m.ID)}, m.Payload...), nil
	case nil:
		return nil, errors.New("cannot encode nil message")
	}

	body, err := fixedBytes(msg)
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(msg.MessageID())}, body...), nil
}

// fixedBytes serializes v, turning the panic BytesFromStruct raises for a field without a
// fixed-size encoding into an error.
func fixedBytes(v interface{}) (body []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cannot encode %T: %v", v, r)
		}
	}()
	body, _ = bytes.BytesFromStruct(v)
	return body, nil
}

func encodeHandshake(h Handshake) ([]byte, error) {
	body, err := fixedBytes(&handshakeLayout{
		Header:         GeneralHeader{ConnectionType: GeneralConnection, PacketID: HandshakePacketID},
		NetworkVersion: h.NetworkVersion,
		ServiceID:      h.ServiceID,
		ProcessID:      h.ProcessID,
		Port:           h.Port,
	})
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(UserPacketType)}, body...), nil
}

// Decode parses a payload into its typed Message. Messages without a dedicated type
// are returned as Unknown rather than as an error.
func Decode(data []byte) (Message, error) {
	if len(data) == 0 {
		return nil, ErrShortPacket
	}

	id, body := MessageID(data[0]), data[1:]

	switch id {
	case InternalPingType:
		return decodeFixed[InternalPing](id, body)
	case ConnectedPongType:
		return decodeFixed[ConnectedPong](id, body)
	case ConnectionRequestType:
		return ConnectionRequest{Password: append([]byte(nil), body...)}, nil
	case ConnectionRequestAcceptedType:
		return decodeFixed[ConnectionRequestAccepted](id, body)
	case NewIncomingConnectionType:
		return decodeFixed[NewIncomingConnection](id, body)
	case DisconnectionNotificationType:
		return DisconnectionNotification{}, nil
	case UserPacketType:
		return decodeUserPacket(body)
	}
	return Unknown{ID: id, Payload: append([]byte(nil), body...)}, nil
}

func decodeFixed[T Message](id MessageID, body []byte) (Message, error) {
	var m T
	if err := decodeInto(id, body, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeUserPacket(body []byte) (Message, error) {
	var header GeneralHeader
	if err := decodeInto(UserPacketType, body, &header); err != nil {
		return nil, err
	}

	if header.ConnectionType != GeneralConnection || header.PacketID != HandshakePacketID {
		return Unknown{ID: UserPacketType, Payload: append([]byte(nil), body...)}, nil
	}

	// Clients may omit the trailing fields; everything up to the service id is required.
	if len(body) < handshakeMinSize {
		return nil, fmt.Errorf("decoding Handshake: %w: got %d bytes", ErrShortPacket, len(body))
	}
	full := make([]byte, handshakeSize)
	copy(full, body)

	var layout handshakeLayout
	if err := decodeInto(UserPacketType, full, &layout); err != nil {
		return nil, err
	}
	return Handshake{
		NetworkVersion: layout.NetworkVersion,
		ServiceID:      layout.ServiceID,
		ProcessID:      layout.ProcessID,
		Port:           layout.Port,
	}, nil
}

func decodeInto(id MessageID, body []byte, target interface{}) error {
	if err := bytes.StructFromBytes(body, target); err != nil {
		return fmt.Errorf("decoding %s: %w: %v", id, ErrShortPacket, err)
	}
	return nil
}
