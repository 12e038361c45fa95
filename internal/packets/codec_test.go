package packets

import (
	"errors"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want []byte
	}{
		{
			name: "internal ping",
			msg:  InternalPing{SendTime: 0x0102030405060708},
			want: []byte{0x00, 0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01},
		},
		{
			name: "connected pong",
			msg:  ConnectedPong{PingSendTime: 42},
			want: []byte{0x03, 42, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name: "connection request",
			msg:  ConnectionRequest{Password: []byte("3.25 ND1")},
			want: append([]byte{0x04}, "3.25 ND1"...),
		},
		{
			name: "connection request accepted",
			msg: ConnectionRequestAccepted{
				PeerAddr:  SystemAddress{IP: [4]byte{10, 0, 0, 2}, Port: 0x1234},
				LocalAddr: SystemAddress{IP: [4]byte{10, 0, 0, 1}, Port: 1001},
			},
			want: []byte{0x0e, 10, 0, 0, 2, 0x34, 0x12, 0, 0, 10, 0, 0, 1, 0xe9, 0x03},
		},
		{
			name: "disconnection notification",
			msg:  DisconnectionNotification{},
			want: []byte{0x13},
		},
		{
			name: "unknown",
			msg:  Unknown{ID: 0x7f, Payload: []byte{1, 2}},
			want: []byte{0x7f, 1, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.msg)
			if err != nil {
				t.Fatalf("Encode() returned an unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Encode() generated the wrong payload; diff:\n%s", diff)
			}
		})
	}
}

func TestEncode_Handshake(t *testing.T) {
	got, err := Encode(&Handshake{NetworkVersion: 171022, ServiceID: ServiceAuth, ProcessID: 7, Port: 1001})
	if err != nil {
		t.Fatalf("Encode() returned an unexpected error: %v", err)
	}

	if len(got) != 1+handshakeSize {
		t.Fatalf("expected a %d byte payload, got %d", 1+handshakeSize, len(got))
	}
	wantPrefix := []byte{
		0x53,                   // UserPacket
		0x00, 0x00,             // general connection
		0x00, 0x00, 0x00, 0x00, // handshake packet id
		0x00,                   // padding
		0x0e, 0x9c, 0x02, 0x00, // network version
		0x00, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00, // service id
		0x00, 0x00,
		0x07, 0x00, 0x00, 0x00, // process id
		0xe9, 0x03, // port
	}
	if diff := cmp.Diff(wantPrefix, got[:len(wantPrefix)]); diff != "" {
		t.Errorf("Encode() generated the wrong handshake; diff:\n%s", diff)
	}
	for i, b := range got[len(wantPrefix):] {
		if b != 0 {
			t.Fatalf("expected zero padding, got 0x%02x at offset %d", b, len(wantPrefix)+i)
		}
	}
}

func TestEncode_Nil(t *testing.T) {
	if _, err := Encode(nil); err == nil {
		t.Error("expected an error encoding a nil message")
	}
}

// variableMessage has a field with no fixed-size wire encoding.
type variableMessage struct {
	Name string
}

func (variableMessage) MessageID() MessageID { return 0x7e }

func TestEncode_UnsupportedField(t *testing.T) {
	got, err := Encode(variableMessage{Name: "luserv"})
	if err == nil {
		t.Fatalf("expected an error encoding a string field, got payload %v", got)
	}
	if got != nil {
		t.Errorf("expected no payload alongside the error, got %v", got)
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	messages := []Message{
		InternalPing{SendTime: 1234567890},
		ConnectedPong{PingSendTime: 1234567890},
		ConnectionRequest{Password: []byte("3.25 ND1")},
		ConnectionRequestAccepted{
			PeerAddr:  NewSystemAddress(net.IPv4(192, 168, 1, 20), 60000),
			LocalAddr: NewSystemAddress(net.IPv4(192, 168, 1, 1), 1001),
		},
		NewIncomingConnection{
			PeerAddr:  NewSystemAddress(net.IPv4(192, 168, 1, 1), 1001),
			LocalAddr: NewSystemAddress(net.IPv4(192, 168, 1, 20), 60000),
		},
		DisconnectionNotification{},
		Handshake{NetworkVersion: NetworkVersion, ServiceID: ServiceClient, ProcessID: 99, Port: 2002},
		Unknown{ID: 0x7f, Payload: []byte{0xaa}},
	}

	for _, msg := range messages {
		t.Run(Name(msg), func(t *testing.T) {
			data, err := Encode(msg)
			if err != nil {
				t.Fatalf("Encode() returned an unexpected error: %v", err)
			}
			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode() returned an unexpected error: %v", err)
			}
			if diff := cmp.Diff(msg, got); diff != "" {
				t.Errorf("Decode() did not reverse Encode(); diff:\n%s", diff)
			}
		})
	}
}

func TestDecode_ShortHandshake(t *testing.T) {
	full, _ := Encode(Handshake{NetworkVersion: NetworkVersion, ServiceID: ServiceClient, ProcessID: 5, Port: 7})

	// Everything after the service id may be left off.
	got, err := Decode(full[:1+handshakeMinSize])
	if err != nil {
		t.Fatalf("Decode() returned an unexpected error: %v", err)
	}
	want := Handshake{NetworkVersion: NetworkVersion, ServiceID: ServiceClient}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode() parsed the wrong handshake; diff:\n%s", diff)
	}

	if _, err := Decode(full[:handshakeMinSize]); !errors.Is(err, ErrShortPacket) {
		t.Errorf("expected ErrShortPacket for a truncated handshake, got %v", err)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := map[string][]byte{
		"empty":                      nil,
		"ping without timestamp":     {0x00, 0x01, 0x02},
		"pong without timestamp":     {0x03},
		"accepted without addresses": {0x0e, 127, 0, 0, 1},
		"user packet without header": {0x53, 0x00},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(data); !errors.Is(err, ErrShortPacket) {
				t.Errorf("Decode() error = %v, want ErrShortPacket", err)
			}
		})
	}
}

func TestDecode_OtherUserPacket(t *testing.T) {
	// An auth login request: a user packet that is not a handshake.
	data := []byte{0x53, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xde, 0xad}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() returned an unexpected error: %v", err)
	}
	want := Unknown{ID: UserPacketType, Payload: data[1:]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode() returned the wrong message; diff:\n%s", diff)
	}
}

func TestParseServiceID(t *testing.T) {
	tests := map[string]struct {
		want    ServiceID
		wantErr bool
	}{
		"auth":    {want: ServiceAuth},
		"Chat":    {want: ServiceChat},
		"WORLD":   {want: ServiceWorld},
		"general": {want: ServiceGeneral},
		"client":  {want: ServiceClient},
		"patch":   {wantErr: true},
		"":        {wantErr: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseServiceID(name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseServiceID(%q) error = %v, wantErr %v", name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseServiceID(%q) = %v, want %v", name, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		msg  Message
		want string
	}{
		{msg: InternalPing{}, want: "InternalPing"},
		{msg: Handshake{}, want: "Handshake"},
		{msg: &Handshake{}, want: "Handshake"},
		{msg: Unknown{ID: UserPacketType}, want: "UserPacket"},
		{msg: Unknown{ID: 0x7f}, want: "Unknown(0x7f)"},
	}
	for _, tt := range tests {
		if got := Name(tt.msg); got != tt.want {
			t.Errorf("Name(%#v) = %s, want %s", tt.msg, got, tt.want)
		}
	}
}
