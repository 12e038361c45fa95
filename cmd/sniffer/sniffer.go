package main

import (
	"encoding/binary"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/sirupsen/logrus"

	"github.com/luserv/luserv/internal/core/debug"
	"github.com/luserv/luserv/internal/packets"
)

const (
	frameHeaderSize = 4
	maxFrameSize    = 1 << 20
)

// One direction of one TCP connection.
type streamKey struct {
	network, transport gopacket.Flow
}

type sniffer struct {
	Logger logrus.FieldLogger
	// Port the server listens on; traffic sent to it came from a client.
	Port layers.TCPPort

	streams map[streamKey][]byte
	// Called with every message decoded from the capture.
	onMessage func(fromClient bool, msg packets.Message)
}

func newSniffer(logger logrus.FieldLogger, port layers.TCPPort) *sniffer {
	s := &sniffer{
		Logger:  logger,
		Port:    port,
		streams: make(map[streamKey][]byte),
	}
	s.onMessage = s.printMessage
	return s
}

func (s *sniffer) handlePacket(packet gopacket.Packet) {
	tcpLayer := packet.Layer(layers.LayerTypeTCP)
	if tcpLayer == nil || packet.NetworkLayer() == nil {
		return
	}
	tcp := tcpLayer.(*layers.TCP)
	key := streamKey{packet.NetworkLayer().NetworkFlow(), tcp.TransportFlow()}

	switch {
	case tcp.SYN:
		s.streams[key] = nil
	case tcp.FIN || tcp.RST:
		delete(s.streams, key)
		return
	}
	if len(tcp.Payload) == 0 {
		return
	}

	// Frames can span several segments and a segment can carry several frames, so
	// accumulate and peel off every complete frame.
	buf := append(s.streams[key], tcp.Payload...)
	fromClient := tcp.DstPort == s.Port
	for len(buf) >= frameHeaderSize {
		size := binary.LittleEndian.Uint32(buf)
		if size == 0 || size > maxFrameSize {
			s.Logger.Warnf("%v: invalid frame size %d, dropping %d buffered bytes", key.transport, size, len(buf))
			buf = nil
			break
		}
		if uint32(len(buf)-frameHeaderSize) < size {
			break
		}

		payload := buf[frameHeaderSize : frameHeaderSize+size]
		buf = buf[frameHeaderSize+size:]

		msg, err := packets.Decode(payload)
		if err != nil {
			s.Logger.Warnf("%v: %s", key.transport, err)
			continue
		}
		s.onMessage(fromClient, msg)
	}
	s.streams[key] = append([]byte(nil), buf...)
}

func (s *sniffer) printMessage(fromClient bool, msg packets.Message) {
	from := "server"
	if fromClient {
		from = "client"
	}
	s.Logger.WithField("from", from).Infof("%s", packets.Name(msg))
	debug.DumpMessage(s.Logger, from, msg)
}
