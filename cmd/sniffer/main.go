// The sniffer captures the TCP traffic of a running server and prints every message
// exchanged during connection setup, decoded the same way the server decodes it.
//
// Usage:
//
//	sniffer -d lo -p 1001
//	sniffer -r capture.pcap -p 1001 -v
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/sirupsen/logrus"
)

var (
	device  = flag.String("d", "lo", "Device on which to listen for packets")
	file    = flag.String("r", "", "Read packets from a pcap file instead of a device")
	port    = flag.Uint("p", 1001, "Server port to follow")
	verbose = flag.Bool("v", false, "Dump the full contents of each message")
)

func main() {
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "15:04:05.000",
		FullTimestamp:   true,
		DisableSorting:  true,
	})
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if *port == 0 || *port > math.MaxUint16 {
		exit("invalid port: %d", *port)
	}

	handle, err := openHandle()
	if err != nil {
		exit("error opening handle: %v", err)
	}
	defer handle.Close()

	if err := handle.SetBPFFilter(fmt.Sprintf("tcp and port %d", *port)); err != nil {
		exit("error setting filter: %v", err)
	}

	s := newSniffer(logger, layers.TCPPort(*port))
	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range packetSource.Packets() {
		s.handlePacket(packet)
	}
}

func openHandle() (*pcap.Handle, error) {
	if *file != "" {
		return pcap.OpenOffline(*file)
	}
	if !deviceExists(*device) {
		return nil, fmt.Errorf("invalid device: %s", *device)
	}
	return pcap.OpenLive(*device, math.MaxInt32, false, pcap.BlockForever)
}

func deviceExists(name string) bool {
	devs, _ := pcap.FindAllDevs()
	for _, dev := range devs {
		if dev.Name == name {
			return true
		}
	}
	return false
}

func exit(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}
