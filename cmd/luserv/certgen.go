package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/luserv/luserv/internal/security"
)

const (
	certificateFilename = "cert.pem"
	privateKeyFilename  = "key.pem"
	certificateValidFor = 10 * 365 * 24 * time.Hour
)

var certgenCmd = &cobra.Command{
	Use:   "certgen",
	Short: "Generates a self-signed certificate and PKCS#8 key for the [tls] section",
	Run:   CertgenCommand,
}

var (
	IPFlag     string
	OutputFlag string
)

func CertgenCommand(cmd *cobra.Command, args []string) {
	var addresses []string
	if IPFlag == "" {
		// Read in a list of IPs until a blank line.
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("server IP: ")
			if !scanner.Scan() || scanner.Text() == "" {
				break
			}
			addresses = append(addresses, scanner.Text())
		}
	} else {
		addresses = strings.Split(IPFlag, ",")
	}

	ips := make([]net.IP, 0, len(addresses))
	for _, a := range addresses {
		ip := net.ParseIP(strings.TrimSpace(a))
		if ip == nil {
			exit("invalid IP address:", a)
		}
		ips = append(ips, ip)
	}

	certPEM, keyPEM, err := security.GenerateSelfSigned(ips, certificateValidFor)
	if err != nil {
		exit("error generating certificate:", err)
	}

	outDir := OutputFlag
	if outDir == "" {
		outDir = configDir()
	}
	writePEM(filepath.Join(outDir, certificateFilename), certPEM, 0644)
	writePEM(filepath.Join(outDir, privateKeyFilename), keyPEM, 0600)

	fmt.Printf("\nDone! Wrote %s and %s to %s. Set tls.enabled = true in config.toml to use them.\n",
		certificateFilename, privateKeyFilename, outDir)
}

func writePEM(path string, data []byte, perm os.FileMode) {
	if err := os.WriteFile(path, data, perm); err != nil {
		exit("error writing", path+":", err)
	}
	fmt.Println("wrote", path)
}
