package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luserv/luserv/internal/core"
)

var ConfigFlag string

func main() {
	rootCmd := &cobra.Command{
		Use:   "luserv",
		Short: "LU connection server and related tools",
		Run:   ServerCommand,
	}
	rootCmd.PersistentFlags().StringVarP(&ConfigFlag, "config", "c", "", "Path to the directory containing config.toml (default: the executable's directory)")

	certgenCmd.Flags().StringVar(&IPFlag, "ip", "", "Comma-separated IPs the certificate is valid for")
	certgenCmd.Flags().StringVarP(&OutputFlag, "output", "o", "", "Directory to write cert.pem and key.pem to (default: the config directory)")

	connectionsCmd.Flags().IntVarP(&LimitFlag, "limit", "n", 20, "Maximum number of connections to list")
	connectionsCmd.Flags().StringVar(&OutcomeFlag, "outcome", "", "Only list connections with this outcome (handshaken, rejected, dropped)")

	rootCmd.AddCommand(certgenCmd)
	rootCmd.AddCommand(connectionsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// configDir returns the directory passed with --config, falling back to the
// directory containing the executable.
func configDir() string {
	if ConfigFlag != "" {
		return ConfigFlag
	}
	dir, err := core.DefaultConfigDir()
	if err != nil {
		exit("error locating config directory:", err)
	}
	return dir
}

func loadConfig() *core.Config {
	dir := configDir()
	cfg, err := core.LoadConfig(dir)
	if err != nil {
		exit("error loading config:", err)
	}
	return cfg
}

func exit(args ...interface{}) {
	fmt.Println(args...)
	os.Exit(1)
}
