package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/luserv/luserv/internal/packets"
)

// Config contains all of the configuration options available to the server and its tools.
type Config struct {
	DB DBConfig `mapstructure:"db"`

	TLS TLSConfig `mapstructure:"tls"`

	Server struct {
		// Address (host:port) on which the server accepts connections.
		Address string `mapstructure:"address"`
		// Service this server confirms in its handshake reply (auth, chat, world, ...).
		Service string `mapstructure:"service"`
		// Maximum number of concurrent connections the server will allow.
		MaxConnections int `mapstructure:"max_connections"`
		// Connections that have not completed the handshake by then are dropped.
		HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
		// How long an address whose handshake was rejected is refused before it may try
		// again. 0 (the default) disables the cool-down.
		RejectCooldown time.Duration `mapstructure:"reject_cooldown"`
		// Abort the process when a non-loopback IPv6 address reaches the connection
		// request handler. When false only the offending connection is closed.
		AbortOnIPv6 bool `mapstructure:"abort_on_ipv6"`
	} `mapstructure:"server"`

	Logging struct {
		// Minimum level of a log required to be written. Options: debug, info, warn, error
		Level string `mapstructure:"level"`
		// Full path to file to which logs will be written. Blank will write to stdout.
		FilePath string `mapstructure:"file_path"`
	} `mapstructure:"logging"`

	Debugging struct {
		PprofEnabled bool `mapstructure:"pprof_enabled"`
		PprofPort    int  `mapstructure:"pprof_port"`
		// Dump every decoded message to the log at debug level.
		PacketLoggingEnabled bool `mapstructure:"packet_logging_enabled"`
		// Enable database-level query logging.
		DatabaseLoggingEnabled bool `mapstructure:"database_logging_enabled"`
	} `mapstructure:"debugging"`

	// Directory the config file was read from; relative paths resolve against it.
	dir string
}

// DBConfig locates the database used for the connection audit log.
type DBConfig struct {
	// sqlite (default) or postgres.
	Engine string `mapstructure:"engine"`
	// File path for sqlite, DSN for postgres.
	Path string `mapstructure:"path"`
}

// TLSConfig holds the certificate and key used when transport security is enabled.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertPath string `mapstructure:"cert_path"`
	KeyPath  string `mapstructure:"key_path"`
}

const (
	envVarPrefix   = "LUSERV"
	configFileName = "config"
)

// DefaultConfigDir returns the directory containing the running executable, which is
// where config.toml is expected to live.
func DefaultConfigDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("program location unknown: %w", err)
	}
	return filepath.Dir(exe), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db.engine", "sqlite")
	v.SetDefault("tls.enabled", false)
	v.SetDefault("server.address", "0.0.0.0:1001")
	v.SetDefault("server.service", "auth")
	v.SetDefault("server.max_connections", 1000)
	v.SetDefault("server.handshake_timeout", 30*time.Second)
	v.SetDefault("server.reject_cooldown", time.Duration(0))
	v.SetDefault("server.abort_on_ipv6", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("debugging.pprof_port", 6060)
}

// LoadConfig reads config.toml from configDir, applies LUSERV_* environment overrides and
// validates the result.
func LoadConfig(configDir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(configDir)
	v.SetConfigName(configFileName)
	v.SetConfigType("toml")
	setDefaults(v)

	v.SetEnvPrefix(envVarPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("cannot open config file config.toml in %s", configDir)
		}
		return nil, fmt.Errorf("config file parsing error: %w", err)
	}

	// Nested keys need an explicit binding to be settable from the environment. For
	// example, db.path can be set using LUSERV_DB_PATH.
	for _, k := range v.AllKeys() {
		envVar := envVarPrefix + "_" + strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := v.BindEnv(k, envVar); err != nil {
			return nil, fmt.Errorf("error binding %s to %s: %w", k, envVar, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config object: %w", err)
	}
	config.dir = configDir

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the options that would otherwise only fail once the server is running.
func (c *Config) Validate() error {
	if c.DB.Path == "" {
		return errors.New("config: db.path is required")
	}
	switch strings.ToLower(c.DB.Engine) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported db.engine %q", c.DB.Engine)
	}
	if c.TLS.Enabled && (c.TLS.CertPath == "" || c.TLS.KeyPath == "") {
		return errors.New("config: tls.cert_path and tls.key_path are required when tls is enabled")
	}
	if c.Server.Address == "" {
		return errors.New("config: server.address is required")
	}
	if _, err := packets.ParseServiceID(c.Server.Service); err != nil {
		return fmt.Errorf("config: server.service: %w", err)
	}
	if c.Server.MaxConnections <= 0 {
		return fmt.Errorf("config: server.max_connections must be positive, got %d", c.Server.MaxConnections)
	}
	return nil
}

// QualifiedPath resolves a possibly relative path against the config directory.
func (c *Config) QualifiedPath(path string) string {
	if path == "" || filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}

// QualifiedTLS returns the TLS settings with file paths resolved against the config directory.
func (c *Config) QualifiedTLS() TLSConfig {
	t := c.TLS
	t.CertPath = c.QualifiedPath(t.CertPath)
	t.KeyPath = c.QualifiedPath(t.KeyPath)
	return t
}
