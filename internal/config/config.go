package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"resync/internal/protocol"

	"github.com/spf13/viper"
)

var (
	ErrInvalidPort           = errors.New("port must be between 1 and 65535")
	ErrInvalidSharedDir      = errors.New("shared directory must be set")
	ErrInvalidDestDir        = errors.New("destination directory must be set")
	ErrInvalidHost           = errors.New("server host must be set")
	ErrInvalidMaxConnections = errors.New("max connections must not be negative")
	ErrInvalidTimeout        = errors.New("timeouts must not be negative")
	ErrInvalidListCapacity   = errors.New("list capacity must be greater than 0")
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Client   ClientConfig   `mapstructure:"client"`
	Protocol ProtocolConfig `mapstructure:"protocol"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds listener and shared directory settings
type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	Port           int           `mapstructure:"port"`
	SharedDir      string        `mapstructure:"shared_dir"`
	MaxConnections int           `mapstructure:"max_connections"` // 0 means unlimited
	IOTimeout      time.Duration `mapstructure:"io_timeout"`      // 0 means no deadline
}

// ClientConfig holds connection and download settings
type ClientConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	DestDir     string        `mapstructure:"dest_dir"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	IOTimeout   time.Duration `mapstructure:"io_timeout"`
}

// ProtocolConfig holds wire-level knobs both peers must agree on
type ProtocolConfig struct {
	ListCapacity int `mapstructure:"list_capacity"`
}

// LogConfig holds logger settings
type LogConfig struct {
	File    string `mapstructure:"file"`
	Verbose bool   `mapstructure:"verbose"`
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:   "",
			Port:      8080,
			SharedDir: ".",
		},
		Client: ClientConfig{
			Host:        "127.0.0.1",
			Port:        8080,
			DestDir:     ".",
			DialTimeout: 10 * time.Second,
		},
		Protocol: ProtocolConfig{
			ListCapacity: protocol.DefaultListCapacity,
		},
		Log: LogConfig{
			File: "log.txt",
		},
	}
}

// SetDefaults registers every default with v so env vars and config files
// can override individual keys
func SetDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shared_dir", d.Server.SharedDir)
	v.SetDefault("server.max_connections", d.Server.MaxConnections)
	v.SetDefault("server.io_timeout", d.Server.IOTimeout)

	v.SetDefault("client.host", d.Client.Host)
	v.SetDefault("client.port", d.Client.Port)
	v.SetDefault("client.dest_dir", d.Client.DestDir)
	v.SetDefault("client.dial_timeout", d.Client.DialTimeout)
	v.SetDefault("client.io_timeout", d.Client.IOTimeout)

	v.SetDefault("protocol.list_capacity", d.Protocol.ListCapacity)

	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.verbose", d.Log.Verbose)
}

// EnvPrefix prefixes every environment override, e.g. RESYNC_SERVER_PORT
const EnvPrefix = "RESYNC"

// Configure registers defaults and environment overrides on v
func Configure(v *viper.Viper) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes the settings held by v on top of the defaults
func Load(v *viper.Viper) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings shared by both roles
func (c *Config) Validate() error {
	if c.Protocol.ListCapacity <= 0 {
		return ErrInvalidListCapacity
	}
	return nil
}

// ValidateServer checks the settings needed to run the server
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}
	if c.Server.SharedDir == "" {
		return ErrInvalidSharedDir
	}
	if c.Server.MaxConnections < 0 {
		return ErrInvalidMaxConnections
	}
	if c.Server.IOTimeout < 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// ValidateClient checks the settings needed to run the client
func (c *Config) ValidateClient() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Client.Host == "" {
		return ErrInvalidHost
	}
	if c.Client.Port <= 0 || c.Client.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Client.Port)
	}
	if c.Client.DestDir == "" {
		return ErrInvalidDestDir
	}
	if c.Client.DialTimeout < 0 || c.Client.IOTimeout < 0 {
		return ErrInvalidTimeout
	}
	return nil
}
