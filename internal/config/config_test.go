package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"resync/internal/protocol"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.NoError(t, cfg.ValidateServer())
	assert.NoError(t, cfg.ValidateClient())
	assert.Equal(t, protocol.DefaultListCapacity, cfg.Protocol.ListCapacity)
	assert.Equal(t, "log.txt", cfg.Log.File)
	assert.Zero(t, cfg.Server.MaxConnections)
	assert.Zero(t, cfg.Server.IOTimeout)
}

func TestLoadFromFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resync.yaml")
	content := `
server:
  port: 9090
  shared_dir: /srv/share
  io_timeout: 30s
client:
  host: files.local
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("RESYNC_CLIENT_PORT", "9191")

	v := viper.New()
	Configure(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/srv/share", cfg.Server.SharedDir)
	assert.Equal(t, 30*time.Second, cfg.Server.IOTimeout)
	assert.Equal(t, "files.local", cfg.Client.Host)
	assert.Equal(t, 9191, cfg.Client.Port)
	assert.Equal(t, 10*time.Second, cfg.Client.DialTimeout)
}

func TestValidateServer(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }, ErrInvalidPort},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, ErrInvalidPort},
		{"no shared dir", func(c *Config) { c.Server.SharedDir = "" }, ErrInvalidSharedDir},
		{"negative connections", func(c *Config) { c.Server.MaxConnections = -1 }, ErrInvalidMaxConnections},
		{"negative timeout", func(c *Config) { c.Server.IOTimeout = -time.Second }, ErrInvalidTimeout},
		{"zero list capacity", func(c *Config) { c.Protocol.ListCapacity = 0 }, ErrInvalidListCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.ValidateServer(), tt.want)
		})
	}
}

func TestValidateClient(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"no host", func(c *Config) { c.Client.Host = "" }, ErrInvalidHost},
		{"bad port", func(c *Config) { c.Client.Port = -5 }, ErrInvalidPort},
		{"no dest dir", func(c *Config) { c.Client.DestDir = "" }, ErrInvalidDestDir},
		{"negative dial timeout", func(c *Config) { c.Client.DialTimeout = -1 }, ErrInvalidTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.ValidateClient(), tt.want)
		})
	}
}
