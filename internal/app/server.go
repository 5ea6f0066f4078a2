package app

import (
	"context"
	"fmt"
	"io"

	"resync/internal/catalog"
	"resync/internal/config"
	"resync/internal/logger"
	"resync/internal/server"
	"resync/pkg/utils"
)

// ServerApp runs the file server until its context ends
type ServerApp struct {
	config *config.Config
	out    io.Writer
}

// NewServerApp creates a new server application; notices go to out
func NewServerApp(cfg *config.Config, out io.Writer) *ServerApp {
	return &ServerApp{config: cfg, out: out}
}

// Run serves the shared directory until ctx is cancelled
func (s *ServerApp) Run(ctx context.Context) error {
	root, err := utils.ResolveDirectory(s.config.Server.SharedDir)
	if err != nil {
		return fmt.Errorf("invalid shared directory: %w", err)
	}

	srv := server.New(s.config, catalog.New(root))

	fmt.Fprintf(s.out, "Server starting on port %d, sharing %s\n", s.config.Server.Port, root)
	if s.config.Server.MaxConnections > 0 {
		logger.Log(logger.LevelInfo, "Limiting to %d concurrent connections", s.config.Server.MaxConnections)
	}

	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}

	fmt.Fprintln(s.out, "Server stopped")
	return nil
}
