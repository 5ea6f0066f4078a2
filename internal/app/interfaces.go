package app

import (
	"context"

	"resync/internal/transfer"
)

// FileClient is the connection-level API the client app drives
type FileClient interface {
	List(ctx context.Context) (string, error)
	Download(ctx context.Context, name string) (*transfer.Result, error)
	Upload(ctx context.Context, name string) error
	Close() error
}
