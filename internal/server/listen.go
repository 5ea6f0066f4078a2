package server

import (
	"context"
	"fmt"
	"net"
)

// Listen opens a TCP listener on addr with address and port reuse enabled
// where the platform supports it
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{Control: reuseControl}

	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return ln, nil
}
