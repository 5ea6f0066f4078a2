package netx

import (
	"net"
	"time"
)

// timeoutConn pushes the deadline forward before every read and write, so a
// peer that stalls for longer than timeout fails the blocked call
type timeoutConn struct {
	net.Conn
	timeout time.Duration
}

// WithTimeout wraps conn with a per-call I/O deadline. A zero timeout returns
// conn unchanged.
func WithTimeout(conn net.Conn, timeout time.Duration) net.Conn {
	if timeout <= 0 {
		return conn
	}
	return &timeoutConn{Conn: conn, timeout: timeout}
}

func (c *timeoutConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func (c *timeoutConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}
