package server

import (
	"context"
	"errors"
	"net"

	"resync/internal/logger"
	"resync/internal/netx"
	"resync/internal/protocol"
	"resync/internal/transfer"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// session owns one accepted connection and its request loop
type session struct {
	id      string
	conn    net.Conn
	handler *transfer.Handler
	log     *logrus.Entry
}

func (s *Server) newSession(conn net.Conn) *session {
	id := uuid.NewString()
	log := logger.WithFields(logrus.Fields{
		"session": id,
		"remote":  conn.RemoteAddr().String(),
	})

	wrapped := netx.WithTimeout(conn, s.ioTimeout)
	return &session{
		id:   id,
		conn: wrapped,
		log:  log,
		handler: transfer.NewHandler(wrapped, s.catalog, transfer.HandlerOptions{
			ListCapacity: s.listCapacity,
			Log:          log,
		}),
	}
}

// run reads and dispatches messages until EXIT, end of stream or an error.
// Cancelling ctx closes the connection.
func (ss *session) run(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { ss.conn.Close() })
	defer stop()
	defer func() {
		ss.conn.Close()
		ss.log.Info("Client connection closed.")
	}()

	ss.log.Info("Client connected")

	for {
		msg, err := protocol.Receive(ss.conn)
		if err != nil {
			switch {
			case errors.Is(err, protocol.ErrConnectionClosed):
				ss.log.Info("Client disconnected")
			case ctx.Err() != nil:
				ss.log.Info("Session stopped by server shutdown")
			default:
				ss.log.Errorf("Failed to receive message: %v", err)
			}
			return
		}

		ss.log.Debugf("Received %s for %q", msg.Operation, msg.Filename)

		done, err := ss.handler.Handle(msg)
		if err != nil {
			ss.log.Errorf("Session failed during %s: %v", msg.Operation, err)
			return
		}
		if done {
			return
		}
	}
}
