package transfer

import (
	"errors"
	"fmt"
	"io"

	"resync/internal/catalog"
	"resync/internal/logger"
	"resync/internal/processor"
	"resync/internal/protocol"

	"github.com/sirupsen/logrus"
)

// HandlerOptions configures a Handler
type HandlerOptions struct {
	ListCapacity int
	Log          *logrus.Entry
}

// Handler serves the requests of one session. Each session owns its own
// Handler; only the catalog is shared, and it is immutable.
type Handler struct {
	conn         io.ReadWriter
	catalog      *catalog.Catalog
	listCapacity int
	log          *logrus.Entry

	// name announced by UPLOAD, waiting for its METADATA
	pendingUpload string
}

// NewHandler creates a handler answering on conn
func NewHandler(conn io.ReadWriter, c *catalog.Catalog, opts HandlerOptions) *Handler {
	if opts.ListCapacity <= 0 {
		opts.ListCapacity = protocol.DefaultListCapacity
	}
	if opts.Log == nil {
		opts.Log = logger.WithFields(logrus.Fields{})
	}

	return &Handler{
		conn:         conn,
		catalog:      c,
		listCapacity: opts.ListCapacity,
		log:          opts.Log,
	}
}

// Handle processes one request. done reports that the peer asked to end
// the session; a non-nil error ends the session as well.
func (h *Handler) Handle(msg protocol.Message) (done bool, err error) {
	if h.pendingUpload != "" && msg.Operation != protocol.OpMetadata {
		h.log.Errorf("Expected METADATA for upload of %s, got %s", h.pendingUpload, msg.Operation)
		h.pendingUpload = ""
	}

	switch msg.Operation {
	case protocol.OpDownload:
		return false, h.sendFile(msg.Filename, msg.Offset)

	case protocol.OpUpload:
		return false, h.requestMetadata(msg.Filename)

	case protocol.OpRequestMetadata:
		h.log.Infof("Client requested metadata for %s at offset %d", msg.Filename, msg.Offset)
		return false, h.sendMetadata(msg.Filename, msg.Offset)

	case protocol.OpMetadata:
		h.pendingUpload = ""
		h.log.Infof("Received file metadata from client: %s, size: %d", msg.Filename, msg.FileSize)
		return false, h.receiveFile(msg.Filename, msg.FileSize)

	case protocol.OpListFiles:
		return false, h.sendList()

	case protocol.OpExit:
		h.log.Info("Client requested to close the connection.")
		return true, nil

	default:
		h.log.Errorf("Invalid operation received from client: %d", int32(msg.Operation))
		return false, nil
	}
}

// sendFile streams name from offset to its end, with no framing
func (h *Handler) sendFile(name string, offset int64) error {
	path, err := h.catalog.Resolve(name)
	if err != nil {
		return fmt.Errorf("%w: download of %q: %w", ErrInvalidRequest, name, err)
	}

	r, err := processor.OpenReader(path, offset)
	if err != nil {
		return fmt.Errorf("failed to open %s for download: %w", name, err)
	}
	defer r.Close()

	h.log.Infof("Sending file %s from offset %d (%d bytes)", name, offset, r.Remaining())

	buf := make([]byte, protocol.ChunkSize)
	var sent int64
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			if err := writeFull(h.conn, buf[:n]); err != nil {
				return fmt.Errorf("failed to send file data: %w", err)
			}
			sent += int64(n)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return readErr
		}
	}

	h.log.Infof("File %s sent: %d bytes", name, sent)
	return nil
}

// requestMetadata answers UPLOAD. The upload itself starts when METADATA arrives.
func (h *Handler) requestMetadata(name string) error {
	reply := protocol.Message{Operation: protocol.OpRequestMetadata, Filename: echo(name)}

	if _, err := h.catalog.Resolve(name); err != nil {
		h.log.Errorf("Rejecting upload: %v", err)
		reply.Status = protocol.StatusServerError
		return protocol.Send(h.conn, reply)
	}

	if err := protocol.Send(h.conn, reply); err != nil {
		return fmt.Errorf("failed to request metadata: %w", err)
	}
	h.pendingUpload = name
	return nil
}

// sendMetadata answers REQUEST_METADATA with the file's size and, for a
// resume offset, the hash of the chunk ending there
func (h *Handler) sendMetadata(name string, offset int64) error {
	reply := protocol.Message{Operation: protocol.OpMetadata, Filename: echo(name)}

	info, err := h.catalog.Stat(name)
	switch {
	case err != nil:
		h.log.Infof("File not found: %s (%v)", name, err)
		reply.Status = protocol.StatusNotFound

	case offset == 0:
		reply.Status = protocol.StatusFound
		reply.FileSize = info.Size()

	default:
		reply.FileSize = info.Size()
		path, _ := h.catalog.Resolve(name)
		hash, err := protocol.ChunkHash(path, offset)
		if err != nil {
			h.log.Errorf("Failed to hash %s at offset %d: %v", name, offset, err)
			reply.Status = protocol.StatusServerError
			break
		}
		reply.Status = protocol.StatusVerify
		reply.Hash = hash
	}

	if err := protocol.Send(h.conn, reply); err != nil {
		return fmt.Errorf("failed to send metadata: %w", err)
	}
	return nil
}

// receiveFile reads exactly size bytes into name, replacing any existing copy
func (h *Handler) receiveFile(name string, size int64) error {
	if size < 0 {
		return fmt.Errorf("%w: negative file size %d for %s", ErrInvalidRequest, size, name)
	}

	path, err := h.catalog.Resolve(name)
	if err != nil {
		h.log.Errorf("Discarding upload: %v", err)
		return processor.Drain(h.conn, size)
	}

	w, err := processor.CreateWriter(path)
	if err != nil {
		h.log.Errorf("Discarding upload of %s: %v", name, err)
		return processor.Drain(h.conn, size)
	}

	buf := make([]byte, protocol.ChunkSize)
	var received int64
	for received < size {
		n, readErr := h.conn.Read(buf[:min(int64(len(buf)), size-received)])
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				w.Finish()
				// keep the session in frame even though the file is lost
				if drainErr := processor.Drain(h.conn, size-received-int64(n)); drainErr != nil {
					return drainErr
				}
				h.log.Errorf("Failed to store upload of %s: %v", name, err)
				return nil
			}
			received += int64(n)
			h.log.Debugf("Received %d of %d bytes", received, size)
		}
		if readErr != nil {
			w.Finish()
			if errors.Is(readErr, io.EOF) {
				return fmt.Errorf("%w: %s at %d of %d bytes", ErrIncompleteTransfer, name, received, size)
			}
			return fmt.Errorf("failed to receive file data: %w", readErr)
		}
	}

	if _, err := w.Finish(); err != nil {
		return err
	}
	h.log.Infof("File %s received successfully: %d bytes", name, received)
	return nil
}

// sendList writes the listing as raw text
func (h *Handler) sendList() error {
	listing, err := h.catalog.Listing(h.listCapacity)
	if err != nil {
		h.log.Errorf("Error opening shared directory: %v", err)
	}
	if err := writeFull(h.conn, []byte(listing)); err != nil {
		return fmt.Errorf("failed to send file list: %w", err)
	}
	return nil
}

// writeFull retries short writes until p is fully written
func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

// echo returns name if it fits back into a reply frame
func echo(name string) string {
	if len(name) >= protocol.MaxFilename {
		return ""
	}
	return name
}
