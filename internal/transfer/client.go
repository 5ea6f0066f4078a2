package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"resync/internal/catalog"
	"resync/internal/logger"
	"resync/internal/netx"
	"resync/internal/processor"
	"resync/internal/protocol"
)

// Options configures a Client
type Options struct {
	Dir          string // local directory downloads land in and uploads come from
	ListCapacity int
	Progress     ProgressReporter
	DialTimeout  time.Duration
	IOTimeout    time.Duration
}

// TransferState is the client's view of one download
type TransferState struct {
	LocalOffset int64 // chunk-aligned point the download started from
	TotalSize   int64 // size announced by the server
	Verified    bool  // the boundary chunk before LocalOffset matched
}

// Result describes a finished download
type Result struct {
	State    TransferState
	Decision protocol.Status // FOUND, UNCHANGED, CHANGED, SERVER_ERROR or NOT_FOUND
	Received int64           // bytes received over the wire
}

// Client drives one connection to a server. It is not safe for concurrent use.
type Client struct {
	conn  net.Conn
	local *catalog.Catalog
	opts  Options
}

// Dial connects to addr
func Dial(ctx context.Context, addr string, opts Options) (*Client, error) {
	dialer := net.Dialer{Timeout: opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	logger.Infof("Connected to server %s", addr)
	return NewClient(conn, opts), nil
}

// NewClient wraps an established connection
func NewClient(conn net.Conn, opts Options) *Client {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.ListCapacity <= 0 {
		opts.ListCapacity = protocol.DefaultListCapacity
	}
	if opts.Progress == nil {
		opts.Progress = nopProgress{}
	}

	return &Client{
		conn:  netx.WithTimeout(conn, opts.IOTimeout),
		local: catalog.New(opts.Dir),
		opts:  opts,
	}
}

// List asks the server for its file listing. The reply is raw text read in
// a single receive of at most ListCapacity bytes.
func (c *Client) List(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stop := context.AfterFunc(ctx, c.abort)
	defer stop()

	listing, err := c.list()
	return listing, interrupted(ctx, err)
}

func (c *Client) list() (string, error) {
	if err := protocol.Send(c.conn, protocol.Message{Operation: protocol.OpListFiles}); err != nil {
		return "", fmt.Errorf("failed to request file list: %w", err)
	}

	buf := make([]byte, c.opts.ListCapacity)
	n, err := c.conn.Read(buf)
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to receive file list: %w", protocol.ErrConnectionClosed)
		}
		return "", fmt.Errorf("failed to receive file list: %w", err)
	}
	return string(buf[:n]), nil
}

// Download fetches name into the local directory, resuming from the existing
// local copy when its boundary chunk matches the server's.
func (c *Client) Download(ctx context.Context, name string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, c.abort)
	defer stop()

	result, err := c.download(name)
	return result, interrupted(ctx, err)
}

func (c *Client) download(name string) (*Result, error) {
	localPath, err := c.local.Resolve(name)
	if err != nil {
		return nil, err
	}

	result := &Result{State: TransferState{LocalOffset: probe(localPath)}}
	state := &result.State

	err = protocol.Send(c.conn, protocol.Message{
		Operation: protocol.OpRequestMetadata,
		Filename:  name,
		Offset:    state.LocalOffset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request metadata: %w", err)
	}

	reply, err := protocol.Receive(c.conn)
	if err != nil {
		return nil, fmt.Errorf("failed to receive metadata: %w", err)
	}
	if reply.Operation != protocol.OpMetadata {
		return nil, fmt.Errorf("%w: %s in response to REQUEST_METADATA", ErrUnexpectedReply, reply.Operation)
	}

	result.Decision = decide(reply, localPath, state)
	logger.Infof("Metadata for %s: status %s, size %d, local offset %d, decision %s",
		name, reply.Status, reply.FileSize, state.LocalOffset, result.Decision)

	switch result.Decision {
	case protocol.StatusNotFound:
		return result, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	case protocol.StatusFound, protocol.StatusUnchanged, protocol.StatusChanged, protocol.StatusServerError:
	default:
		return result, fmt.Errorf("%w: metadata status %s", ErrUnexpectedReply, reply.Status)
	}

	result.Received, err = c.fetch(name, localPath, *state)
	if err != nil {
		return result, err
	}

	logger.Infof("Download complete for '%s': %d bytes received, %d total", name, result.Received, state.TotalSize)
	return result, nil
}

// probe returns the chunk-aligned size of an existing local copy, or 0
func probe(path string) int64 {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return 0
	}
	return alignDown(info.Size())
}

func alignDown(size int64) int64 {
	return size - size%protocol.ChunkSize
}

// decide turns the server's metadata reply into a resume decision and fixes
// the offset the fetch starts from
func decide(reply protocol.Message, localPath string, state *TransferState) protocol.Status {
	state.TotalSize = reply.FileSize

	switch reply.Status {
	case protocol.StatusNotFound:
		state.LocalOffset = 0
		return protocol.StatusNotFound

	case protocol.StatusFound:
		state.LocalOffset = 0
		return protocol.StatusFound

	case protocol.StatusVerify:
		hash, err := protocol.ChunkHash(localPath, state.LocalOffset)
		if err != nil {
			logger.Errorf("Failed to hash local chunk, restarting %s: %v", localPath, err)
			state.LocalOffset = 0
			return protocol.StatusChanged
		}
		if hash != reply.Hash {
			logger.Infof("Boundary chunk of %s changed, restarting from 0", localPath)
			state.LocalOffset = 0
			return protocol.StatusChanged
		}
		state.Verified = true
		return protocol.StatusUnchanged

	case protocol.StatusServerError:
		logger.Errorf("Server could not verify %s, restarting from 0", localPath)
		state.LocalOffset = 0
		return protocol.StatusServerError

	default:
		return reply.Status
	}
}

// fetch requests the bytes from state.LocalOffset on and writes them locally
func (c *Client) fetch(name, localPath string, state TransferState) (int64, error) {
	var (
		w   *processor.FileWriter
		err error
	)
	// the file is opened before DOWNLOAD goes out so a local failure never
	// leaves unread file bytes on the connection
	if state.LocalOffset > 0 {
		w, err = processor.ResumeWriter(localPath, state.LocalOffset)
	} else {
		w, err = processor.CreateWriter(localPath)
	}
	if err != nil {
		return 0, err
	}

	err = protocol.Send(c.conn, protocol.Message{
		Operation: protocol.OpDownload,
		Filename:  name,
		Offset:    state.LocalOffset,
	})
	if err != nil {
		w.Finish()
		return 0, fmt.Errorf("failed to request download: %w", err)
	}

	c.opts.Progress.Start("Downloading", name, state.TotalSize, state.LocalOffset)
	defer c.opts.Progress.Finish()

	buf := make([]byte, protocol.ChunkSize)
	done := state.LocalOffset
	for done < state.TotalSize {
		want := min(int64(len(buf)), state.TotalSize-done)
		n, readErr := c.conn.Read(buf[:want])
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				// the rest of the file is still in flight
				w.Finish()
				return w.Written(), c.fail(err)
			}
			done += int64(n)
			c.opts.Progress.Update(done)
		}
		if readErr != nil {
			w.Finish()
			if errors.Is(readErr, io.EOF) {
				return w.Written(), fmt.Errorf("%w: %s at %d of %d bytes", ErrIncompleteTransfer, name, done, state.TotalSize)
			}
			return w.Written(), fmt.Errorf("failed to receive file data: %w", readErr)
		}
	}

	return w.Finish()
}

// Upload sends name from the local directory, replacing the server's copy
func (c *Client) Upload(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, c.abort)
	defer stop()

	return interrupted(ctx, c.upload(name))
}

func (c *Client) upload(name string) error {
	// only regular files go out; anything else would fail after METADATA
	if _, err := c.local.Stat(name); err != nil {
		logger.Errorf("Cannot upload %s: %v", name, err)
		return err
	}
	path, err := c.local.Resolve(name)
	if err != nil {
		return err
	}

	r, err := processor.OpenReader(path, 0)
	if err != nil {
		logger.Errorf("Error opening file for upload: %s", name)
		return err
	}
	defer r.Close()

	if err := protocol.Send(c.conn, protocol.Message{Operation: protocol.OpUpload, Filename: name}); err != nil {
		return fmt.Errorf("failed to send upload request: %w", err)
	}

	reply, err := protocol.Receive(c.conn)
	if err != nil {
		return fmt.Errorf("failed to receive metadata request: %w", err)
	}
	if reply.Operation != protocol.OpRequestMetadata {
		return fmt.Errorf("%w: %s in response to UPLOAD", ErrUnexpectedReply, reply.Operation)
	}
	if reply.Status == protocol.StatusServerError {
		return fmt.Errorf("%w: upload of %s", ErrRejected, name)
	}

	size := r.Size()
	err = protocol.Send(c.conn, protocol.Message{Operation: protocol.OpMetadata, Filename: name, FileSize: size})
	if err != nil {
		return fmt.Errorf("failed to send metadata: %w", err)
	}
	logger.Infof("Sent metadata for file: %s, size: %d bytes", name, size)

	c.opts.Progress.Start("Uploading", name, size, 0)
	defer c.opts.Progress.Finish()

	buf := make([]byte, protocol.ChunkSize)
	var sent int64
	for sent < size {
		n, readErr := r.Read(buf[:min(int64(len(buf)), size-sent)])
		if n > 0 {
			if _, err := c.conn.Write(buf[:n]); err != nil {
				return fmt.Errorf("failed to send file data: %w", err)
			}
			sent += int64(n)
			c.opts.Progress.Update(sent)
			logger.Debugf("Uploaded %d bytes of file '%s'", n, name)
		}
		if readErr != nil {
			// the server still expects the announced size; the session
			// cannot be put back in frame
			if errors.Is(readErr, io.EOF) {
				return c.fail(fmt.Errorf("%w: %s shrank to %d of %d bytes", ErrIncompleteTransfer, name, sent, size))
			}
			return c.fail(readErr)
		}
	}

	logger.Infof("File upload complete for '%s'", name)
	return nil
}

// Close sends EXIT and closes the connection
func (c *Client) Close() error {
	if err := protocol.Send(c.conn, protocol.Message{Operation: protocol.OpExit}); err != nil {
		logger.Debugf("Failed to send exit request: %v", err)
	}
	if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func (c *Client) abort() {
	c.conn.Close()
}

// fail drops the connection and marks err as fatal to it
func (c *Client) fail(err error) error {
	c.abort()
	return fmt.Errorf("%w: %w", ErrConnectionAborted, err)
}

// interrupted attributes err to ctx when ctx ended the operation
func interrupted(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	return err
}
