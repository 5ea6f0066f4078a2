package transfer

import "errors"

var (
	ErrFileNotFound       = errors.New("file not found on server")
	ErrIncompleteTransfer = errors.New("connection ended before all bytes arrived")
	ErrRejected           = errors.New("request rejected by server")
	ErrUnexpectedReply    = errors.New("unexpected reply from peer")
	ErrInvalidRequest     = errors.New("invalid request from peer")

	// ErrConnectionAborted marks failures after which the client dropped the
	// connection because the peer could no longer be kept in frame
	ErrConnectionAborted = errors.New("connection aborted")
)
