package protocol

import "errors"

var (
	ErrShortIO          = errors.New("short transfer of message frame")
	ErrConnectionClosed = errors.New("connection closed by peer")
	ErrFilenameTooLong  = errors.New("filename exceeds 255 bytes")
	ErrInvalidFilename  = errors.New("filename contains NUL byte")
	ErrHashTooLong      = errors.New("hash exceeds 64 characters")
	ErrInvalidOffset    = errors.New("offset is smaller than one chunk")
	ErrHashIO           = errors.New("cannot read boundary chunk")
)
