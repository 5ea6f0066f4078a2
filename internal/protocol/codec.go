package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

// FrameSize is the number of bytes every Message occupies on the wire
const FrameSize = 360

// wireMessage mirrors the in-memory layout of the reference peer on 64-bit hosts.
// Blank fields are the compiler padding of that layout and are always zero.
type wireMessage struct {
	Operation      int32
	Status         int32
	FilenameLength int32
	_              [4]byte
	Offset         int64
	Filename       [MaxFilename]byte
	FileSize       int64
	Hash           [HashSize]byte
	_              [7]byte
}

// Numeric fields travel in host byte order; endpoints are assumed compatible.
var byteOrder = binary.NativeEndian

// MarshalBinary encodes the message into exactly FrameSize bytes
func (m Message) MarshalBinary() ([]byte, error) {
	if len(m.Filename) > MaxFilename-1 {
		return nil, fmt.Errorf("%w: %d bytes", ErrFilenameTooLong, len(m.Filename))
	}
	if strings.IndexByte(m.Filename, 0) >= 0 {
		return nil, ErrInvalidFilename
	}
	if len(m.Hash) > HashSize-1 {
		return nil, fmt.Errorf("%w: %d bytes", ErrHashTooLong, len(m.Hash))
	}

	w := wireMessage{
		Operation:      int32(m.Operation),
		Status:         int32(m.Status),
		FilenameLength: int32(len(m.Filename)),
		Offset:         m.Offset,
		FileSize:       m.FileSize,
	}
	copy(w.Filename[:], m.Filename)
	copy(w.Hash[:], m.Hash)

	frame := make([]byte, FrameSize)
	if _, err := binary.Encode(frame, byteOrder, &w); err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return frame, nil
}

// UnmarshalBinary decodes a complete frame. Anything but FrameSize bytes is rejected.
func (m *Message) UnmarshalBinary(data []byte) error {
	if len(data) != FrameSize {
		return fmt.Errorf("%w: got %d of %d bytes", ErrShortIO, len(data), FrameSize)
	}

	var w wireMessage
	if _, err := binary.Decode(data, byteOrder, &w); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}

	*m = Message{
		Operation: Operation(w.Operation),
		Status:    Status(w.Status),
		Filename:  cString(w.Filename[:]),
		Offset:    w.Offset,
		FileSize:  w.FileSize,
		Hash:      cString(w.Hash[:]),
	}
	return nil
}

// Send writes the whole frame in a single write
func Send(w io.Writer, msg Message) error {
	frame, err := msg.MarshalBinary()
	if err != nil {
		return err
	}

	n, err := w.Write(frame)
	if n < FrameSize {
		if err == nil {
			err = io.ErrShortWrite
		}
		return fmt.Errorf("%w: sent %d of %d bytes of %s: %w", ErrShortIO, n, FrameSize, msg.Operation, err)
	}
	if err != nil {
		return fmt.Errorf("failed to send %s: %w", msg.Operation, err)
	}
	return nil
}

// Receive reads exactly one frame. A peer that closes between frames yields
// ErrConnectionClosed; one that closes inside a frame yields ErrShortIO.
func Receive(r io.Reader) (Message, error) {
	frame := make([]byte, FrameSize)

	n, err := io.ReadFull(r, frame)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		return Message{}, fmt.Errorf("%w: %w", ErrConnectionClosed, err)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return Message{}, fmt.Errorf("%w: received %d of %d bytes", ErrShortIO, n, FrameSize)
	default:
		return Message{}, fmt.Errorf("failed to receive message: %w", err)
	}

	var msg Message
	if err := msg.UnmarshalBinary(frame); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// cString treats buf as a NUL-terminated string that may fill the whole buffer
func cString(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return string(buf[:i])
	}
	return string(buf)
}
