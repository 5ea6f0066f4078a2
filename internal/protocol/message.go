package protocol

import "fmt"

const (
	// ChunkSize is the unit for streaming and for hash boundaries. Both endpoints must agree.
	ChunkSize = 1024

	// MaxFilename is the width of the filename buffer on the wire, terminator included
	MaxFilename = 256

	// HashSize is the width of the hash buffer: 64 hex chars plus terminator
	HashSize = 65

	// DefaultListCapacity caps the raw LIST_FILES response
	DefaultListCapacity = 1024
)

// Operation identifies the request or reply carried by a Message
type Operation int32

const (
	OpDownload        Operation = 1
	OpUpload          Operation = 2
	OpListFiles       Operation = 3
	OpRequestMetadata Operation = 4
	OpMetadata        Operation = 5
	OpExit            Operation = 6
)

// String returns the string representation of Operation
func (o Operation) String() string {
	switch o {
	case OpDownload:
		return "DOWNLOAD"
	case OpUpload:
		return "UPLOAD"
	case OpListFiles:
		return "LIST_FILES"
	case OpRequestMetadata:
		return "REQUEST_METADATA"
	case OpMetadata:
		return "METADATA"
	case OpExit:
		return "EXIT"
	default:
		return fmt.Sprintf("Operation(%d)", int32(o))
	}
}

// Status is set on replies only; receivers ignore it on requests
type Status int32

const (
	StatusNone        Status = 0
	StatusFound       Status = 100
	StatusNotFound    Status = 101
	StatusUnchanged   Status = 102
	StatusChanged     Status = 103
	StatusVerify      Status = 104
	StatusServerError Status = 105
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusNone:
		return "NONE"
	case StatusFound:
		return "FOUND"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusUnchanged:
		return "UNCHANGED"
	case StatusChanged:
		return "CHANGED"
	case StatusVerify:
		return "VERIFY"
	case StatusServerError:
		return "SERVER_ERROR"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// Message is the fixed-size unit exchanged on the wire
type Message struct {
	Operation Operation
	Status    Status
	Filename  string
	Offset    int64 // byte offset, chunk aligned when used for resume
	FileSize  int64
	Hash      string // lowercase hex SHA-256, empty when unused
}
